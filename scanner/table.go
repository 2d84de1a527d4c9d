package scanner

// table.go — Markdown tables for scan info, anchor reports and parsed fields.

import (
	"strings"
	"unicode/utf8"
)

const minColWidth = 3 // "---" is the shortest valid separator

// renderMarkdownTable renders rows as a GitHub-Flavored Markdown table. The
// first row is the header; short rows are padded with empty cells.
func renderMarkdownTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return ""
	}

	cells := make([][]string, len(rows))
	widths := make([]int, cols)
	for i := range widths {
		widths[i] = minColWidth
	}
	for r, row := range rows {
		cells[r] = make([]string, cols)
		for c := range cols {
			if c < len(row) {
				cells[r][c] = tableCell(row[c])
			}
			widths[c] = max(widths[c], utf8.RuneCountInString(cells[r][c]))
		}
	}

	var sb strings.Builder
	writeRow := func(row []string) {
		sb.WriteByte('|')
		for c, v := range row {
			sb.WriteString(" " + v + strings.Repeat(" ", widths[c]-utf8.RuneCountInString(v)) + " |")
		}
		sb.WriteByte('\n')
	}

	writeRow(cells[0])
	sep := make([]string, cols)
	for c := range sep {
		sep[c] = strings.Repeat("-", widths[c])
	}
	writeRow(sep)
	for _, row := range cells[1:] {
		writeRow(row)
	}
	return sb.String()
}

// tableCell escapes pipes and folds line breaks so a value stays in one cell.
func tableCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
