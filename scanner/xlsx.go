package scanner

// xlsx.go — OCR result → XLSX using the excelize library.
// The "Characters" sheet holds one row per character in reading order; the
// "Lines" sheet holds one row per non-empty line with its linearized text.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Cortexa-LLC/mcp/src/ocrgrid/ocr"
)

const (
	xlsxCharSheet = "Characters"
	xlsxLineSheet = "Lines"
)

var xlsxCharHeader = []interface{}{
	"Block", "Line", "Char", "Value", "X", "Y", "Width", "Height", "Quality", "Alternatives",
}

func exportXLSX(res *ocr.Result, outPath string) (int, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", xlsxCharSheet); err != nil {
		return 0, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(xlsxLineSheet); err != nil {
		return 0, fmt.Errorf("create sheet %q: %w", xlsxLineSheet, err)
	}

	if err := setRow(f, xlsxCharSheet, 1, xlsxCharHeader); err != nil {
		return 0, err
	}
	if err := setRow(f, xlsxLineSheet, 1, []interface{}{"Block", "Line", "Text"}); err != nil {
		return 0, err
	}

	cur, err := ocr.NewCursor(res)
	if errors.Is(err, ocr.ErrEmptyResult) {
		return 0, saveXLSX(f, outPath)
	}
	if err != nil {
		return 0, err
	}

	count := 0
	var line strings.Builder
	lineRow := 2
	flushLine := func(p ocr.Position) error {
		err := setRow(f, xlsxLineSheet, lineRow, []interface{}{p.Block, p.Line, line.String()})
		line.Reset()
		lineRow++
		return err
	}

	for {
		cv := cur.Current()
		p := cur.Position()
		alts := make([]string, len(cv.Alternatives))
		for i, a := range cv.Alternatives {
			alts[i] = string(a.Value)
		}
		row := []interface{}{
			p.Block, p.Line, p.Char, string(cv.Char.Value),
			cv.Char.Position.X, cv.Char.Position.Y, cv.Char.Position.Width, cv.Char.Position.Height,
			cv.Char.Quality, strings.Join(alts, " "),
		}
		if err := setRow(f, xlsxCharSheet, count+2, row); err != nil {
			return 0, err
		}
		count++
		line.WriteRune(cv.Char.Value)

		crossed, err := cur.Advance()
		if err != nil {
			if err := flushLine(p); err != nil {
				return 0, err
			}
			break
		}
		if crossed {
			if err := flushLine(p); err != nil {
				return 0, err
			}
		}
	}

	return count, saveXLSX(f, outPath)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func saveXLSX(f *excelize.File, outPath string) error {
	if err := f.SaveAs(outPath); err != nil {
		return fmt.Errorf("save xlsx %s: %w", outPath, err)
	}
	return nil
}
