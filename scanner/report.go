package scanner

import (
	"fmt"
	"image"
	"strings"

	"github.com/Cortexa-LLC/mcp/src/ocrgrid/ocr"
	"github.com/Cortexa-LLC/mcp/src/ocrgrid/parser"
)

// AnchorReport is the outcome of FindAnchor.
type AnchorReport struct {
	ScanID   string       `json:"scan_id" yaml:"scan_id"`
	Source   string       `json:"source" yaml:"source"`
	Needle   string       `json:"needle" yaml:"needle"`
	Found    bool         `json:"found" yaml:"found"`
	Position ocr.Position `json:"position" yaml:"position"`
	// Anchor is the box of the first matched character.
	Anchor ocr.Rect `json:"anchor" yaml:"anchor"`
	// Text is the linearized result from the anchor onward.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	// Region is the strip left of the anchor used by the vertical pass.
	Region       *image.Rectangle `json:"region,omitempty" yaml:"region,omitempty"`
	VerticalText string           `json:"vertical_text,omitempty" yaml:"vertical_text,omitempty"`
	Notes        []string         `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Markdown renders the report for tool and CLI output.
func (r *AnchorReport) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Anchor %q\n\n", r.Needle)

	if !r.Found {
		fmt.Fprintf(&sb, "Not found in %s (scan %s).\n", r.Source, r.ScanID)
		return sb.String()
	}

	rows := [][]string{
		{"Field", "Value"},
		{"Source", r.Source},
		{"Scan", r.ScanID},
		{"Position", r.Position.String()},
		{"Box", fmt.Sprintf("x=%g y=%g w=%g h=%g", r.Anchor.X, r.Anchor.Y, r.Anchor.Width, r.Anchor.Height)},
	}
	if r.Region != nil {
		rows = append(rows, []string{"Region", r.Region.String()})
	}
	sb.WriteString(renderMarkdownTable(rows))

	sb.WriteString("\n## Text from anchor\n\n```\n")
	sb.WriteString(r.Text)
	sb.WriteString("\n```\n")

	if r.VerticalText != "" {
		sb.WriteString("\n## Vertical text\n\n```\n")
		sb.WriteString(r.VerticalText)
		sb.WriteString("\n```\n")
	}
	for _, n := range r.Notes {
		sb.WriteString("\n> " + n + "\n")
	}
	return sb.String()
}

// RenderMatches renders parsed fields as a Markdown table.
func RenderMatches(matches []parser.Match) string {
	if len(matches) == 0 {
		return "No fields found.\n"
	}
	rows := [][]string{{"Field", "Value"}}
	for _, m := range matches {
		rows = append(rows, []string{m.Parser, m.Value})
	}
	return renderMarkdownTable(rows)
}
