// Package ocr models hierarchical OCR output (blocks of lines of characters
// with recognition alternatives) and provides a copyable forward cursor over
// it, together with linearization and anchor-phrase search.
package ocr

// Rect is a rectangle in source-image pixels with the origin in the upper-left
// corner.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Char is a single recognized glyph.
type Char struct {
	Value    rune
	Position Rect
	// Quality is the engine confidence in [0, 100]; zero means unknown.
	Quality int
}

// CharWithVariants is one recognized glyph plus the alternative candidates the
// engine considered for the same position.
type CharWithVariants struct {
	Char         Char
	Alternatives []Char
}

// Line is an ordered run of characters.
type Line struct {
	Chars []CharWithVariants
}

// Block groups lines that belong together (paragraph, text area, page).
type Block struct {
	Lines []Line
}

// Result is the output of one recognition pass. It must not be mutated while
// cursors are traversing it.
type Result struct {
	// ID identifies the scan that produced the result.
	ID string
	// Source is the path or URL the result was read from.
	Source string
	Blocks []Block
}

// CharCount returns the number of characters across all blocks and lines.
func (r *Result) CharCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, b := range r.Blocks {
		for _, l := range b.Lines {
			n += len(l.Chars)
		}
	}
	return n
}

// Text linearizes the whole result, one output line per OCR line. It returns
// an empty string for a result without characters.
func (r *Result) Text() string {
	c, err := NewCursor(r)
	if err != nil {
		return ""
	}
	return c.Text()
}
