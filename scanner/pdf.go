package scanner

// pdf.go — PDF text layer → OCR result.
//
// Uses github.com/ledongthuc/pdf for parsing. Every page becomes one block.
// Glyphs are grouped into lines by baseline, ordered top to bottom, and sorted
// left to right inside a line. Positions are flipped to a top-left origin so
// they match image coordinates. Scanned (image-only) PDFs yield empty blocks.

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/Cortexa-LLC/mcp/src/ocrgrid/ocr"
)

// pdfSpaceFactor is the horizontal gap, relative to font size, above which a
// synthetic space is inserted between two glyphs.
const pdfSpaceFactor = 0.25

func loadPDF(data []byte) (*ocr.Result, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	res := &ocr.Result{}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		texts, err := pageTexts(p)
		if err != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", i, err)
		}
		res.Blocks = append(res.Blocks, blockFromTexts(texts, pageHeight(p)))
	}
	return res, nil
}

// pageTexts returns the positioned glyphs of a page. The pdf package panics on
// malformed content streams.
func pageTexts(p pdf.Page) (texts []pdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed content stream: %v", r)
		}
	}()
	return p.Content().Text, nil
}

// pageHeight reads the MediaBox height; 0 when the page does not carry one.
func pageHeight(p pdf.Page) float64 {
	mb := p.V.Key("MediaBox")
	if mb.Len() != 4 {
		return 0
	}
	return mb.Index(3).Float64() - mb.Index(1).Float64()
}

func blockFromTexts(texts []pdf.Text, height float64) ocr.Block {
	glyphs := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if t.S != "" {
			glyphs = append(glyphs, t)
		}
	}
	if height <= 0 {
		for _, t := range glyphs {
			height = math.Max(height, t.Y+t.FontSize)
		}
	}

	// PDF y grows upwards: higher baselines come first.
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].Y > glyphs[j].Y })

	var b ocr.Block
	for _, band := range baselineBands(glyphs) {
		sort.SliceStable(band, func(i, j int) bool { return band[i].X < band[j].X })
		b.Lines = append(b.Lines, lineFromGlyphs(band, height))
	}
	return b
}

// baselineBands splits glyphs, sorted top-down, into lines. Each band is
// anchored at its topmost glyph; later glyphs within the baseline tolerance of
// that anchor join it.
func baselineBands(glyphs []pdf.Text) [][]pdf.Text {
	var bands [][]pdf.Text
	for _, g := range glyphs {
		if n := len(bands); n > 0 && sameBaseline(bands[n-1][0], g) {
			bands[n-1] = append(bands[n-1], g)
			continue
		}
		bands = append(bands, []pdf.Text{g})
	}
	return bands
}

func sameBaseline(a, b pdf.Text) bool {
	tol := math.Max(1, math.Min(a.FontSize, b.FontSize)/2)
	return math.Abs(a.Y-b.Y) <= tol
}

func lineFromGlyphs(glyphs []pdf.Text, height float64) ocr.Line {
	var l ocr.Line
	for _, g := range glyphs {
		top := height - g.Y - g.FontSize
		if n := len(l.Chars); n > 0 {
			prev := l.Chars[n-1].Char
			gap := g.X - prev.Position.Right()
			if gap > g.FontSize*pdfSpaceFactor && prev.Value != ' ' && g.S != " " {
				l.Chars = append(l.Chars, ocr.CharWithVariants{Char: ocr.Char{
					Value:    ' ',
					Position: ocr.Rect{X: prev.Position.Right(), Y: top, Width: gap, Height: g.FontSize},
				}})
			}
		}

		n := utf8.RuneCountInString(g.S)
		w := g.W / float64(n)
		i := 0
		for _, r := range g.S {
			l.Chars = append(l.Chars, ocr.CharWithVariants{Char: ocr.Char{
				Value:    r,
				Position: ocr.Rect{X: g.X + w*float64(i), Y: top, Width: w, Height: g.FontSize},
			}})
			i++
		}
	}
	return l
}
