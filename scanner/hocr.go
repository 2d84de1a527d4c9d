package scanner

// hocr.go — hOCR → OCR result.
//
// Tesseract writes hOCR with one ocr_carea per text block and one ocr_line
// (or ocr_header/ocr_caption/ocr_textfloat) per line. With hocr_char_boxes=1
// every symbol gets an ocrx_cinfo span carrying its box; with
// lstm_choice_mode=2 every symbol also gets an ocr_symbol span listing the
// candidate glyphs. Words without per-symbol data are split evenly over the
// word box. Adjacent words are joined with a synthetic space spanning the gap.

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Cortexa-LLC/mcp/src/ocrgrid/ocr"
)

const hocrLineSelector = ".ocr_line, .ocrx_line, .ocr_header, .ocr_caption, .ocr_textfloat"

// looksLikeHOCR is a cheap sniff used to route .html sources.
func looksLikeHOCR(data []byte) bool {
	return bytes.Contains(data, []byte("ocr_page")) || bytes.Contains(data, []byte("ocrx_word"))
}

func parseHOCR(r io.Reader) (*ocr.Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse hocr: %w", err)
	}

	areas := doc.Find(".ocr_carea")
	if areas.Length() == 0 {
		areas = doc.Find(".ocr_page")
	}
	if areas.Length() == 0 {
		return nil, fmt.Errorf("parse hocr: no ocr_carea or ocr_page elements")
	}

	res := &ocr.Result{}
	areas.Each(func(_ int, area *goquery.Selection) {
		var b ocr.Block
		area.Find(hocrLineSelector).Each(func(_ int, line *goquery.Selection) {
			b.Lines = append(b.Lines, parseHOCRLine(line))
		})
		res.Blocks = append(res.Blocks, b)
	})
	return res, nil
}

func parseHOCRLine(line *goquery.Selection) ocr.Line {
	words := line.Find(".ocrx_word")
	if words.Length() == 0 {
		words = line
	}

	var l ocr.Line
	words.Each(func(_ int, word *goquery.Selection) {
		chars := parseHOCRWord(word)
		if len(chars) == 0 {
			return
		}
		if n := len(l.Chars); n > 0 {
			prev := l.Chars[n-1].Char.Position
			first := chars[0].Char.Position
			l.Chars = append(l.Chars, ocr.CharWithVariants{Char: ocr.Char{
				Value: ' ',
				Position: ocr.Rect{
					X:      prev.Right(),
					Y:      prev.Y,
					Width:  math.Max(0, first.X-prev.Right()),
					Height: prev.Height,
				},
			}})
		}
		l.Chars = append(l.Chars, chars...)
	})
	return l
}

func parseHOCRWord(word *goquery.Selection) []ocr.CharWithVariants {
	title := word.AttrOr("title", "")
	box, _ := hocrBox(title, "bbox")
	wconf := hocrFloat(title, "x_wconf")

	cinfo := word.Find(".ocrx_cinfo")
	symbols := word.Find(".ocr_symbol")

	switch {
	case cinfo.Length() > 0:
		out := make([]ocr.CharWithVariants, 0, cinfo.Length())
		cinfo.Each(func(i int, ci *goquery.Selection) {
			v, ok := firstRune(ci.Text())
			if !ok {
				return
			}
			t := ci.AttrOr("title", "")
			pos, ok := hocrBox(t, "x_bboxes")
			if !ok {
				pos = splitBox(box, i, cinfo.Length())
			}
			cv := ocr.CharWithVariants{Char: ocr.Char{Value: v, Position: pos, Quality: quality(hocrFloat(t, "x_conf"))}}
			if symbols.Length() == cinfo.Length() {
				cv.Alternatives = glyphAlternatives(symbols.Eq(i), v, pos)
			}
			out = append(out, cv)
		})
		return out

	case symbols.Length() > 0:
		out := make([]ocr.CharWithVariants, 0, symbols.Length())
		n := symbols.Length()
		symbols.Each(func(i int, sym *goquery.Selection) {
			glyphs := sym.Find(".ocr_glyph")
			v, ok := firstRune(glyphs.First().Text())
			if !ok {
				return
			}
			pos := splitBox(box, i, n)
			out = append(out, ocr.CharWithVariants{
				Char:         ocr.Char{Value: v, Position: pos, Quality: quality(hocrFloat(glyphs.First().AttrOr("title", ""), "x_confs"))},
				Alternatives: glyphAlternatives(sym, v, pos),
			})
		})
		return out

	default:
		text := []rune(strings.TrimSpace(word.Text()))
		out := make([]ocr.CharWithVariants, 0, len(text))
		for i, v := range text {
			out = append(out, ocr.CharWithVariants{Char: ocr.Char{
				Value:    v,
				Position: splitBox(box, i, len(text)),
				Quality:  quality(wconf),
			}})
		}
		return out
	}
}

// glyphAlternatives returns the candidate glyphs of an ocr_symbol other than
// the chosen value, without duplicates.
func glyphAlternatives(sym *goquery.Selection, chosen rune, pos ocr.Rect) []ocr.Char {
	var alts []ocr.Char
	seen := map[rune]bool{chosen: true}
	sym.Find(".ocr_glyph").Each(func(_ int, g *goquery.Selection) {
		v, ok := firstRune(g.Text())
		if !ok || seen[v] {
			return
		}
		seen[v] = true
		alts = append(alts, ocr.Char{
			Value:    v,
			Position: pos,
			Quality:  quality(hocrFloat(g.AttrOr("title", ""), "x_confs")),
		})
	})
	return alts
}

// hocrBox reads a "<key> x0 y0 x1 y1" property from an hOCR title attribute.
func hocrBox(title, key string) (ocr.Rect, bool) {
	f := hocrProperty(title, key)
	if len(f) < 4 {
		return ocr.Rect{}, false
	}
	var n [4]float64
	for i := range n {
		v, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return ocr.Rect{}, false
		}
		n[i] = v
	}
	return ocr.Rect{X: n[0], Y: n[1], Width: n[2] - n[0], Height: n[3] - n[1]}, true
}

// hocrFloat reads a single numeric property; missing or malformed values are 0.
func hocrFloat(title, key string) float64 {
	f := hocrProperty(title, key)
	if len(f) == 0 {
		return 0
	}
	v, _ := strconv.ParseFloat(f[0], 64)
	return v
}

func hocrProperty(title, key string) []string {
	for _, prop := range strings.Split(title, ";") {
		fields := strings.Fields(prop)
		if len(fields) > 0 && fields[0] == key {
			return fields[1:]
		}
	}
	return nil
}

// splitBox returns the i-th of n equal-width slices of box.
func splitBox(box ocr.Rect, i, n int) ocr.Rect {
	if n <= 0 {
		return box
	}
	w := box.Width / float64(n)
	return ocr.Rect{X: box.X + w*float64(i), Y: box.Y, Width: w, Height: box.Height}
}

func firstRune(s string) (rune, bool) {
	for _, r := range strings.TrimSpace(s) {
		return r, true
	}
	return 0, false
}

func quality(conf float64) int {
	return int(math.Round(math.Max(0, math.Min(100, conf))))
}
