package scanner

// fixture.go — JSON/YAML serialization of OCR results.
//
// The on-disk schema stores character values as strings so files stay
// readable; each value and each alternative must be exactly one character.
// A line may give "text" instead of "chars" for quick hand-written fixtures.

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/Cortexa-LLC/mcp/src/ocrgrid/ocr"
)

type fixtureResult struct {
	Blocks []fixtureBlock `json:"blocks" yaml:"blocks"`
}

type fixtureBlock struct {
	Lines []fixtureLine `json:"lines" yaml:"lines"`
}

type fixtureLine struct {
	Text  string        `json:"text,omitempty" yaml:"text,omitempty"`
	Chars []fixtureChar `json:"chars,omitempty" yaml:"chars,omitempty"`
}

type fixtureChar struct {
	Value        string   `json:"value" yaml:"value"`
	X            float64  `json:"x" yaml:"x"`
	Y            float64  `json:"y" yaml:"y"`
	Width        float64  `json:"width" yaml:"width"`
	Height       float64  `json:"height" yaml:"height"`
	Quality      int      `json:"quality,omitempty" yaml:"quality,omitempty"`
	Alternatives []string `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
}

func decodeFixture(data []byte, ext string) (*ocr.Result, error) {
	var f fixtureResult
	var err error
	if ext == ".json" {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s result: %w", ext, err)
	}
	return f.toResult()
}

func encodeFixture(res *ocr.Result, ext string) ([]byte, error) {
	f := fixtureFromResult(res)
	if ext == ".json" {
		return json.MarshalIndent(f, "", "  ")
	}
	return yaml.Marshal(f)
}

func (f fixtureResult) toResult() (*ocr.Result, error) {
	res := &ocr.Result{Blocks: make([]ocr.Block, 0, len(f.Blocks))}
	row := 0
	for bi, fb := range f.Blocks {
		var b ocr.Block
		for li, fl := range fb.Lines {
			var l ocr.Line
			if len(fl.Chars) == 0 && fl.Text != "" {
				l = textLine(fl.Text, row)
			}
			for ci, fc := range fl.Chars {
				cv, err := fc.toChar()
				if err != nil {
					return nil, fmt.Errorf("block %d line %d char %d: %w", bi, li, ci, err)
				}
				l.Chars = append(l.Chars, cv)
			}
			b.Lines = append(b.Lines, l)
			row++
		}
		res.Blocks = append(res.Blocks, b)
	}
	return res, nil
}

func (fc fixtureChar) toChar() (ocr.CharWithVariants, error) {
	v, err := singleRune(fc.Value)
	if err != nil {
		return ocr.CharWithVariants{}, err
	}
	cv := ocr.CharWithVariants{Char: ocr.Char{
		Value:    v,
		Position: ocr.Rect{X: fc.X, Y: fc.Y, Width: fc.Width, Height: fc.Height},
		Quality:  fc.Quality,
	}}
	for _, a := range fc.Alternatives {
		av, err := singleRune(a)
		if err != nil {
			return ocr.CharWithVariants{}, fmt.Errorf("alternative: %w", err)
		}
		cv.Alternatives = append(cv.Alternatives, ocr.Char{Value: av, Position: cv.Char.Position})
	}
	return cv, nil
}

func singleRune(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("value %q must be exactly one character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// textLine lays text out on the monospace grid used for geometry-less sources.
func textLine(text string, row int) ocr.Line {
	var l ocr.Line
	for col, ch := range []rune(text) {
		l.Chars = append(l.Chars, ocr.CharWithVariants{Char: ocr.Char{
			Value: ch,
			Position: ocr.Rect{
				X:      float64(col * textCellWidth),
				Y:      float64(row * textCellHeight),
				Width:  textCellWidth,
				Height: textCellHeight,
			},
		}})
	}
	return l
}

func fixtureFromResult(res *ocr.Result) fixtureResult {
	f := fixtureResult{Blocks: make([]fixtureBlock, 0, len(res.Blocks))}
	for _, b := range res.Blocks {
		fb := fixtureBlock{Lines: make([]fixtureLine, 0, len(b.Lines))}
		for _, l := range b.Lines {
			fl := fixtureLine{Chars: make([]fixtureChar, 0, len(l.Chars))}
			for _, cv := range l.Chars {
				fc := fixtureChar{
					Value:   string(cv.Char.Value),
					X:       cv.Char.Position.X,
					Y:       cv.Char.Position.Y,
					Width:   cv.Char.Position.Width,
					Height:  cv.Char.Position.Height,
					Quality: cv.Char.Quality,
				}
				for _, a := range cv.Alternatives {
					fc.Alternatives = append(fc.Alternatives, string(a.Value))
				}
				fl.Chars = append(fl.Chars, fc)
			}
			fb.Lines = append(fb.Lines, fl)
		}
		f.Blocks = append(f.Blocks, fb)
	}
	return f
}
