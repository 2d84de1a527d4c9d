package scanner

// tesseract.go — Tesseract OCR engine.
//
// ocrAvailable() probes for the "tesseract" binary at call time using
// exec.LookPath, so the server degrades gracefully when Tesseract is absent.
// Recognition asks for hOCR with per-character boxes and LSTM glyph choices,
// which feed the character alternatives used by anchor matching.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/Cortexa-LLC/mcp/src/ocrgrid/ocr"
)

// ErrEngineUnavailable is returned when the OCR engine cannot run.
var ErrEngineUnavailable = errors.New("ocr engine unavailable")

// Engine recognizes an encoded image into an OCR result.
type Engine interface {
	Name() string
	Available() bool
	// Recognize runs OCR on an encoded image. suffix is the file extension
	// (e.g. ".png") that identifies the encoding.
	Recognize(ctx context.Context, image []byte, suffix string) (*ocr.Result, error)
}

// lookPath is the exec.LookPath implementation used by ocrAvailable.
// Tests may replace it to simulate a missing Tesseract binary.
var lookPath = exec.LookPath

// ocrAvailable returns true when the "tesseract" binary is on PATH.
func ocrAvailable() bool {
	_, err := lookPath("tesseract")
	return err == nil
}

type tesseractEngine struct {
	langs string
	psm   int
}

// NewTesseractEngine returns an Engine backed by the tesseract binary. langs
// is passed to -l (e.g. "eng+deu"); psm 0 keeps Tesseract's default.
func NewTesseractEngine(langs string, psm int) Engine {
	return &tesseractEngine{langs: langs, psm: psm}
}

func (e *tesseractEngine) Name() string { return "tesseract" }

func (e *tesseractEngine) Available() bool { return ocrAvailable() }

func (e *tesseractEngine) args(imagePath string) []string {
	args := []string{imagePath, "stdout"}
	if e.langs != "" {
		args = append(args, "-l", e.langs)
	}
	if e.psm > 0 {
		args = append(args, "--psm", strconv.Itoa(e.psm))
	}
	return append(args,
		"-c", "hocr_char_boxes=1",
		"-c", "lstm_choice_mode=2",
		"hocr",
	)
}

func (e *tesseractEngine) Recognize(ctx context.Context, data []byte, suffix string) (*ocr.Result, error) {
	if !ocrAvailable() {
		return nil, fmt.Errorf("tesseract is not installed or not on PATH: %w", ErrEngineUnavailable)
	}

	tmp, err := os.CreateTemp("", "ocrgrid-*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("create temp file for OCR: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("write temp file for OCR: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp file for OCR: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "tesseract", e.args(tmpPath)...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	log.Debug().Int("hocr_bytes", len(out)).Str("langs", e.langs).Msg("tesseract finished")

	return parseHOCR(bytes.NewReader(out))
}

// recognizeImage decodes the image (kept for the region-of-interest pass) and
// runs the engine on the original bytes.
func (s *Scanner) recognizeImage(ctx context.Context, data []byte, ext string) (*ocr.Result, image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s image: %w", ext, err)
	}
	if !s.engine.Available() {
		return nil, nil, fmt.Errorf("%s is not installed or not on PATH; cannot OCR %s image: %w",
			s.engine.Name(), ext, ErrEngineUnavailable)
	}
	res, err := s.engine.Recognize(ctx, data, ext)
	if err != nil {
		return nil, nil, err
	}
	return res, img, nil
}
