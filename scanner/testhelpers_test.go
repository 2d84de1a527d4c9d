package scanner

// Shared test helpers for the scanner package.

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Cortexa-LLC/mcp/src/ocrgrid/config"
	"github.com/Cortexa-LLC/mcp/src/ocrgrid/ocr"
)

// ---- scanner factories -----------------------------------------------------

func testConfig() *config.Config {
	return &config.Config{
		MaxFileSizeBytes:  1 << 20,
		TesseractLangs:    config.DefaultTesseractLangs,
		Anchor:            config.DefaultAnchor,
		ScanConfiguration: config.DefaultScanConfiguration,
		HTTPTimeout:       5 * time.Second,
	}
}

// newTestScanner returns a Scanner backed by engine, or by an unavailable
// fake when engine is nil.
func newTestScanner(t *testing.T, engine Engine) *Scanner {
	t.Helper()
	if engine == nil {
		engine = &fakeEngine{}
	}
	return New(testConfig(), engine)
}

// withNoTesseract overrides lookPath for the duration of f so tests can
// exercise the Tesseract-absent code paths even when Tesseract is installed.
func withNoTesseract(t *testing.T, f func()) {
	t.Helper()
	orig := lookPath
	lookPath = func(string) (string, error) { return "", errors.New("not found") }
	defer func() { lookPath = orig }()
	f()
}

// ---- fake engine -----------------------------------------------------------

type engineCall struct {
	suffix string
	bounds image.Rectangle
}

// fakeEngine returns results in order, repeating the last one, and records
// the decoded bounds of every image it is given.
type fakeEngine struct {
	available bool
	results   []*ocr.Result
	err       error
	calls     []engineCall
}

func (e *fakeEngine) Name() string    { return "fake" }
func (e *fakeEngine) Available() bool { return e.available }

func (e *fakeEngine) Recognize(_ context.Context, data []byte, suffix string) (*ocr.Result, error) {
	call := engineCall{suffix: suffix}
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		call.bounds = img.Bounds()
	}
	e.calls = append(e.calls, call)
	if e.err != nil {
		return nil, e.err
	}
	if len(e.results) == 0 {
		return &ocr.Result{}, nil
	}
	i := min(len(e.calls), len(e.results)) - 1
	return e.results[i], nil
}

// ---- file factories --------------------------------------------------------

// writeTempFile writes content to a temp file with the given name and returns
// its path. The file is cleaned up automatically when the test ends.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// makePNG encodes a white w×h image with a black top-left pixel.
func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
