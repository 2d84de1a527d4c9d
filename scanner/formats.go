package scanner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Cortexa-LLC/mcp/src/ocrgrid/ocr"
)

// loadableExts are all source extensions a loader exists for.
var loadableExts = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
	".hocr": true,
	".html": true,
	".htm":  true,
	".txt":  true,
	".md":   true,
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// imageExts are recognized by the OCR engine.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// contentTypeExts maps response media types to the loader extension used for
// URLs without a recognizable file extension.
var contentTypeExts = map[string]string{
	"application/json":   ".json",
	"application/yaml":   ".yaml",
	"application/x-yaml": ".yaml",
	"text/yaml":          ".yaml",
	"text/html":          ".html",
	"text/plain":         ".txt",
	"text/markdown":      ".md",
	"application/pdf":    ".pdf",
	"image/png":          ".png",
	"image/jpeg":         ".jpg",
}

// CanLoad reports whether a loader exists for the file extension.
func CanLoad(filePath string) bool {
	return loadableExts[strings.ToLower(filepath.Ext(filePath))]
}

// SupportedFormats returns supported extensions without the leading dot,
// sorted.
func SupportedFormats() []string {
	out := make([]string, 0, len(loadableExts))
	for ext := range loadableExts {
		out = append(out, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(out)
	return out
}

// decode turns non-image source bytes into a result.
func (s *Scanner) decode(ext string, data []byte) (*ocr.Result, error) {
	switch ext {
	case ".json", ".yaml", ".yml":
		return decodeFixture(data, ext)
	case ".hocr":
		return parseHOCR(bytes.NewReader(data))
	case ".html", ".htm":
		return s.decodeHTML(data)
	case ".txt", ".md":
		return gridFromText(string(data)), nil
	case ".pdf":
		return loadPDF(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// decodeHTML parses hOCR when the document carries hOCR classes and otherwise
// converts the page to Markdown and lays its text out as a grid.
func (s *Scanner) decodeHTML(data []byte) (*ocr.Result, error) {
	if looksLikeHOCR(data) {
		return parseHOCR(bytes.NewReader(data))
	}
	text, err := s.html.ConvertString(string(data))
	if err != nil {
		return nil, fmt.Errorf("convert html: %w", err)
	}
	return gridFromText(text), nil
}

// loadURL fetches an HTTP/HTTPS URL and loads the response body.
func (s *Scanner) loadURL(ctx context.Context, rawURL string) (*Scan, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxFileSizeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > s.cfg.MaxFileSizeBytes {
		return nil, fmt.Errorf("response too large: more than %d bytes", s.cfg.MaxFileSizeBytes)
	}

	ext := urlExt(rawURL, resp.Header.Get("Content-Type"))
	if ext == "" {
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, rawURL, resp.Header.Get("Content-Type"))
	}
	log.Debug().Str("url", rawURL).Str("ext", ext).Int("bytes", len(body)).Msg("fetched source")
	return s.load(ctx, rawURL, ext, body)
}

// urlExt picks the loader extension for a fetched URL: the path extension
// when known, else the response media type. HTML is the fallback for an empty
// Content-Type.
func urlExt(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); loadableExts[ext] {
			return ext
		}
	}
	if contentType == "" {
		return ".html"
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return contentTypeExts[mediaType]
}

// Text layout cell used for sources without geometry.
const (
	textCellWidth  = 10
	textCellHeight = 20
)

// gridFromText lays plain text out on a monospace grid. Paragraphs separated
// by blank lines become blocks; trailing whitespace on each line is dropped.
func gridFromText(text string) *ocr.Result {
	res := &ocr.Result{}
	var block ocr.Block
	flush := func() {
		if len(block.Lines) > 0 {
			res.Blocks = append(res.Blocks, block)
			block = ocr.Block{}
		}
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for row, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		block.Lines = append(block.Lines, textLine(line, row))
	}
	flush()
	return res
}
