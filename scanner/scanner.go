// Package scanner loads OCR results from files, URLs and images, and runs the
// anchor search, field parsers and exports on top of them.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Cortexa-LLC/mcp/src/ocrgrid/config"
	"github.com/Cortexa-LLC/mcp/src/ocrgrid/ocr"
	"github.com/Cortexa-LLC/mcp/src/ocrgrid/parser"
	"github.com/Cortexa-LLC/mcp/src/ocrgrid/roi"
)

// ErrUnsupportedFormat is returned for sources no loader handles.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Service is the set of operations the MCP server and CLI call. It exists so
// tests can inject a fake.
type Service interface {
	FindAnchor(ctx context.Context, uri, needle string, vertical bool) (*AnchorReport, error)
	Text(ctx context.Context, uri string) (string, error)
	ParseFields(ctx context.Context, uri, configuration string) ([]parser.Match, error)
	Export(ctx context.Context, uri, outPath string) (int, error)
	Info(ctx context.Context) string
}

// Scan is one loaded OCR result.
type Scan struct {
	ID     string
	Source string
	Result *ocr.Result
	// Image is the decoded source image for image scans, nil otherwise.
	Image image.Image
}

// Scanner routes sources to loaders and runs operations over the results.
type Scanner struct {
	cfg    *config.Config
	engine Engine
	html   *md.Converter
	client *http.Client
}

var _ Service = (*Scanner)(nil)

// NewScanner creates a Scanner using environment-driven config and the
// Tesseract engine.
func NewScanner() *Scanner {
	return New(config.Load(), nil)
}

// New creates a Scanner. A nil engine selects Tesseract configured from cfg.
func New(cfg *config.Config, engine Engine) *Scanner {
	if engine == nil {
		engine = NewTesseractEngine(cfg.TesseractLangs, cfg.TesseractPSM)
	}
	return &Scanner{
		cfg:    cfg,
		engine: engine,
		html:   md.NewConverter("", true, nil),
		client: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// Config returns the active configuration.
func (s *Scanner) Config() *config.Config { return s.cfg }

// Load reads a local path, file:// URI or http(s) URL into a Scan.
func (s *Scanner) Load(ctx context.Context, uri string) (*Scan, error) {
	if !strings.Contains(uri, "://") {
		return s.LoadFile(ctx, uri)
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid URI: %s", uri)
	}
	switch u.Scheme {
	case "file":
		return s.LoadFile(ctx, u.Path)
	case "http", "https":
		return s.loadURL(ctx, uri)
	default:
		return nil, fmt.Errorf("unsupported URI scheme: %q (expected file, http, or https)", u.Scheme)
	}
}

// LoadFile reads a local file into a Scan.
func (s *Scanner) LoadFile(ctx context.Context, filePath string) (*Scan, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("file not found: %s", filePath)
	}
	if info.Size() > s.cfg.MaxFileSizeBytes {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), s.cfg.MaxFileSizeBytes)
	}
	ext := strings.ToLower(filepath.Ext(filePath))
	if !CanLoad(filePath) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return s.load(ctx, filePath, ext, data)
}

func (s *Scanner) load(ctx context.Context, source, ext string, data []byte) (*Scan, error) {
	scan := &Scan{ID: uuid.NewString(), Source: source}

	var err error
	if imageExts[ext] {
		scan.Result, scan.Image, err = s.recognizeImage(ctx, data, ext)
	} else {
		scan.Result, err = s.decode(ext, data)
	}
	if err != nil {
		return nil, err
	}
	scan.Result.ID = scan.ID
	scan.Result.Source = source

	log.Debug().
		Str("scan_id", scan.ID).
		Str("source", source).
		Int("blocks", len(scan.Result.Blocks)).
		Int("chars", scan.Result.CharCount()).
		Msg("scan loaded")
	return scan, nil
}

// Text returns the whole result of uri linearized, one line per OCR line.
func (s *Scanner) Text(ctx context.Context, uri string) (string, error) {
	scan, err := s.Load(ctx, uri)
	if err != nil {
		return "", err
	}
	return scan.Result.Text(), nil
}

// FindAnchor searches uri for needle (the configured anchor when empty). With
// vertical set and an image source, the strip left of the anchor is rotated
// and recognized again.
func (s *Scanner) FindAnchor(ctx context.Context, uri, needle string, vertical bool) (*AnchorReport, error) {
	if needle == "" {
		needle = s.cfg.Anchor
	}
	scan, err := s.Load(ctx, uri)
	if err != nil {
		return nil, err
	}

	report := &AnchorReport{ScanID: scan.ID, Source: scan.Source, Needle: needle}
	cur, ok := ocr.FindString(needle, scan.Result)
	if !ok {
		log.Debug().Str("scan_id", scan.ID).Str("needle", needle).Msg("anchor not found")
		return report, nil
	}

	anchor := cur.Current()
	report.Found = true
	report.Position = cur.Position()
	report.Anchor = anchor.Char.Position
	report.Text = cur.Text()

	if !vertical {
		return report, nil
	}
	if scan.Image == nil {
		report.Notes = append(report.Notes, "vertical pass skipped: source is not an image")
		return report, nil
	}

	region, err := roi.AnchorRegion(anchor, scan.Image.Bounds())
	if errors.Is(err, roi.ErrEmptyRegion) {
		report.Notes = append(report.Notes, "vertical pass skipped: anchor touches the left edge")
		return report, nil
	}
	if err != nil {
		return nil, err
	}
	report.Region = &region

	data, err := roi.EncodePNG(roi.Prepare(scan.Image, region))
	if err != nil {
		return nil, err
	}
	res, err := s.engine.Recognize(ctx, data, ".png")
	if err != nil {
		return nil, fmt.Errorf("vertical pass: %w", err)
	}
	report.VerticalText = res.Text()
	return report, nil
}

// ParseFields runs the named scan configuration (the configured default when
// empty) over the text of uri.
func (s *Scanner) ParseFields(ctx context.Context, uri, configuration string) ([]parser.Match, error) {
	if configuration == "" {
		configuration = s.cfg.ScanConfiguration
	}
	cfg, err := parser.Lookup(configuration)
	if err != nil {
		return nil, err
	}
	text, err := s.Text(ctx, uri)
	if err != nil {
		return nil, err
	}
	return parser.Run(cfg, text), nil
}

// Export writes the character grid of uri to outPath and returns the number of
// characters written. The format follows the extension: .xlsx, .json, .yaml.
func (s *Scanner) Export(ctx context.Context, uri, outPath string) (int, error) {
	scan, err := s.Load(ctx, uri)
	if err != nil {
		return 0, err
	}
	switch ext := strings.ToLower(filepath.Ext(outPath)); ext {
	case ".xlsx":
		return exportXLSX(scan.Result, outPath)
	case ".json", ".yaml", ".yml":
		data, err := encodeFixture(scan.Result, ext)
		if err != nil {
			return 0, err
		}
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return 0, fmt.Errorf("write %s: %w", outPath, err)
		}
		return scan.Result.CharCount(), nil
	default:
		return 0, fmt.Errorf("%w: export to %q", ErrUnsupportedFormat, ext)
	}
}

// Info returns a Markdown summary of supported sources, engine status, scan
// configurations and active config.
func (s *Scanner) Info(_ context.Context) string {
	engine := "not installed"
	if s.engine.Available() {
		engine = "available"
	}

	rows := [][]string{{"Configuration", "Title", "Parsers"}}
	for _, cfg := range parser.Configurations() {
		names := make([]string, len(cfg.Parsers))
		for i, p := range cfg.Parsers {
			names[i] = p.Name()
		}
		rows = append(rows, []string{cfg.Name, cfg.Title, strings.Join(names, ", ")})
	}

	return fmt.Sprintf(`# ocrgrid Scan Info

## Supported Sources
%s

## OCR Engine
- %s: %s (languages %s)

## Scan Configurations
%s
## Configuration
- Max file size: %d MB
- Default anchor: %q
- Default scan configuration: %s`,
		"- "+strings.Join(SupportedFormats(), "\n- "),
		s.engine.Name(), engine, s.cfg.TesseractLangs,
		renderMarkdownTable(rows),
		s.cfg.MaxFileSizeMB(),
		s.cfg.Anchor,
		s.cfg.ScanConfiguration,
	)
}
