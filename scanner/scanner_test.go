package scanner

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Cortexa-LLC/mcp/src/ocrgrid/ocr"
	"github.com/Cortexa-LLC/mcp/src/ocrgrid/parser"
)

const caratText = "xxx Carat Weight 1.5\nColor D"

func TestLoad_TextFile(t *testing.T) {
	s := newTestScanner(t, nil)
	path := writeTempFile(t, "card.txt", caratText)

	scan, err := s.Load(context.Background(), path)
	require.NoError(t, err)

	_, err = uuid.Parse(scan.ID)
	assert.NoError(t, err, "scan id should be a uuid")
	assert.Equal(t, scan.ID, scan.Result.ID)
	assert.Equal(t, path, scan.Result.Source)
	assert.Nil(t, scan.Image)
	assert.Equal(t, caratText, scan.Result.Text())
}

func TestLoad_FileURI(t *testing.T) {
	s := newTestScanner(t, nil)
	path := writeTempFile(t, "card.txt", caratText)

	scan, err := s.Load(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, caratText, scan.Result.Text())
}

func TestLoad_Errors(t *testing.T) {
	s := newTestScanner(t, nil)
	ctx := context.Background()

	_, err := s.Load(ctx, "/no/such/file.txt")
	assert.ErrorContains(t, err, "file not found")

	_, err = s.Load(ctx, writeTempFile(t, "doc.docx", "x"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = s.Load(ctx, "ftp://example.com/a.txt")
	assert.ErrorContains(t, err, "unsupported URI scheme")

	s.cfg.MaxFileSizeBytes = 4
	_, err = s.Load(ctx, writeTempFile(t, "big.txt", "12345"))
	assert.ErrorContains(t, err, "file too large")
}

func TestLoad_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/card":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte(caratText))
		case "/scan.json":
			_, _ = w.Write([]byte(jsonFixture))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := newTestScanner(t, nil)
	ctx := context.Background()

	scan, err := s.Load(ctx, srv.URL+"/card")
	require.NoError(t, err)
	assert.Equal(t, caratText, scan.Result.Text())
	assert.Equal(t, srv.URL+"/card", scan.Source)

	scan, err = s.Load(ctx, srv.URL+"/scan.json")
	require.NoError(t, err)
	assert.Equal(t, "Ca", scan.Result.Text())

	_, err = s.Load(ctx, srv.URL+"/missing")
	assert.ErrorContains(t, err, "HTTP 404")

	s.cfg.MaxFileSizeBytes = 8
	_, err = s.Load(ctx, srv.URL+"/card")
	assert.ErrorContains(t, err, "response too large")
}

func TestLoad_ImageWithoutEngine(t *testing.T) {
	s := newTestScanner(t, &fakeEngine{available: false})
	path := writeTempFile(t, "card.png", string(makePNG(t, 4, 4)))

	_, err := s.Load(context.Background(), path)
	assert.ErrorIs(t, err, ErrEngineUnavailable)
	assert.ErrorContains(t, err, "fake")
}

func TestLoad_ImageNotDecodable(t *testing.T) {
	engine := &fakeEngine{available: true}
	s := newTestScanner(t, engine)
	path := writeTempFile(t, "card.png", "fakepng")

	_, err := s.Load(context.Background(), path)
	assert.Error(t, err)
	assert.Empty(t, engine.calls)
}

func TestFindAnchor_Text(t *testing.T) {
	s := newTestScanner(t, nil)
	path := writeTempFile(t, "card.txt", caratText)

	report, err := s.FindAnchor(context.Background(), path, "", false)
	require.NoError(t, err)

	assert.Equal(t, "Carat Weight", report.Needle)
	require.True(t, report.Found)
	assert.Equal(t, ocr.Position{Char: 4}, report.Position)
	assert.Equal(t, 40.0, report.Anchor.X)
	assert.Equal(t, "Carat Weight 1.5\nColor D", report.Text)
	assert.Nil(t, report.Region)
}

func TestFindAnchor_NotFound(t *testing.T) {
	s := newTestScanner(t, nil)
	path := writeTempFile(t, "card.txt", caratText)

	report, err := s.FindAnchor(context.Background(), path, "Clarity", false)
	require.NoError(t, err)
	assert.False(t, report.Found)
	assert.Empty(t, report.Text)
}

func TestFindAnchor_VerticalSkippedForText(t *testing.T) {
	s := newTestScanner(t, nil)
	path := writeTempFile(t, "card.txt", caratText)

	report, err := s.FindAnchor(context.Background(), path, "", true)
	require.NoError(t, err)
	require.True(t, report.Found)
	require.Len(t, report.Notes, 1)
	assert.Contains(t, report.Notes[0], "not an image")
}

func TestFindAnchor_VerticalPass(t *testing.T) {
	engine := &fakeEngine{
		available: true,
		results:   []*ocr.Result{gridFromText(caratText), gridFromText("GIA 1234567")},
	}
	s := newTestScanner(t, engine)
	path := writeTempFile(t, "card.png", string(makePNG(t, 100, 60)))

	report, err := s.FindAnchor(context.Background(), path, "Carat", true)
	require.NoError(t, err)
	require.True(t, report.Found)

	require.NotNil(t, report.Region)
	assert.Equal(t, 0, report.Region.Min.X)
	assert.Equal(t, 40, report.Region.Max.X)
	assert.Equal(t, 60, report.Region.Dy())
	assert.Equal(t, "GIA 1234567", report.VerticalText)

	require.Len(t, engine.calls, 2)
	assert.Equal(t, ".png", engine.calls[0].suffix)
	// The 40x60 strip is rotated before the second pass.
	assert.Equal(t, 60, engine.calls[1].bounds.Dx())
	assert.Equal(t, 40, engine.calls[1].bounds.Dy())
}

func TestFindAnchor_VerticalAnchorAtLeftEdge(t *testing.T) {
	engine := &fakeEngine{available: true, results: []*ocr.Result{gridFromText("Carat")}}
	s := newTestScanner(t, engine)
	path := writeTempFile(t, "card.png", string(makePNG(t, 50, 20)))

	report, err := s.FindAnchor(context.Background(), path, "Carat", true)
	require.NoError(t, err)
	assert.Nil(t, report.Region)
	require.Len(t, report.Notes, 1)
	assert.Contains(t, report.Notes[0], "left edge")
	assert.Len(t, engine.calls, 1)
}

func TestFindAnchor_VerticalEngineError(t *testing.T) {
	engine := &fakeEngine{available: true, results: []*ocr.Result{gridFromText(caratText)}}
	s := newTestScanner(t, engine)
	path := writeTempFile(t, "card.png", string(makePNG(t, 100, 60)))

	// First call succeeds, the vertical pass fails.
	s.engine = &failSecondCall{fakeEngine: engine}
	_, err := s.FindAnchor(context.Background(), path, "Carat", true)
	assert.ErrorContains(t, err, "vertical pass")
}

type failSecondCall struct{ *fakeEngine }

func (e *failSecondCall) Recognize(ctx context.Context, data []byte, suffix string) (*ocr.Result, error) {
	if len(e.calls) > 0 {
		return nil, errors.New("engine crashed")
	}
	return e.fakeEngine.Recognize(ctx, data, suffix)
}

func TestText(t *testing.T) {
	s := newTestScanner(t, nil)
	got, err := s.Text(context.Background(), writeTempFile(t, "scan.hocr", sampleHOCR))
	require.NoError(t, err)
	assert.Equal(t, "Cat ok\n15", got)
}

func TestParseFields(t *testing.T) {
	s := newTestScanner(t, nil)
	path := writeTempFile(t, "mail.txt", "Contact: jane.doe@example.com\nDue 05.03.2024")

	got, err := s.ParseFields(context.Background(), path, "email")
	require.NoError(t, err)
	assert.Equal(t, []parser.Match{{Parser: "EMail", Value: "jane.doe@example.com"}}, got)

	got, err = s.ParseFields(context.Background(), path, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Raw", got[0].Parser)

	_, err = s.ParseFields(context.Background(), path, "Nope")
	assert.ErrorContains(t, err, "unknown scan configuration")
}

func TestExport_XLSX(t *testing.T) {
	s := newTestScanner(t, nil)
	src := writeTempFile(t, "scan.json", jsonFixture)
	out := filepath.Join(t.TempDir(), "grid.xlsx")

	n, err := s.Export(context.Background(), src, out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(xlsxCharSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Value", rows[0][3])
	assert.Equal(t, []string{"0", "0", "1", "a", "40", "5", "10", "20", "0", "o e"}, rows[2])

	lines, err := f.GetRows(xlsxLineSheet)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"0", "0", "Ca"}, lines[1])
}

func TestExport_XLSXMultipleLines(t *testing.T) {
	s := newTestScanner(t, nil)
	src := writeTempFile(t, "card.txt", caratText)
	out := filepath.Join(t.TempDir(), "grid.xlsx")

	n, err := s.Export(context.Background(), src, out)
	require.NoError(t, err)
	assert.Equal(t, len([]rune(strings.ReplaceAll(caratText, "\n", ""))), n)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	lines, err := f.GetRows(xlsxLineSheet)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "xxx Carat Weight 1.5", lines[1][2])
	assert.Equal(t, []string{"0", "1", "Color D"}, lines[2])
}

func TestExport_JSONAndYAML(t *testing.T) {
	s := newTestScanner(t, nil)
	src := writeTempFile(t, "scan.json", jsonFixture)

	for _, name := range []string{"grid.json", "grid.yaml"} {
		out := filepath.Join(t.TempDir(), name)
		n, err := s.Export(context.Background(), src, out)
		require.NoError(t, err, name)
		assert.Equal(t, 2, n)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		back, err := decodeFixture(data, filepath.Ext(name))
		require.NoError(t, err)
		assert.Equal(t, "Ca", back.Text())
	}
}

func TestExport_UnsupportedTarget(t *testing.T) {
	s := newTestScanner(t, nil)
	src := writeTempFile(t, "scan.json", jsonFixture)

	_, err := s.Export(context.Background(), src, filepath.Join(t.TempDir(), "grid.csv"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestInfo(t *testing.T) {
	s := newTestScanner(t, &fakeEngine{available: true})
	info := s.Info(context.Background())

	assert.Contains(t, info, "- hocr")
	assert.Contains(t, info, "fake: available")
	assert.Contains(t, info, "PhotoPay")
	assert.Contains(t, info, "TotalAmount, Tax, IBAN")
	assert.Contains(t, info, `Default anchor: "Carat Weight"`)
	assert.Contains(t, info, "Max file size: 1 MB")
}
