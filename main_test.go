package main

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cortexa-LLC/mcp/src/ocrgrid/ocr"
	"github.com/Cortexa-LLC/mcp/src/ocrgrid/parser"
	"github.com/Cortexa-LLC/mcp/src/ocrgrid/scanner"
)

// mockService records the arguments of the last call and returns canned
// values.
type mockService struct {
	uri, needle, configuration, out string
	vertical                        bool
	err                             error
}

var _ scanner.Service = (*mockService)(nil)

func (m *mockService) FindAnchor(_ context.Context, uri, needle string, vertical bool) (*scanner.AnchorReport, error) {
	m.uri, m.needle, m.vertical = uri, needle, vertical
	if m.err != nil {
		return nil, m.err
	}
	return &scanner.AnchorReport{
		Source: uri, Needle: needle, Found: true,
		Position: ocr.Position{Char: 4},
		Text:     "Carat Weight 1.5",
	}, nil
}

func (m *mockService) Text(_ context.Context, uri string) (string, error) {
	m.uri = uri
	return "hello\nworld", m.err
}

func (m *mockService) ParseFields(_ context.Context, uri, configuration string) ([]parser.Match, error) {
	m.uri, m.configuration = uri, configuration
	return []parser.Match{{Parser: "EMail", Value: "a@b.io"}}, m.err
}

func (m *mockService) Export(_ context.Context, uri, out string) (int, error) {
	m.uri, m.out = uri, out
	return 42, m.err
}

func (m *mockService) Info(context.Context) string { return "# info" }

func callTool(t *testing.T, h server.ToolHandlerFunc, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content should be text")
	return tc.Text
}

func TestRegisterTools_NoPanic(t *testing.T) {
	s := server.NewMCPServer(serverName, serverVersion)
	registerTools(s, &mockService{})
}

func TestFindAnchorHandler(t *testing.T) {
	svc := &mockService{}
	res := callTool(t, findAnchorHandler(svc), map[string]interface{}{
		argURI: "/scans/card.png", argNeedle: "Carat", argVertical: true,
	})

	assert.False(t, res.IsError)
	assert.Equal(t, "/scans/card.png", svc.uri)
	assert.Equal(t, "Carat", svc.needle)
	assert.True(t, svc.vertical)
	assert.Contains(t, resultText(t, res), "Carat Weight 1.5")
}

func TestFindAnchorHandler_Defaults(t *testing.T) {
	svc := &mockService{}
	res := callTool(t, findAnchorHandler(svc), map[string]interface{}{argURI: "/a.txt"})
	assert.False(t, res.IsError)
	assert.Empty(t, svc.needle)
	assert.False(t, svc.vertical)
}

func TestHandlers_MissingURI(t *testing.T) {
	for name, h := range map[string]server.ToolHandlerFunc{
		"find_anchor":  findAnchorHandler(&mockService{}),
		"ocr_text":     ocrTextHandler(&mockService{}),
		"parse_fields": parseFieldsHandler(&mockService{}),
		"export_grid":  exportGridHandler(&mockService{}),
	} {
		res := callTool(t, h, map[string]interface{}{argURI: ""})
		assert.True(t, res.IsError, name)
		assert.Contains(t, resultText(t, res), "uri is required", name)
	}
}

func TestHandlers_ServiceError(t *testing.T) {
	svc := &mockService{err: errors.New("boom")}
	args := map[string]interface{}{argURI: "/a.txt", argOutput: "/out.xlsx"}
	for name, h := range map[string]server.ToolHandlerFunc{
		"find_anchor":  findAnchorHandler(svc),
		"ocr_text":     ocrTextHandler(svc),
		"parse_fields": parseFieldsHandler(svc),
		"export_grid":  exportGridHandler(svc),
	} {
		res := callTool(t, h, args)
		assert.True(t, res.IsError, name)
		assert.Equal(t, "boom", resultText(t, res), name)
	}
}

func TestOCRTextHandler(t *testing.T) {
	res := callTool(t, ocrTextHandler(&mockService{}), map[string]interface{}{argURI: "/a.txt"})
	assert.Equal(t, "hello\nworld", resultText(t, res))
}

func TestParseFieldsHandler(t *testing.T) {
	svc := &mockService{}
	res := callTool(t, parseFieldsHandler(svc), map[string]interface{}{
		argURI: "/a.txt", argConfiguration: "EMail",
	})
	assert.Equal(t, "EMail", svc.configuration)
	assert.Contains(t, resultText(t, res), "a@b.io")
}

func TestExportGridHandler(t *testing.T) {
	svc := &mockService{}
	res := callTool(t, exportGridHandler(svc), map[string]interface{}{argURI: "/a.txt"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "output is required")

	res = callTool(t, exportGridHandler(svc), map[string]interface{}{argURI: "/a.txt", argOutput: "/tmp/g.xlsx"})
	assert.False(t, res.IsError)
	assert.Equal(t, "/tmp/g.xlsx", svc.out)
	assert.Equal(t, "Wrote 42 characters to /tmp/g.xlsx", resultText(t, res))
}
