package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Cortexa-LLC/mcp/src/ocrgrid/config"
	"github.com/Cortexa-LLC/mcp/src/ocrgrid/scanner"
)

// Server identity constants.
const (
	serverName    = "ocrgrid"
	serverVersion = "0.1.0"
)

// MCP tool parameter key constants — shared between schema definitions and
// argument extraction so a typo in one place is caught by the other.
const (
	argURI           = "uri"
	argNeedle        = "needle"
	argVertical      = "vertical"
	argConfiguration = "configuration"
	argOutput        = "output"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.Debug)

	s := server.NewMCPServer(serverName, serverVersion)
	registerTools(s, scanner.New(cfg, nil))

	log.Info().Str("version", serverVersion).Msg("serving MCP over stdio")
	if err := server.ServeStdio(s); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

// setupLogging sends logs to stderr; stdout carries the MCP protocol.
func setupLogging(debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// registerTools binds MCP tool definitions to their handlers.
// It accepts the scanner.Service interface so tests can inject a mock.
func registerTools(s *server.MCPServer, svc scanner.Service) {
	uriParam := mcp.WithString(argURI,
		mcp.Required(),
		mcp.Description("Absolute file path, file:// URI or http/https URL of the scan"),
	)

	// find_anchor — locate an anchor phrase and read on from it
	s.AddTool(
		mcp.NewTool("find_anchor",
			mcp.WithDescription("Find the first occurrence of an anchor phrase in an OCR result and return "+
				"its position, box and the text from the anchor onward. Recognition alternatives count as matches. "+
				"Sources: "+formatList()+"."),
			uriParam,
			mcp.WithString(argNeedle,
				mcp.Description("Phrase to search for; defaults to the configured anchor"),
			),
			mcp.WithBoolean(argVertical,
				mcp.Description("For image sources, re-run OCR on the strip left of the anchor rotated 90 degrees"),
			),
		),
		findAnchorHandler(svc),
	)

	// ocr_text — linearize a whole result
	s.AddTool(
		mcp.NewTool("ocr_text",
			mcp.WithDescription("Return the recognized text of a scan, one line per OCR line."),
			uriParam,
		),
		ocrTextHandler(svc),
	)

	// parse_fields — run a scan configuration
	s.AddTool(
		mcp.NewTool("parse_fields",
			mcp.WithDescription("Extract fields (e-mail, date, amount, IBAN, VIN, top-up code) from a scan "+
				"using a named scan configuration."),
			uriParam,
			mcp.WithString(argConfiguration,
				mcp.Description("Scan configuration name, e.g. Raw, EMail, IBAN, PhotoPay; defaults to the configured one"),
			),
		),
		parseFieldsHandler(svc),
	)

	// export_grid — dump the character grid
	s.AddTool(
		mcp.NewTool("export_grid",
			mcp.WithDescription("Write every recognized character with its box, quality and alternatives "+
				"to an .xlsx, .json or .yaml file."),
			uriParam,
			mcp.WithString(argOutput,
				mcp.Required(),
				mcp.Description("Absolute path of the file to write (.xlsx, .json, .yaml)"),
			),
		),
		exportGridHandler(svc),
	)

	// get_scan_info — list sources, engine and configurations
	s.AddTool(
		mcp.NewTool("get_scan_info",
			mcp.WithDescription("Return supported sources, OCR engine status, scan configurations and active configuration."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText(svc.Info(ctx)), nil
		},
	)
}

func formatList() string {
	return strings.Join(scanner.SupportedFormats(), ", ")
}

func findAnchorHandler(svc scanner.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uri, ok := stringArg(req, argURI)
		if !ok {
			return mcp.NewToolResultError(argURI + " is required"), nil
		}
		needle, _ := stringArg(req, argNeedle)
		vertical, _ := req.Params.Arguments[argVertical].(bool)

		report, err := svc.FindAnchor(ctx, uri, needle, vertical)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(report.Markdown()), nil
	}
}

func ocrTextHandler(svc scanner.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uri, ok := stringArg(req, argURI)
		if !ok {
			return mcp.NewToolResultError(argURI + " is required"), nil
		}
		text, err := svc.Text(ctx, uri)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func parseFieldsHandler(svc scanner.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uri, ok := stringArg(req, argURI)
		if !ok {
			return mcp.NewToolResultError(argURI + " is required"), nil
		}
		configuration, _ := stringArg(req, argConfiguration)

		matches, err := svc.ParseFields(ctx, uri, configuration)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(scanner.RenderMatches(matches)), nil
	}
}

func exportGridHandler(svc scanner.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uri, ok := stringArg(req, argURI)
		if !ok {
			return mcp.NewToolResultError(argURI + " is required"), nil
		}
		out, ok := stringArg(req, argOutput)
		if !ok {
			return mcp.NewToolResultError(argOutput + " is required"), nil
		}
		n, err := svc.Export(ctx, uri, out)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Wrote %d characters to %s", n, out)), nil
	}
}

// stringArg returns a non-empty string argument.
func stringArg(req mcp.CallToolRequest, key string) (string, bool) {
	v, ok := req.Params.Arguments[key].(string)
	return v, ok && v != ""
}
