package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Cortexa-LLC/mcp/src/ocrgrid/config"
	"github.com/Cortexa-LLC/mcp/src/ocrgrid/scanner"
)

// Output formats accepted by --output.
const (
	outputMarkdown = "markdown"
	outputJSON     = "json"
	outputYAML     = "yaml"
)

// cli carries the state shared by all subcommands.
type cli struct {
	newService func(*config.Config) scanner.Service
	svc        scanner.Service
	cfg        *config.Config

	outputFmt string
	debug     bool
}

func newRootCmd(newService func(*config.Config) scanner.Service) *cobra.Command {
	c := &cli{newService: newService}

	root := &cobra.Command{
		Use:   "ocrgrid",
		Short: "Search and extract text from OCR results",
		Long: `ocrgrid reads OCR results (JSON/YAML grids, hOCR, HTML, text, PDF text
layers, or images recognized with Tesseract) and finds anchor phrases,
linearizes text, parses fields and exports the character grid.

Configuration is read from OCRGRID_* environment variables and an optional
.env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch c.outputFmt {
			case outputMarkdown, outputJSON, outputYAML:
			default:
				return fmt.Errorf("unknown output format %q (use markdown, json or yaml)", c.outputFmt)
			}
			c.cfg = config.Load()
			if c.debug {
				c.cfg.Debug = true
			}
			setupLogging(c.cfg.Debug)
			c.svc = c.newService(c.cfg)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&c.outputFmt, "output", "o", outputMarkdown,
		"output format: markdown, json, yaml")
	root.PersistentFlags().BoolVar(&c.debug, "debug", false,
		"enable debug logging")

	root.AddCommand(
		c.findCmd(),
		c.textCmd(),
		c.parseCmd(),
		c.exportCmd(),
		c.infoCmd(),
	)
	return root
}

func setupLogging(debug bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}

// render writes v as JSON or YAML, or calls markdown for the default format.
func (c *cli) render(w io.Writer, v interface{}, markdown func() string) error {
	switch c.outputFmt {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	default:
		_, err := fmt.Fprintln(w, markdown())
		return err
	}
}
