// Command ocrgrid runs anchor searches, text extraction, field parsing and
// grid exports over OCR results from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/Cortexa-LLC/mcp/src/ocrgrid/config"
	"github.com/Cortexa-LLC/mcp/src/ocrgrid/scanner"
)

func main() {
	root := newRootCmd(func(cfg *config.Config) scanner.Service {
		return scanner.New(cfg, nil)
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
