package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Cortexa-LLC/mcp/src/ocrgrid/scanner"
)

func (c *cli) findCmd() *cobra.Command {
	var needle string
	var vertical bool

	cmd := &cobra.Command{
		Use:   "find <uri>",
		Short: "Find an anchor phrase",
		Long: `Find the first occurrence of an anchor phrase and print its position and
the text from the anchor onward.

Examples:
  ocrgrid find card.png --needle "Carat Weight" --vertical
  ocrgrid find scan.hocr -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.svc.FindAnchor(cmd.Context(), args[0], needle, vertical)
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), report, report.Markdown)
		},
	}
	cmd.Flags().StringVarP(&needle, "needle", "n", "", "phrase to search for (default: OCRGRID_ANCHOR)")
	cmd.Flags().BoolVar(&vertical, "vertical", false, "re-run OCR on the rotated strip left of the anchor")
	return cmd
}

func (c *cli) textCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text <uri>",
		Short: "Print the recognized text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := c.svc.Text(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), map[string]string{"text": text}, func() string { return text })
		},
	}
}

func (c *cli) parseCmd() *cobra.Command {
	var configuration string

	cmd := &cobra.Command{
		Use:   "parse <uri>",
		Short: "Extract fields with a scan configuration",
		Long: `Run a scan configuration over the recognized text.

Examples:
  ocrgrid parse invoice.pdf --configuration PhotoPay
  ocrgrid parse mail.png -c EMail -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matches, err := c.svc.ParseFields(cmd.Context(), args[0], configuration)
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), matches, func() string { return scanner.RenderMatches(matches) })
		},
	}
	cmd.Flags().StringVarP(&configuration, "configuration", "c", "",
		"scan configuration (default: OCRGRID_SCAN_CONFIGURATION)")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <uri> <out.xlsx|out.json|out.yaml>",
		Short: "Export the character grid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.svc.Export(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			summary := map[string]interface{}{"output": args[1], "characters": n}
			return c.render(cmd.OutOrStdout(), summary, func() string {
				return fmt.Sprintf("Wrote %d characters to %s", n, args[1])
			})
		},
	}
}

func (c *cli) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show supported sources, engine status and configurations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), c.svc.Info(cmd.Context()))
			return err
		},
	}
}
