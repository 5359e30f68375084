package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	app "github.com/ythchandraap/expert-printer-guide/internal/application/printing"
	"go.uber.org/zap"
)

func newPrintersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "printers",
		Short: "List installed printers with their class and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			enumerator := newEnumerator(cfg, zap.NewNop())
			svc := app.NewPrintService(nil, enumerator, nil, zap.NewNop(), app.WithVersion(version))

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			printers, err := svc.ListPrinters(ctx)
			if err != nil {
				return err
			}
			return writePrinterTable(cmd.OutOrStdout(), printers)
		},
	}
}

func writePrinterTable(w io.Writer, printers []app.PrinterInfo) error {
	if len(printers) == 0 {
		_, err := fmt.Fprintln(w, "no printers found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDEFAULT\tCLASS\tWIDTH(mm)\tSTATUS")
	for _, p := range printers {
		def := ""
		if p.IsDefault {
			def = "*"
		}
		width := "-"
		if p.PaperSizeKnown() {
			width = fmt.Sprintf("%.1f", float64(p.PaperSizeWidth)/10)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s (%d)\n", p.Name, def, p.Class, width, p.StatusString, p.StatusCode)
	}
	return tw.Flush()
}
