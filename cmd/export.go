package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rackline/labelscan/internal/store"
)

func newExportCmd() *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the product catalog to CSV or Parquet",
		Long: `Downloads every product record and writes it to a date-stamped file.

CSV output matches the spreadsheet import layout; Parquet is for
analytics pipelines.`,
		Example: `  # Export to products_<date>.csv in the current directory
  labelscan export

  # Export to Parquet at a chosen path
  labelscan export --format parquet -o catalog.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "parquet" {
				return fmt.Errorf("unknown format %q", format)
			}

			client, err := newStoreClient(cmd.Context())
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = store.ExportFilename(format, time.Now())
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			defer f.Close()

			var count int
			switch format {
			case "csv":
				count, err = client.ExportCSV(cmd.Context(), f)
			case "parquet":
				count, err = client.ExportParquet(cmd.Context(), f)
			}
			if err != nil {
				return err
			}

			slog.Info("Export complete", "file", path, "products", count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Export format: csv or parquet")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: date-stamped name)")

	return cmd
}
