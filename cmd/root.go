package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labelscan",
		Short: "Retail label capture tool with LLM-powered field extraction",
		Long: `Labelscan turns photos of retail labels and tags into catalog records.

It serves a capture interface for photographing labels, extracting product
fields with vision-capable LLMs, scanning barcodes, and saving records to
the product catalog.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}
