package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/rackline/labelscan/internal/events"
	"github.com/rackline/labelscan/internal/handlers"
	"github.com/rackline/labelscan/internal/imaging"
	"github.com/rackline/labelscan/internal/vision"
	"github.com/rackline/labelscan/internal/workflow"
)

func newServeCmd() *cobra.Command {
	var port string
	var staticDir string
	var uploadsDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the label capture interface",
		Long: `Starts the labelscan capture interface on the specified port.

The capture interface lets you photograph product labels, extract fields
with a vision-capable LLM (Gemini, OpenAI, or Ollama), scan barcodes,
and save records to the product catalog.`,
		Example: `  # Start server on default port 8888
  labelscan serve

  # Start server on custom port
  labelscan serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			extractor, err := vision.NewClient()
			if err != nil {
				return err
			}

			catalog, err := newStoreClient(cmd.Context())
			if err != nil {
				return err
			}

			previews, err := imaging.NewPreviewStore(uploadsDir)
			if err != nil {
				return err
			}

			bus := events.New()
			bus.Subscribe(events.SaveCompleted, func(e events.Event) {
				slog.Info("Product saved", "capture", e.CaptureID)
			})
			bus.Subscribe(events.DuplicateFound, func(e events.Event) {
				slog.Info("Duplicate barcode typed", "capture", e.CaptureID, "existing_id", e.Payload)
			})

			wf := workflow.NewService(extractor, catalog, previews, bus)
			handler := handlers.New(wf, catalog, staticDir, previews.Dir())

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/capture", handler.HandleCaptureCreate)
			mux.HandleFunc("/api/capture/", handler.HandleCapture)
			mux.HandleFunc("/api/products/edit", handler.HandleProductEdit)
			mux.HandleFunc("/api/export", handler.HandleExport)
			mux.HandleFunc("/api/users", handler.HandleUsers)
			mux.HandleFunc("/", handler.HandleStatic)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Labelscan interface available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&staticDir, "static-dir", "static", "Directory of UI assets")
	cmd.Flags().StringVar(&uploadsDir, "uploads-dir", "uploads", "Directory for image previews")

	return cmd
}
