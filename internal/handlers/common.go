// Package handlers exposes the capture workflow and the product catalog
// over HTTP for the browser UI.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/rackline/labelscan/internal/imaging"
	"github.com/rackline/labelscan/internal/models"
	"github.com/rackline/labelscan/internal/store"
	"github.com/rackline/labelscan/internal/workflow"
)

// Catalog is the slice of the table-store client the HTTP layer calls
// directly, outside any capture session.
type Catalog interface {
	FetchForEdit(ctx context.Context, id *int64, barcode, sku string) (*models.Product, error)
	ExportCSV(ctx context.Context, w io.Writer) (int, error)
	ExportParquet(ctx context.Context, w io.Writer) (int, error)
	ListAppUsers(ctx context.Context) ([]models.AppUser, error)
	CreateAppUser(ctx context.Context, name string) (*models.AppUser, error)
}

type Handler struct {
	workflow   *workflow.Service
	catalog    Catalog
	fetcher    *imaging.Fetcher
	staticDir  string
	uploadsDir string
}

func New(wf *workflow.Service, catalog Catalog, staticDir, uploadsDir string) *Handler {
	return &Handler{
		workflow:   wf,
		catalog:    catalog,
		fetcher:    imaging.NewFetcher(),
		staticDir:  staticDir,
		uploadsDir: uploadsDir,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// writeWorkflowError maps the workflow's sentinel errors onto status
// codes. Duplicate conflicts surface the offending field so the UI can
// highlight it.
func (h *Handler) writeWorkflowError(w http.ResponseWriter, err error) {
	var dup *store.DuplicateError
	switch {
	case errors.Is(err, workflow.ErrCaptureNotFound):
		h.writeError(w, "Capture session not found", http.StatusNotFound)
	case errors.Is(err, workflow.ErrNameRequired):
		h.writeError(w, "Product name is required", http.StatusBadRequest)
	case errors.Is(err, workflow.ErrNoImages):
		h.writeError(w, "No images captured", http.StatusBadRequest)
	case errors.As(err, &dup):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		if encErr := json.NewEncoder(w).Encode(map[string]any{
			"error": dup.Error(),
			"field": string(dup.Field),
		}); encErr != nil {
			slog.Error("Unable to encode duplicate response", "err", encErr)
		}
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}
