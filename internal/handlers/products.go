package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rackline/labelscan/internal/store"
)

// editKeys pulls the lookup keys for fetch-for-edit out of the query
// string. At least one of id, barcode, or sku must be present.
func editKeys(r *http.Request) (*int64, string, string, error) {
	q := r.URL.Query()

	var productID *int64
	if raw := q.Get("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, "", "", fmt.Errorf("invalid id %q", raw)
		}
		productID = &id
	}

	barcode := strings.TrimSpace(q.Get("barcode"))
	sku := strings.TrimSpace(q.Get("sku"))

	if productID == nil && barcode == "" && sku == "" {
		return nil, "", "", errors.New("one of id, barcode, or sku is required")
	}
	return productID, barcode, sku, nil
}

// HandleProductEdit looks a product up by id, barcode, or sku without
// touching any capture session.
func (h *Handler) HandleProductEdit(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	productID, barcode, sku, err := editKeys(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.catalog.FetchForEdit(r.Context(), productID, barcode, sku)
	if err != nil {
		h.writeError(w, "Lookup failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if p == nil {
		h.writeError(w, "No matching product", http.StatusNotFound)
		return
	}
	h.writeJSON(w, p)
}

// HandleExport streams the full catalog as a date-stamped download.
// ?format=parquet switches off the default CSV.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	filename := store.ExportFilename(format, time.Now())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		if _, err := h.catalog.ExportCSV(r.Context(), w); err != nil {
			h.writeError(w, "Export failed: "+err.Error(), http.StatusInternalServerError)
		}
	case "parquet":
		w.Header().Set("Content-Type", "application/octet-stream")
		if _, err := h.catalog.ExportParquet(r.Context(), w); err != nil {
			h.writeError(w, "Export failed: "+err.Error(), http.StatusInternalServerError)
		}
	default:
		h.writeError(w, "Unknown format "+format, http.StatusBadRequest)
	}
}

// HandleUsers lists or creates app user names for the verified-by
// picker.
func (h *Handler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		users, err := h.catalog.ListAppUsers(r.Context())
		if err != nil {
			h.writeError(w, "Failed to list users: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, users)
	case "POST":
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			h.writeError(w, "name is required", http.StatusBadRequest)
			return
		}
		user, err := h.catalog.CreateAppUser(r.Context(), strings.TrimSpace(req.Name))
		if err != nil {
			h.writeError(w, "Failed to create user: "+err.Error(), http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, user)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
