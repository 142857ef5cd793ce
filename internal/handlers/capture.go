package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
)

// maxUploadBytes bounds one uploaded photo or camera frame.
const maxUploadBytes = 10 * 1024 * 1024

// HandleCaptureCreate starts a new capture session.
func (h *Handler) HandleCaptureCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, h.workflow.NewCapture())
}

// HandleCapture dispatches /api/capture/{id} and its sub-resources.
func (h *Handler) HandleCapture(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/capture/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		h.writeError(w, "Capture id is required", http.StatusBadRequest)
		return
	}

	switch action {
	case "":
		h.handleCaptureState(w, r, id)
	case "images":
		h.handleImages(w, r, id)
	case "extract":
		h.handleExtract(w, r, id)
	case "save":
		h.handleSave(w, r, id)
	case "barcode/start":
		h.handleBarcodeStart(w, r, id)
	case "barcode/stop":
		h.handleBarcodeStop(w, r, id)
	case "barcode/frame":
		h.handleBarcodeFrame(w, r, id)
	case "barcode/capture":
		h.handleBarcodeCapture(w, r, id)
	case "barcode/input":
		h.handleBarcodeInput(w, r, id)
	case "field":
		h.handleField(w, r, id)
	case "edit":
		h.handleLoadForEdit(w, r, id)
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
	}
}

func (h *Handler) handleCaptureState(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap, err := h.workflow.Snapshot(id)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSON(w, snap)
}

func (h *Handler) handleImages(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case "POST":
		// A JSON body references an image by URL; anything else is a
		// multipart file upload.
		if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
			h.handleURLImage(w, r, id)
			return
		}

		file, _, err := r.FormFile("files")
		if err != nil {
			file, _, err = r.FormFile("file")
			if err != nil {
				h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		defer file.Close()

		img, err := h.workflow.AddImage(id, io.LimitReader(file, maxUploadBytes))
		if err != nil {
			h.writeWorkflowError(w, err)
			return
		}
		h.writeJSON(w, img)
	case "DELETE":
		if err := h.workflow.ClearImages(id); err != nil {
			h.writeWorkflowError(w, err)
			return
		}
		h.writeJSON(w, map[string]any{"cleared": true})
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleURLImage pulls an image referenced by URL through the pipeline.
func (h *Handler) handleURLImage(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		ImageURL string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ImageURL == "" {
		h.writeError(w, "image_url is required", http.StatusBadRequest)
		return
	}

	body, err := h.fetcher.Fetch(r.Context(), req.ImageURL)
	if err != nil {
		h.writeError(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
		return
	}

	img, err := h.workflow.AddImage(id, body)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSON(w, img)
}

func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap, err := h.workflow.Extract(r.Context(), id)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSON(w, snap)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	saved, err := h.workflow.Save(r.Context(), id)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSON(w, saved)
}

func (h *Handler) handleField(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	// The barcode field has its own endpoint with duplicate handling.
	if req.Field == "barcode" {
		h.writeError(w, "Use the barcode/input endpoint", http.StatusBadRequest)
		return
	}

	snap, err := h.workflow.SetField(id, req.Field, req.Value)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSON(w, snap)
}

func (h *Handler) handleBarcodeStart(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.workflow.StartScan(id); err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSON(w, map[string]any{"scanning": true})
}

func (h *Handler) handleBarcodeStop(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.workflow.StopScan(id); err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSON(w, map[string]any{"scanning": false})
}

// handleBarcodeFrame decodes one camera frame posted as an image body.
func (h *Handler) handleBarcodeFrame(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		h.writeError(w, "Failed to read frame: "+err.Error(), http.StatusBadRequest)
		return
	}
	frame, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		h.writeError(w, "Frame is not a decodable image", http.StatusBadRequest)
		return
	}

	code, found, err := h.workflow.FeedFrame(id, frame)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSON(w, map[string]any{"found": found, "code": code})
}

func (h *Handler) handleBarcodeCapture(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	code, ok, err := h.workflow.CaptureScan(id)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSON(w, map[string]any{"captured": ok, "code": code})
}

func (h *Handler) handleBarcodeInput(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.workflow.BarcodeInput(id, req.Value); err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	snap, err := h.workflow.Snapshot(id)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	h.writeJSON(w, snap)
}

func (h *Handler) handleLoadForEdit(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	productID, barcode, sku, err := editKeys(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.workflow.LoadForEdit(r.Context(), id, productID, barcode, sku)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	if p == nil {
		h.writeError(w, "No matching product", http.StatusNotFound)
		return
	}
	h.writeJSON(w, p)
}
