package handlers

import (
	"net/http"
	"path"
	"strings"
)

func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	filepath := strings.TrimPrefix(r.URL.Path, "/static/")

	// Image previews live in the uploads directory, everything else in
	// the static asset tree.
	if rest, ok := strings.CutPrefix(filepath, "uploads/"); ok {
		if strings.Contains(rest, "..") {
			http.Error(w, "Invalid file path", http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, path.Join(h.uploadsDir, rest))
		return
	}

	if filepath == "" || filepath == "/" {
		filepath = "index.html"
	}

	// Prevent directory traversal attacks
	if strings.Contains(filepath, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	// Set appropriate content type based on file extension
	switch {
	case strings.HasSuffix(filepath, ".css"):
		w.Header().Set("Content-Type", "text/css")
	case strings.HasSuffix(filepath, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	case strings.HasSuffix(filepath, ".html"):
		w.Header().Set("Content-Type", "text/html")
	}

	http.ServeFile(w, r, path.Join(h.staticDir, filepath))
}
