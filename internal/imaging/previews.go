package imaging

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// PreviewStore writes encoded images into a directory served statically
// so the browser can display what was captured.
type PreviewStore struct {
	dir string
}

// NewPreviewStore creates the preview directory if needed.
func NewPreviewStore(dir string) (*PreviewStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create preview directory: %w", err)
	}
	return &PreviewStore{dir: dir}, nil
}

// Save writes the encoded bytes under a content-hash filename and
// returns the file path. Identical payloads share a file.
func (p *PreviewStore) Save(img *EncodedImage) (string, error) {
	sum := md5.Sum(img.Data)
	name := hex.EncodeToString(sum[:]) + extensionFor(img.MIME)
	path := filepath.Join(p.dir, name)

	if err := os.WriteFile(path, img.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to save preview: %w", err)
	}
	return path, nil
}

// Remove deletes a preview file. Previews tied to released images must
// be freed or the uploads directory grows without bound.
func (p *PreviewStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove preview: %w", err)
	}
	return nil
}

// Dir returns the directory previews are written to.
func (p *PreviewStore) Dir() string {
	return p.dir
}

func extensionFor(mime string) string {
	if mime == "image/png" {
		return ".png"
	}
	return ".jpg"
}
