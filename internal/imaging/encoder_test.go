package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

// testJPEG renders a small gradient so the encoder has non-trivial
// pixel data to work with.
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y += 4 {
		for x := 0; x < width; x += 4 {
			c := color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255}
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestEncodeScalesDownWideImages(t *testing.T) {
	source := testJPEG(t, 4000, 3000)

	encoded, err := Encode(bytes.NewReader(source))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if encoded.Width != MaxWidth {
		t.Errorf("Expected width %d, got %d", MaxWidth, encoded.Width)
	}
	if encoded.Height != 1440 {
		t.Errorf("Expected aspect-preserving height 1440, got %d", encoded.Height)
	}
	if encoded.MIME != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %s", encoded.MIME)
	}
	if len(encoded.Data) == 0 {
		t.Error("Expected non-empty payload")
	}
}

func TestEncodeNeverUpscales(t *testing.T) {
	source := testJPEG(t, 640, 480)

	encoded, err := Encode(bytes.NewReader(source))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if encoded.Width != 640 || encoded.Height != 480 {
		t.Errorf("Expected 640x480 unchanged, got %dx%d", encoded.Width, encoded.Height)
	}
}

func TestEncodeIsIdempotentOnDimensions(t *testing.T) {
	source := testJPEG(t, 4000, 3000)

	first, err := Encode(bytes.NewReader(source))
	if err != nil {
		t.Fatalf("First encode failed: %v", err)
	}

	second, err := Encode(bytes.NewReader(first.Data))
	if err != nil {
		t.Fatalf("Second encode failed: %v", err)
	}

	if second.Width != first.Width || second.Height != first.Height {
		t.Errorf("Re-encoding changed dimensions: %dx%d -> %dx%d",
			first.Width, first.Height, second.Width, second.Height)
	}
}

func TestEncodeRejectsGarbage(t *testing.T) {
	if _, err := Encode(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("Expected error for non-image input")
	}
}

func TestPreviewStoreSaveAndRemove(t *testing.T) {
	store, err := NewPreviewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewPreviewStore failed: %v", err)
	}

	encoded, err := Encode(bytes.NewReader(testJPEG(t, 100, 100)))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	path, err := store.Save(encoded)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Ext(path) != ".jpg" {
		t.Errorf("Expected .jpg preview, got %s", path)
	}

	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read preview back: %v", err)
	}
	if !bytes.Equal(saved, encoded.Data) {
		t.Error("Preview file must hold the same bytes as the transport payload")
	}

	if err := store.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected preview file to be deleted")
	}

	// Removing twice is not an error.
	if err := store.Remove(path); err != nil {
		t.Errorf("Second remove should be a no-op, got %v", err)
	}
}
