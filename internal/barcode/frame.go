package barcode

import (
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

// FrameDecoder decodes UPC/EAN barcodes from still camera frames.
// Decoding itself is delegated to gozxing.
type FrameDecoder struct {
	reader gozxing.Reader
}

// NewFrameDecoder creates a decoder restricted to the UPC/EAN families.
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{
		reader: oned.NewMultiFormatUPCEANReader(nil),
	}
}

// Decode returns the barcode text found in img, or an error when no
// valid 12/13-digit code is present.
func (d *FrameDecoder) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to prepare frame for decoding: %w", err)
	}

	result, err := d.reader.Decode(bmp, nil)
	if err != nil {
		return "", fmt.Errorf("no barcode found in frame: %w", err)
	}

	text := result.GetText()
	if !IsValidCode(text) {
		return "", fmt.Errorf("decoded text %q is not a 12/13-digit barcode", text)
	}
	return text, nil
}
