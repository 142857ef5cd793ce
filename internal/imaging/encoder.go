// Package imaging re-encodes label photos into compact transport
// payloads and manages their preview files.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

const (
	// MaxWidth is the widest a transport payload is allowed to be.
	// Label photos from phone cameras are routinely 4000px wide and the
	// vision endpoint gains nothing from the extra resolution.
	MaxWidth = 1920

	jpegQuality = 85
)

// EncodedImage holds the single re-encoded copy of a source image. The
// preview file and the vision transport payload both use Data; the
// source is never read twice.
type EncodedImage struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Encode decodes the source image once, scales it down so width does not
// exceed MaxWidth (never upscaling), and re-encodes it as JPEG at fixed
// quality. Images that cannot be written as JPEG fall back to PNG.
func Encode(r io.Reader) (*EncodedImage, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img = scaleDown(img)
	bounds := img.Bounds()

	var buf bytes.Buffer
	mime := "image/jpeg"
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		buf.Reset()
		mime = "image/png"
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
	}

	return &EncodedImage{
		Data:   buf.Bytes(),
		MIME:   mime,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// scaleDown resizes src so its width is at most MaxWidth, preserving
// aspect ratio. Images already narrow enough are returned unchanged.
func scaleDown(src image.Image) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() <= MaxWidth {
		return src
	}

	height := bounds.Dy() * MaxWidth / bounds.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, MaxWidth, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
