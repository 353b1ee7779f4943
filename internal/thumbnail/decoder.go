package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Decoder errors
var (
	ErrEmptyImage = errors.New("thumbnail: empty image data")
	ErrDecode     = errors.New("thumbnail: cannot decode image")
)

// ImageDecoder decodes GIF, JPEG, PNG and WebP data and optionally scales the
// result down so that neither side exceeds MaxDimension.
type ImageDecoder struct {
	// MaxDimension bounds the longest side in pixels. Zero keeps the original size.
	MaxDimension int
}

// Decode implements Decoder.
func (d ImageDecoder) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return Scale(img, d.MaxDimension), nil
}

// Scale returns img shrunk to fit within maxDim x maxDim, preserving the aspect ratio.
// Images that already fit, and a non-positive maxDim, return img unchanged.
func Scale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	var dw, dh int
	if w >= h {
		dw = maxDim
		dh = max(1, h*maxDim/w)
	} else {
		dh = maxDim
		dw = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
