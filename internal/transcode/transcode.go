// Package transcode converts event images between their full-size and
// thumbnail representations under dimension and byte-size constraints.
// It is pure image work: no storage or credential concerns, so every
// operation is unit-testable without network access.
package transcode

import (
	"bytes"
	"fmt"
	"image"

	// Registered decoders. The input format is sniffed from magic bytes
	// by image.Decode, never trusted from object metadata.
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Result is the outcome of a transcode operation.
type Result struct {
	Data   []byte
	Format string // "png" or "jpeg"
	Width  int
	Height int
	// Quality is the JPEG quality the size search settled on, 0 for PNG.
	Quality int
	// Scale is the extra shrink factor the size search applied on top of
	// the dimension fit (1.0 when no shrinking was needed).
	Scale float64
}

// decodeFlat decodes PNG or JPEG bytes and flattens any alpha or palette
// color model onto an opaque white background. The target formats
// downstream do not need transparency.
func decodeFlat(data []byte) (*image.RGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst, nil
}

// resizeTo resamples src to exactly w×h using the CatmullRom kernel.
func resizeTo(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// fitDownscale caps the long edge at maxDim, preserving aspect ratio.
// Images already within the cap keep their dimensions.
func fitDownscale(w, h, maxDim int) (int, int) {
	if w >= h {
		nw := min(maxDim, w)
		nh := h * nw / w
		return nw, max(1, nh)
	}
	nh := min(maxDim, h)
	nw := w * nh / h
	return max(1, nw), nh
}

// fitBox fits w×h into a targetW×targetH bounding box, preserving aspect
// ratio. Used by the upscale path, so the result may be larger than the
// input.
func fitBox(w, h, targetW, targetH int) (int, int) {
	ratio := float64(w) / float64(h)
	if ratio >= 1 {
		nw := min(targetW, int(float64(targetH)*ratio))
		nh := int(float64(nw) / ratio)
		return nw, max(1, nh)
	}
	nh := min(targetH, int(float64(targetW)/ratio))
	nw := int(float64(nh) * ratio)
	return max(1, nw), nh
}
