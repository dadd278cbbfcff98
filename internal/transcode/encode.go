package transcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
)

// ErrTooLarge is reported when no quality/scale combination brings the
// encoded image under the requested byte limit. The caller skips the
// asset rather than uploading oversized bytes.
var ErrTooLarge = errors.New("image cannot be encoded under the size limit")

func encodePNG(img image.Image, level png.CompressionLevel) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// encodeUnderLimit encodes img in no more than limit bytes, preferring
// higher quality and larger dimensions. The search is first-fit in
// decreasing-quality order, not a hunt for the theoretical best:
//
//  1. PNG at maximum compression.
//  2. JPEG from quality 85 down, in large steps first and smaller ones
//     near the floor; when quality bottoms out, shrink the dimensions by
//     0.1 at a moderate quality and start over.
//  3. A last pass scaling from 0.6 down toward 0.3 at a fixed quality.
//
// Returns ErrTooLarge when every combination exceeds the limit.
func encodeUnderLimit(img *image.RGBA, limit int) (*Result, error) {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	data, err := encodePNG(img, png.BestCompression)
	if err != nil {
		return nil, err
	}
	if len(data) <= limit {
		return &Result{Data: data, Format: "png", Width: w, Height: h, Scale: 1.0}, nil
	}

	quality := 85
	scale := 1.0
	for quality > 30 && scale > 0.5 {
		cur, cw, ch := atScale(img, w, h, scale)
		data, err := encodeJPEG(cur, quality)
		if err != nil {
			return nil, err
		}
		if len(data) <= limit {
			return &Result{Data: data, Format: "jpeg", Width: cw, Height: ch, Quality: quality, Scale: scale}, nil
		}

		switch {
		case quality > 60:
			quality -= 10
		case quality > 45:
			quality -= 5
		default:
			quality = 75
			scale -= 0.1
		}
	}

	for scale := 0.6; scale > 0.3; scale -= 0.1 {
		cur, cw, ch := atScale(img, w, h, scale)
		data, err := encodeJPEG(cur, 70)
		if err != nil {
			return nil, err
		}
		if len(data) <= limit {
			return &Result{Data: data, Format: "jpeg", Width: cw, Height: ch, Quality: 70, Scale: scale}, nil
		}
	}

	return nil, fmt.Errorf("%dx%d under %d bytes: %w", w, h, limit, ErrTooLarge)
}

// atScale returns img shrunk by scale, or img itself at scale 1.0.
func atScale(img *image.RGBA, w, h int, scale float64) (*image.RGBA, int, int) {
	if scale >= 1.0 {
		return img, w, h
	}
	cw := max(1, int(float64(w)*scale))
	ch := max(1, int(float64(h)*scale))
	return resizeTo(img, cw, ch), cw, ch
}
