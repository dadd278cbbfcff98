package transcode

import (
	"image/png"

	"github.com/rs/zerolog/log"
)

// ThumbnailOptions configures the downscale path.
type ThumbnailOptions struct {
	// MaxDimension caps the thumbnail's long edge. Defaults to 400.
	MaxDimension int
	// MaxBytes is the output byte ceiling. Defaults to 63KB, chosen for
	// fast loading in the mobile app's event lists.
	MaxBytes int
}

const (
	defaultThumbnailDimension = 400
	defaultThumbnailBytes     = 63 * 1024

	// The search never shrinks a thumbnail edge below this.
	minThumbnailEdge = 100
)

// Thumbnail downscales full-size image bytes to a thumbnail whose long
// edge is at most MaxDimension, then searches quality/scale combinations
// until the output fits under MaxBytes: PNG first, then JPEG at stepwise
// lower qualities, then progressively smaller dimensions. The first fit
// wins. If the floor is reached without a fit, a half-size quality-15
// JPEG is returned regardless of its size, so the thumbnail path never
// hard-fails on byte budget alone.
func Thumbnail(src []byte, opts ThumbnailOptions) (*Result, error) {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = defaultThumbnailDimension
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultThumbnailBytes
	}

	img, err := decodeFlat(src)
	if err != nil {
		return nil, err
	}
	ow := img.Bounds().Dx()
	oh := img.Bounds().Dy()

	nw, nh := fitDownscale(ow, oh, opts.MaxDimension)
	base := img
	if nw != ow || nh != oh {
		base = resizeTo(img, nw, nh)
	}

	log.Debug().
		Int("orig_width", ow).
		Int("orig_height", oh).
		Int("base_width", nw).
		Int("base_height", nh).
		Int("max_bytes", opts.MaxBytes).
		Msg("Thumbnail size search starting")

	quality := 85
	scale := 1.0
	for quality > 15 && scale > 0.3 {
		cur, cw, ch := atScale(base, nw, nh, scale)
		if cw < minThumbnailEdge || ch < minThumbnailEdge {
			break
		}

		data, err := encodePNG(cur, png.BestCompression)
		if err != nil {
			return nil, err
		}
		if len(data) <= opts.MaxBytes {
			return &Result{Data: data, Format: "png", Width: cw, Height: ch, Scale: scale}, nil
		}

		data, err = encodeJPEG(cur, quality)
		if err != nil {
			return nil, err
		}
		if len(data) <= opts.MaxBytes {
			return &Result{Data: data, Format: "jpeg", Width: cw, Height: ch, Quality: quality, Scale: scale}, nil
		}

		switch {
		case quality > 50:
			quality -= 10
		case quality > 25:
			quality -= 5
		default:
			// Shrink and restart the quality ladder at the new size.
			scale -= 0.1
			quality = 85
		}
	}

	// Floor: accept whatever a half-size low-quality JPEG comes out to.
	fw := max(minThumbnailEdge, nw/2)
	fh := max(minThumbnailEdge, nh/2)
	final := resizeTo(base, fw, fh)
	data, err := encodeJPEG(final, 15)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("width", fw).
		Int("height", fh).
		Int("size", len(data)).
		Msg("Thumbnail search hit the floor, accepting final encode")

	return &Result{Data: data, Format: "jpeg", Width: fw, Height: fh, Quality: 15, Scale: 0.5}, nil
}
