package transcode

import (
	"image/png"

	"github.com/rs/zerolog/log"
)

// UpscaleOptions configures the thumbnail-to-image path.
type UpscaleOptions struct {
	// TargetWidth and TargetHeight bound the output. Defaults to 800×800.
	TargetWidth  int
	TargetHeight int
	// MaxBytes, when positive, runs the output through the same
	// size-constrained encode search as the downscale path. Zero disables
	// the ceiling and the output is a single PNG encode.
	MaxBytes int
}

const defaultUpscaleTarget = 800

// Upscale resizes thumbnail bytes up into the target bounding box,
// preserving aspect ratio. When the source is genuinely smaller than the
// target it is pre-sharpened before the CatmullRom resample and given a
// mild sharpness and color lift afterwards; a source already at or above
// the target size is just resampled.
func Upscale(src []byte, opts UpscaleOptions) (*Result, error) {
	if opts.TargetWidth <= 0 {
		opts.TargetWidth = defaultUpscaleTarget
	}
	if opts.TargetHeight <= 0 {
		opts.TargetHeight = defaultUpscaleTarget
	}

	img, err := decodeFlat(src)
	if err != nil {
		return nil, err
	}
	ow := img.Bounds().Dx()
	oh := img.Bounds().Dy()

	nw, nh := fitBox(ow, oh, opts.TargetWidth, opts.TargetHeight)

	log.Debug().
		Int("orig_width", ow).
		Int("orig_height", oh).
		Int("target_width", nw).
		Int("target_height", nh).
		Msg("Upscaling thumbnail")

	if ow < nw || oh < nh {
		img = unsharpMask(img, 1.2, 3)
		img = resizeTo(img, nw, nh)
		img = adjustSharpness(img, 1.1)
		img = adjustColor(img, 1.05)
	} else {
		img = resizeTo(img, nw, nh)
	}

	if opts.MaxBytes <= 0 {
		data, err := encodePNG(img, png.DefaultCompression)
		if err != nil {
			return nil, err
		}
		return &Result{Data: data, Format: "png", Width: nw, Height: nh, Scale: 1.0}, nil
	}

	return encodeUnderLimit(img, opts.MaxBytes)
}
