package transcode

import "image"

// Post-upscale enhancement. Resampling a small thumbnail up to full size
// softens edges and washes out color; a light unsharp mask before the
// resample and mild sharpness/color gains after it recover most of the
// perceived quality.

// smoothKernel is a mild 3×3 smoothing kernel (center-weighted average).
var smoothKernel = [9]float64{1, 1, 1, 1, 5, 1, 1, 1, 1}

// blurKernel approximates a radius-1 gaussian blur.
var blurKernel = [9]float64{1, 2, 1, 2, 4, 2, 1, 2, 1}

// convolve3x3 applies a normalized 3×3 kernel with clamped edges.
func convolve3x3(src *image.RGBA, kernel [9]float64) *image.RGBA {
	var sum float64
	for _, k := range kernel {
		sum += k
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, bl float64
			ki := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					sx := clampInt(x+dx, 0, w-1)
					sy := clampInt(y+dy, 0, h-1)
					o := src.PixOffset(sx, sy)
					k := kernel[ki]
					r += k * float64(src.Pix[o])
					g += k * float64(src.Pix[o+1])
					bl += k * float64(src.Pix[o+2])
					ki++
				}
			}
			o := dst.PixOffset(x, y)
			dst.Pix[o] = clampByte(r / sum)
			dst.Pix[o+1] = clampByte(g / sum)
			dst.Pix[o+2] = clampByte(bl / sum)
			dst.Pix[o+3] = 0xFF
		}
	}
	return dst
}

// unsharpMask sharpens by adding back amount times the difference between
// the image and its blur, ignoring differences at or below threshold so
// flat areas stay free of noise amplification.
func unsharpMask(src *image.RGBA, amount float64, threshold int) *image.RGBA {
	blurred := convolve3x3(src, blurKernel)

	b := src.Bounds()
	dst := image.NewRGBA(b)
	for i := 0; i < len(src.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			orig := float64(src.Pix[i+c])
			diff := orig - float64(blurred.Pix[i+c])
			if diff > float64(threshold) || diff < -float64(threshold) {
				dst.Pix[i+c] = clampByte(orig + amount*diff)
			} else {
				dst.Pix[i+c] = src.Pix[i+c]
			}
		}
		dst.Pix[i+3] = 0xFF
	}
	return dst
}

// adjustSharpness interpolates between a smoothed copy and the original.
// A factor of 1.0 returns the image unchanged; above 1.0 sharpens.
func adjustSharpness(src *image.RGBA, factor float64) *image.RGBA {
	return interpolate(convolve3x3(src, smoothKernel), src, factor)
}

// adjustColor interpolates between a grayscale copy and the original.
// A factor of 1.0 returns the image unchanged; above 1.0 saturates.
func adjustColor(src *image.RGBA, factor float64) *image.RGBA {
	b := src.Bounds()
	gray := image.NewRGBA(b)
	for i := 0; i < len(src.Pix); i += 4 {
		l := clampByte(0.299*float64(src.Pix[i]) + 0.587*float64(src.Pix[i+1]) + 0.114*float64(src.Pix[i+2]))
		gray.Pix[i] = l
		gray.Pix[i+1] = l
		gray.Pix[i+2] = l
		gray.Pix[i+3] = 0xFF
	}
	return interpolate(gray, src, factor)
}

// interpolate returns base + factor*(target-base) per channel.
func interpolate(base, target *image.RGBA, factor float64) *image.RGBA {
	dst := image.NewRGBA(target.Bounds())
	for i := 0; i < len(target.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			bv := float64(base.Pix[i+c])
			tv := float64(target.Pix[i+c])
			dst.Pix[i+c] = clampByte(bv + factor*(tv-bv))
		}
		dst.Pix[i+3] = 0xFF
	}
	return dst
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
