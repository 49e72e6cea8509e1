package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// Luminance weights used by OpenCV's BGR2GRAY conversion.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Grayscale converts an image to 8-bit luminance. The result always starts
// at the origin.
func Grayscale(img image.Image) *image.Gray {
	rgba := effect.GrayscaleWithWeights(img, lumaR, lumaG, lumaB)
	b := rgba.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := rgba.Pix[rgba.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := gray.Pix[gray.PixOffset(0, y):]
		for x := 0; x < b.Dx(); x++ {
			// All three channels carry the same value.
			dst[x] = src[x*4]
		}
	}
	return gray
}

// OtsuLevel computes a global threshold for a grayscale image using Otsu's
// method.
//
// The returned level t maximizes the between-class variance of the two
// classes {v <= t} and {v > t} over the 256-bin intensity histogram. When
// several levels tie, the lowest one wins. A uniform or empty image yields 0.
func OtsuLevel(gray *image.Gray) uint8 {
	var hist [256]int
	b := gray.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := gray.Pix[gray.PixOffset(b.Min.X, y):gray.PixOffset(b.Max.X, y)]
		for _, v := range row {
			hist[v]++
		}
	}

	total := float64(b.Dx() * b.Dy())
	if total == 0 {
		return 0
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i * c)
	}

	var (
		sumB, weightB float64
		best          = -1.0
		level         int
	)
	for t := 0; t < 256; t++ {
		weightB += float64(hist[t])
		if weightB == 0 {
			continue
		}
		weightF := total - weightB
		if weightF == 0 {
			break
		}
		sumB += float64(t * hist[t])

		meanB := sumB / weightB
		meanF := (sum - sumB) / weightF
		between := weightB * weightF * (meanB - meanF) * (meanB - meanF)
		if between > best {
			best = between
			level = t
		}
	}

	return uint8(level)
}

// Binarize converts an image to pure black and white.
//
// The image is converted to grayscale, an Otsu level is computed, and every
// pixel strictly above the level becomes white (255) while the rest become
// black (0). The chosen level is returned alongside the image.
func Binarize(img image.Image) (*image.Gray, uint8) {
	gray := Grayscale(img)
	level := OtsuLevel(gray)
	return ThresholdAbove(gray, level), level
}

// ThresholdAbove returns a copy of gray where values strictly greater than
// level are 255 and all others are 0.
func ThresholdAbove(gray *image.Gray, level uint8) *image.Gray {
	b := gray.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		src := gray.Pix[gray.PixOffset(b.Min.X, y):gray.PixOffset(b.Max.X, y)]
		dst := out.Pix[out.PixOffset(b.Min.X, y):]
		for x, v := range src {
			if v > level {
				dst[x] = 255
			}
		}
	}
	return out
}
