package imaging

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultHighlightColor is used when no highlight color is configured.
const DefaultHighlightColor = "#ff0000"

// ParseColor validates a "#rrggbb" hex color.
func ParseColor(hex string) (colorful.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid highlight color %q: %w", hex, err)
	}
	return c, nil
}

// Annotate returns a copy of img with a rectangle outline drawn around r.
//
// r is in the coordinate space of img. The outline is thickness pixels wide
// and drawn inside r; the parts of r outside the image are ignored. The copy
// is rebased to start at (0,0).
func Annotate(img image.Image, r image.Rectangle, hex string, thickness int) (*image.NRGBA, error) {
	c, err := ParseColor(hex)
	if err != nil {
		return nil, err
	}
	if thickness < 1 {
		thickness = 1
	}

	dst := imaging.Clone(img)
	r = r.Sub(img.Bounds().Min).Intersect(dst.Bounds())
	if r.Empty() {
		return dst, nil
	}

	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness), // top
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y), // bottom
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y), // left
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y), // right
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(r), src, image.Point{}, draw.Src)
	}

	return dst, nil
}

// SaveAnnotated draws the highlight around r and writes the result to path.
// The output format follows the file extension.
func SaveAnnotated(path string, img image.Image, r image.Rectangle, hex string) error {
	annotated, err := Annotate(img, r, hex, 2)
	if err != nil {
		return err
	}
	if err := imaging.Save(annotated, path); err != nil {
		return fmt.Errorf("failed to save annotated image: %w", err)
	}
	return nil
}
