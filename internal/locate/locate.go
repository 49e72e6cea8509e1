// Package locate finds on-screen text in a screenshot and reports where it is.
//
// A Locator preprocesses the image (grayscale, then Otsu binarization), runs
// it through a Recognizer, and returns the bounding box of the first fragment
// whose text contains the query. Matching is case-sensitive substring
// containment, scanned in the order the recognizer emits fragments. When no
// fragment matches, the result is simply absent; that is never an error.
package locate

import (
	"errors"
	"image"
	"strings"

	"github.com/ironsheep/favsync/internal/imaging"
	"github.com/ironsheep/favsync/internal/ocr"
)

// ErrEmptyQuery is returned when the target text is empty. Every fragment
// trivially contains the empty string, so such a query cannot locate anything
// meaningful.
var ErrEmptyQuery = errors.New("locate: empty query")

// Recognizer turns an image into text fragments in emission order.
// *ocr.Engine satisfies it.
type Recognizer interface {
	Recognize(img image.Image) ([]ocr.TextRegion, error)
}

// Locator maps a target string to a bounding box in a screenshot.
type Locator struct {
	recognizer Recognizer
	load       func(path string) (image.Image, error)
}

// New creates a Locator backed by r.
func New(r Recognizer) *Locator {
	return &Locator{
		recognizer: r,
		load:       imaging.Load,
	}
}

// Locate reads the image at imagePath and looks for text in it.
//
// It returns the bounds of the first matching fragment and true, or zero
// bounds and false when nothing matches. Image decoding and recognition
// failures are returned as errors.
func (l *Locator) Locate(text, imagePath string) (ocr.Bounds, bool, error) {
	if text == "" {
		return ocr.Bounds{}, false, ErrEmptyQuery
	}
	img, err := l.load(imagePath)
	if err != nil {
		return ocr.Bounds{}, false, err
	}
	return l.LocateImage(text, img)
}

// LocateImage is Locate for an already decoded image.
func (l *Locator) LocateImage(text string, img image.Image) (ocr.Bounds, bool, error) {
	if text == "" {
		return ocr.Bounds{}, false, ErrEmptyQuery
	}

	binary, _ := imaging.Binarize(img)
	regions, err := l.recognizer.Recognize(binary)
	if err != nil {
		return ocr.Bounds{}, false, err
	}

	b, ok := FirstMatch(regions, text)
	return b, ok, nil
}

// FirstMatch returns the bounds of the first region whose text contains
// text. No scoring or tie-breaking is done beyond scan order.
func FirstMatch(regions []ocr.TextRegion, text string) (ocr.Bounds, bool) {
	for _, r := range regions {
		if strings.Contains(r.Text, text) {
			return r.Bounds, true
		}
	}
	return ocr.Bounds{}, false
}
