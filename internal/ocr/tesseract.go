package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Bounds is a bounding box in pixel coordinates relative to the image origin.
type Bounds struct {
	X      int `json:"x"`      // Left edge
	Y      int `json:"y"`      // Top edge
	Width  int `json:"width"`  // Horizontal extent
	Height int `json:"height"` // Vertical extent
}

// BoundsFromRect converts an image.Rectangle to Bounds.
func BoundsFromRect(r image.Rectangle) Bounds {
	return Bounds{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Rect returns the bounds as an image.Rectangle.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Center returns the midpoint of the box, which is where a click should land.
func (b Bounds) Center() (float64, float64) {
	return float64(b.X) + float64(b.Width)/2, float64(b.Y) + float64(b.Height)/2
}

// TextRegion represents a fragment of recognized text with its location.
type TextRegion struct {
	// Text is the recognized text content, trimmed of surrounding whitespace.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the bounding box around this text in the image.
	Bounds Bounds `json:"bounds"`
}

// OCRResult contains the complete results of text extraction from an image.
type OCRResult struct {
	// FullText is all recognized text as a single string with original spacing/newlines.
	FullText string `json:"full_text"`

	// Regions contains the fragments with their bounding boxes.
	// May be empty if bounding box extraction fails (text will still be in FullText).
	Regions []TextRegion `json:"regions"`
}

// Options configures the Tesseract engine.
type Options struct {
	// Language is a Tesseract language code such as "eng" or "eng+deu".
	Language string

	// TessdataPrefix points at a directory holding *.traineddata files.
	// Empty means the system default.
	TessdataPrefix string

	// PageSegMode selects the Tesseract layout analysis mode.
	PageSegMode gosseract.PageSegMode

	// Level is the granularity at which fragments are reported. Its zero
	// value is RIL_BLOCK, so start from DefaultOptions when only other
	// fields need changing.
	Level gosseract.PageIteratorLevel
}

// DefaultOptions returns the settings used for screenshots.
func DefaultOptions() Options {
	return Options{
		Language:    "eng",
		PageSegMode: gosseract.PSM_SINGLE_BLOCK,
		Level:       gosseract.RIL_TEXTLINE,
	}
}

// ParseLevel maps a level name to a gosseract iterator level.
// Accepted names are "block", "para", "line" and "word".
func ParseLevel(name string) (gosseract.PageIteratorLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "block":
		return gosseract.RIL_BLOCK, nil
	case "para", "paragraph":
		return gosseract.RIL_PARA, nil
	case "", "line", "textline":
		return gosseract.RIL_TEXTLINE, nil
	case "word":
		return gosseract.RIL_WORD, nil
	default:
		return 0, fmt.Errorf("unknown OCR level %q (want block, para, line or word)", name)
	}
}

// Engine runs Tesseract with a fixed set of options.
//
// Each call creates and closes its own gosseract client, so an Engine may be
// shared, but Tesseract itself is CPU bound and calls are best made one at a
// time.
type Engine struct {
	opts Options
}

// NewEngine creates an engine. An empty Language or a zero PageSegMode falls
// back to DefaultOptions; Level is used as given.
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.Language == "" {
		opts.Language = def.Language
	}
	if opts.PageSegMode == 0 {
		opts.PageSegMode = def.PageSegMode
	}
	return &Engine{opts: opts}
}

// Options returns the effective engine options.
func (e *Engine) Options() Options {
	return e.opts
}

func (e *Engine) newClient() (*gosseract.Client, error) {
	client := gosseract.NewClient()

	if e.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	if err := client.SetLanguage(e.opts.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetPageSegMode(e.opts.PageSegMode); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return client, nil
}

// Recognize runs OCR on an in-memory image and returns the detected fragments
// in emission order.
//
// The image is encoded to PNG and handed to Tesseract as bytes. Fragments with
// no visible text are dropped. Coordinates are relative to the image's Min
// point, matching what a screenshot of the same size would report.
func (e *Engine) Recognize(img image.Image) ([]TextRegion, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client, err := e.newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(e.opts.Level)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	return toRegions(boxes), nil
}

// ExtractText performs OCR on an image file and returns the full page text
// and its fragments.
//
// If fragment extraction fails after the text was recognized, the text is
// still returned with an empty Regions slice.
func (e *Engine) ExtractText(imagePath string) (*OCRResult, error) {
	client, err := e.newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(e.opts.Level)
	if err != nil {
		return &OCRResult{
			FullText: text,
			Regions:  []TextRegion{},
		}, nil
	}

	return &OCRResult{
		FullText: text,
		Regions:  toRegions(boxes),
	}, nil
}

func toRegions(boxes []gosseract.BoundingBox) []TextRegion {
	regions := make([]TextRegion, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		regions = append(regions, TextRegion{
			Text:       text,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds:     BoundsFromRect(box.Box),
		})
	}
	return regions
}

// Version returns the linked Tesseract version.
func (e *Engine) Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}

// OCRInfo contains information about the OCR subsystem.
type OCRInfo struct {
	Available      bool   `json:"available"`
	Version        string `json:"version,omitempty"`
	Backend        string `json:"backend"`
	Language       string `json:"language"`
	TessdataPrefix string `json:"tessdata_prefix,omitempty"`
}

// Info reports the engine version and settings.
func (e *Engine) Info() OCRInfo {
	version := e.Version()
	return OCRInfo{
		Available:      version != "",
		Version:        version,
		Backend:        "gosseract",
		Language:       e.opts.Language,
		TessdataPrefix: e.opts.TessdataPrefix,
	}
}
