// Package ocr provides Optical Character Recognition (OCR) using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2) and turns its
// output into TextRegion values: recognized text plus a bounding box in image
// pixel coordinates. Regions are returned in the order Tesseract emits them,
// which for a single block of text is top-to-bottom, left-to-right.
//
// # Prerequisites
//
// Tesseract and its development headers must be installed, since gosseract
// links against libtesseract through cgo:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// A custom tessdata directory may be supplied via Options.TessdataPrefix.
//
// # Recognition Settings
//
// Screenshots are recognized with page segmentation mode PSM_SINGLE_BLOCK
// ("assume a single uniform block of text", tesseract --psm 6). Regions are
// produced at text-line level by default so that multi-word labels such as
// "Continue with Apple" come back as one fragment. Word, paragraph and block
// levels are available through Options.Level.
//
// # Error Handling
//
// Functions return errors for:
//   - Missing or invalid image files
//   - Unsupported language codes
//   - Tesseract initialization failures
//
// An image that contains no text is not an error: it yields no regions.
package ocr
