// Package imaging prepares screenshots for text recognition.
//
// Screenshots of web pages mix light and dark backgrounds, colored buttons and
// anti-aliased text. Tesseract does noticeably better on a clean black and
// white image, so every image goes through the same two steps before OCR:
//
//  1. Grayscale conversion (luminance).
//  2. Global binarization with a threshold picked by Otsu's method.
//
// The package also loads images from disk and can draw a highlight rectangle
// around a located fragment, which is handy when checking why a click landed
// where it did.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Rectangles follow
// image.Rectangle conventions: Min is inclusive, Max is exclusive.
//
// # Thread Safety
//
// All functions are stateless and may be called concurrently on different
// images.
package imaging
