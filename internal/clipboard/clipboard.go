// Package clipboard reads the system clipboard.
package clipboard

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

// Reader returns the current clipboard text.
type Reader interface {
	ReadAll() (string, error)
}

// ForBrowser picks where a link copied in the browser can be read back.
// A headless browser never touches the OS clipboard, so its page clipboard
// is used; otherwise the OS clipboard is read.
func ForBrowser(headless bool, page Reader) Reader {
	if headless {
		return page
	}
	return System{}
}

// System reads from the operating system clipboard.
type System struct{}

// ReadAll returns the clipboard text with surrounding whitespace removed.
func (System) ReadAll() (string, error) {
	if clipboard.Unsupported {
		return "", fmt.Errorf("clipboard: no clipboard utility available on this system")
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("clipboard: %w", err)
	}
	return strings.TrimSpace(text), nil
}
