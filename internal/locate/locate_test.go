package locate

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/favsync/internal/ocr"
)

// stubRecognizer returns fixed fragments and records what it was given.
type stubRecognizer struct {
	regions []ocr.TextRegion
	err     error
	calls   int
	lastImg image.Image
}

func (s *stubRecognizer) Recognize(img image.Image) ([]ocr.TextRegion, error) {
	s.calls++
	s.lastImg = img
	return s.regions, s.err
}

func region(text string, x, y, w, h int) ocr.TextRegion {
	return ocr.TextRegion{
		Text:       text,
		Confidence: 0.9,
		Bounds:     ocr.Bounds{X: x, Y: y, Width: w, Height: h},
	}
}

// writeScreenshot writes a small two-tone PNG and returns its path.
func writeScreenshot(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			c := color.RGBA{240, 240, 240, 255}
			if x > 8 && x < 40 && y > 10 && y < 20 {
				c = color.RGBA{30, 30, 30, 255}
			}
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "screen.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

var loginScreen = []ocr.TextRegion{
	region("Continue with Apple", 10, 20, 100, 30),
	region("Cancel", 10, 60, 50, 20),
}

func TestLocate_Scenario(t *testing.T) {
	path := writeScreenshot(t)

	tests := []struct {
		name  string
		query string
		want  ocr.Bounds
		found bool
	}{
		{"exact fragment", "Continue with Apple", ocr.Bounds{X: 10, Y: 20, Width: 100, Height: 30}, true},
		{"second fragment", "Cancel", ocr.Bounds{X: 10, Y: 60, Width: 50, Height: 20}, true},
		{"absent", "Sign in", ocr.Bounds{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(&stubRecognizer{regions: loginScreen})
			got, ok, err := l.Locate(tt.query, path)
			if err != nil {
				t.Fatalf("Locate failed: %v", err)
			}
			if ok != tt.found {
				t.Fatalf("found: got %v, want %v", ok, tt.found)
			}
			if got != tt.want {
				t.Errorf("bounds: got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFirstMatch(t *testing.T) {
	tests := []struct {
		name    string
		regions []ocr.TextRegion
		query   string
		want    ocr.Bounds
		found   bool
	}{
		{
			name:    "single exact fragment",
			regions: []ocr.TextRegion{region("More options", 5, 6, 7, 8)},
			query:   "More options",
			want:    ocr.Bounds{X: 5, Y: 6, Width: 7, Height: 8},
			found:   true,
		},
		{
			name:    "substring containment",
			regions: []ocr.TextRegion{region("Continue with Apple ID", 1, 2, 3, 4)},
			query:   "Continue with Apple",
			want:    ocr.Bounds{X: 1, Y: 2, Width: 3, Height: 4},
			found:   true,
		},
		{
			name: "first of several matches wins",
			regions: []ocr.TextRegion{
				region("Copy link", 100, 200, 10, 10),
				region("Copy link", 0, 0, 10, 10),
				region("Copy link to page", 50, 50, 10, 10),
			},
			query: "Copy link",
			want:  ocr.Bounds{X: 100, Y: 200, Width: 10, Height: 10},
			found: true,
		},
		{
			name: "later fragment when earlier ones miss",
			regions: []ocr.TextRegion{
				region("Notion", 0, 0, 10, 10),
				region("Log in", 4, 40, 10, 10),
			},
			query: "Log",
			want:  ocr.Bounds{X: 4, Y: 40, Width: 10, Height: 10},
			found: true,
		},
		{
			name:    "case sensitive",
			regions: []ocr.TextRegion{region("continue with apple", 1, 2, 3, 4)},
			query:   "Continue with Apple",
			found:   false,
		},
		{
			name:    "query longer than fragment",
			regions: []ocr.TextRegion{region("Continue", 1, 2, 3, 4)},
			query:   "Continue with Apple",
			found:   false,
		},
		{
			name:  "no fragments",
			query: "anything",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstMatch(tt.regions, tt.query)
			if ok != tt.found {
				t.Fatalf("found: got %v, want %v", ok, tt.found)
			}
			if got != tt.want {
				t.Errorf("bounds: got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLocate_EmptyQuery(t *testing.T) {
	stub := &stubRecognizer{regions: loginScreen}
	l := New(stub)

	if _, _, err := l.Locate("", writeScreenshot(t)); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Locate: got %v, want ErrEmptyQuery", err)
	}
	if _, _, err := l.LocateImage("", image.NewGray(image.Rect(0, 0, 1, 1))); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("LocateImage: got %v, want ErrEmptyQuery", err)
	}
	if stub.calls != 0 {
		t.Errorf("recognizer called %d times for empty query", stub.calls)
	}
}

func TestLocate_MissingImage(t *testing.T) {
	stub := &stubRecognizer{regions: loginScreen}
	l := New(stub)

	_, ok, err := l.Locate("Cancel", "/nonexistent/screen.png")
	if err == nil {
		t.Fatal("Locate should fail for a missing image")
	}
	if ok {
		t.Error("Locate reported a match alongside an error")
	}
	if stub.calls != 0 {
		t.Error("recognizer should not run when the image cannot be decoded")
	}
}

func TestLocate_MalformedImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("\x89PNG not really"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, _, err := New(&stubRecognizer{}).Locate("Cancel", path); err == nil {
		t.Error("Locate should fail for a malformed image")
	}
}

func TestLocate_RecognizerError(t *testing.T) {
	boom := errors.New("tesseract exploded")
	l := New(&stubRecognizer{err: boom})

	_, _, err := l.Locate("Cancel", writeScreenshot(t))
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want recognizer error", err)
	}
}

func TestLocateImage_Binarizes(t *testing.T) {
	stub := &stubRecognizer{regions: loginScreen}
	l := New(stub)

	src := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			src.Set(x, y, color.RGBA{uint8(x * 12), 90, 200, 255})
		}
	}

	if _, _, err := l.LocateImage("Cancel", src); err != nil {
		t.Fatalf("LocateImage failed: %v", err)
	}

	gray, ok := stub.lastImg.(*image.Gray)
	if !ok {
		t.Fatalf("recognizer got %T, want *image.Gray", stub.lastImg)
	}
	for _, v := range gray.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("recognizer input not binary: found %d", v)
		}
	}
}

func TestLocate_UsesLoader(t *testing.T) {
	stub := &stubRecognizer{regions: loginScreen}
	l := New(stub)

	var loaded string
	l.load = func(path string) (image.Image, error) {
		loaded = path
		return image.NewGray(image.Rect(0, 0, 4, 4)), nil
	}

	if _, ok, err := l.Locate("Cancel", "shot.png"); err != nil || !ok {
		t.Fatalf("Locate: ok=%v err=%v", ok, err)
	}
	if loaded != "shot.png" {
		t.Errorf("loader called with %q, want shot.png", loaded)
	}
}
