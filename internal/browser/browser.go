// Package browser drives a Chromium instance through go-rod.
//
// A Session holds one page and an optional current frame. All element
// operations run against the current frame when one has been entered, and
// against the top-level page otherwise. Pointer clicks always target the
// top-level page, because screenshot coordinates are page coordinates.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"
)

// Options configures the launched browser.
type Options struct {
	// Bin is the Chromium/Chrome binary. Empty lets rod find or download one.
	Bin string

	// Headless runs without a visible window.
	Headless bool

	// StepTimeout bounds each element lookup and navigation.
	StepTimeout time.Duration

	// ViewportWidth and ViewportHeight size the page. Zero keeps the default.
	ViewportWidth  int
	ViewportHeight int
}

// Session is a single browser page plus its launcher.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	frame    *rod.Page
	timeout  time.Duration
	log      zerolog.Logger
}

// Launch starts Chromium and opens a stealth page.
func Launch(ctx context.Context, opts Options, log zerolog.Logger) (*Session, error) {
	log = log.With().Str("component", "browser").Logger()

	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		NoSandbox(true).
		Set("disable-dev-shm-usage")
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}

	log.Info().Str("bin", opts.Bin).Bool("headless", opts.Headless).Msg("Launching browser")
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := stealth.Page(b)
	if err != nil {
		b.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opts.ViewportWidth,
			Height:            opts.ViewportHeight,
			DeviceScaleFactor: 1,
		}); err != nil {
			b.Close()
			l.Kill()
			return nil, fmt.Errorf("failed to set viewport: %w", err)
		}
	}

	// Headless Chromium keeps copied text in its own clipboard, reachable
	// only through navigator.clipboard.
	if err := (proto.BrowserGrantPermissions{
		Permissions: []proto.BrowserPermissionType{
			proto.BrowserPermissionTypeClipboardReadWrite,
			proto.BrowserPermissionTypeClipboardSanitizedWrite,
		},
	}).Call(b); err != nil {
		b.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to grant clipboard permissions: %w", err)
	}

	timeout := opts.StepTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	log.Info().Msg("Browser initialized successfully")
	return &Session{
		launcher: l,
		browser:  b,
		page:     page,
		timeout:  timeout,
		log:      log,
	}, nil
}

// current returns the frame in use, bound to ctx and the step timeout.
func (s *Session) current(ctx context.Context) *rod.Page {
	p := s.page
	if s.frame != nil {
		p = s.frame
	}
	return p.Context(ctx).Timeout(s.timeout)
}

// Navigate loads url in the top-level page and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.frame = nil
	p := s.page.Context(ctx).Timeout(s.timeout)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("failed waiting for %s to load: %w", url, err)
	}
	s.log.Debug().Str("url", url).Msg("Navigated")
	return nil
}

// URL returns the top-level page URL.
func (s *Session) URL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("failed to read page info: %w", err)
	}
	return info.URL, nil
}

// Screenshot captures the visible viewport of the top-level page as PNG.
func (s *Session) Screenshot(ctx context.Context, path string) error {
	data, err := s.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	return nil
}

// EnterFrame switches element operations into the iframe matched by xpath.
func (s *Session) EnterFrame(ctx context.Context, xpath string) error {
	el, err := s.current(ctx).ElementX(xpath)
	if err != nil {
		return fmt.Errorf("failed to find frame %s: %w", xpath, err)
	}
	frame, err := el.Frame()
	if err != nil {
		return fmt.Errorf("failed to switch to frame %s: %w", xpath, err)
	}
	s.frame = frame
	return nil
}

// LeaveFrame returns element operations to the top-level page.
func (s *Session) LeaveFrame() {
	s.frame = nil
}

// TypeInto waits for the element with the given id, types text into it and
// presses Enter.
func (s *Session) TypeInto(ctx context.Context, id, text string) error {
	el, err := s.current(ctx).Element("#" + id)
	if err != nil {
		return fmt.Errorf("failed to find #%s: %w", id, err)
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("failed to type into #%s: %w", id, err)
	}
	if err := el.Type(input.Enter); err != nil {
		return fmt.Errorf("failed to submit #%s: %w", id, err)
	}
	return nil
}

// ClickAt moves the pointer to (x, y) in page coordinates and clicks.
func (s *Session) ClickAt(ctx context.Context, x, y float64) error {
	p := s.page.Context(ctx)
	if err := p.Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return fmt.Errorf("failed to move pointer: %w", err)
	}
	if err := p.Mouse.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click at (%.0f, %.0f): %w", x, y, err)
	}
	return nil
}

// ReadAll returns the page clipboard text with surrounding whitespace
// removed. It satisfies the clipboard reader used by the workflow.
func (s *Session) ReadAll() (string, error) {
	res, err := s.page.Timeout(s.timeout).Eval(`() => navigator.clipboard.readText()`)
	if err != nil {
		return "", fmt.Errorf("failed to read page clipboard: %w", err)
	}
	return strings.TrimSpace(res.Value.Str()), nil
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() error {
	if s.browser == nil {
		return nil
	}
	err := s.browser.Close()
	s.launcher.Cleanup()
	s.browser = nil
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}
