package workflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/favsync/internal/ocr"
	"github.com/ironsheep/favsync/internal/wait"
)

// UI labels and selectors of the login and sharing flow.
const (
	ContinueWithApple  = "Continue with Apple"
	MoreOptions        = "More options"
	CopyLink           = "Copy link"
	AppleFrameXPath    = "//iframe[contains(@src, 'appleid.apple.com')]"
	AppleAccountField  = "account_name_text_field"
	ApplePasswordField = "password_text_field"
)

// Screenshot file names, relative to Options.ScreenshotDir.
const (
	LoginScreenshot     = "notion_login_page.png"
	FavoritesScreenshot = "notion_screenshot.png"
)

// Browser is the driver capability set the run needs.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	Screenshot(ctx context.Context, path string) error
	EnterFrame(ctx context.Context, xpath string) error
	LeaveFrame()
	TypeInto(ctx context.Context, id, text string) error
	ClickAt(ctx context.Context, x, y float64) error
}

// TextLocator finds text in a screenshot file.
type TextLocator interface {
	Locate(text, imagePath string) (ocr.Bounds, bool, error)
}

// PageReader extracts the full text of a screenshot, for logging.
type PageReader interface {
	ExtractText(imagePath string) (*ocr.OCRResult, error)
}

// Clipboard reads copied text.
type Clipboard interface {
	ReadAll() (string, error)
}

// Publisher is the remote document API.
type Publisher interface {
	CheckAccess(ctx context.Context) error
	Publish(ctx context.Context, favorites []string) error
}

// Annotator saves a debug copy of a screenshot with the match highlighted.
type Annotator func(screenshotPath string, b ocr.Bounds) error

// Options holds the run settings.
type Options struct {
	LoginURL      string
	FavoritesURL  string
	FavoriteTitle string

	AppleEmail    string
	ApplePassword string

	ScreenshotDir string
	StepTimeout   time.Duration
	PollInterval  time.Duration
}

// Deps groups the collaborators of a Runner. Reader and Annotate are
// optional.
type Deps struct {
	Browser   Browser
	Locator   TextLocator
	Reader    PageReader
	Clipboard Clipboard
	Publisher Publisher
	Annotate  Annotator
}

// Runner executes the sync.
type Runner struct {
	opts Options
	deps Deps
	log  zerolog.Logger
}

// New creates a Runner.
func New(opts Options, deps Deps, log zerolog.Logger) *Runner {
	if opts.ScreenshotDir == "" {
		opts.ScreenshotDir = "."
	}
	return &Runner{
		opts: opts,
		deps: deps,
		log:  log.With().Str("component", "workflow").Logger(),
	}
}

// Run performs one full sync and returns the favorites it scraped.
//
// Only login and scraping errors are returned. Notion errors are logged.
func (r *Runner) Run(ctx context.Context) ([]string, error) {
	if err := r.deps.Publisher.CheckAccess(ctx); err != nil {
		r.log.Warn().Err(err).Msg("Continuing without confirmed page access")
	}

	if err := r.Login(ctx); err != nil {
		return nil, err
	}

	favorites, err := r.ScrapeFirstFavorite(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.deps.Publisher.Publish(ctx, favorites); err != nil {
		r.log.Error().Err(err).Msg("Failed to update Notion page or database")
	}

	return favorites, nil
}

// Login signs in to Notion with an Apple ID.
func (r *Runner) Login(ctx context.Context) error {
	r.log.Info().Str("url", r.opts.LoginURL).Msg("Navigating to Notion login page")
	if err := r.deps.Browser.Navigate(ctx, r.opts.LoginURL); err != nil {
		r.log.Error().Err(err).Msg("Failed to open login page")
		return err
	}

	clicked, err := r.clickText(ctx, ContinueWithApple, LoginScreenshot)
	if err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("failed to find and click %q button", ContinueWithApple)
	}

	if err := r.deps.Browser.EnterFrame(ctx, AppleFrameXPath); err != nil {
		r.log.Error().Err(err).Msg("Failed to switch to Apple login iframe")
		return err
	}
	r.log.Info().Msg("Switched to Apple login iframe")

	if err := r.enterCredentials(ctx); err != nil {
		r.log.Error().Err(err).Msg("Failed to enter Apple login credentials")
		return err
	}
	r.log.Info().Msg("Entered Apple login credentials")

	r.deps.Browser.LeaveFrame()

	if err := r.waitForLogin(ctx); err != nil {
		r.log.Error().Err(err).Msg("Login did not complete")
		return err
	}
	r.log.Info().Msg("Logged in to Notion with Apple successfully")
	return nil
}

func (r *Runner) enterCredentials(ctx context.Context) error {
	if err := r.deps.Browser.TypeInto(ctx, AppleAccountField, r.opts.AppleEmail); err != nil {
		return err
	}
	// The password field appears only once the account name is accepted;
	// TypeInto waits for it.
	return r.deps.Browser.TypeInto(ctx, ApplePasswordField, r.opts.ApplePassword)
}

// waitForLogin polls until the top-level page has left the login URL.
func (r *Runner) waitForLogin(ctx context.Context) error {
	err := wait.Until(ctx, r.opts.PollInterval, r.opts.StepTimeout, func(ctx context.Context) (bool, error) {
		url, err := r.deps.Browser.URL(ctx)
		if err != nil {
			return false, err
		}
		return url != "" && !strings.HasPrefix(url, r.opts.LoginURL), nil
	})
	if errors.Is(err, wait.ErrTimeout) {
		return fmt.Errorf("still on %s after %v", r.opts.LoginURL, r.opts.StepTimeout)
	}
	return err
}

// ScrapeFirstFavorite copies the link of the first favorite.
//
// It returns a one-element slice on success and an empty slice when any of
// the labels cannot be located. Driver and OCR errors are returned.
func (r *Runner) ScrapeFirstFavorite(ctx context.Context) ([]string, error) {
	if r.opts.FavoritesURL == "" || r.opts.FavoriteTitle == "" {
		r.log.Warn().Msg("Favorites URL or title not configured; nothing to scrape")
		return []string{}, nil
	}

	r.log.Info().Str("url", r.opts.FavoritesURL).Msg("Navigating to Notion page for scraping favorites")
	if err := r.deps.Browser.Navigate(ctx, r.opts.FavoritesURL); err != nil {
		return nil, err
	}

	b, ok, err := r.findText(ctx, r.opts.FavoriteTitle, FavoritesScreenshot)
	if err != nil {
		return nil, err
	}
	r.logPageText(FavoritesScreenshot)
	if !ok {
		r.log.Warn().Str("title", r.opts.FavoriteTitle).Msg("Failed to locate the first favorite")
		return []string{}, nil
	}
	r.log.Info().Interface("bounds", b).Msg("Located position of the first favorite")
	if err := r.click(ctx, b); err != nil {
		return nil, err
	}

	for _, label := range []string{MoreOptions, CopyLink} {
		clicked, err := r.clickText(ctx, label, FavoritesScreenshot)
		if err != nil {
			return nil, err
		}
		if !clicked {
			return []string{}, nil
		}
	}

	link, err := r.readLink(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		r.log.Warn().Err(err).Msg("Failed to read copied link")
		return []string{}, nil
	}
	r.log.Info().Str("link", link).Msg("Scraped first favorite link")
	return []string{link}, nil
}

// readLink polls the clipboard until it holds a link.
func (r *Runner) readLink(ctx context.Context) (string, error) {
	var link string
	var lastErr error
	err := wait.Until(ctx, r.opts.PollInterval, r.opts.StepTimeout, func(context.Context) (bool, error) {
		text, err := r.deps.Clipboard.ReadAll()
		if err != nil {
			lastErr = err
			return false, nil
		}
		if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
			link = text
			return true, nil
		}
		return false, nil
	})
	if errors.Is(err, wait.ErrTimeout) && lastErr != nil {
		return "", lastErr
	}
	if errors.Is(err, wait.ErrTimeout) {
		return "", errors.New("clipboard never held a link")
	}
	return link, err
}

// clickText locates text on a fresh screenshot and clicks its center.
// It reports false when the text never appeared.
func (r *Runner) clickText(ctx context.Context, text, shot string) (bool, error) {
	b, ok, err := r.findText(ctx, text, shot)
	if err != nil {
		return false, err
	}
	if !ok {
		r.log.Warn().Str("text", text).Msg("Failed to locate text on the screen")
		return false, nil
	}
	r.log.Info().Str("text", text).Interface("bounds", b).Msg("Located text")
	if err := r.click(ctx, b); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Runner) click(ctx context.Context, b ocr.Bounds) error {
	x, y := b.Center()
	return r.deps.Browser.ClickAt(ctx, x, y)
}

// findText captures screenshots until text is located or the step times out.
func (r *Runner) findText(ctx context.Context, text, shot string) (ocr.Bounds, bool, error) {
	path := filepath.Join(r.opts.ScreenshotDir, shot)

	var found ocr.Bounds
	err := wait.Until(ctx, r.opts.PollInterval, r.opts.StepTimeout, func(ctx context.Context) (bool, error) {
		if err := r.deps.Browser.Screenshot(ctx, path); err != nil {
			return false, err
		}
		b, ok, err := r.deps.Locator.Locate(text, path)
		if err != nil {
			return false, err
		}
		if ok {
			found = b
		}
		return ok, nil
	})
	switch {
	case errors.Is(err, wait.ErrTimeout):
		return ocr.Bounds{}, false, nil
	case err != nil:
		return ocr.Bounds{}, false, err
	}

	if r.deps.Annotate != nil {
		if err := r.deps.Annotate(path, found); err != nil {
			r.log.Warn().Err(err).Msg("Failed to save annotated screenshot")
		}
	}
	return found, true, nil
}

func (r *Runner) logPageText(shot string) {
	if r.deps.Reader == nil {
		return
	}
	result, err := r.deps.Reader.ExtractText(filepath.Join(r.opts.ScreenshotDir, shot))
	if err != nil {
		r.log.Debug().Err(err).Msg("Failed to extract page text")
		return
	}
	r.log.Debug().Str("text", result.FullText).Msg("Extracted text")
}
