// Package config loads favsync settings from the environment.
//
// An optional .env file is read first (via godotenv, which never overrides
// variables already set in the process environment). Four values are
// required; everything else has a default.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ironsheep/favsync/internal/imaging"
	"github.com/ironsheep/favsync/internal/ocr"
)

// Required variables.
const (
	EnvNotionToken   = "NOTION_API_KEY"
	EnvNotionPageID  = "NOTION_PAGE_ID"
	EnvAppleEmail    = "APPLE_EMAIL"
	EnvApplePassword = "APPLE_PASSWORD"
)

// Optional variables.
const (
	EnvNotionDatabaseID = "NOTION_DATABASE_ID"
	EnvLoginURL         = "FAVSYNC_LOGIN_URL"
	EnvFavoritesURL     = "FAVSYNC_FAVORITES_URL"
	EnvFavoriteTitle    = "FAVSYNC_FAVORITE_TITLE"
	EnvChromeBin        = "FAVSYNC_CHROME_BIN"
	EnvHeadless         = "FAVSYNC_HEADLESS"
	EnvScreenshotDir    = "FAVSYNC_SCREENSHOT_DIR"
	EnvTessdataPrefix   = "FAVSYNC_TESSDATA_PREFIX"
	EnvOCRLanguage      = "FAVSYNC_OCR_LANGUAGE"
	EnvOCRLevel         = "FAVSYNC_OCR_LEVEL"
	EnvStepTimeout      = "FAVSYNC_STEP_TIMEOUT"
	EnvPollInterval     = "FAVSYNC_POLL_INTERVAL"
	EnvAnnotate         = "FAVSYNC_ANNOTATE"
	EnvHighlightColor   = "FAVSYNC_HIGHLIGHT_COLOR"
	EnvLogLevel         = "FAVSYNC_LOG_LEVEL"
)

// DefaultLoginURL is the Notion login page.
const DefaultLoginURL = "https://www.notion.so/login"

// ErrMissing is wrapped by the error Load returns when required variables are
// absent.
var ErrMissing = errors.New("missing required configuration")

// Config holds every externally supplied setting.
type Config struct {
	NotionToken      string
	NotionPageID     string
	NotionDatabaseID string

	AppleEmail    string
	ApplePassword string

	LoginURL      string
	FavoritesURL  string
	FavoriteTitle string

	ChromeBin     string
	Headless      bool
	ScreenshotDir string

	TessdataPrefix string
	OCRLanguage    string
	OCRLevel       string

	StepTimeout  time.Duration
	PollInterval time.Duration

	Annotate       bool
	HighlightColor string

	LogLevel string
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads envFile if it exists and then builds a Config from the process
// environment. An empty envFile means ".env".
func Load(envFile string) (*Config, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	return FromLookup(os.LookupEnv)
}

// LoadEnvFile loads envFile into the process environment if it exists.
// Variables already set are not overridden. An empty envFile means ".env".
func LoadEnvFile(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err != nil {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	return nil
}

// OCRFromLookup reads only the OCR settings. The locate and serve commands
// use it because they need neither Notion nor Apple credentials.
func OCRFromLookup(lookup LookupFunc) (ocr.Options, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := &Config{
		TessdataPrefix: get(EnvTessdataPrefix),
		OCRLanguage:    orDefault(get(EnvOCRLanguage), "eng"),
		OCRLevel:       orDefault(get(EnvOCRLevel), "line"),
	}
	if _, err := ocr.ParseLevel(cfg.OCRLevel); err != nil {
		return ocr.Options{}, fmt.Errorf("%s: %w", EnvOCRLevel, err)
	}
	return cfg.OCROptions(), nil
}

// FromLookup builds a Config from lookup. All required variables are checked
// before returning so the error names every missing one.
func FromLookup(lookup LookupFunc) (*Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := &Config{
		NotionToken:      get(EnvNotionToken),
		NotionPageID:     get(EnvNotionPageID),
		NotionDatabaseID: get(EnvNotionDatabaseID),
		AppleEmail:       get(EnvAppleEmail),
		// Secrets may legitimately contain surrounding spaces.
		ApplePassword:  raw(lookup, EnvApplePassword),
		LoginURL:       orDefault(get(EnvLoginURL), DefaultLoginURL),
		FavoritesURL:   get(EnvFavoritesURL),
		FavoriteTitle:  raw(lookup, EnvFavoriteTitle),
		ChromeBin:      get(EnvChromeBin),
		ScreenshotDir:  orDefault(get(EnvScreenshotDir), "."),
		TessdataPrefix: get(EnvTessdataPrefix),
		OCRLanguage:    orDefault(get(EnvOCRLanguage), "eng"),
		OCRLevel:       orDefault(get(EnvOCRLevel), "line"),
		HighlightColor: orDefault(get(EnvHighlightColor), imaging.DefaultHighlightColor),
		LogLevel:       orDefault(strings.ToLower(get(EnvLogLevel)), "info"),
	}

	var missing []string
	for _, kv := range []struct{ key, val string }{
		{EnvNotionToken, cfg.NotionToken},
		{EnvNotionPageID, cfg.NotionPageID},
		{EnvAppleEmail, cfg.AppleEmail},
		{EnvApplePassword, cfg.ApplePassword},
	} {
		if kv.val == "" {
			missing = append(missing, kv.key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s must be set", ErrMissing, strings.Join(missing, ", "))
	}

	var err error
	if cfg.Headless, err = parseBool(get(EnvHeadless), true); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvHeadless, err)
	}
	if cfg.Annotate, err = parseBool(get(EnvAnnotate), false); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvAnnotate, err)
	}
	if cfg.StepTimeout, err = parseDuration(get(EnvStepTimeout), 10*time.Second); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvStepTimeout, err)
	}
	if cfg.PollInterval, err = parseDuration(get(EnvPollInterval), time.Second); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvPollInterval, err)
	}
	if _, err := imaging.ParseColor(cfg.HighlightColor); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvHighlightColor, err)
	}
	if _, err := ocr.ParseLevel(cfg.OCRLevel); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvOCRLevel, err)
	}

	return cfg, nil
}

// OCROptions translates the OCR settings into engine options.
func (c *Config) OCROptions() ocr.Options {
	opts := ocr.DefaultOptions()
	opts.Language = c.OCRLanguage
	opts.TessdataPrefix = c.TessdataPrefix
	if level, err := ocr.ParseLevel(c.OCRLevel); err == nil {
		opts.Level = level
	}
	return opts
}

func raw(lookup LookupFunc, key string) string {
	v, _ := lookup(key)
	return v
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseBool(v string, def bool) (bool, error) {
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", v)
	}
	return b, nil
}

func parseDuration(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", v)
	}
	return d, nil
}
