package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/favsync/internal/browser"
	"github.com/ironsheep/favsync/internal/clipboard"
	"github.com/ironsheep/favsync/internal/config"
	"github.com/ironsheep/favsync/internal/imaging"
	"github.com/ironsheep/favsync/internal/locate"
	"github.com/ironsheep/favsync/internal/notion"
	"github.com/ironsheep/favsync/internal/ocr"
	"github.com/ironsheep/favsync/internal/server"
	"github.com/ironsheep/favsync/internal/workflow"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	viewportWidth  = 1280
	viewportHeight = 800
)

func main() {
	cmd := "run"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "--version", "-v", "version":
		fmt.Printf("favsync %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		printHelp()
		return
	}

	if err := config.LoadEnvFile(""); err != nil {
		fmt.Fprintf(os.Stderr, "favsync: %v\n", err)
		os.Exit(1)
	}
	log := newLogger(os.Getenv(config.EnvLogLevel))

	var err error
	switch cmd {
	case "run":
		err = runWorkflow(log)
	case "serve":
		err = serve(log)
	case "locate":
		err = locateOnce(os.Args[2:])
	default:
		printHelp()
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Msg("favsync failed")
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("favsync - copy the first Notion favorite's link into a Notion page")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  favsync [run]                Log in, scrape the first favorite, publish it")
	fmt.Println("  favsync serve                Serve the screen locator as MCP tools on stdin/stdout")
	fmt.Println("  favsync locate <image> <text>")
	fmt.Println("                               Print where text appears in a screenshot")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (a .env file in the working directory is also read):")
	fmt.Println("  NOTION_API_KEY, NOTION_PAGE_ID       Notion integration token and target page (required for run)")
	fmt.Println("  APPLE_EMAIL, APPLE_PASSWORD          Apple ID credentials (required for run)")
	fmt.Println("  NOTION_DATABASE_ID                   Also add each favorite as a database row")
	fmt.Println("  FAVSYNC_FAVORITES_URL                Page listing the favorites")
	fmt.Println("  FAVSYNC_FAVORITE_TITLE               Visible title of the favorite to copy")
	fmt.Println("  FAVSYNC_HEADLESS=false               Show the browser window")
	fmt.Println("  FAVSYNC_LOG_LEVEL=debug              Enable debug logging")
}

// newLogger writes human-readable logs to stderr; stdout is for MCP and
// locate output.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func runWorkflow(log zerolog.Logger) error {
	cfg, err := config.FromLookup(os.LookupEnv)
	if err != nil {
		return err
	}

	log.Info().
		Str("version", Version).
		Bool("notion_token_set", cfg.NotionToken != "").
		Bool("apple_password_set", cfg.ApplePassword != "").
		Str("login_url", cfg.LoginURL).
		Str("favorites_url", cfg.FavoritesURL).
		Msg("Starting favsync")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := ocr.NewEngine(cfg.OCROptions())
	if info := engine.Info(); !info.Available {
		return fmt.Errorf("tesseract is not available (language %q)", info.Language)
	}

	session, err := browser.Launch(ctx, browser.Options{
		Bin:            cfg.ChromeBin,
		Headless:       cfg.Headless,
		StepTimeout:    cfg.StepTimeout,
		ViewportWidth:  viewportWidth,
		ViewportHeight: viewportHeight,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close browser")
		}
	}()

	deps := workflow.Deps{
		Browser:   session,
		Locator:   locate.New(engine),
		Reader:    engine,
		Clipboard: clipboard.ForBrowser(cfg.Headless, session),
		Publisher: notion.NewPublisher(cfg.NotionToken, cfg.NotionPageID, cfg.NotionDatabaseID, log),
	}
	if cfg.Annotate {
		deps.Annotate = annotator(cfg.HighlightColor)
	}

	runner := workflow.New(workflow.Options{
		LoginURL:      cfg.LoginURL,
		FavoritesURL:  cfg.FavoritesURL,
		FavoriteTitle: cfg.FavoriteTitle,
		AppleEmail:    cfg.AppleEmail,
		ApplePassword: cfg.ApplePassword,
		ScreenshotDir: cfg.ScreenshotDir,
		StepTimeout:   cfg.StepTimeout,
		PollInterval:  cfg.PollInterval,
	}, deps, log)

	start := time.Now()
	favorites, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("favorites", len(favorites)).Dur("elapsed", time.Since(start)).Msg("Done")
	return nil
}

// annotator saves a copy of each screenshot with the located text outlined,
// next to the original as annotated-<name>.
func annotator(hex string) workflow.Annotator {
	return func(screenshotPath string, b ocr.Bounds) error {
		img, err := imaging.Load(screenshotPath)
		if err != nil {
			return err
		}
		out := filepath.Join(filepath.Dir(screenshotPath), "annotated-"+filepath.Base(screenshotPath))
		return imaging.SaveAnnotated(out, img, b.Rect(), hex)
	}
}

func newEngine() (*ocr.Engine, error) {
	opts, err := config.OCRFromLookup(os.LookupEnv)
	if err != nil {
		return nil, err
	}
	return ocr.NewEngine(opts), nil
}

func serve(log zerolog.Logger) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	log.Debug().Str("version", Version).Str("commit", GitCommit).Msg("favsync MCP server")

	srv := server.New(locate.New(engine), engine, Version, log)
	return srv.Run()
}

type locateOutput struct {
	Found  bool        `json:"found"`
	Bounds *ocr.Bounds `json:"bounds,omitempty"`
	Center []float64   `json:"center,omitempty"`
}

func locateOnce(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: favsync locate <image> <text>")
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}

	b, ok, err := locate.New(engine).Locate(args[1], args[0])
	if err != nil {
		return err
	}

	out := locateOutput{Found: ok}
	if ok {
		x, y := b.Center()
		out.Bounds = &b
		out.Center = []float64{x, y}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
