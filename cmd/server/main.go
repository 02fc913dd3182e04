// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/blindtest/internal/api/connect"
	"github.com/osa030/blindtest/internal/api/rest"
	"github.com/osa030/blindtest/internal/app/clip"
	"github.com/osa030/blindtest/internal/app/history"
	"github.com/osa030/blindtest/internal/app/locator"
	"github.com/osa030/blindtest/internal/app/round"
	"github.com/osa030/blindtest/internal/app/selector"
	"github.com/osa030/blindtest/internal/infra/config"
	"github.com/osa030/blindtest/internal/infra/ffmpeg"
	"github.com/osa030/blindtest/internal/infra/logger"
	"github.com/osa030/blindtest/internal/infra/spotify"
	"github.com/osa030/blindtest/internal/infra/ytdlp"
)

var (
	app        = kingpin.New("blindtest-server", "Blind test music server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-locators command
	listLocatorsCmd = app.Command("list-locators", "List available media locator providers and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Handle list-locators command
	if command == listLocatorsCmd.FullCommand() {
		printLocators()
		return
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logCloser.Close()

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %+v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %+v", err)
		logCloser.Close()
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	creds := cfg.Credentials()
	if !creds.SpotifyClientID || !creds.SpotifyClientSecret {
		zlog.Warn().Msg("Spotify credentials are not configured, /play will fail until SPOTIPY_CLIENT_ID and SPOTIPY_CLIENT_SECRET are set")
	}
	if cfg.Retriever.RequireCookies && !creds.DownloadCookies {
		zlog.Warn().Msg("retriever.require_cookies is set but YTDLP_COOKIES_BASE64 is empty, downloads will fail")
	}
	checkTools(cfg)

	// Components
	catalog := spotify.New(ctx, spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		Market:       cfg.Spotify.Market,
		Timeout:      cfg.Spotify.Timeout,
	})

	locatorChain, err := locator.NewChainFromConfig(ctx, cfg.Locator, locator.Dependencies{
		HTTPClient: &http.Client{Timeout: cfg.Locator.Timeout},
	})
	if err != nil {
		return fmt.Errorf("failed to create media locator: %w", err)
	}

	retriever := ytdlp.NewRetriever(ytdlp.Config{
		Format:         cfg.Retriever.Format,
		AudioQuality:   cfg.Retriever.AudioQuality,
		CookiesBase64:  cfg.Retriever.CookiesBase64,
		RequireCookies: cfg.Retriever.RequireCookies,
		KeepTags:       cfg.Retriever.KeepTags,
		Timeout:        cfg.Retriever.Timeout,
		TempDir:        cfg.Storage.WorkDir,
	})

	clipper := clip.New(ffmpeg.New(ffmpeg.Config{
		FFmpegPath:  cfg.Clipper.FFmpegPath,
		FFprobePath: cfg.Clipper.FFprobePath,
		Bitrate:     cfg.Clipper.Bitrate,
	}))

	historyLog := history.NewLog(cfg.Game.HistorySize)

	orchestrator := round.NewOrchestrator(round.Dependencies{
		Catalog:   catalog,
		Selector:  selector.New(),
		Locator:   locatorChain,
		Retriever: retriever,
		Clipper:   clipper,
		History:   historyLog,
	}, round.Config{
		DefaultPlaylist: cfg.Game.DefaultPlaylist,
		WorkDir:         cfg.Storage.WorkDir,
		StaticDir:       cfg.Storage.StaticDir,
		ClipName:        cfg.Storage.ClipName,
	})

	if err := os.MkdirAll(cfg.Storage.StaticDir, 0755); err != nil {
		return fmt.Errorf("failed to create static dir: %w", err)
	}

	// Create HTTP mux
	mux := http.NewServeMux()

	rest.NewHandler(orchestrator, historyLog, rest.Config{
		DefaultDuration: cfg.Game.DefaultDuration,
		DefaultPlaylist: cfg.Game.DefaultPlaylist,
		StaticDir:       cfg.Storage.StaticDir,
		Credentials:     creds,
	}).Register(mux)

	gameService := apiconnect.NewGameService(orchestrator, historyLog, cfg.Game.DefaultDuration, cfg.Game.DefaultPlaylist)
	gamePath, gameHandler := apiconnect.NewGameServiceHandler(
		gameService,
		connect.WithInterceptors(apiconnect.NewLoggingInterceptor()),
	)
	mux.Handle(gamePath, gameHandler)

	// Create server with h2c (HTTP/2 cleartext) support
	serverAddr := cfg.Server.Addr
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           h2c.NewHandler(rest.LogRequests(mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to capture server startup errors
	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", serverAddr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	// Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown; in-flight rounds may need the full download timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RoundTimeout())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// printLocators prints available media locator providers.
func printLocators() {
	fmt.Println("Available Locator Providers:")
	for _, t := range locator.Types() {
		fmt.Printf("  %s\n", t)
	}
}

// checkTools warns about external programs missing from PATH.
func checkTools(cfg *config.Config) {
	for _, tool := range []string{"yt-dlp", cfg.Clipper.FFmpegPath, cfg.Clipper.FFprobePath} {
		if _, err := exec.LookPath(tool); err != nil {
			zlog.Warn().Msgf("External tool not found: %s (%v)", tool, err)
		}
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
