// Package main provides the player daemon entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/isaibox/internal/api/connect"
	"github.com/osa030/isaibox/internal/app/filter"
	"github.com/osa030/isaibox/internal/app/notification"
	"github.com/osa030/isaibox/internal/app/playback"
	"github.com/osa030/isaibox/internal/audio/backend"
	"github.com/osa030/isaibox/internal/domain/playlist"
	"github.com/osa030/isaibox/internal/infra/catalogfile"
	"github.com/osa030/isaibox/internal/infra/config"
	"github.com/osa030/isaibox/internal/infra/logger"
	"github.com/osa030/isaibox/internal/infra/metrics"
)

var (
	app        = kingpin.New("isaibox-server", "isaibox playlist player daemon")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: from config)").String()

	// list-tracks command
	listTracksCmd = app.Command("list-tracks", "Print the filtered catalog and exit")

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available catalog filters and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the daemon (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Command-line flags override the log section
	loggerConfig := logger.Config{
		Output: cfg.Log.Output,
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logCloser.Close()

	if command == listTracksCmd.FullCommand() {
		if err := printTracks(cfg); err != nil {
			zlog.Fatal().Msgf("Failed to load catalog: %v", err)
		}
		return
	}

	zlog.Info().Msgf("Loaded config from %s", *configPath)

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %+v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	zlog.Info().Msgf("Catalog %q: %d tracks", catalog.Name(), catalog.Len())

	handles, err := backend.NewPair(cfg.Audio, cfg.Playback.SampleInterval())
	if err != nil {
		return errors.Wrap(err, "failed to create audio backend")
	}

	controller := playback.NewController(playback.Config{
		StallThreshold:  cfg.Playback.StallThreshold(),
		EventBufferSize: cfg.Playback.EventBufferSize,
		Recorder:        metrics.NewPlaybackRecorder(),
	}, catalog, handles)
	defer controller.Close()

	if err := controller.Prepare(); err != nil {
		// Not fatal: the track is loaded again when selected.
		zlog.Warn().Err(err).Msg("Failed to prepare first track")
	}

	notifier := notification.NewManager()
	playerService := apiconnect.NewPlayerService(controller, notifier)
	go playerService.Forward(controller.Events())

	// Create HTTP mux
	mux := http.NewServeMux()
	playerPath, playerHandler := apiconnect.NewHandler(playerService, cfg.Control.Token)
	mux.Handle(playerPath, playerHandler)
	mux.Handle(cfg.Server.MetricsPath, metrics.Handler())

	if !cfg.ControlEnabled() {
		zlog.Warn().Msg("control.token is empty, mutating RPCs are open")
	}

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	ctx := context.Background()
	if cfg.Playback.AutoPlay {
		go func() {
			if err := controller.SelectTrack(ctx, 0); err != nil {
				zlog.Warn().Err(err).Msg("Auto play failed")
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGCONT)

wait:
	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGCONT {
				// Resumed after suspension: playback may have been paused underneath us
				go func() {
					if err := controller.OnVisible(ctx); err != nil {
						zlog.Warn().Err(err).Msg("Failed to resume after SIGCONT")
					}
				}()
				continue
			}
			zlog.Info().Msgf("Received %s, shutting down...", sig)
			break wait
		case err := <-serverErrCh:
			return errors.Wrap(err, "server error")
		}
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close the notifier first to terminate subscription streams
	notifier.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// loadCatalog loads the catalog and drops entries rejected by the enabled filters.
func loadCatalog(cfg *config.Config) (*playlist.Playlist, error) {
	catalog, err := catalogfile.Open(cfg.Catalog)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load catalog")
	}

	chain, err := filter.Build(cfg.Catalog.Filters)
	if err != nil {
		return nil, errors.Wrap(err, "invalid filter config")
	}

	filtered, rejected, err := chain.Apply(context.Background(), catalog)
	if err != nil {
		return nil, err
	}
	if len(rejected) > 0 {
		zlog.Warn().Msgf("Dropped %d of %d catalog entries", len(rejected), catalog.Len())
	}
	return filtered, nil
}

// printTracks prints the configured catalog.
func printTracks(cfg *config.Config) error {
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Catalog %s (%d tracks):\n", catalog.Name(), catalog.Len())
	for i, t := range catalog.Tracks() {
		fmt.Printf("  %3d  %-30s %s\n", i, t.Label, t.Path)
	}
	return nil
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	registry := filter.GetRegistered()
	for _, name := range filter.Names() {
		f := registry[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
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
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
