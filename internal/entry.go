// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/vibenotes/internal/api"
	"github.com/starford/vibenotes/internal/imaging"
	"github.com/starford/vibenotes/internal/kvstore"
	"github.com/starford/vibenotes/internal/mcpserver"
	"github.com/starford/vibenotes/internal/noteservice"
	"github.com/starford/vibenotes/internal/notes"
	"github.com/starford/vibenotes/internal/prefs"
	"github.com/starford/vibenotes/internal/sse"
)

// PreferencesChanged is broadcast when another writer changed a preference.
const PreferencesChanged = "preferences.changed"

func (a *application) setup(opts []Option) (*Config, *slog.Logger, error) {
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	out := a.logOutput
	if out == nil {
		out = os.Stdout
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return a.config, logger, nil
}

// openStore opens the configured key-value backend. The returned FS is
// non-nil only for the fs driver, which is the one that can be watched.
func openStore(cfg StoreConfig) (kvstore.Store, *kvstore.FS, error) {
	switch cfg.Driver {
	case StoreDriverMemory:
		return kvstore.NewMemory(), nil, nil
	case StoreDriverSQLite:
		s, err := kvstore.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil, nil
	default:
		fs, err := kvstore.NewFS(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open fs store: %w", err)
		}
		return fs, fs, nil
	}
}

func serviceConfig(cfg *Config) noteservice.Config {
	return noteservice.Config{
		AutosaveDelay: cfg.Editor.AutosaveInterval,
		Images:        cfg.Images.Limits(),
	}
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	cfg, logger, err := (&application{}).setup(opts)
	if err != nil {
		return err
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("store_path", cfg.Store.Path),
		slog.Duration("autosave_interval", cfg.Editor.AutosaveInterval),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, fsStore, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc, err := noteservice.New(store, serviceConfig(cfg), logger, noteservice.WithPublisher(broker))
	if err != nil {
		return fmt.Errorf("init notes: %w", err)
	}
	// Pending autosave is abandoned on shutdown.
	defer svc.Close()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Pick up edits made by another process sharing the store directory.
	if fsStore != nil {
		g.Go(func() error {
			err := fsStore.Watch(gCtx, logger, func(keys []string) {
				onExternalChange(svc, broker, logger, keys)
			})
			if err != nil {
				logger.Warn("store watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

func onExternalChange(svc *noteservice.Service, broker *sse.Broker, logger *slog.Logger, keys []string) {
	if slices.Contains(keys, notes.StoreKey) {
		if err := svc.ReloadFromStore(); err != nil {
			logger.Error("reload notes", slog.String("error", err.Error()))
		} else {
			broker.Publish(sse.Event{Type: sse.ListChanged})
		}
	}
	for _, k := range []string{prefs.KeyDarkMode, prefs.KeyFont, prefs.KeyPageStyle} {
		if slices.Contains(keys, k) {
			broker.Publish(sse.Event{Type: PreferencesChanged, Data: svc.Preferences()})
			return
		}
	}
}

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
// Logs go to stderr.
func RunMCP(ctx context.Context, opts ...Option) error {
	cfg, logger, err := (&application{logOutput: os.Stderr}).setup(opts)
	if err != nil {
		return err
	}

	store, _, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	svc, err := noteservice.New(store, serviceConfig(cfg), logger)
	if err != nil {
		return fmt.Errorf("init notes: %w", err)
	}
	defer svc.Close()

	srv := mcpserver.New(svc, imaging.NewFetcher(cfg.Images.MaxBytes))
	logger.Info("MCP server starting on stdio", slog.String("store_path", cfg.Store.Path))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}
