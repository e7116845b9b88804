// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/starford/flatrest/internal/api"
	"github.com/starford/flatrest/internal/mcpserver"
	"github.com/starford/flatrest/internal/resource"
	"github.com/starford/flatrest/internal/schema"
	"github.com/starford/flatrest/internal/sse"
	"github.com/starford/flatrest/internal/storage"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stdout, opts...)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_path", cfg.Data.Path),
		slog.String("schemas_mode", cfg.Schemas.Mode),
		slog.String("schemas_path", cfg.Schemas.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.Throttle)
	defer broker.Close()

	catalog, registry, err := openCatalog(cfg, logger, resource.WithNotifier(broker.PublishRecordEvent))
	if err != nil {
		return err
	}

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
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

	// Resource, schema and event routes.
	r.Mount("/", api.NewRouter(catalog, registry, broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Listen before starting the group so a busy port fails startup with a clear message.
	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			logger.Error("Port is already in use; set PORT or --port to choose another",
				slog.Int("port", cfg.App.HTTP.Port))
		}
		return fmt.Errorf("listen %s: %w", httpServer.Addr, err)
	}

	logger.Info("Server starting...",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.Any("resources", catalog.Names()))

	g, gCtx := errgroup.WithContext(ctx)

	// Report resource files that appear after startup.
	g.Go(func() error {
		if err := resource.Watch(gCtx, catalog, cfg.Data.Path, logger, broker.PublishResourceEvent); err != nil {
			logger.Warn("watcher disabled", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", ln.Addr().String()))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Streaming /events handlers only return once the broker closes their channel.
		broker.Close()

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

// RunMCP serves the resource tools over stdin/stdout until the client
// disconnects. Logs go to stderr because stdout carries the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}

	catalog, registry, err := openCatalog(app.config, app.logger)
	if err != nil {
		return err
	}

	app.logger.Info("MCP server starting", slog.Any("resources", catalog.Names()))
	return mcpserver.New(catalog, registry).ServeStdio()
}

func newApplication(logOut *os.File, opts ...Option) (*application, error) {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if app.logger == nil {
		app.logger = newLogger(app.config.App, logOut)
	}
	slog.SetDefault(app.logger)
	return app, nil
}

// newLogger builds the JSON handler on out, or for the text format a tint
// handler on stderr that is coloured only on a terminal.
func newLogger(cfg ApplicationConfig, out *os.File) *slog.Logger {
	if cfg.LogFormat == LogFormatText {
		return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
			Level:      cfg.LogLevel,
			TimeFormat: "15:04:05.000",
			NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		}))
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
}

// openCatalog prepares the data directory and schema registry, then binds
// every resource found in the data directory.
func openCatalog(cfg *Config, logger *slog.Logger, opts ...resource.Option) (*resource.Catalog, schema.Registry, error) {
	// Ensure data directory exists.
	if err := os.MkdirAll(cfg.Data.Path, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Data.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	logger.Info("data directory ready", slog.String("path", store.Root()))

	registry, err := openRegistry(cfg.Schemas, logger)
	if err != nil {
		return nil, nil, err
	}

	bindings, err := resource.Discover(store, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("discover resources: %w", err)
	}
	if len(bindings) == 0 {
		logger.Warn("no resources found; add <name>.json files to the data directory and restart",
			slog.String("data_path", cfg.Data.Path))
	}

	opts = append([]resource.Option{resource.WithLogger(logger)}, opts...)
	return resource.NewCatalog(bindings, store, registry, opts...), registry, nil
}

func openRegistry(cfg SchemasConfig, logger *slog.Logger) (schema.Registry, error) {
	if cfg.Builtin() {
		logger.Info("using built-in schemas", slog.Any("names", schema.DefaultNames()))
		return schema.Builtin{}, nil
	}

	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create schemas dir: %w", err)
	}
	docs, err := storage.NewFS(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("init schema storage: %w", err)
	}
	registry := schema.NewFileRegistry(docs)
	seeded, err := registry.Seed()
	if err != nil {
		return nil, fmt.Errorf("seed schemas: %w", err)
	}
	if len(seeded) > 0 {
		logger.Info("seeded default schemas", slog.Any("names", seeded))
	}
	return registry, nil
}
