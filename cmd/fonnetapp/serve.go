package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/fonnet/fonnetapp/internal/config"
	"github.com/fonnet/fonnetapp/internal/handler"
	"github.com/fonnet/fonnetapp/internal/telemetry"
	"github.com/fonnet/fonnetapp/internal/translator"
)

// serveCmd implements 'fonnetapp serve'.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	port := cfg.Server.Port

	// Basic logger for startup, before OTel is initialized
	startupLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	startupLogger.Info("starting application",
		slog.String("service", cfg.Telemetry.ServiceName),
		slog.String("environment", cfg.Telemetry.Environment),
		slog.String("port", port),
		slog.Bool("telemetry", cfg.Telemetry.Enabled),
	)

	providers, err := telemetry.Setup(ctx, telemetry.Settings{
		ServiceName:  cfg.Telemetry.ServiceName,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Environment:  cfg.Telemetry.Environment,
		Enabled:      cfg.Telemetry.Enabled,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			startupLogger.Error("failed to shutdown telemetry providers", slog.Any("error", err))
		}
	}()
	logger := providers.Logger

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	svcs, err := newServices(ctx, cfg, db, logger)
	if err != nil {
		return err
	}

	tr, err := translator.New(logger)
	if err != nil {
		return err
	}

	metrics, err := telemetry.NewMetrics(otel.Meter(cfg.Telemetry.ServiceName), svcs.taskRepo.Count)
	if err != nil {
		return err
	}

	taskHandler := handler.NewTaskHandler(svcs.tasks, logger, metrics, tr)
	projectHandler := handler.NewProjectHandler(svcs.projects, taskHandler, logger, metrics, tr)
	providerHandler := handler.NewProviderHandler(svcs.providers, logger, metrics, tr)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint (excluded from tracing)
	r.Get("/health", handler.Health)

	r.Mount("/api/v1", handler.API(cfg.Server.ActorHeader, taskHandler, projectHandler, providerHandler))

	otelHandler := otelhttp.NewHandler(r, "http-server",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
	)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      otelHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("server error", slog.Any("error", err))
			return err
		}
	case <-quit:
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("error", err))
	}

	logger.Info("server stopped")
	return nil
}
