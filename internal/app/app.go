package app

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

	"github.com/go-chi/chi/v5"

	"papertrack/internal/archive"
	"papertrack/internal/config"
	"papertrack/internal/dataprocessing"
	apierrors "papertrack/internal/errors"
	"papertrack/internal/infrastructure"
	customMiddleware "papertrack/internal/middleware"
	"papertrack/internal/services"
	handlers "papertrack/internal/transport/http"
	"papertrack/pkg/contracts"
)

// AppName is reported in startup logs.
const AppName = "papertrack"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Loader        *dataprocessing.Loader
	Archive       *archive.Store

	errorHandler *apierrors.ErrorHandler
	listener     net.Listener
	serveErr     chan error
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Report *services.ReportService
	Health *services.HealthService
}

// NewApplication initializes the process logger from cfg and wires the
// application.
func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(ctx, cfg, logger)
}

// New wires an application from an already loaded configuration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.InfoContext(ctx, "application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("workbook", cfg.Workbook.Path))

	providers, err := infrastructure.InitializeOTel(ctx, infrastructure.OTelConfigFrom(cfg.Telemetry, contracts.Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		_ = providers.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		errorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
		serveErr:      make(chan error, 1),
	}

	if err := a.initializeServices(ctx); err != nil {
		a.release(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := a.setupRouter(); err != nil {
		a.release(ctx)
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	a.createServer()

	return a, nil
}

// initializeServices builds the workbook loader, the optional archive and the
// services on top of them.
func (a *Application) initializeServices(ctx context.Context) error {
	loader, err := newLoader(a.Config.Workbook, a.Logger, a.Metrics)
	if err != nil {
		return err
	}
	a.Loader = loader

	opts := []services.ReportOption{services.WithArchiveHook(a.Metrics.RecordSnapshotArchived)}

	// A typed nil *archive.Store must never reach the interfaces below.
	var pinger services.Pinger
	if a.Config.Archive.Enabled() {
		store, err := openArchive(ctx, a.Config.Archive.Path, a.Logger)
		if err != nil {
			return err
		}
		a.Archive = store
		pinger = store
		opts = append(opts, services.WithArchive(store))
	}

	report, err := services.NewReportService(loader, a.Logger, opts...)
	if err != nil {
		return err
	}

	a.Services = &ServiceContainer{
		Report: report,
		Health: services.NewHealthServiceWithBuildInfo(
			contracts.Version,
			contracts.BuildTime,
			contracts.GitCommit,
			loader,
			pinger,
			a.Logger,
		),
	}
	return nil
}

// setupRouter configures the HTTP router with all routes.
// Middleware order: RequestID, RealIP, OTel, Logger, Recoverer, headers,
// CORS, rate limit; the API group adds the request timeout.
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return err
	}

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(otelMiddleware.Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.errorHandler))
	r.Use(customMiddleware.DefaultSecureHeaders().Handler)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
			a.errorHandler,
		).Handler)
	}

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.MetricsHandler))

	a.setupAPIRoutes(r)

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		reportHandler := handlers.NewReportHandler(a.Services.Report, a.Logger, a.errorHandler)
		r.Mount("/", reportHandler.Routes())
	})
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelError),
	}
}

// Addr returns the bound listen address once Start has succeeded.
func (a *Application) Addr() string {
	if a.listener == nil {
		return a.Server.Addr
	}
	return a.listener.Addr().String()
}

// Start binds the listener, serves in the background and warms the workbook
// cache. A serve failure cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			a.serveErr <- err
			cancel()
		}
	}()

	a.performStartupHealthCheck(ctx)

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", "http://"+a.Addr()),
		slog.String("version", contracts.Version))
	return nil
}

// performStartupHealthCheck loads the workbook once so the first request is
// served from cache and configuration problems surface in the log early.
func (a *Application) performStartupHealthCheck(ctx context.Context) {
	status, err := a.Services.Report.Status(ctx)
	switch {
	case err != nil:
		a.Logger.WarnContext(ctx, "workbook could not be loaded at startup",
			slog.String("path", a.Loader.Path()),
			slog.String("error", err.Error()))
	case status.SourceMissing:
		a.Logger.WarnContext(ctx, "workbook not found, serving empty reports",
			slog.String("path", status.Path))
	default:
		a.Logger.InfoContext(ctx, "workbook loaded",
			slog.String("path", status.Path),
			slog.Int("papers", status.PaperCount))
	}

	readiness := a.Services.Health.ReadinessCheck(ctx)
	if readiness.Status != "ready" {
		a.Logger.WarnContext(ctx, "startup readiness check failed", slog.String("status", readiness.Status))
	}
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	a.release(shutdownCtx)

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return errors.Join(errs...)
}

// release closes the archive and flushes telemetry.
func (a *Application) release(ctx context.Context) {
	if a.Archive != nil {
		if err := a.Archive.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "error closing archive", slog.String("error", err.Error()))
		}
		a.Archive = nil
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
		a.OTelProviders = nil
	}
}

// Run serves until ctx is cancelled, SIGINT or SIGTERM arrives, or the
// server fails.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.InfoContext(ctx, "shutdown signal received")

	stopErr := a.Stop(context.WithoutCancel(ctx))

	select {
	case err := <-a.serveErr:
		return errors.Join(err, stopErr)
	default:
		return stopErr
	}
}
