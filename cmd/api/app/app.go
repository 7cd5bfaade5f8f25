package app

import (
	"context"
	"fmt"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/polymorphisma/userhub/cmd/api/di"
	"github.com/polymorphisma/userhub/cmd/api/server"
	"github.com/polymorphisma/userhub/internal/adapter/gin/middleware"
	"github.com/polymorphisma/userhub/internal/adapter/gin/router"
	"github.com/polymorphisma/userhub/internal/config"
	"github.com/polymorphisma/userhub/pkg/logger"
	"github.com/polymorphisma/userhub/pkg/tracing"
)

// App represents the application
type App struct {
	Config         *config.Config
	Logger         *zap.Logger
	Server         *server.Server
	Container      *di.Container
	tracerShutdown tracing.ShutdownFunc
}

// New creates a new application instance
func New(ctx context.Context) (*App, error) {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := initLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize tracing before anything that creates spans
	tracerShutdown, err := initTracing(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// Create DI container
	container, err := di.NewContainer(cfg, l)
	if err != nil {
		// Startup failed after the tracer provider was registered:
		// flush and stop it so exporter goroutines do not leak.
		flushTracer(tracerShutdown, l)
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	// Build the HTTP router. The tracer provider is left nil so the
	// middleware picks up the globally registered one.
	var rdb *goredis.Client
	if container.RedisClient != nil {
		rdb = container.RedisClient.Client
	}
	engine := router.Setup(container.GinHandler, l, router.Options{
		ServiceName: cfg.Logger.ServiceName,
		RedisClient: rdb,
		RateLimit: middleware.RateLimitConfig{
			Enabled:           cfg.RateLimit.Enabled,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstCapacity:     cfg.RateLimit.BurstCapacity,
		},
	})

	// Create server instance
	srv := server.New(cfg, l, engine)

	return &App{
		Config:         cfg,
		Logger:         l,
		Server:         srv,
		Container:      container,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the application
func (a *App) Run(ctx context.Context) error {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			a.Logger.Error("panic recovered in application",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	env := getEnvironment()

	a.Logger.Info("starting application",
		zap.String("service", a.Config.Logger.ServiceName),
		zap.String("version", a.Config.Logger.ServiceVersion),
		zap.String("environment", env),
	)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		// Add panic recovery for server goroutine
		defer func() {
			if r := recover(); r != nil {
				errChan <- fmt.Errorf("server panic: %v", r)
			}
		}()

		if err := a.Server.Start(); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		a.Logger.Info("shutting down application...")
		return a.shutdown()
	case err := <-errChan:
		return err
	}
}

// shutdown gracefully shuts down the application
func (a *App) shutdown() error {
	// Create shutdown context with configurable timeout
	timeout := time.Duration(a.Config.App.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.Logger.Info("starting graceful shutdown",
		zap.Int("timeout_seconds", a.Config.App.ShutdownTimeoutSeconds),
	)

	var errs []error

	// Shutdown HTTP server
	if a.Server != nil {
		a.Logger.Info("shutting down HTTP server...")
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("failed to shutdown HTTP server", zap.Error(err))
			errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
		}
	}

	// Close container resources
	if a.Container != nil {
		a.Logger.Info("closing container resources...")
		if err := a.Container.Close(); err != nil {
			a.Logger.Error("failed to close container", zap.Error(err))
			errs = append(errs, fmt.Errorf("container close: %w", err))
		}
	}

	// Flush remaining spans last so shutdown itself stays traced
	if a.tracerShutdown != nil {
		a.Logger.Info("flushing tracer...")
		if err := a.tracerShutdown(shutdownCtx); err != nil {
			a.Logger.Error("failed to shutdown tracer", zap.Error(err))
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}

	// Sync logger
	if err := a.Logger.Sync(); err != nil {
		// Ignore sync errors for stdout/stderr
		if err.Error() != "sync /dev/stdout: invalid argument" &&
			err.Error() != "sync /dev/stderr: invalid argument" {
			a.Logger.Error("failed to sync logger", zap.Error(err))
			errs = append(errs, fmt.Errorf("logger sync: %w", err))
		}
	}

	a.Logger.Info("application shutdown complete")

	// Return aggregated errors
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	return nil
}

// flushTracer stops the tracer provider outside the normal shutdown
// sequence, bounded by its own timeout.
func flushTracer(shutdown tracing.ShutdownFunc, l *zap.Logger) {
	if shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		l.Warn("failed to shutdown tracer after startup failure", zap.Error(err))
	}
}

// loadConfig loads application configuration
func loadConfig() (*config.Config, error) {
	configPath := getConfigPath()
	return config.LoadConfig(configPath)
}

// initLogger initializes the application logger
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	env := getEnvironment()

	loggerCfg := logger.Config{
		Level:            cfg.Logger.Level,
		Format:           cfg.Logger.Format,
		OutputPath:       cfg.Logger.OutputPath,
		SlowQuerySeconds: cfg.Logger.SlowQuerySeconds,
		EnableSampling:   cfg.Logger.EnableSampling,
		ServiceName:      cfg.Logger.ServiceName,
		ServiceVersion:   cfg.Logger.ServiceVersion,
		Environment:      env,
	}

	return logger.NewWithConfig(loggerCfg)
}

// initTracing configures the global tracer provider
func initTracing(ctx context.Context, cfg *config.Config) (tracing.ShutdownFunc, error) {
	return tracing.Init(ctx, tracing.Config{
		Enabled:          cfg.Otel.Enabled,
		ServiceName:      cfg.Logger.ServiceName,
		ServiceVersion:   cfg.Logger.ServiceVersion,
		Environment:      getEnvironment(),
		ExporterEndpoint: cfg.Otel.ExporterEndpoint,
		Insecure:         cfg.Otel.Insecure,
		ConsoleExporter:  cfg.Otel.ConsoleExporter,
		SampleRatio:      cfg.Otel.SampleRatio,
	})
}

// getConfigPath returns the configuration path
func getConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "."
}

// getEnvironment returns the application environment
func getEnvironment() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "development"
}
