package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/ringsidehq/ringside/pkg/api"
	"github.com/ringsidehq/ringside/pkg/authz"
	"github.com/ringsidehq/ringside/pkg/cache"
	"github.com/ringsidehq/ringside/pkg/config"
	"github.com/ringsidehq/ringside/pkg/connections"
	"github.com/ringsidehq/ringside/pkg/matches"
	"github.com/ringsidehq/ringside/pkg/observability"
	"github.com/ringsidehq/ringside/pkg/profiles"
	"github.com/ringsidehq/ringside/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ringside: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	ctx := context.Background()

	db, err := storage.Open(ctx, storage.Options{
		URL:          cfg.Database.URL,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		ConnLifetime: cfg.Database.ConnLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := storage.RunMigrations(ctx, db); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	authzCache, err := buildCache(cfg)
	if err != nil {
		return err
	}
	defer authzCache.Close()

	var metrics *observability.Metrics
	var registry *prometheus.Registry
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		metrics = observability.NewMetrics(registry)
	}

	resolvers := authz.NewResolvers(db, authzCache, cfg.Cache.TTL, metrics)
	evaluator := authz.NewEvaluator(resolvers, metrics)
	invalidator := authz.NewInvalidator(authzCache, metrics)

	connectionSvc := connections.NewService(db, metrics)
	matchSvc := matches.NewService(db, cfg.CompatibilityRules(), cfg.Matching.RequestTTL, metrics)
	profileSvc := profiles.NewService(db, invalidator)

	handlerLogger := logrus.New()
	handlerLogger.SetFormatter(&logrus.JSONFormatter{})
	handlerLogger.SetOutput(os.Stdout)
	handlerLogger.SetLevel(logrusLevel(cfg.Observability.LogLevel))

	handler := api.NewHandler(handlerLogger, connectionSvc, matchSvc, profileSvc, evaluator)
	router := handler.Router(evaluator, logger, registry, func(r *http.Request) error {
		if err := db.PingContext(r.Context()); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := authzCache.Ping(r.Context()); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
		return nil
	})

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", server.Addr).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// buildCache selects the authorization cache backend.
func buildCache(cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedis(cache.RedisOptions{URL: cfg.Cache.RedisURL})
	case "memory":
		return cache.NewMemory(cfg.Cache.MemorySize)
	default:
		return cache.Noop{}, nil
	}
}

func logrusLevel(level observability.LogLevel) logrus.Level {
	switch level {
	case observability.DebugLevel:
		return logrus.DebugLevel
	case observability.WarnLevel:
		return logrus.WarnLevel
	case observability.ErrorLevel:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
