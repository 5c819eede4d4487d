package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"storefront-bff/internal/application/admin"
	"storefront-bff/internal/application/config"
	"storefront-bff/internal/application/forward"
	"storefront-bff/internal/application/metrics"
	"storefront-bff/internal/application/ratelimit"
	"storefront-bff/internal/application/registry"
	"storefront-bff/internal/application/router"
	"storefront-bff/internal/application/server"
	"storefront-bff/internal/models/global"
	"syscall"
	"time"
)

const (
	shutdownGrace = 10 * time.Second
	sweepInterval = time.Minute
	limiterIdle   = 5 * time.Minute
)

func main() {
	env, err := config.LoadEnvironment(".env")
	if err != nil {
		log.Fatalf("Failed to load environment: %s", err)
	}

	settings, err := config.LoadSettings(env.SettingsPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %s", err)
	}

	logger := config.NewLogger(settings.Log, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, env, settings); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, env *global.Environment, settings *global.Settings) error {
	handler, limiter, err := newHandler(logger, env, settings)
	if err != nil {
		return err
	}
	if limiter != nil {
		go limiter.Run(ctx.Done(), sweepInterval, limiterIdle)
	}

	srv := &http.Server{
		Addr:           settings.Server.Listen,
		ReadTimeout:    settings.Server.Timeouts.Read,
		WriteTimeout:   settings.Server.Timeouts.Write,
		IdleTimeout:    settings.Server.Timeouts.Idle,
		MaxHeaderBytes: settings.Server.Limits.MaxHeaderBytes,
		Handler:        handler,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", settings.Server.Listen, "backends", env.Addresses())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newHandler assembles the gateway from validated configuration. The
// returned limiter is nil when rate limiting is disabled.
func newHandler(logger *slog.Logger, env *global.Environment, settings *global.Settings) (http.Handler, *ratelimit.Limiter, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	reg, err := registry.New(env.Addresses())
	if err != nil {
		return nil, nil, fmt.Errorf("backend registry: %w", err)
	}

	m := metrics.New()
	rt := router.New(reg)
	fw := forward.New(logger, m, forward.Options{
		Timeout:      settings.Proxy.Timeout,
		MaxBodyBytes: settings.Proxy.MaxBodyBytes,
	})
	agg := admin.New(logger, m, rt, fw, settings.Proxy.Timeout, settings.Proxy.FanoutTimeout)

	var limiter *ratelimit.Limiter
	if settings.Proxy.RateLimit.RPS > 0 {
		limiter = ratelimit.New(logger, settings.Proxy.RateLimit.RPS, settings.Proxy.RateLimit.Burst)
	}

	handler := server.New(logger, rt, fw, agg, server.Options{
		MaxBodyBytes: settings.Proxy.MaxBodyBytes,
		Metrics:      m,
		Limiter:      limiter,
	})
	return handler, limiter, nil
}
