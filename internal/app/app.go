// Package app holds the process plumbing shared by opusenc and opusdec.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"faraday-voice/internal/audio/config"
	"faraday-voice/internal/metrics"
	"faraday-voice/pkg/logger"
	"faraday-voice/pkg/system"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Setup loads .env, parses the runtime config and initializes logging.
func Setup(ctx context.Context) (*config.RuntimeConfig, error) {
	if err := system.LoadEnvIfPresent(".env"); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg, err := config.NewRuntimeConfigFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Init(cfg.LogLevel)
	return cfg, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM. After the first signal the
// handler is released so a second one kills the process.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}

// CloseOnDone closes c once ctx is done so that a read blocked on it returns.
func CloseOnDone(ctx context.Context, c io.Closer) {
	go func() {
		<-ctx.Done()
		log.Info().Msg("Stop requested, closing input")
		c.Close()
	}()
}

// Run calls fn and, when metricsAddr is set, serves reg next to it. The
// metrics server stops once fn returns. An error from fn after ctx was
// cancelled is a requested stop and not reported.
func Run(ctx context.Context, metricsAddr string, reg *prometheus.Registry, fn func(context.Context) error) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	if metricsAddr != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, metricsAddr, reg)
		})
	}
	g.Go(func() error {
		defer cancel()
		err := fn(gctx)
		if err != nil && ctx.Err() != nil {
			log.Info().Err(err).Msg("Interrupted")
			return nil
		}
		return err
	})
	return g.Wait()
}

// Exit logs err and terminates with status 1, or returns when err is nil.
func Exit(name string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	log.Error().Err(err).Str("cmd", name).Msg("Fatal")
	os.Exit(1)
}
