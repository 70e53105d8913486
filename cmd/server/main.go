package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nfrund/troom/internal/app"
	"github.com/nfrund/troom/internal/config"
	"github.com/nfrund/troom/internal/logging"
	"github.com/nfrund/troom/internal/pubsub"
	"github.com/nfrund/troom/internal/server"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	logging.New(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracer, shutdownTracing, err := pubsub.SetupOTel(ctx, pubsub.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		ZipkinURL:   cfg.Tracing.ZipkinURL,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("Failed to flush traces", "error", err)
		}
	}()

	var bus *pubsub.WatermillBridge
	if cfg.Tracing.Enabled {
		bus = pubsub.NewWatermillBridgeWithTracer(tracer)
	} else {
		bus = pubsub.NewWatermillBridge()
	}
	defer bus.Close()

	s := server.New(cfg, app.NewContainer(cfg, bus), app.NewModules())
	if err := s.Boot(ctx); err != nil {
		return err
	}
	return s.Start(ctx)
}
