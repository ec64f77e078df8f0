package server

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"EquityLens/pkg/config"
	xhttp "EquityLens/pkg/http"
	pkgkafka "EquityLens/pkg/kafka"
	applogger "EquityLens/pkg/logger"
	"EquityLens/pkg/queue"
)

// Drainer is anything with in-flight background work to finish on shutdown.
type Drainer interface {
	Wait()
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	jobs       *queue.Queue
	drain      Drainer
}

// New creates a new App. consumer, kh and jobs are nil when the matching
// transport is disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	jobs *queue.Queue,
	drain Drainer,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	metricsPath := cfg.Metrics.Path
	if !cfg.Metrics.Enabled {
		metricsPath = ""
	}
	srv := xhttp.NewServer(handler,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(true, cfg.Server.CORSOrigins...),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithServerLogger(l),
	)
	return &App{
		cfg:        cfg,
		l:          l,
		httpServer: srv,
		consumer:   consumer,
		kh:         kh,
		jobs:       jobs,
		drain:      drain,
	}
}

// HTTPServer exposes the server for tests.
func (a *App) HTTPServer() *xhttp.Server { return a.httpServer }

// Run starts the application and blocks until ctx is cancelled or an
// interrupt arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(ctx); err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
		a.l.Info("refresh consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.jobs != nil {
		if err := a.jobs.Start(ctx); err != nil {
			return fmt.Errorf("start job queue: %w", err)
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("equitylens started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("provider", a.cfg.Provider.Type),
		applogger.String("archive", a.cfg.Archive.Type),
	)

	<-ctx.Done()
	a.l.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return a.shutdown(shutdownCtx)
}

// shutdown stops intake first, then drains outstanding sink writes.
func (a *App) shutdown(ctx context.Context) error {
	var firstErr error

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if a.jobs != nil {
		if err := a.jobs.Stop(ctx); err != nil {
			a.l.Warn("job queue stop error", applogger.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if a.drain != nil {
		done := make(chan struct{})
		go func() {
			a.drain.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			a.l.Warn("timed out waiting for result sinks")
		}
	}

	a.l.Info("shutdown complete")
	return firstErr
}
