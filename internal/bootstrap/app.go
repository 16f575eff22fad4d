package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/pdf-summarizer/internal/infra/config"
)

const shutdownTimeout = 10 * time.Second

// Drainer flushes background work before exit.
type Drainer interface {
	Close(ctx context.Context) error
}

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *http.Server
	drainer Drainer
}

// NewApp is used by Wire to build the runnable app. drainer may be nil.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, drainer Drainer) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, drainer: drainer}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutdown signal received")
		err := a.server.Shutdown(shutdownCtx)
		if drainErr := a.drain(shutdownCtx); err == nil {
			err = drainErr
		}
		return err
	case err := <-errCh:
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		drainErr := a.drain(drainCtx)
		if errors.Is(err, http.ErrServerClosed) {
			return drainErr
		}
		return err
	}
}

func (a *App) drain(ctx context.Context) error {
	if a.drainer == nil {
		return nil
	}
	if err := a.drainer.Close(ctx); err != nil {
		a.logger.Error("history drain failed", "error", err)
		return err
	}
	a.logger.Info("history recorder drained")
	return nil
}
