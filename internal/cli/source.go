package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/pageview/internal/config"
	"github.com/roach88/pageview/internal/pager"
	"github.com/roach88/pageview/internal/remote"
	"github.com/roach88/pageview/internal/store"
)

// SourceFlags override the configured source.
type SourceFlags struct {
	Database string
	URL      string
}

// apply overlays non-empty flags onto cfg. A --url selects the HTTP
// source, a --db the SQLite one.
func (f SourceFlags) apply(cfg *config.Config) {
	switch {
	case f.URL != "":
		cfg.Source.Kind = config.SourceHTTP
		cfg.Source.URL = f.URL
	case f.Database != "":
		cfg.Source.Kind = config.SourceSQLite
		cfg.Source.Database = f.Database
	}
}

// openSource builds the configured pager.Source. The returned func
// releases it.
func openSource(cfg config.Config, logger *slog.Logger) (pager.Source, func(), error) {
	switch cfg.Source.Kind {
	case config.SourceSQLite:
		if _, err := os.Stat(cfg.Source.Database); err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "database not found", err)
		}
		st, err := store.Open(cfg.Source.Database)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		logger.Debug("reading datasets from sqlite", "path", cfg.Source.Database)
		return st.Source(), func() {
			if err := st.Close(); err != nil {
				logger.Error("error closing database", "error", err)
			}
		}, nil

	case config.SourceHTTP:
		src, err := remote.New(cfg.Source.URL,
			remote.WithHTTPClient(&http.Client{Timeout: cfg.Source.Timeout}),
			remote.WithRetries(cfg.Source.MaxRetries),
			remote.WithLogger(logger),
		)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "invalid source", err)
		}
		logger.Debug("reading datasets over http", "url", cfg.Source.URL)
		return src, func() {}, nil
	}
	return nil, nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown source kind %q", cfg.Source.Kind))
}

// signalContext derives a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
