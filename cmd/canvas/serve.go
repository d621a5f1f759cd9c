// Serve command runs the widget HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/canvas/internal/httpapi"
	"github.com/mesh-intelligence/canvas/internal/logging"
	"github.com/mesh-intelligence/canvas/internal/memory"
	"github.com/mesh-intelligence/canvas/internal/metrics"
	"github.com/mesh-intelligence/canvas/internal/service"
	"github.com/mesh-intelligence/canvas/internal/sqlite"
	"github.com/mesh-intelligence/canvas/pkg/types"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the widget HTTP server",
	Long: `Serve exposes the widget store over HTTP at /api/v1/widgets, with
/healthz and Prometheus metrics at /metrics. It stops gracefully on
SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagListen != "" {
			cfg.Listen = flagListen
		}

		logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return userError(fmt.Errorf("configure logging: %w", err))
		}

		store, closeStore, err := openStore(cfg.Backend)
		if err != nil {
			return sysError(err)
		}
		defer func() {
			if err := closeStore(); err != nil {
				logger.WithError(err).Warn("close store")
			}
		}()

		ln, err := net.Listen("tcp", cfg.Listen)
		if err != nil {
			return sysError(fmt.Errorf("listen %s: %w", cfg.Listen, err))
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.WithFields(logrus.Fields{
			"addr":    ln.Addr().String(),
			"backend": cfg.Backend,
		}).Info("canvas server starting")
		if err := serve(ctx, ln, newHandler(store, logger), logger); err != nil {
			return sysError(err)
		}
		logger.Info("canvas server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "listen address (default: config listen)")
}

// widgetStore is what the server needs from a backend.
type widgetStore interface {
	types.WidgetStore
	metrics.Sizer
}

// openStore returns the store named by backend and a func that releases it.
func openStore(backend string) (widgetStore, func() error, error) {
	switch backend {
	case types.BackendMemory:
		return memory.NewStore(), func() error { return nil }, nil
	case types.BackendSQLite:
		s := sqlite.NewStore()
		if err := s.Attach(); err != nil {
			return nil, nil, fmt.Errorf("attach sqlite store: %w", err)
		}
		return s, s.Detach, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, backend)
	}
}

// newHandler wires store, service, metrics and router.
func newHandler(store widgetStore, logger *logrus.Logger) http.Handler {
	m := metrics.New()
	m.ObserveStore(store)
	return httpapi.NewRouter(service.New(store, m), httpapi.Options{
		Logger:    logger,
		Metrics:   m,
		RateLimit: cfg.RateLimit,
	})
}

// serve runs an HTTP server on ln until ctx is done, then shuts it down,
// waiting up to shutdownTimeout for in-flight requests.
func serve(ctx context.Context, ln net.Listener, handler http.Handler, logger *logrus.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          logging.StdLogger(logger),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
