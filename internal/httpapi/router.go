// Package httpapi exposes the widget service over HTTP at /api/v1/widgets.
package httpapi

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/canvas/internal/metrics"
	"github.com/mesh-intelligence/canvas/internal/service"
	"github.com/mesh-intelligence/canvas/pkg/types"
)

// BasePath is the collection URL of the widget API.
const BasePath = types.WidgetsPath

// Options configures NewRouter. Nil Logger discards request logs; nil
// Metrics disables instrumentation and the /metrics endpoint.
type Options struct {
	Logger    *logrus.Logger
	Metrics   *metrics.Metrics
	RateLimit types.RateLimitConfig
}

// NewRouter returns the HTTP handler for the widget API.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	h := &handler{svc: svc}
	r := mux.NewRouter()
	r.Use(loggingMiddleware(logger))
	if opts.Metrics != nil {
		r.Use(metricsMiddleware(opts.Metrics))
		r.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/healthz", health).Methods(http.MethodGet)

	api := r.PathPrefix(BasePath).Subrouter()
	if opts.RateLimit.RPS > 0 {
		api.Use(newRateLimiter(opts.RateLimit, opts.Metrics).middleware)
	}
	api.HandleFunc("", h.list).Methods(http.MethodGet)
	api.HandleFunc("", h.create).Methods(http.MethodPost)
	api.HandleFunc("", h.update).Methods(http.MethodPut)
	api.HandleFunc("/{id:-?[0-9]+}", h.get).Methods(http.MethodGet)
	api.HandleFunc("/{id:-?[0-9]+}", h.update).Methods(http.MethodPut)
	api.HandleFunc("/{id:-?[0-9]+}", h.delete).Methods(http.MethodDelete)

	return r
}
