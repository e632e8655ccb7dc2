package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Spok95/workshop-erp/internal/infra/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	Addr          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	ExposeMetrics bool
	Gatherer      prometheus.Gatherer // nil — prometheus.DefaultGatherer
}

type Server struct {
	srv *http.Server
}

// New собирает сервер: /health, /metrics и api под общими middleware.
func New(opts Options, api http.Handler, m *metrics.Metrics, log *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if opts.ExposeMetrics {
		g := opts.Gatherer
		if g == nil {
			g = prometheus.DefaultGatherer
		}
		mux.Handle("GET /metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}

	if api != nil {
		mux.Handle("/api/", api)
	}

	return &Server{srv: &http.Server{
		Addr:              opts.Addr,
		Handler:           Chain(mux, m, log),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
	}}
}

func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
