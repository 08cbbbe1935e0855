// Package metrics exposes Prometheus collectors for oracle traffic and game
// sessions.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lorenzotomasdiez/who-am-i/internal/game"
	"github.com/lorenzotomasdiez/who-am-i/internal/openrouter"
	"github.com/lorenzotomasdiez/who-am-i/internal/oracle"
)

const namespace = "whoami"

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	oracleRequests *prometheus.CounterVec
	oracleDuration *prometheus.HistogramVec
	staleDiscarded *prometheus.CounterVec
	wins           *prometheus.CounterVec
}

var _ game.Observer = (*Metrics)(nil)

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		oracleRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_requests_total",
			Help:      "Total number of oracle completions by backend and status.",
		}, []string{"backend", "status"}),
		oracleDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_request_duration_seconds",
			Help:      "Duration of oracle completions.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
		}, []string{"backend"}),
		staleDiscarded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Oracle results discarded because the game was reset while they were in flight.",
		}, []string{"mode", "op"}),
		wins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wins_total",
			Help:      "Games won, by mode.",
		}, []string{"mode"}),
	}
}

// StaleDiscarded implements game.Observer.
func (m *Metrics) StaleDiscarded(mode game.Mode, op string) {
	m.staleDiscarded.WithLabelValues(string(mode), op).Inc()
}

// Won implements game.Observer.
func (m *Metrics) Won(mode game.Mode) {
	m.wins.WithLabelValues(string(mode)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Info("serving metrics", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Instrument wraps l so every completion is counted and timed.
func (m *Metrics) Instrument(l oracle.Loader) oracle.Loader {
	return &instrumented{Loader: l, m: m}
}

type instrumented struct {
	oracle.Loader
	m *Metrics
}

func (i *instrumented) backend() string {
	name := i.Loader.Name()
	if b, _, ok := strings.Cut(name, "/"); ok {
		return b
	}
	return name
}

func (i *instrumented) Complete(ctx context.Context, messages []oracle.Message, opts oracle.Options) (string, error) {
	backend := i.backend()
	start := time.Now()
	reply, err := i.Loader.Complete(ctx, messages, opts)
	i.m.oracleDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	i.m.oracleRequests.WithLabelValues(backend, status(err)).Inc()
	return reply, err
}

func status(err error) string {
	var apiErr *openrouter.APIError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, oracle.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &apiErr) && apiErr.RateLimited():
		return "rate_limited"
	default:
		return "error"
	}
}
