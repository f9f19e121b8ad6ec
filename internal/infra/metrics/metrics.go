package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mirrors the scheduler's free-running counters for scraping.
// It implements runner.Observer.
type Metrics struct {
	fires       *prometheus.CounterVec
	invocations *prometheus.CounterVec
	completions *prometheus.CounterVec
	durations   prometheus.Histogram

	registry *prometheus.Registry
	server   *http.Server
	logger   *slog.Logger
}

// New creates the metric set on a private registry.
func New(logger *slog.Logger) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		fires: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lmapd",
			Name:      "event_fires_total",
			Help:      "Event fires delivered to the scheduler.",
		}, []string{"event"}),
		invocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lmapd",
			Name:      "action_invocations_total",
			Help:      "Measurement program launches.",
		}, []string{"schedule", "action"}),
		completions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lmapd",
			Name:      "action_completions_total",
			Help:      "Reaped measurement programs by outcome.",
		}, []string{"schedule", "action", "outcome"}),
		durations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lmapd",
			Name:      "action_duration_seconds",
			Help:      "Wall-clock runtime of measurement programs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		registry: reg,
		logger:   logger,
	}
}

// FireDelivered implements runner.Observer.
func (m *Metrics) FireDelivered(event string) {
	m.fires.WithLabelValues(event).Inc()
}

// ActionStarted implements runner.Observer.
func (m *Metrics) ActionStarted(schedule, action string) {
	m.invocations.WithLabelValues(schedule, action).Inc()
}

// ActionCompleted implements runner.Observer.
func (m *Metrics) ActionCompleted(schedule, action string, status int, duration time.Duration) {
	outcome := "success"
	if status != 0 {
		outcome = "failure"
	}
	m.completions.WithLabelValues(schedule, action, outcome).Inc()
	m.durations.Observe(duration.Seconds())
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	m.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		m.server.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics listener failed", "addr", addr, "error", err)
		}
	}()
}
