// Package telemetry provides Prometheus metrics, tracing setup and
// correlation-id aware logging helpers for the bot.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	CommandsTotal     *prometheus.CounterVec // labels: command, outcome
	AdapterFailures   *prometheus.CounterVec // labels: adapter
	PointsAwarded     prometheus.Counter
	MentionsQueued    prometheus.Counter
	MentionsDelivered prometheus.Counter
	Reconnects        prometheus.Counter
	PersistenceErrors prometheus.Counter

	// Histograms (seconds)
	AdapterDuration *prometheus.HistogramVec // labels: adapter

	// Gauges
	SessionPhaseGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "al_commands_total", Help: "Directed commands dispatched, by command and outcome"}, []string{"command", "outcome"})
		AdapterFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "al_adapter_failures_total", Help: "Content adapter failures by adapter"}, []string{"adapter"})
		PointsAwarded = promauto.NewCounter(prometheus.CounterOpts{Name: "al_points_awarded_total", Help: "Points awarded via handle++"})
		MentionsQueued = promauto.NewCounter(prometheus.CounterOpts{Name: "al_mentions_queued_total", Help: "Tells queued for later delivery"})
		MentionsDelivered = promauto.NewCounter(prometheus.CounterOpts{Name: "al_mentions_delivered_total", Help: "Tells delivered to their target"})
		Reconnects = promauto.NewCounter(prometheus.CounterOpts{Name: "al_reconnects_total", Help: "Transport reconnect attempts"})
		PersistenceErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "al_persistence_errors_total", Help: "Ledger saves that failed"})
		AdapterDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "al_adapter_duration_seconds", Help: "Content adapter call duration seconds", Buckets: prometheus.DefBuckets}, []string{"adapter"})
		SessionPhaseGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "al_session_phase", Help: "Session phase: 0=disconnected 1=connecting 2=connected 3=joined"})
	})
}

// CountCommand records one dispatched command.
func CountCommand(command, outcome string) {
	if CommandsTotal != nil {
		CommandsTotal.WithLabelValues(command, outcome).Inc()
	}
}

// CountAdapterFailure records one failed adapter call.
func CountAdapterFailure(adapter string) {
	if AdapterFailures != nil {
		AdapterFailures.WithLabelValues(adapter).Inc()
	}
}

// Inc increments c if it has been registered.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// Add adds n to c if it has been registered.
func Add(c prometheus.Counter, n int) {
	if c != nil && n > 0 {
		c.Add(float64(n))
	}
}

// SetSessionPhase records the current session phase.
func SetSessionPhase(phase int) {
	if SessionPhaseGauge != nil {
		SessionPhaseGauge.Set(float64(phase))
	}
}

// ObserveAdapter returns the duration observer for an adapter, or nil.
func ObserveAdapter(adapter string) prometheus.Observer {
	if AdapterDuration == nil {
		return nil
	}
	return AdapterDuration.WithLabelValues(adapter)
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
