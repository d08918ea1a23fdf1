// Package metrics exposes prometheus counters for routed commands and the
// update watcher, plus an optional /metrics HTTP endpoint.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// CommandsTotal counts routed commands by canonical name and outcome.
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dsda_bot_commands_total",
			Help: "Total number of routed commands",
		},
		[]string{"command", "outcome"}, // outcome: ok, missing_argument, invalid_format, unknown_command, error
	)

	// CommandDuration measures command handling time including the upstream call.
	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dsda_bot_command_duration_seconds",
			Help:    "Command handling duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"command"},
	)

	// WatcherTicksTotal counts watcher ticks by result.
	WatcherTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dsda_bot_watcher_ticks_total",
			Help: "Update watcher ticks",
		},
		[]string{"result"}, // result: gated, unchanged, updated, error
	)

	// ResyncFailuresTotal counts failed full resynchronizations after an update.
	ResyncFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dsda_bot_resync_failures_total",
			Help: "Failed full resynchronizations",
		},
	)
)

// RecordCommand records one routed command.
func RecordCommand(command, outcome string, d time.Duration) {
	CommandsTotal.WithLabelValues(command, outcome).Inc()
	CommandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// RecordTick records one watcher tick.
func RecordTick(result string) {
	WatcherTicksTotal.WithLabelValues(result).Inc()
}

// RecordResyncFailure records one failed resync.
func RecordResyncFailure() {
	ResyncFailuresTotal.Inc()
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, log logrus.FieldLogger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("Metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
