// Package watcher polls the records site's "last update" marker on a gated
// weekly schedule and announces each new update exactly once.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/keshon/dsda-bot/internal/metrics"
)

const (
	DefaultInterval = 300 * time.Second

	// DefaultMessage is posted when a new update is detected.
	DefaultMessage = "A new update was posted! Check it out at: \n%s"
)

// DefaultDays is the gating window: the site publishes at the end of the week.
var DefaultDays = []time.Weekday{time.Saturday, time.Sunday, time.Monday}

// ErrDestinationNotFound is returned by Sink.Resolve when no channel matches.
var ErrDestinationNotFound = errors.New("destination not found")

// Upstream is the part of the records site client the watcher needs.
type Upstream interface {
	LastUpdate(ctx context.Context) (string, error)
	SyncFull(ctx context.Context) error
}

// Store persists the last seen marker.
type Store interface {
	Load(ctx context.Context) (marker string, ok bool, err error)
	Save(ctx context.Context, marker string) error
}

// Sink resolves a named destination and delivers text to it.
type Sink interface {
	Resolve(ctx context.Context, name string) (destination string, err error)
	Send(ctx context.Context, destination, text string) error
}

// Result is the outcome of one tick.
type Result string

const (
	ResultGated     Result = "gated"
	ResultUnchanged Result = "unchanged"
	ResultUpdated   Result = "updated"
	ResultError     Result = "error"
)

// Config configures a Watcher. Zero values fall back to defaults.
type Config struct {
	Destination string // channel name, e.g. "speed"
	Interval    time.Duration
	Days        []time.Weekday
	Message     string // full notification text
	Now         func() time.Time
}

// Watcher compares the upstream marker with the persisted one on every gated
// tick. It is the only writer of the persisted marker.
type Watcher struct {
	upstream Upstream
	store    Store
	sink     Sink
	cfg      Config
	log      logrus.FieldLogger

	destination  string
	lastNotified string
}

// New returns a watcher; call Run to start it.
func New(upstream Upstream, store Store, sink Sink, cfg Config, log logrus.FieldLogger) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if len(cfg.Days) == 0 {
		cfg.Days = DefaultDays
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Watcher{
		upstream: upstream,
		store:    store,
		sink:     sink,
		cfg:      cfg,
		log:      log.WithField("component", "watcher"),
	}
}

// Run resolves the destination and then ticks until ctx is done. When the
// destination does not exist Run returns right away without polling.
func (w *Watcher) Run(ctx context.Context) error {
	dest, err := w.sink.Resolve(ctx, w.cfg.Destination)
	if errors.Is(err, ErrDestinationNotFound) {
		w.log.WithField("destination", w.cfg.Destination).Warn("Notification channel not found, update watcher disabled")
		return nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("resolve destination %q: %w", w.cfg.Destination, err)
	}
	w.destination = dest

	w.log.WithFields(logrus.Fields{
		"destination": w.cfg.Destination,
		"interval":    w.cfg.Interval,
		"days":        formatDays(w.cfg.Days),
	}).Info("Update watcher started")

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		w.Tick(ctx)

		select {
		case <-ctx.Done():
			w.log.Info("Update watcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one Idle -> Checking -> Idle pass. Errors are logged, never returned,
// so a bad tick never stops the loop.
func (w *Watcher) Tick(ctx context.Context) Result {
	res, err := w.tick(ctx, true)
	if err != nil {
		w.log.WithError(err).Warn("Update check failed")
		res = ResultError
	}
	metrics.RecordTick(string(res))
	return res
}

func (w *Watcher) tick(ctx context.Context, gated bool) (Result, error) {
	if gated && !w.InWindow(w.cfg.Now()) {
		return ResultGated, nil
	}

	known, _, err := w.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load marker: %w", err)
	}

	latest, err := w.upstream.LastUpdate(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch marker: %w", err)
	}
	if latest == "" || latest == known {
		return ResultUnchanged, nil
	}
	if latest == w.lastNotified {
		// Already announced; only the persist failed last time.
		if err := w.store.Save(ctx, latest); err != nil {
			return "", fmt.Errorf("persist marker: %w", err)
		}
		return ResultUnchanged, nil
	}

	if err := w.sink.Send(ctx, w.destination, w.message()); err != nil {
		return "", fmt.Errorf("send notification: %w", err)
	}
	w.lastNotified = latest
	w.log.WithFields(logrus.Fields{"previous": known, "marker": latest}).Info("New update announced")

	if err := w.store.Save(ctx, latest); err != nil {
		w.log.WithError(err).Error("Failed to persist update marker")
	}

	if err := w.upstream.SyncFull(ctx); err != nil {
		metrics.RecordResyncFailure()
		w.log.WithError(err).Error("Full resync after update failed")
	}
	return ResultUpdated, nil
}

// CheckNow runs one ungated comparison against destination, for manual checks.
func (w *Watcher) CheckNow(ctx context.Context, destination string) (Result, error) {
	w.destination = destination
	res, err := w.tick(ctx, false)
	if err != nil {
		return ResultError, err
	}
	return res, nil
}

// InWindow reports whether t falls on a gated day.
func (w *Watcher) InWindow(t time.Time) bool {
	return slices.Contains(w.cfg.Days, t.Weekday())
}

func (w *Watcher) message() string {
	if w.cfg.Message != "" {
		return w.cfg.Message
	}
	return fmt.Sprintf(DefaultMessage, "http://doomedsda.us/updates.html")
}

// ParseDays parses a comma separated weekday list ("Saturday,sun,Mon").
func ParseDays(s string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		p := strings.ToLower(strings.TrimSpace(part))
		if p == "" {
			continue
		}
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			name := strings.ToLower(d.String())
			if p == name || p == name[:3] {
				if !slices.Contains(days, d) {
					days = append(days, d)
				}
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("no weekdays in %q", s)
	}
	return days, nil
}

func formatDays(days []time.Weekday) string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.String()
	}
	return strings.Join(names, ",")
}
