package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	saturday  = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	monday    = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	wednesday = time.Date(2026, 10, 21, 12, 0, 0, 0, time.UTC)
)

type fakeUpstream struct {
	mu          sync.Mutex
	marker      string
	markerErr   error
	syncErr     error
	updateCalls int
	syncCalls   int
}

func (f *fakeUpstream) LastUpdate(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	return f.marker, f.markerErr
}

func (f *fakeUpstream) SyncFull(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncCalls++
	return f.syncErr
}

func (f *fakeUpstream) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updateCalls, f.syncCalls
}

type memStore struct {
	marker  string
	ok      bool
	saveErr error
	loads   int
	saves   int
}

func (m *memStore) Load(context.Context) (string, bool, error) {
	m.loads++
	return m.marker, m.ok, nil
}

func (m *memStore) Save(_ context.Context, marker string) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.marker, m.ok = marker, true
	return nil
}

type fakeSink struct {
	mu       sync.Mutex
	channels map[string]string
	sent     []string
	sendErr  error
}

func (f *fakeSink) Resolve(_ context.Context, name string) (string, error) {
	if id, ok := f.channels[name]; ok {
		return id, nil
	}
	return "", ErrDestinationNotFound
}

func (f *fakeSink) Send(_ context.Context, destination, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, destination+"|"+text)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestWatcher(up *fakeUpstream, store *memStore, sink *fakeSink, now time.Time) *Watcher {
	w := New(up, store, sink, Config{
		Destination: "speed",
		Message:     "new update",
		Now:         func() time.Time { return now },
	}, quietLogger())
	w.destination = "chan-1"
	return w
}

func TestTickOutsideWindowMakesNoCalls(t *testing.T) {
	up := &fakeUpstream{marker: "m2"}
	store := &memStore{marker: "m1", ok: true}
	sink := &fakeSink{}
	w := newTestWatcher(up, store, sink, wednesday)

	assert.Equal(t, ResultGated, w.Tick(context.Background()))
	updates, syncs := up.calls()
	assert.Zero(t, updates)
	assert.Zero(t, syncs)
	assert.Zero(t, store.loads)
	assert.Zero(t, sink.count())
}

func TestTickUnchangedMarker(t *testing.T) {
	up := &fakeUpstream{marker: "m1"}
	store := &memStore{marker: "m1", ok: true}
	sink := &fakeSink{}
	w := newTestWatcher(up, store, sink, saturday)

	assert.Equal(t, ResultUnchanged, w.Tick(context.Background()))
	assert.Zero(t, sink.count())
	assert.Zero(t, store.saves)
	assert.Equal(t, "m1", store.marker)
	_, syncs := up.calls()
	assert.Zero(t, syncs)
}

func TestTickChangedMarkerNotifiesOnce(t *testing.T) {
	up := &fakeUpstream{marker: "m2"}
	store := &memStore{marker: "m1", ok: true}
	sink := &fakeSink{}
	w := newTestWatcher(up, store, sink, monday)

	assert.Equal(t, ResultUpdated, w.Tick(context.Background()))
	assert.Equal(t, []string{"chan-1|new update"}, sink.sent)
	assert.Equal(t, "m2", store.marker)
	_, syncs := up.calls()
	assert.Equal(t, 1, syncs)

	assert.Equal(t, ResultUnchanged, w.Tick(context.Background()))
	assert.Equal(t, 1, sink.count())
	_, syncs = up.calls()
	assert.Equal(t, 1, syncs)
}

func TestTickWithoutKnownMarker(t *testing.T) {
	up := &fakeUpstream{marker: "m1"}
	store := &memStore{}
	sink := &fakeSink{}
	w := newTestWatcher(up, store, sink, saturday)

	assert.Equal(t, ResultUpdated, w.Tick(context.Background()))
	assert.Equal(t, 1, sink.count())
	assert.Equal(t, "m1", store.marker)
}

func TestResyncFailureKeepsMarkerAndNotification(t *testing.T) {
	up := &fakeUpstream{marker: "m2", syncErr: errors.New("upstream down")}
	store := &memStore{marker: "m1", ok: true}
	sink := &fakeSink{}
	w := newTestWatcher(up, store, sink, saturday)

	assert.Equal(t, ResultUpdated, w.Tick(context.Background()))
	assert.Equal(t, 1, sink.count())
	assert.Equal(t, "m2", store.marker)

	assert.Equal(t, ResultUnchanged, w.Tick(context.Background()))
	assert.Equal(t, 1, sink.count())
	_, syncs := up.calls()
	assert.Equal(t, 1, syncs)
}

func TestSaveFailureNeverNotifiesTwice(t *testing.T) {
	up := &fakeUpstream{marker: "m2"}
	store := &memStore{marker: "m1", ok: true, saveErr: errors.New("disk full")}
	sink := &fakeSink{}
	w := newTestWatcher(up, store, sink, saturday)

	assert.Equal(t, ResultUpdated, w.Tick(context.Background()))
	assert.Equal(t, ResultError, w.Tick(context.Background()))
	assert.Equal(t, 1, sink.count())

	store.saveErr = nil
	assert.Equal(t, ResultUnchanged, w.Tick(context.Background()))
	assert.Equal(t, "m2", store.marker)
	assert.Equal(t, 1, sink.count())
}

func TestUpstreamErrorDoesNotNotify(t *testing.T) {
	up := &fakeUpstream{markerErr: errors.New("timeout")}
	store := &memStore{marker: "m1", ok: true}
	sink := &fakeSink{}
	w := newTestWatcher(up, store, sink, saturday)

	assert.Equal(t, ResultError, w.Tick(context.Background()))
	assert.Zero(t, sink.count())
	assert.Zero(t, store.saves)
}

func TestSendFailureRetriesNextTick(t *testing.T) {
	up := &fakeUpstream{marker: "m2"}
	store := &memStore{marker: "m1", ok: true}
	sink := &fakeSink{sendErr: errors.New("discord unavailable")}
	w := newTestWatcher(up, store, sink, saturday)

	assert.Equal(t, ResultError, w.Tick(context.Background()))
	assert.Equal(t, "m1", store.marker)

	sink.sendErr = nil
	assert.Equal(t, ResultUpdated, w.Tick(context.Background()))
	assert.Equal(t, 1, sink.count())
}

func TestRunWithoutDestinationNeverPolls(t *testing.T) {
	up := &fakeUpstream{marker: "m2"}
	store := &memStore{}
	sink := &fakeSink{channels: map[string]string{"general": "c0"}}
	w := New(up, store, sink, Config{Destination: "speed", Interval: time.Millisecond, Now: func() time.Time { return saturday }}, quietLogger())

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return without a destination")
	}
	updates, _ := up.calls()
	assert.Zero(t, updates)
	assert.Zero(t, store.loads)
}

func TestRunStopsOnCancel(t *testing.T) {
	up := &fakeUpstream{marker: "m1"}
	store := &memStore{marker: "m1", ok: true}
	sink := &fakeSink{channels: map[string]string{"speed": "c1"}}
	w := New(up, store, sink, Config{Destination: "speed", Interval: time.Hour, Now: func() time.Time { return saturday }}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		updates, _ := up.calls()
		return updates == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestCheckNowIgnoresGate(t *testing.T) {
	up := &fakeUpstream{marker: "m2"}
	store := &memStore{marker: "m1", ok: true}
	sink := &fakeSink{}
	w := newTestWatcher(up, store, sink, wednesday)

	res, err := w.CheckNow(context.Background(), "stdout")
	require.NoError(t, err)
	assert.Equal(t, ResultUpdated, res)
	assert.Equal(t, []string{"stdout|new update"}, sink.sent)
	assert.Equal(t, ResultGated, w.Tick(context.Background()))
}

func TestParseDays(t *testing.T) {
	days, err := ParseDays("Saturday, sun ,MON")
	require.NoError(t, err)
	assert.Equal(t, DefaultDays, days)

	_, err = ParseDays("funday")
	assert.Error(t, err)
	_, err = ParseDays(" , ")
	assert.Error(t, err)
}

func TestDefaultMessage(t *testing.T) {
	w := New(&fakeUpstream{}, &memStore{}, &fakeSink{}, Config{}, quietLogger())
	assert.Equal(t, "A new update was posted! Check it out at: \nhttp://doomedsda.us/updates.html", w.message())
	assert.True(t, w.InWindow(saturday))
	assert.True(t, w.InWindow(monday))
	assert.False(t, w.InWindow(wednesday))
}
