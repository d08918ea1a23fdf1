// Package jobmgr runs named background jobs with cancellation, lifecycle
// reporting, and in-memory tracking of running jobs.
//
// Typical usage:
//
//	jm := jobmgr.NewManager(ctx, jobmgr.LogReporter(log))
//
//	err := jm.StartAsync("update-watcher", func(ctx context.Context) error {
//	    // do work until ctx is cancelled
//	    return nil
//	})
//
//	// later...
//	_ = jm.Stop("update-watcher")
//	jm.Wait()
//
// No retry logic, no workers, no persistence. Jobs run in separate goroutines
// and are removed on completion.
package jobmgr

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Job represents a running unit of work.
type Job struct {
	Name   string
	Cancel context.CancelFunc
	done   chan struct{}
}

// Event is a job lifecycle transition.
type Event struct {
	Job   string
	State string // running, done, error
	Err   error
}

func (e Event) String() string {
	if e.Err != nil {
		return e.State + ":" + e.Job + ":" + e.Err.Error()
	}
	return e.State + ":" + e.Job
}

// StatusReporter receives lifecycle events for jobs.
type StatusReporter func(Event)

// LogReporter reports job events to a logrus logger.
func LogReporter(log logrus.FieldLogger) StatusReporter {
	log = log.WithField("component", "jobs")
	return func(e Event) {
		entry := log.WithField("job", e.Job)
		switch e.State {
		case "error":
			entry.WithError(e.Err).Error("Job failed")
		case "done":
			entry.Info("Job finished")
		default:
			entry.Info("Job started")
		}
	}
}

// Manager orchestrates starting, stopping and tracking jobs.
// It is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	parent   context.Context
	jobs     map[string]*Job
	wg       sync.WaitGroup
	Reporter StatusReporter
}

// NewManager creates a Manager whose jobs are cancelled with parent.
// The reporter may be nil.
func NewManager(parent context.Context, reporter StatusReporter) *Manager {
	if parent == nil {
		parent = context.Background()
	}
	return &Manager{
		parent:   parent,
		jobs:     make(map[string]*Job),
		Reporter: reporter,
	}
}

// StartAsync runs a job in a separate goroutine and returns immediately.
// If a job with the same name is already running, an error is returned.
func (m *Manager) StartAsync(name string, runner func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[name]; exists {
		return fmt.Errorf("job '%s' is already running", name)
	}

	ctx, cancel := context.WithCancel(m.parent)
	job := &Job{Name: name, Cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = job
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		defer close(job.done)
		defer cancel()

		m.report(Event{Job: name, State: "running"})
		if err := runner(ctx); err != nil {
			m.report(Event{Job: name, State: "error", Err: err})
		} else {
			m.report(Event{Job: name, State: "done"})
		}

		m.mu.Lock()
		if m.jobs[name] == job {
			delete(m.jobs, name)
		}
		m.mu.Unlock()
	}()

	return nil
}

// Stop cancels a running job by name and waits for it to return.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	job, ok := m.jobs[name]
	if ok {
		delete(m.jobs, name)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("job '%s' not running", name)
	}
	job.Cancel()
	<-job.done
	return nil
}

// Wait blocks until every started job has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// List returns the sorted names of active jobs.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Status returns a human-readable summary of active jobs.
//
//	"Running jobs: update-watcher"
//
// If none are running: "No jobs are running."
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return fmt.Sprintf("Running jobs: %s", strings.Join(active, ", "))
}

func (m *Manager) report(e Event) {
	if m.Reporter != nil {
		m.Reporter(e)
	}
}
