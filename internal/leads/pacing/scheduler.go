// Package pacing fires an action against a list of targets one at a time at a fixed interval.
package pacing

import (
	"errors"
	"sync"
	"time"
)

// ErrNoTargets is returned when a run is started with an empty target list.
var ErrNoTargets = errors.New("pacing: no targets")

// Ticker is the part of *time.Ticker the scheduler uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a ticker with the given period.
type TickerFactory func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// RealTicker is the wall-clock TickerFactory.
func RealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Progress is the scheduler's last reported state.
type Progress struct {
	Opened  int  `json:"opened"`
	Total   int  `json:"total"`
	Running bool `json:"running"`
}

// Option configures a Scheduler.
type Option[T any] func(*Scheduler[T])

// WithTicker replaces the wall-clock ticker.
func WithTicker[T any](f TickerFactory) Option[T] {
	return func(s *Scheduler[T]) { s.newTicker = f }
}

// WithProgress registers a callback invoked after every progress change.
// It runs while the scheduler lock is held and must not call back into the scheduler.
func WithProgress[T any](fn func(Progress)) Option[T] {
	return func(s *Scheduler[T]) { s.onProgress = fn }
}

// Scheduler paces one run at a time. Pausing is cancelling: a later Start begins at index 0.
type Scheduler[T any] struct {
	interval   time.Duration
	newTicker  TickerFactory
	onProgress func(Progress)

	mu       sync.Mutex
	gen      uint64
	ticker   Ticker
	done     chan struct{}
	progress Progress
}

// New creates an idle scheduler that ticks every interval.
func New[T any](interval time.Duration, opts ...Option[T]) *Scheduler[T] {
	s := &Scheduler[T]{
		interval:  interval,
		newTicker: RealTicker,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the pace between actions.
func (s *Scheduler[T]) Interval() time.Duration { return s.interval }

// Progress returns the last reported progress.
func (s *Scheduler[T]) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Running reports whether a run is active.
func (s *Scheduler[T]) Running() bool {
	return s.Progress().Running
}

// Start stops any active run, fires action(targets[0]) immediately and then
// fires the remaining targets one per tick. action is fire-and-forget and runs
// with the scheduler lock held.
func (s *Scheduler[T]) Start(targets []T, action func(T)) error {
	if len(targets) == 0 {
		return ErrNoTargets
	}
	targets = append([]T(nil), targets...)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.gen++

	action(targets[0])
	if len(targets) == 1 {
		s.report(Progress{Opened: 1, Total: 1, Running: false})
		return nil
	}

	s.ticker = s.newTicker(s.interval)
	s.done = make(chan struct{})
	s.report(Progress{Opened: 1, Total: len(targets), Running: true})

	go s.loop(s.gen, s.ticker, s.done, targets, action)
	return nil
}

// Toggle cancels an active run, or starts a new one when idle.
// It reports whether a run was started.
func (s *Scheduler[T]) Toggle(targets []T, action func(T)) (bool, error) {
	s.mu.Lock()
	if s.progress.Running {
		s.cancelLocked()
		s.mu.Unlock()
		return false, nil
	}
	s.mu.Unlock()

	if err := s.Start(targets, action); err != nil {
		return false, err
	}
	return true, nil
}

// Cancel stops the active run. Progress keeps its last value. No action fires after Cancel returns.
func (s *Scheduler[T]) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

func (s *Scheduler[T]) cancelLocked() {
	if !s.progress.Running {
		return
	}
	s.stopLocked()
	s.gen++
	p := s.progress
	p.Running = false
	s.report(p)
}

func (s *Scheduler[T]) stopLocked() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
}

func (s *Scheduler[T]) loop(gen uint64, ticker Ticker, done <-chan struct{}, targets []T, action func(T)) {
	next := 1
	for {
		select {
		case <-done:
			return
		case <-ticker.C():
		}

		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}

		action(targets[next])
		next++

		if next >= len(targets) {
			s.stopLocked()
			s.report(Progress{Opened: next, Total: len(targets), Running: false})
			s.mu.Unlock()
			return
		}
		s.report(Progress{Opened: next, Total: len(targets), Running: true})
		s.mu.Unlock()
	}
}

func (s *Scheduler[T]) report(p Progress) {
	s.progress = p
	if s.onProgress != nil {
		s.onProgress(p)
	}
}
