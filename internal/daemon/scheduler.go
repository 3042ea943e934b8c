package daemon

import (
	"context"
	"errors"
	"time"

	"github.com/s22625/ciwatch/internal/event"
)

// DefaultInterval is the poll period of a scheduler created with 0.
const DefaultInterval = 5 * time.Second

// ErrNotRunning is returned by Do when the scheduler loop has exited.
var ErrNotRunning = errors.New("scheduler not running")

// Poller runs one poll cycle.
type Poller interface {
	UpdateJobs() error
}

// PollResult describes one finished poll.
type PollResult struct {
	At       time.Time
	Duration time.Duration
	Err      error
}

// Scheduler drives a Poller on a fixed period from a single goroutine.
// Every mutation of pipeline state submitted through Do runs on that same
// goroutine, so polls never overlap with each other or with mutations.
type Scheduler struct {
	poller   Poller
	interval time.Duration
	logger   Logger

	polled *event.Event[PollResult]
	cmds   chan func()
	now    chan struct{}
	done   chan struct{}
}

// NewScheduler creates a scheduler. A zero interval means DefaultInterval.
func NewScheduler(poller Poller, interval time.Duration, logger Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		poller:   poller,
		interval: interval,
		logger:   logger,
		polled:   event.New[PollResult](),
		cmds:     make(chan func()),
		now:      make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Interval returns the poll period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// PolledEvent fires on the scheduler goroutine after every poll. Register
// handlers before calling Run.
func (s *Scheduler) PolledEvent() *event.Event[PollResult] {
	return s.polled
}

// Run polls immediately, then once per interval, until ctx is done. A
// failed poll is logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.poll()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.poll()
		case <-s.now:
			s.poll()
			ticker.Reset(s.interval)
		case fn := <-s.cmds:
			fn()
		}
	}
}

// Do runs fn on the scheduler goroutine and waits for it to finish.
func (s *Scheduler) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case s.cmds <- wrapped:
	case <-s.done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PollNow asks for an immediate poll. Requests made while one is already
// pending are merged.
func (s *Scheduler) PollNow() {
	select {
	case s.now <- struct{}{}:
	default:
	}
}

func (s *Scheduler) poll() {
	start := time.Now()
	err := s.poller.UpdateJobs()
	result := PollResult{At: start, Duration: time.Since(start), Err: err}

	if err != nil {
		warnf(s.logger, "poll failed, retrying in %s: %v", s.interval, err)
	} else {
		debugf(s.logger, "poll ok (%s)", result.Duration.Round(time.Millisecond))
	}

	s.polled.Fire(result)
}
