package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrSnakeDoc/demo-api/internal/logger"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = time.Minute

// WindowStore is the part of the rate limiter the sweeper drives.
type WindowStore interface {
	Sweep(now time.Time) int
	Clients() int
}

// WindowSweeper periodically evicts idle client windows from the rate
// limiter so memory stays proportional to recently active clients.
type WindowSweeper struct {
	store    WindowStore
	logger   logger.Logger
	interval time.Duration
	now      func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	done      chan struct{}
}

func NewWindowSweeper(store WindowStore, log logger.Logger, interval time.Duration) *WindowSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &WindowSweeper{
		store:    store,
		logger:   log,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

var errAlreadyStarted = errors.New("window sweeper already started")

// Start launches the sweep loop. It stops when ctx is cancelled or Stop is called.
func (s *WindowSweeper) Start(ctx context.Context) error {
	started := false
	s.startOnce.Do(func() { started = true })
	if !started {
		return errAlreadyStarted
	}

	ticker := time.NewTicker(s.interval)
	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	s.logger.Debug("window sweeper started", logger.Duration("interval", s.interval))
	return nil
}

// Stop ends the sweep loop and waits for it to exit. Safe to call more
// than once, and before Start.
func (s *WindowSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })

	started := true
	s.startOnce.Do(func() { started = false })
	if started {
		<-s.done
	}
}

// Sweep runs one eviction pass and returns the number of evicted windows.
func (s *WindowSweeper) Sweep() int {
	evicted := s.store.Sweep(s.now())
	if evicted > 0 {
		s.logger.Debug("evicted idle rate limit windows",
			logger.Int("evicted", evicted),
			logger.Int("remaining", s.store.Clients()))
	}
	return evicted
}
