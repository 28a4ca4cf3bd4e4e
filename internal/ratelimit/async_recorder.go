package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrRecorderBusy is returned by AsyncRecorder when its buffer is full or it
// has been closed. The event is dropped.
var ErrRecorderBusy = errors.New("recorder buffer full, event dropped")

const (
	DefaultAsyncBuffer  = 1024
	DefaultAsyncTimeout = 250 * time.Millisecond
)

// AsyncRecorder hands events to a background goroutine that forwards them
// to next, so a slow sink never delays a request. Record never blocks.
type AsyncRecorder struct {
	next    Recorder
	timeout time.Duration
	onError func(error)

	mu     sync.RWMutex
	closed bool
	events chan Event
	done   chan struct{}

	dropped atomic.Int64
}

// NewAsyncRecorder starts the forwarding goroutine. Close must be called to
// stop it. onError, when set, is called from that goroutine for each
// failed forward.
func NewAsyncRecorder(next Recorder, buffer int, timeout time.Duration, onError func(error)) *AsyncRecorder {
	if buffer <= 0 {
		buffer = DefaultAsyncBuffer
	}
	if timeout <= 0 {
		timeout = DefaultAsyncTimeout
	}
	a := &AsyncRecorder{
		next:    next,
		timeout: timeout,
		onError: onError,
		events:  make(chan Event, buffer),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncRecorder) Record(_ context.Context, ev Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.dropped.Add(1)
		return ErrRecorderBusy
	}
	select {
	case a.events <- ev:
		return nil
	default:
		a.dropped.Add(1)
		return ErrRecorderBusy
	}
}

func (a *AsyncRecorder) run() {
	defer close(a.done)
	for ev := range a.events {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		err := a.next.Record(ctx, ev)
		cancel()
		if err != nil && a.onError != nil {
			a.onError(err)
		}
	}
}

// Close stops accepting events, flushes the buffer and waits for the
// goroutine to exit. Safe to call more than once.
func (a *AsyncRecorder) Close() error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.events)
	}
	a.mu.Unlock()
	<-a.done
	return nil
}

// Dropped returns how many events were discarded.
func (a *AsyncRecorder) Dropped() int64 { return a.dropped.Load() }
