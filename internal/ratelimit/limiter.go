// Package ratelimit implements a per-client sliding-window request cap.
//
// A Limiter keeps, for every client identity, the arrival times of the
// requests it allowed within the last Window. A request is rejected when
// MaxRequests of them are still inside the window. Rejected requests are
// never recorded, so a client that keeps hammering the server is let back in
// as soon as its oldest allowed request slides out of the window.
//
// Callers should pass time.Now(): its monotonic reading keeps the window
// immune to wall-clock adjustments.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// UnknownClient is the shared bucket used when no client identity is available.
const UnknownClient = "unknown"

type Config struct {
	MaxRequests int           // cap per client within Window
	Window      time.Duration // sliding window width
}

func (c Config) Validate() error {
	var errs []error
	if c.MaxRequests <= 0 {
		errs = append(errs, fmt.Errorf("max requests must be > 0, got %d", c.MaxRequests))
	}
	if c.Window <= 0 {
		errs = append(errs, fmt.Errorf("window must be > 0, got %v", c.Window))
	}
	return errors.Join(errs...)
}

type Decision int

const (
	Allow Decision = iota + 1
	Reject
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Reject:
		return "reject"
	default:
		return "undecided"
	}
}

// Result is the outcome of one evaluation.
type Result struct {
	Decision  Decision
	Limit     int
	Remaining int // slots left in the window after this evaluation
	// RetryAfter is how long until the oldest entry leaves the window.
	// Only set on Reject.
	RetryAfter time.Duration
}

func (r Result) Allowed() bool { return r.Decision == Allow }

// window is the ordered list of accepted request times for one client.
type window struct {
	mu      sync.Mutex
	times   []time.Time
	evicted bool // set by Sweep once the window left the map
}

type Limiter struct {
	cfg     Config
	mu      sync.Mutex
	clients map[string]*window
}

func New(cfg Config) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit config: %w", err)
	}
	return &Limiter{
		cfg:     cfg,
		clients: make(map[string]*window, 256),
	}, nil
}

func (l *Limiter) Config() Config { return l.cfg }

// Evaluate decides whether clientID may make a request at now, and records
// it when allowed. The prune, count and append steps run atomically for a
// given client; different clients never contend on the same lock.
func (l *Limiter) Evaluate(clientID string, now time.Time) Result {
	if clientID == "" {
		clientID = UnknownClient
	}

	for {
		w := l.getWindow(clientID)

		w.mu.Lock()
		if w.evicted {
			// Lost a race with Sweep; the map now holds (or will hold) a fresh window.
			w.mu.Unlock()
			continue
		}
		res := l.evaluateLocked(w, now)
		w.mu.Unlock()
		return res
	}
}

func (l *Limiter) evaluateLocked(w *window, now time.Time) Result {
	// Keep the sequence sorted even if the caller's clock stepped backwards.
	if n := len(w.times); n > 0 && now.Before(w.times[n-1]) {
		now = w.times[n-1]
	}

	w.prune(now, l.cfg.Window)

	if len(w.times) >= l.cfg.MaxRequests {
		retry := l.cfg.Window - now.Sub(w.times[0])
		if retry < 0 {
			retry = 0
		}
		return Result{
			Decision:   Reject,
			Limit:      l.cfg.MaxRequests,
			Remaining:  0,
			RetryAfter: retry,
		}
	}

	w.times = append(w.times, now)
	return Result{
		Decision:  Allow,
		Limit:     l.cfg.MaxRequests,
		Remaining: l.cfg.MaxRequests - len(w.times),
	}
}

// prune drops every entry t with now-t >= width. Entries are sorted, so the
// expired ones form a prefix.
func (w *window) prune(now time.Time, width time.Duration) {
	cut := 0
	for cut < len(w.times) && now.Sub(w.times[cut]) >= width {
		cut++
	}
	if cut == 0 {
		return
	}
	if cut == len(w.times) {
		w.times = w.times[:0]
		return
	}
	// Shift down instead of reslicing so the backing array doesn't creep forward.
	n := copy(w.times, w.times[cut:])
	w.times = w.times[:n]
}

func (l *Limiter) getWindow(clientID string) *window {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.clients[clientID]
	if w == nil {
		w = &window{}
		l.clients[clientID] = w
	}
	return w
}

// Sweep prunes every window at now and evicts the ones left empty.
// It returns the number of evicted clients.
func (l *Limiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for id, w := range l.clients {
		w.mu.Lock()
		w.prune(now, l.cfg.Window)
		if len(w.times) == 0 {
			w.evicted = true
			delete(l.clients, id)
			evicted++
		}
		w.mu.Unlock()
	}
	return evicted
}

// Clients returns the number of tracked client windows.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
