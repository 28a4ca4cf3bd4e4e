package ratelimit

import (
	"context"
	"time"
)

// Event describes one decision, for statistics.
type Event struct {
	ClientID string
	Route    string // route pattern, never the raw path
	Decision Decision
	At       time.Time
}

// Recorder receives decisions after they are made. Implementations are
// best-effort: a failing recorder must not affect the request.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// RecorderFunc adapts a plain function to Recorder.
type RecorderFunc func(ctx context.Context, ev Event) error

func (f RecorderFunc) Record(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Counts is a pair of allow/reject counters, as aggregated by a Recorder.
type Counts struct {
	Allowed  int64 `json:"allowed"`
	Rejected int64 `json:"rejected"`
}

// StatsReader exposes aggregated decisions.
type StatsReader interface {
	DecisionTotals(ctx context.Context) (Counts, error)
	DecisionsAt(ctx context.Context, t time.Time) (Counts, error)
}
