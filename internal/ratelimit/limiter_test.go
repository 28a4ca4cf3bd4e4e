package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func at(sec float64) time.Time {
	return epoch.Add(time.Duration(sec * float64(time.Second)))
}

func newLimiter(t *testing.T, max int, window time.Duration) *Limiter {
	t.Helper()
	l, err := New(Config{MaxRequests: max, Window: window})
	require.NoError(t, err)
	return l
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero max", Config{MaxRequests: 0, Window: time.Second}},
		{"negative max", Config{MaxRequests: -1, Window: time.Second}},
		{"zero window", Config{MaxRequests: 1, Window: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestEvaluateExpiry(t *testing.T) {
	l := newLimiter(t, 2, 10*time.Second)

	assert.Equal(t, Allow, l.Evaluate("a", at(0)).Decision)
	assert.Equal(t, Allow, l.Evaluate("a", at(1)).Decision)
	assert.Equal(t, Reject, l.Evaluate("a", at(2)).Decision)
	// Both the t=0 and t=1 entries have expired (11-1 >= 10).
	assert.Equal(t, Allow, l.Evaluate("a", at(11)).Decision)
	assert.Equal(t, Allow, l.Evaluate("a", at(11)).Decision)
	assert.Equal(t, Reject, l.Evaluate("a", at(11)).Decision)
}

func TestEvaluateExpiryKeepsNewerEntries(t *testing.T) {
	l := newLimiter(t, 2, 10*time.Second)

	require.True(t, l.Evaluate("a", at(0)).Allowed())
	require.True(t, l.Evaluate("a", at(1)).Allowed())
	// Only the t=0 entry has left; t=1 still counts.
	assert.True(t, l.Evaluate("a", at(10.5)).Allowed())
	assert.False(t, l.Evaluate("a", at(10.5)).Allowed())
}

func TestEvaluateBoundaryIsExclusive(t *testing.T) {
	l := newLimiter(t, 1, 10*time.Second)

	require.True(t, l.Evaluate("a", at(0)).Allowed())
	assert.False(t, l.Evaluate("a", at(9.999)).Allowed())
	// now - t == window counts as expired.
	assert.True(t, l.Evaluate("a", at(10)).Allowed())
}

func TestPruningKeepsEntriesInsideWindow(t *testing.T) {
	l := newLimiter(t, 100, 60*time.Second)

	for i := 0; i < 50; i++ {
		require.True(t, l.Evaluate("a", at(0)).Allowed())
	}
	res := l.Evaluate("a", at(30))
	require.True(t, res.Allowed())
	assert.Equal(t, 49, res.Remaining, "all 50 earlier calls must still count")

	for i := 0; i < 49; i++ {
		require.True(t, l.Evaluate("a", at(30)).Allowed())
	}
	assert.False(t, l.Evaluate("a", at(59)).Allowed())
	// The 50 entries from t=0 expire at t=60.
	assert.True(t, l.Evaluate("a", at(60)).Allowed())
}

func TestRejectIsNotRecorded(t *testing.T) {
	l := newLimiter(t, 1, 10*time.Second)

	require.True(t, l.Evaluate("a", at(0)).Allowed())
	for i := 1; i < 10; i++ {
		require.False(t, l.Evaluate("a", at(float64(i))).Allowed())
	}
	// Had the rejects been recorded, the window would still be full.
	assert.True(t, l.Evaluate("a", at(10)).Allowed())
}

func TestClientsAreIndependent(t *testing.T) {
	l := newLimiter(t, 1, time.Minute)

	require.True(t, l.Evaluate("a", at(0)).Allowed())
	require.False(t, l.Evaluate("a", at(1)).Allowed())
	assert.True(t, l.Evaluate("b", at(1)).Allowed())
	assert.False(t, l.Evaluate("b", at(2)).Allowed())
	assert.Equal(t, 2, l.Clients())
}

func TestEmptyClientSharesUnknownBucket(t *testing.T) {
	l := newLimiter(t, 1, time.Minute)

	require.True(t, l.Evaluate("", at(0)).Allowed())
	assert.False(t, l.Evaluate(UnknownClient, at(1)).Allowed())
}

func TestResultMetadata(t *testing.T) {
	l := newLimiter(t, 3, 10*time.Second)

	res := l.Evaluate("a", at(0))
	assert.Equal(t, 3, res.Limit)
	assert.Equal(t, 2, res.Remaining)
	assert.Zero(t, res.RetryAfter)

	l.Evaluate("a", at(2))
	l.Evaluate("a", at(4))

	res = l.Evaluate("a", at(6))
	assert.Equal(t, Reject, res.Decision)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 4*time.Second, res.RetryAfter, "oldest entry (t=0) leaves at t=10")
}

func TestClockStepBackIsClamped(t *testing.T) {
	l := newLimiter(t, 2, 10*time.Second)

	require.True(t, l.Evaluate("a", at(100)).Allowed())
	// A backwards step is treated as "now == newest entry".
	require.True(t, l.Evaluate("a", at(50)).Allowed())
	assert.False(t, l.Evaluate("a", at(60)).Allowed())
	assert.True(t, l.Evaluate("a", at(110)).Allowed())
}

// Over every window-length span, allowed calls never exceed the cap.
func TestSlidingWindowCapProperty(t *testing.T) {
	const (
		max    = 5
		window = 10 * time.Second
	)
	l := newLimiter(t, max, window)

	var allowed []time.Time
	now := epoch
	for i := 0; i < 2000; i++ {
		// Irregular but non-decreasing steps between 0 and 1.9s.
		now = now.Add(time.Duration((i*7919)%20) * 100 * time.Millisecond)
		if l.Evaluate("a", now).Allowed() {
			allowed = append(allowed, now)
		}
	}
	require.NotEmpty(t, allowed)

	for i := range allowed {
		count := 0
		for j := i; j < len(allowed) && allowed[j].Sub(allowed[i]) < window; j++ {
			count++
		}
		require.LessOrEqualf(t, count, max, "window starting at %v holds %d allowed calls", allowed[i], count)
	}
}

func TestConcurrentEvaluateNeverExceedsCap(t *testing.T) {
	const max = 50
	l := newLimiter(t, max, time.Hour)
	now := time.Now()

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if l.Evaluate("shared", now).Allowed() {
					allowed.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(max), allowed.Load())
}

func TestConcurrentEvaluateWithSweep(t *testing.T) {
	const max = 20
	l := newLimiter(t, max, time.Hour)
	now := time.Now()

	var allowed atomic.Int64
	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				l.Sweep(now)
			}
		}
	}()

	var workers sync.WaitGroup
	for g := 0; g < 8; g++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for i := 0; i < 10; i++ {
				if l.Evaluate("shared", now).Allowed() {
					allowed.Add(1)
				}
			}
		}()
	}
	workers.Wait()
	close(stop)
	wg.Wait()

	assert.Equal(t, int64(max), allowed.Load(), "sweeping must not drop live entries")
}

func TestSweepEvictsEmptyWindows(t *testing.T) {
	l := newLimiter(t, 5, 10*time.Second)

	l.Evaluate("old", at(0))
	l.Evaluate("recent", at(8))
	require.Equal(t, 2, l.Clients())

	evicted := l.Sweep(at(12))
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, l.Clients())

	// The evicted client starts from a clean window.
	res := l.Evaluate("old", at(12))
	assert.Equal(t, 4, res.Remaining)
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "reject", Reject.String())
	assert.Equal(t, "undecided", Decision(0).String())
}
