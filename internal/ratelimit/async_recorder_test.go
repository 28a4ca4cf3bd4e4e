package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type collectingRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (c *collectingRecorder) Record(_ context.Context, ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *collectingRecorder) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestAsyncRecorderForwardsAndFlushesOnClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	sink := &collectingRecorder{}
	a := NewAsyncRecorder(sink, 16, time.Second, nil)

	for i := 0; i < 10; i++ {
		require.NoError(t, a.Record(context.Background(), Event{ClientID: "a", Decision: Allow}))
	}
	require.NoError(t, a.Close())

	assert.Equal(t, 10, sink.len(), "Close drains buffered events")
	assert.Zero(t, a.Dropped())
}

func TestAsyncRecorderDoesNotBlockOnSlowSink(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	slow := RecorderFunc(func(context.Context, Event) error {
		<-release
		return nil
	})
	a := NewAsyncRecorder(slow, 1, time.Second, nil)

	start := time.Now()
	var busy int
	for i := 0; i < 5; i++ {
		if errors.Is(a.Record(context.Background(), Event{}), ErrRecorderBusy) {
			busy++
		}
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond, "Record must not wait for the sink")
	assert.Positive(t, busy)
	assert.Equal(t, int64(busy), a.Dropped())

	close(release)
	require.NoError(t, a.Close())
}

func TestAsyncRecorderReportsSinkErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	var (
		mu   sync.Mutex
		errs []error
	)
	failing := RecorderFunc(func(context.Context, Event) error { return errors.New("redis down") })
	a := NewAsyncRecorder(failing, 4, time.Second, func(err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
	})

	require.NoError(t, a.Record(context.Background(), Event{}))
	require.NoError(t, a.Close())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "redis down")
}

func TestAsyncRecorderAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := NewAsyncRecorder(&collectingRecorder{}, 4, time.Second, nil)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	assert.ErrorIs(t, a.Record(context.Background(), Event{}), ErrRecorderBusy)
}
