package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/demo-api/internal/logger"
)

func validOptions() Options {
	return Options{
		Addr:           "localhost:6379",
		ConnectTimeout: time.Second,
		RetryInterval:  10 * time.Millisecond,
		MaxWait:        40 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  3,
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr bool
	}{
		{name: "valid", mutate: func(o *Options) {}},
		{name: "empty addr", mutate: func(o *Options) { o.Addr = "" }, wantErr: true},
		{name: "zero connect timeout", mutate: func(o *Options) { o.ConnectTimeout = 0 }, wantErr: true},
		{name: "zero retry interval", mutate: func(o *Options) { o.RetryInterval = 0 }, wantErr: true},
		{name: "max wait below interval", mutate: func(o *Options) { o.MaxWait = time.Millisecond }, wantErr: true},
		{name: "zero ping timeout", mutate: func(o *Options) { o.PingTimeout = 0 }, wantErr: true},
		{name: "negative warn threshold", mutate: func(o *Options) { o.WarnThreshold = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOptions()
			tt.mutate(&o)
			if tt.wantErr {
				assert.Error(t, o.Validate())
			} else {
				assert.NoError(t, o.Validate())
			}
		})
	}
}

func TestNextWait(t *testing.T) {
	assert.Equal(t, 4*time.Second, nextWait(2*time.Second, 10*time.Second))
	assert.Equal(t, 10*time.Second, nextWait(8*time.Second, 10*time.Second))
	assert.Equal(t, 10*time.Second, nextWait(10*time.Second, 10*time.Second))
}

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) Ping(ctx context.Context) *redis.StatusCmd {
	p.calls++
	cmd := redis.NewStatusCmd(ctx, "ping")
	if p.calls <= p.failures {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	cmd.SetVal("PONG")
	return cmd
}

func TestWaitReadyRetriesUntilSuccess(t *testing.T) {
	p := &flakyPinger{failures: 2}

	err := waitReady(context.Background(), p, validOptions(), logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 3, p.calls)
}

func TestWaitReadyGivesUpAfterTimeout(t *testing.T) {
	p := &flakyPinger{failures: 1 << 30}
	opts := validOptions()
	opts.ConnectTimeout = 60 * time.Millisecond

	err := waitReady(context.Background(), p, opts, logger.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.GreaterOrEqual(t, p.calls, 2)
}

func TestConnectRejectsInvalidOptions(t *testing.T) {
	_, err := Connect(context.Background(), Options{}, nil)
	assert.Error(t, err)
}
