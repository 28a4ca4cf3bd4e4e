// Package redis builds the optional go-redis client used for the item cache
// and rate-limit statistics.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/demo-api/internal/logger"
)

// Options configures the client and its startup retry policy.
type Options struct {
	Addr         string
	User         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int

	ConnectTimeout time.Duration // total budget for the startup retry loop
	RetryInterval  time.Duration // first backoff step, doubled after each failure
	MaxWait        time.Duration // backoff cap
	PingTimeout    time.Duration
	WarnThreshold  int // failures logged at warn level before escalating to error
}

func (o Options) Validate() error {
	var errs []error
	if o.Addr == "" {
		errs = append(errs, errors.New("redis address must not be empty"))
	}
	if o.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("connect timeout must be > 0, got %v", o.ConnectTimeout))
	}
	if o.RetryInterval <= 0 {
		errs = append(errs, fmt.Errorf("retry interval must be > 0, got %v", o.RetryInterval))
	}
	if o.MaxWait < o.RetryInterval {
		errs = append(errs, fmt.Errorf("max wait (%v) must be >= retry interval (%v)", o.MaxWait, o.RetryInterval))
	}
	if o.PingTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ping timeout must be > 0, got %v", o.PingTimeout))
	}
	if o.WarnThreshold < 0 {
		errs = append(errs, fmt.Errorf("warn threshold must be >= 0, got %d", o.WarnThreshold))
	}
	return errors.Join(errs...)
}

// Connect returns a client once a PING succeeds, retrying with capped
// exponential backoff until ConnectTimeout or ctx expires.
func Connect(ctx context.Context, opts Options, log logger.Logger) (*redis.Client, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis options: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	if err := waitReady(ctx, client, opts, log.With(logger.String("addr", opts.Addr))); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

type pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

func waitReady(ctx context.Context, client pinger, opts Options, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	log.Info("connecting to redis", logger.Duration("timeout", opts.ConnectTimeout))
	start := time.Now()
	wait := opts.RetryInterval

	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			fields := []logger.Field{logger.Int("attempts", attempt), logger.Duration("elapsed", time.Since(start))}
			if attempt > 1 {
				log.Warn("connected to redis after retry", fields...)
			} else {
				log.Info("connected to redis", fields...)
			}
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("redis unavailable", logger.Int("attempts", attempt), logger.Error(err))
			return fmt.Errorf("redis unavailable at %s after %d attempts: %w", opts.Addr, attempt, err)
		case <-timer.C:
		}

		level := log.Warn
		if attempt > opts.WarnThreshold {
			level = log.Error
		}
		level("redis connection failed, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("next_retry_in", wait),
			logger.Error(err))

		wait = nextWait(wait, opts.MaxWait)
	}
}

// nextWait doubles wait, capped at max.
func nextWait(wait, max time.Duration) time.Duration {
	wait *= 2
	if wait > max || wait <= 0 {
		return max
	}
	return wait
}
