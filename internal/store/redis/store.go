// Package redis stores the optional item cache and rate-limit decision
// statistics in Redis.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultItemTTL  = 5 * time.Minute
	DefaultStatsTTL = 24 * time.Hour
)

type Store struct {
	client   redis.UniversalClient
	itemTTL  time.Duration
	statsTTL time.Duration // applies to per-minute buckets; totals never expire
}

type Option func(*Store)

func WithItemTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.itemTTL = d
		}
	}
}

func WithStatsTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.statsTTL = d
		}
	}
}

func NewStore(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client:   client,
		itemTTL:  DefaultItemTTL,
		statsTTL: DefaultStatsTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks connectivity for /readyz.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
