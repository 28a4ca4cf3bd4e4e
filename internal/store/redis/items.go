package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/demo-api/internal/domain"
)

var _ domain.ItemCache = (*Store)(nil)

// GetItem returns (nil, false, nil) on a cache miss.
func (s *Store) GetItem(ctx context.Context, id int64) (*domain.Item, bool, error) {
	data, err := s.client.Get(ctx, ItemKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get cached item: %w", err)
	}

	var it domain.Item
	if err := json.Unmarshal(data, &it); err != nil {
		// Drop the corrupt entry so the next read refills it.
		if delErr := s.InvalidateItem(ctx, id); delErr != nil {
			return nil, false, errors.Join(fmt.Errorf("failed to unmarshal cached item: %w", err), delErr)
		}
		return nil, false, fmt.Errorf("failed to unmarshal cached item: %w", err)
	}
	return &it, true, nil
}

func (s *Store) SetItem(ctx context.Context, it *domain.Item) error {
	data, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	if err := s.client.Set(ctx, ItemKey(it.ID), data, s.itemTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache item: %w", err)
	}
	return nil
}

// InvalidateItem removes item id from the cache.
func (s *Store) InvalidateItem(ctx context.Context, id int64) error {
	if err := s.client.Del(ctx, ItemKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached item: %w", err)
	}
	return nil
}
