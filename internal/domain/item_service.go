package domain

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/demo-api/internal/logger"
)

// ItemRepository is the persistence contract for items.
type ItemRepository interface {
	ListItems(ctx context.Context, offset, limit int) ([]Item, error)
	CreateItem(ctx context.Context, in NewItem) (*Item, error)
	GetItem(ctx context.Context, id int64) (*Item, error)
	CountItems(ctx context.Context) (int64, error)
	// SeedItems inserts items only when the table is empty and returns how
	// many rows were written.
	SeedItems(ctx context.Context, items []NewItem) (int, error)
}

// ItemCache is an optional read-through cache in front of the repository.
type ItemCache interface {
	GetItem(ctx context.Context, id int64) (*Item, bool, error)
	SetItem(ctx context.Context, item *Item) error
}

// ItemCreatedFunc is notified after every successful creation.
type ItemCreatedFunc func(*Item)

type ItemService struct {
	repo      ItemRepository
	cache     ItemCache // nil => disabled
	log       logger.Logger
	onCreated ItemCreatedFunc
}

type ItemServiceOption func(*ItemService)

// WithCache puts c in front of repository reads.
func WithCache(c ItemCache) ItemServiceOption {
	return func(s *ItemService) { s.cache = c }
}

// WithCreatedHook registers fn to run after each created item.
func WithCreatedHook(fn ItemCreatedFunc) ItemServiceOption {
	return func(s *ItemService) { s.onCreated = fn }
}

func NewItemService(repo ItemRepository, log logger.Logger, opts ...ItemServiceOption) *ItemService {
	if log == nil {
		log = logger.NewNop()
	}
	s := &ItemService{repo: repo, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListItems returns items in insertion order.
func (s *ItemService) ListItems(ctx context.Context, p ListParams) ([]Item, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, p.Offset, p.Limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// CreateItem validates in, applies defaults and persists it.
func (s *ItemService) CreateItem(ctx context.Context, in NewItem) (*Item, error) {
	if err := ValidateNewItem(&in); err != nil {
		return nil, err
	}
	in.Normalize()

	item, err := s.repo.CreateItem(ctx, in)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetItem(ctx, item); err != nil {
			s.log.Warn("item cache write failed", logger.Int64("id", item.ID), logger.Error(err))
		}
	}
	if s.onCreated != nil {
		s.onCreated(item)
	}
	return item, nil
}

// GetItem returns ErrNotFound when id does not exist.
func (s *ItemService) GetItem(ctx context.Context, id int64) (*Item, error) {
	if s.cache != nil {
		item, ok, err := s.cache.GetItem(ctx, id)
		switch {
		case err != nil:
			s.log.Warn("item cache read failed", logger.Int64("id", id), logger.Error(err))
		case ok:
			return item, nil
		}
	}

	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetItem(ctx, item); err != nil {
			s.log.Warn("item cache write failed", logger.Int64("id", id), logger.Error(err))
		}
	}
	return item, nil
}
