package seed

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/demo-api/internal/domain"
	"github.com/MrSnakeDoc/demo-api/internal/logger"
)

// Seeder fills an empty store with the sample items.
type Seeder struct {
	repo   domain.ItemRepository
	loader *Loader
	log    logger.Logger
}

func NewSeeder(repo domain.ItemRepository, loader *Loader, log logger.Logger) *Seeder {
	if log == nil {
		log = logger.NewNop()
	}
	return &Seeder{repo: repo, loader: loader, log: log}
}

// Run returns the number of inserted items; 0 means the store already
// held data.
func (s *Seeder) Run(ctx context.Context) (int, error) {
	items, err := s.loader.Load()
	if err != nil {
		return 0, err
	}

	n, err := s.repo.SeedItems(ctx, items)
	if err != nil {
		return 0, fmt.Errorf("failed to seed items: %w", err)
	}

	if n == 0 {
		total, err := s.repo.CountItems(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count items: %w", err)
		}
		s.log.Info("store not empty, skipping seed", logger.Int64("items", total))
	} else {
		s.log.Info("seeded sample items", logger.Int("count", n))
	}
	return n, nil
}
