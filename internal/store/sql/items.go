package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/demo-api/internal/domain"
	"github.com/MrSnakeDoc/demo-api/internal/logger"
)

var _ domain.ItemRepository = (*Store)(nil)

const itemColumns = `id, name, description, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var (
		it      domain.Item
		desc    sql.NullString
		updated sql.NullTime
	)
	if err := row.Scan(&it.ID, &it.Name, &desc, &it.IsActive, &it.CreatedAt, &updated); err != nil {
		return nil, err
	}
	if desc.Valid {
		it.Description = &desc.String
	}
	if updated.Valid {
		t := updated.Time.UTC()
		it.UpdatedAt = &t
	}
	it.CreatedAt = it.CreatedAt.UTC()
	return &it, nil
}

// ListItems returns a page of items ordered by id.
func (s *Store) ListItems(ctx context.Context, offset, limit int) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+itemColumns+`
		FROM items
		ORDER BY id
		LIMIT $1 OFFSET $2`), limit, offset)
	if err != nil {
		return nil, &domain.StorageError{Op: "list items", Err: err}
	}
	defer rows.Close()

	items := make([]domain.Item, 0, min(limit, 128))
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, &domain.StorageError{Op: "scan item", Err: err}
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "list items", Err: err}
	}
	return items, nil
}

func (s *Store) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+itemColumns+`
		FROM items
		WHERE id = $1`), id)

	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "get item", Err: err}
	}
	return it, nil
}

func (s *Store) CountItems(ctx context.Context) (int64, error) {
	return s.countItems(ctx, s.db)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) countItems(ctx context.Context, q queryer) (int64, error) {
	var n int64
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, &domain.StorageError{Op: "count items", Err: err}
	}
	return n, nil
}

// CreateItem inserts one item in its own transaction.
func (s *Store) CreateItem(ctx context.Context, in domain.NewItem) (*domain.Item, error) {
	var created *domain.Item
	err := s.withTx(ctx, "create item", func(tx *sql.Tx) error {
		it, err := s.insertItem(ctx, tx, in, timestamp())
		if err != nil {
			return err
		}
		created = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// SeedItems writes items only when the table is empty. The emptiness check
// and the inserts share a transaction, so a failure leaves the table empty.
func (s *Store) SeedItems(ctx context.Context, items []domain.NewItem) (int, error) {
	inserted := 0
	err := s.withTx(ctx, "seed items", func(tx *sql.Tx) error {
		n, err := s.countItems(ctx, tx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		now := timestamp()
		for _, in := range items {
			if _, err := s.insertItem(ctx, tx, in, now); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *Store) insertItem(ctx context.Context, tx *sql.Tx, in domain.NewItem, now time.Time) (*domain.Item, error) {
	if in.Name == nil {
		return nil, domain.NewFieldError([]string{"body", "name"}, "Field required", "missing")
	}

	var desc sql.NullString
	if in.Description != nil {
		desc = sql.NullString{String: *in.Description, Valid: true}
	}

	it := &domain.Item{
		Name:        *in.Name,
		Description: in.Description,
		IsActive:    in.Active(),
		CreatedAt:   now,
	}
	// Only the id comes back: column types of RETURNING rows are not
	// reported consistently across drivers.
	err := tx.QueryRowContext(ctx, s.rebind(`
		INSERT INTO items (name, description, is_active, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`), it.Name, desc, it.IsActive, now).Scan(&it.ID)
	if err != nil {
		return nil, &domain.StorageError{Op: "insert item", Err: err}
	}
	return it, nil
}

// timestamp is the creation time stored for new rows, truncated to the
// precision every supported backend keeps.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// withTx runs fn in a transaction, rolling back on error or panic.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StorageError{Op: op, Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.log.Error("rollback failed", logger.String("op", op), logger.Error(rbErr))
		}
	}()
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return &domain.StorageError{Op: op, Err: fmt.Errorf("failed to commit: %w", err)}
	}
	return nil
}
