package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/erazemk/blagajna/internal/model"
)

const itemColumns = `id, name, quantity, price, image_ref, created_at, updated_at`

// CreateItem inserts a new item. The input must already be validated.
// Insert and read-back are one statement so a retried attempt never
// leaves a second row behind.
func (s *Store) CreateItem(ctx context.Context, in model.ItemInput) (*model.Item, error) {
	item := &model.Item{}
	err := s.do(ctx, "create item", func(ctx context.Context) error {
		now := s.timestamp()
		err := s.db.GetContext(ctx, item, s.db.Rebind(
			`INSERT INTO items (name, quantity, price, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?) RETURNING `+itemColumns),
			in.Name, in.Quantity, in.Price, now, now,
		)
		if err != nil {
			return fmt.Errorf("creating item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem returns an item by ID.
func (s *Store) GetItem(ctx context.Context, id int64) (*model.Item, error) {
	var item *model.Item
	err := s.do(ctx, "get item", func(ctx context.Context) error {
		var err error
		item, err = s.getItem(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Store) getItem(ctx context.Context, id int64) (*model.Item, error) {
	item := &model.Item{}
	err := s.db.GetContext(ctx, item, s.db.Rebind(
		`SELECT `+itemColumns+` FROM items WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items in insertion order. A non-empty filter keeps only
// items whose name contains it, ignoring case in any script.
func (s *Store) ListItems(ctx context.Context, filter string) ([]model.Item, error) {
	items := []model.Item{}
	err := s.do(ctx, "list items", func(ctx context.Context) error {
		items = items[:0]
		if err := s.db.SelectContext(ctx, &items,
			`SELECT `+itemColumns+` FROM items ORDER BY id`); err != nil {
			return fmt.Errorf("listing items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return items, nil
	}

	fold := cases.Fold()
	needle := fold.String(filter)
	matched := items[:0]
	for _, item := range items {
		if strings.Contains(fold.String(item.Name), needle) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// UpdateItem replaces an item's name, quantity and price.
func (s *Store) UpdateItem(ctx context.Context, id int64, in model.ItemInput) (*model.Item, error) {
	var item *model.Item
	err := s.do(ctx, "update item", func(ctx context.Context) error {
		result, err := s.db.ExecContext(ctx, s.db.Rebind(
			`UPDATE items SET name = ?, quantity = ?, price = ?, updated_at = ? WHERE id = ?`),
			in.Name, in.Quantity, in.Price, s.timestamp(), id,
		)
		if err != nil {
			return fmt.Errorf("updating item: %w", err)
		}
		if err := expectRow(result, id); err != nil {
			return err
		}

		item, err = s.getItem(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes an item. Its sales are left in place.
func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	return s.do(ctx, "delete item", func(ctx context.Context) error {
		result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM items WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("deleting item: %w", err)
		}
		return expectRow(result, id)
	})
}

// SetItemImage records the item's image reference. The reference can only
// be set once; later calls fail with ErrImageRefSet.
func (s *Store) SetItemImage(ctx context.Context, id int64, ref string) error {
	return s.do(ctx, "set item image", func(ctx context.Context) error {
		result, err := s.db.ExecContext(ctx, s.db.Rebind(
			`UPDATE items SET image_ref = ? WHERE id = ? AND image_ref IS NULL`),
			ref, id,
		)
		if err != nil {
			return fmt.Errorf("setting item image: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("setting item image: %w", err)
		}
		if n == 1 {
			return nil
		}

		if _, err := s.getItem(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("item %d: %w", id, model.ErrImageRefSet)
	})
}

func expectRow(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("item %d: %w", id, model.ErrNotFound)
	}
	return nil
}
