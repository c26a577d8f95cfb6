package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/erazemk/blagajna/internal/model"
)

// Sell decrements an item's stock and records the sale in one transaction.
//
// The stock check and decrement are a single conditional UPDATE, so two
// concurrent sells of the same item serialize on the row and the second
// one sees the quantity left by the first.
func (s *Store) Sell(ctx context.Context, itemID int64, quantity int) (*model.Sale, error) {
	var sale *model.Sale
	err := s.do(ctx, "sell", func(ctx context.Context) error {
		var err error
		sale, err = s.sell(ctx, itemID, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Store) sell(ctx context.Context, itemID int64, quantity int) (*model.Sale, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if quantity <= 0 {
		var exists int
		err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT 1 FROM items WHERE id = ?`), itemID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item %d: %w", itemID, model.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("checking item: %w", err)
		}
		return nil, fmt.Errorf("selling %d: %w", quantity, model.ErrInvalidQuantity)
	}

	now := s.timestamp()

	var price decimal.Decimal
	var name string
	err = tx.QueryRowxContext(ctx, tx.Rebind(
		`UPDATE items SET quantity = quantity - ?, updated_at = ?
		 WHERE id = ? AND quantity >= ?
		 RETURNING price, name`),
		quantity, now, itemID, quantity,
	).Scan(&price, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, rejectSale(ctx, tx, itemID, quantity)
	}
	if err != nil {
		return nil, fmt.Errorf("decrementing stock: %w", err)
	}

	sale := &model.Sale{
		ItemID:    itemID,
		ItemName:  name,
		Quantity:  quantity,
		Total:     price.Mul(decimal.NewFromInt(int64(quantity))),
		CreatedAt: now,
	}

	err = tx.QueryRowxContext(ctx, tx.Rebind(
		`INSERT INTO sales (item_id, quantity, total, created_at)
		 VALUES (?, ?, ?, ?) RETURNING id`),
		sale.ItemID, sale.Quantity, sale.Total, sale.CreatedAt,
	).Scan(&sale.ID)
	if err != nil {
		return nil, fmt.Errorf("recording sale: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing sale: %w", err)
	}
	return sale, nil
}

// rejectSale explains why the conditional decrement matched no row.
func rejectSale(ctx context.Context, q queryer, itemID int64, quantity int) error {
	var available int
	err := q.GetContext(ctx, &available, q.Rebind(`SELECT quantity FROM items WHERE id = ?`), itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("item %d: %w", itemID, model.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking available quantity: %w", err)
	}
	return fmt.Errorf("have %d, need %d: %w", available, quantity, model.ErrInsufficientStock)
}

// ListSales returns the whole ledger, newest first, with each item's
// current name. Sales of deleted items have an empty name.
func (s *Store) ListSales(ctx context.Context) ([]model.Sale, error) {
	sales := []model.Sale{}
	err := s.do(ctx, "list sales", func(ctx context.Context) error {
		sales = sales[:0]
		err := s.db.SelectContext(ctx, &sales,
			`SELECT s.id, s.item_id, COALESCE(i.name, '') AS item_name,
			        s.quantity, s.total, s.created_at
			 FROM sales s
			 LEFT JOIN items i ON i.id = s.item_id
			 ORDER BY s.created_at DESC, s.id DESC`)
		if err != nil {
			return fmt.Errorf("listing sales: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sales, nil
}
