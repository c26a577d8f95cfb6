package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/blagajna/internal/model"
)

// MonthlyTotals sums sale totals per calendar month (UTC), oldest month
// first. Months without sales are omitted. Sales of deleted items count.
func (s *Store) MonthlyTotals(ctx context.Context) ([]model.MonthlyTotal, error) {
	type row struct {
		Total     decimal.Decimal `db:"total"`
		CreatedAt time.Time       `db:"created_at"`
	}

	var rows []row
	err := s.do(ctx, "monthly totals", func(ctx context.Context) error {
		rows = rows[:0]
		if err := s.db.SelectContext(ctx, &rows,
			`SELECT total, created_at FROM sales ORDER BY created_at, id`); err != nil {
			return fmt.Errorf("listing sale totals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	totals := []model.MonthlyTotal{}
	for _, r := range rows {
		month := r.CreatedAt.UTC().Format("2006-01")
		if n := len(totals); n > 0 && totals[n-1].Month == month {
			totals[n-1].Total = totals[n-1].Total.Add(r.Total)
			continue
		}
		totals = append(totals, model.MonthlyTotal{Month: month, Total: r.Total})
	}
	return totals, nil
}

// TopSellers returns item names by units sold, highest first, ties broken
// by name. Sales whose item no longer exists are not counted.
func (s *Store) TopSellers(ctx context.Context, limit int) ([]model.TopSeller, error) {
	top := []model.TopSeller{}
	err := s.do(ctx, "top sellers", func(ctx context.Context) error {
		top = top[:0]
		err := s.db.SelectContext(ctx, &top, s.db.Rebind(
			`SELECT i.name AS name, SUM(s.quantity) AS quantity
			 FROM sales s
			 JOIN items i ON i.id = s.item_id
			 GROUP BY i.name
			 ORDER BY SUM(s.quantity) DESC, i.name ASC
			 LIMIT ?`), limit)
		if err != nil {
			return fmt.Errorf("listing top sellers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return top, nil
}

// CountOrphanedSales counts sales whose item has been deleted.
func (s *Store) CountOrphanedSales(ctx context.Context) (int, error) {
	var n int
	err := s.do(ctx, "count orphaned sales", func(ctx context.Context) error {
		err := s.db.GetContext(ctx, &n,
			`SELECT COUNT(*) FROM sales s
			 LEFT JOIN items i ON i.id = s.item_id
			 WHERE i.id IS NULL`)
		if err != nil {
			return fmt.Errorf("counting orphaned sales: %w", err)
		}
		return nil
	})
	return n, err
}

// LowStock returns items with quantity at or below threshold, by ID.
func (s *Store) LowStock(ctx context.Context, threshold int) ([]model.LowStockItem, error) {
	items := []model.LowStockItem{}
	err := s.do(ctx, "low stock", func(ctx context.Context) error {
		items = items[:0]
		err := s.db.SelectContext(ctx, &items, s.db.Rebind(
			`SELECT id, name, quantity FROM items WHERE quantity <= ? ORDER BY id`), threshold)
		if err != nil {
			return fmt.Errorf("listing low stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
