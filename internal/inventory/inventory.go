// Package inventory holds the catalog, sales ledger and reporting services.
// They share one store and never talk to the database directly.
package inventory

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/erazemk/blagajna/internal/model"
)

const tracerName = "blagajna/inventory"

// ItemStore persists items.
type ItemStore interface {
	CreateItem(ctx context.Context, in model.ItemInput) (*model.Item, error)
	GetItem(ctx context.Context, id int64) (*model.Item, error)
	ListItems(ctx context.Context, filter string) ([]model.Item, error)
	UpdateItem(ctx context.Context, id int64, in model.ItemInput) (*model.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	SetItemImage(ctx context.Context, id int64, ref string) error
}

// SalesStore records sales against stock.
type SalesStore interface {
	Sell(ctx context.Context, itemID int64, quantity int) (*model.Sale, error)
	ListSales(ctx context.Context) ([]model.Sale, error)
}

// ReportStore answers aggregate queries.
type ReportStore interface {
	MonthlyTotals(ctx context.Context) ([]model.MonthlyTotal, error)
	TopSellers(ctx context.Context, limit int) ([]model.TopSeller, error)
	CountOrphanedSales(ctx context.Context) (int, error)
	LowStock(ctx context.Context, threshold int) ([]model.LowStockItem, error)
}

// ImageGenerator produces the identifier image for an item and returns its
// storage reference. Remove discards an image that was never recorded.
type ImageGenerator interface {
	Generate(ctx context.Context, id int64, name string) (string, error)
	Remove(ctx context.Context, ref string) error
}

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// endSpan records err on the span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// reason is a short label for metrics and logs.
func reason(err error) string {
	switch {
	case errors.Is(err, model.ErrValidation):
		return "validation"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, model.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, model.ErrTransientStore):
		return "transient"
	default:
		return "error"
	}
}
