package inventory

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/erazemk/blagajna/internal/model"
	"github.com/erazemk/blagajna/internal/telemetry"
)

// Ledger sells stock and keeps the sales history.
type Ledger struct {
	store   SalesStore
	logger  *zap.Logger
	metrics *telemetry.Metrics
}

// NewLedger creates a ledger.
func NewLedger(store SalesStore, logger *zap.Logger, metrics *telemetry.Metrics) *Ledger {
	return &Ledger{store: store, logger: logger, metrics: metrics}
}

// Sell removes quantity units of an item from stock and records the sale.
// Either both happen or neither does.
func (l *Ledger) Sell(ctx context.Context, itemID int64, quantity int) (sale *model.Sale, err error) {
	ctx, span := tracer().Start(ctx, "ledger.sell", trace.WithAttributes(
		attribute.Int64("item.id", itemID),
		attribute.Int("sale.quantity", quantity),
	))
	defer func() { endSpan(span, err) }()

	sale, err = l.store.Sell(ctx, itemID, quantity)
	if err != nil {
		r := reason(err)
		l.metrics.SellRejections.WithLabelValues(r).Inc()
		if r == "transient" || r == "error" {
			l.logger.Error("sale failed", zap.Int64("item", itemID), zap.Int("quantity", quantity), zap.Error(err))
		} else {
			l.logger.Info("sale rejected", zap.Int64("item", itemID), zap.Int("quantity", quantity), zap.String("reason", r))
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("sale.id", sale.ID),
		attribute.String("sale.total", sale.Total.String()),
	)
	l.metrics.Sales.Inc()
	l.metrics.UnitsSold.Add(float64(sale.Quantity))
	l.metrics.Revenue.Add(sale.Total.InexactFloat64())
	l.logger.Info("sale recorded",
		zap.Int64("sale", sale.ID),
		zap.Int64("item", itemID),
		zap.Int("quantity", quantity),
		zap.Stringer("total", sale.Total),
	)
	return sale, nil
}

// History returns every sale, newest first.
func (l *Ledger) History(ctx context.Context) ([]model.Sale, error) {
	return l.store.ListSales(ctx)
}
