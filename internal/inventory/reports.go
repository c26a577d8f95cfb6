package inventory

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/erazemk/blagajna/internal/model"
	"github.com/erazemk/blagajna/internal/telemetry"
)

// Report defaults.
const (
	DefaultLowStockThreshold = 5
	DefaultTopLimit          = 5
)

// ReportOptions sets the defaults used when a caller passes no value.
type ReportOptions struct {
	LowStockThreshold int
	TopLimit          int
}

// Reports computes aggregate views on demand. Nothing is cached.
type Reports struct {
	store   ReportStore
	logger  *zap.Logger
	metrics *telemetry.Metrics
	opts    ReportOptions
}

// NewReports creates the reporting service.
func NewReports(store ReportStore, logger *zap.Logger, metrics *telemetry.Metrics, opts ReportOptions) *Reports {
	if opts.LowStockThreshold < 0 {
		opts.LowStockThreshold = DefaultLowStockThreshold
	}
	if opts.TopLimit <= 0 {
		opts.TopLimit = DefaultTopLimit
	}
	return &Reports{store: store, logger: logger, metrics: metrics, opts: opts}
}

// Options returns the effective defaults.
func (r *Reports) Options() ReportOptions {
	return r.opts
}

// MonthlyTotals returns revenue per month, oldest first.
func (r *Reports) MonthlyTotals(ctx context.Context) (totals []model.MonthlyTotal, err error) {
	ctx, span := tracer().Start(ctx, "reports.monthly_totals")
	defer func() { endSpan(span, err) }()

	totals, err = r.store.MonthlyTotals(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("months", len(totals)))
	return totals, nil
}

// TopSellers returns up to limit item names by units sold. A limit <= 0
// uses the configured default. Sales of deleted items are skipped and
// reported as a referential anomaly in the log.
func (r *Reports) TopSellers(ctx context.Context, limit int) (top []model.TopSeller, err error) {
	if limit <= 0 {
		limit = r.opts.TopLimit
	}
	ctx, span := tracer().Start(ctx, "reports.top_sellers", trace.WithAttributes(
		attribute.Int("limit", limit),
	))
	defer func() { endSpan(span, err) }()

	top, _, err = r.topSellers(ctx, limit)
	return top, err
}

func (r *Reports) topSellers(ctx context.Context, limit int) ([]model.TopSeller, int, error) {
	top, err := r.store.TopSellers(ctx, limit)
	if err != nil {
		return nil, 0, err
	}

	orphans, err := r.store.CountOrphanedSales(ctx)
	if err != nil {
		return nil, 0, err
	}
	r.metrics.OrphanedSales.Set(float64(orphans))
	if orphans > 0 {
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("orphaned_sales", orphans))
		r.logger.Warn("skipping sales of deleted items",
			zap.Int("orphaned_sales", orphans),
			zap.Error(model.ErrReferentialAnomaly),
		)
	}
	return top, orphans, nil
}

// LowStock returns items at or below threshold. A negative threshold uses
// the configured default.
func (r *Reports) LowStock(ctx context.Context, threshold int) (items []model.LowStockItem, err error) {
	if threshold < 0 {
		threshold = r.opts.LowStockThreshold
	}
	ctx, span := tracer().Start(ctx, "reports.low_stock", trace.WithAttributes(
		attribute.Int("threshold", threshold),
	))
	defer func() { endSpan(span, err) }()

	return r.store.LowStock(ctx, threshold)
}

// Dashboard combines all three views using the configured defaults.
func (r *Reports) Dashboard(ctx context.Context) (d *model.Dashboard, err error) {
	ctx, span := tracer().Start(ctx, "reports.dashboard")
	defer func() { endSpan(span, err) }()

	d = &model.Dashboard{}
	if d.Monthly, err = r.store.MonthlyTotals(ctx); err != nil {
		return nil, err
	}
	if d.TopSellers, d.OrphanedSales, err = r.topSellers(ctx, r.opts.TopLimit); err != nil {
		return nil, err
	}
	if d.LowStock, err = r.store.LowStock(ctx, r.opts.LowStockThreshold); err != nil {
		return nil, err
	}
	return d, nil
}
