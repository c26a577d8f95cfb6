package inventory

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/erazemk/blagajna/internal/model"
	"github.com/erazemk/blagajna/internal/telemetry"
)

// Catalog manages items.
type Catalog struct {
	store   ItemStore
	images  ImageGenerator
	logger  *zap.Logger
	metrics *telemetry.Metrics
}

// NewCatalog creates a catalog. images may be nil, in which case items are
// created without an identifier image.
func NewCatalog(store ItemStore, images ImageGenerator, logger *zap.Logger, metrics *telemetry.Metrics) *Catalog {
	return &Catalog{
		store:   store,
		images:  images,
		logger:  logger,
		metrics: metrics,
	}
}

// CreateResult is the outcome of Create. ImageErr is set when the item was
// created but its identifier image could not be produced or recorded.
type CreateResult struct {
	Item     *model.Item
	ImageErr error
}

// Create validates and stores a new item, then generates its identifier
// image. An image failure does not undo the item.
func (c *Catalog) Create(ctx context.Context, in model.ItemInput) (res *CreateResult, err error) {
	ctx, span := tracer().Start(ctx, "catalog.create", trace.WithAttributes(
		attribute.String("item.name", in.Name),
		attribute.Int("item.quantity", in.Quantity),
	))
	defer func() { endSpan(span, err) }()

	in, err = in.Normalize()
	if err != nil {
		return nil, err
	}

	item, err := c.store.CreateItem(ctx, in)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("item.id", item.ID))
	c.logger.Info("item created", zap.Int64("item", item.ID), zap.String("name", item.Name))

	res = &CreateResult{Item: item}
	if c.images == nil {
		return res, nil
	}

	ref, imgErr := c.images.Generate(ctx, item.ID, item.Name)
	if imgErr == nil {
		if imgErr = c.store.SetItemImage(ctx, item.ID, ref); imgErr != nil {
			if err := c.images.Remove(ctx, ref); err != nil {
				c.logger.Warn("unrecorded identifier image left behind",
					zap.String("ref", ref), zap.Error(err))
			}
		}
	}
	if imgErr != nil {
		res.ImageErr = imgErr
		c.metrics.ImageFailures.Inc()
		span.AddEvent("image.failed")
		c.logger.Warn("identifier image not generated",
			zap.Int64("item", item.ID), zap.Error(imgErr))
		return res, nil
	}

	item.ImageRef = &ref
	return res, nil
}

// Get returns an item by ID.
func (c *Catalog) Get(ctx context.Context, id int64) (*model.Item, error) {
	return c.store.GetItem(ctx, id)
}

// List returns all items, or those whose name contains filter.
func (c *Catalog) List(ctx context.Context, filter string) ([]model.Item, error) {
	return c.store.ListItems(ctx, filter)
}

// Update replaces an item's name, quantity and price. The identifier image
// is left as it is.
func (c *Catalog) Update(ctx context.Context, id int64, in model.ItemInput) (item *model.Item, err error) {
	ctx, span := tracer().Start(ctx, "catalog.update", trace.WithAttributes(
		attribute.Int64("item.id", id),
	))
	defer func() { endSpan(span, err) }()

	in, err = in.Normalize()
	if err != nil {
		return nil, err
	}

	item, err = c.store.UpdateItem(ctx, id, in)
	if err != nil {
		return nil, err
	}
	c.logger.Info("item updated", zap.Int64("item", id), zap.Int("quantity", item.Quantity))
	return item, nil
}

// Delete removes an item. Its sales stay in the ledger.
func (c *Catalog) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := tracer().Start(ctx, "catalog.delete", trace.WithAttributes(
		attribute.Int64("item.id", id),
	))
	defer func() { endSpan(span, err) }()

	if err = c.store.DeleteItem(ctx, id); err != nil {
		return err
	}
	c.logger.Info("item deleted", zap.Int64("item", id))
	return nil
}
