package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storecraft/order-engine/internal/domain/catalog"
)

// AddItemRequest describes a line to add to an order.
type AddItemRequest struct {
	ProductID   string
	VariantID   string
	Quantity    int
	CustomPrice decimal.Decimal
	CustomNote  string
}

// Engine coordinates line-item mutations against the catalog, the order
// store and the stock ledger. Every mutating operation runs under a
// per-order mutex, so two concurrent mutations of the same order serialize;
// operations on different orders proceed independently.
type Engine struct {
	catalog catalog.Reader
	store   Store
	ledger  StockLedger
	locks   orderLocks
}

// NewEngine creates an Engine with the required collaborators.
func NewEngine(catalogReader catalog.Reader, store Store, ledger StockLedger) *Engine {
	return &Engine{
		catalog: catalogReader,
		store:   store,
		ledger:  ledger,
	}
}

// AddItem adds quantity of a product (optionally a specific variant) to the
// order. When a line with the same (product_id, variant_id) pair already
// exists the quantities merge into that line; either way the stored quantity
// is clamped to what the catalog can actually fulfill. Zero availability is
// not an error: the order is returned unchanged and no ledger call is made.
func (e *Engine) AddItem(ctx context.Context, orderID string, req AddItemRequest) (*Order, error) {
	if err := validateID("order", orderID); err != nil {
		return nil, err
	}
	if err := validateID("product", req.ProductID); err != nil {
		return nil, err
	}
	if req.VariantID != "" {
		if err := validateID("variant", req.VariantID); err != nil {
			return nil, err
		}
	}
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	l := e.locks.lock(orderID)
	defer e.locks.unlock(orderID, l)

	o, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if existing := findLine(o, req.ProductID, req.VariantID); existing != nil {
		err = e.mergeLine(ctx, orderID, existing, req)
	} else {
		err = e.appendLine(ctx, orderID, req)
	}
	if err != nil {
		return nil, err
	}

	return e.store.GetOrder(ctx, orderID)
}

// UpdateItem applies a partial update to one line. A quantity of zero (or
// less) means delete. Otherwise the item's reservation is released, the
// patch applied, derived fields recomputed, and the new quantity reserved.
func (e *Engine) UpdateItem(ctx context.Context, orderID, itemID string, patch ItemPatch) (*Order, error) {
	if err := validateID("order", orderID); err != nil {
		return nil, err
	}
	if err := validateID("item", itemID); err != nil {
		return nil, err
	}
	if patch.VariantID != nil && *patch.VariantID != "" {
		if err := validateID("variant", *patch.VariantID); err != nil {
			return nil, err
		}
	}

	l := e.locks.lock(orderID)
	defer e.locks.unlock(orderID, l)

	if patch.Quantity != nil && *patch.Quantity <= 0 {
		if err := e.deleteLine(ctx, orderID, itemID); err != nil {
			return nil, err
		}
		return e.store.GetOrder(ctx, orderID)
	}

	if err := e.updateLine(ctx, orderID, itemID, patch); err != nil {
		return nil, err
	}
	return e.store.GetOrder(ctx, orderID)
}

// DeleteItem releases the item's reservation and removes the line.
func (e *Engine) DeleteItem(ctx context.Context, orderID, itemID string) (*Order, error) {
	if err := validateID("order", orderID); err != nil {
		return nil, err
	}
	if err := validateID("item", itemID); err != nil {
		return nil, err
	}

	l := e.locks.lock(orderID)
	defer e.locks.unlock(orderID, l)

	if err := e.deleteLine(ctx, orderID, itemID); err != nil {
		return nil, err
	}
	return e.store.GetOrder(ctx, orderID)
}

// RecalculateItem recomputes one line's derived fields from the current
// catalog state, independent of any quantity change.
func (e *Engine) RecalculateItem(ctx context.Context, orderID, itemID string) (*Order, error) {
	if err := validateID("order", orderID); err != nil {
		return nil, err
	}
	if err := validateID("item", itemID); err != nil {
		return nil, err
	}

	l := e.locks.lock(orderID)
	defer e.locks.unlock(orderID, l)

	o, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if findItem(o, itemID) == nil {
		return nil, &NotFoundError{Kind: "order item", ID: itemID}
	}
	if err := e.recalcLine(ctx, o, itemID); err != nil {
		return nil, err
	}
	return e.store.GetOrder(ctx, orderID)
}

// RecalculateAllItems refreshes derived fields on every line, in stored
// order. An order with no items is returned unchanged.
func (e *Engine) RecalculateAllItems(ctx context.Context, orderID string) (*Order, error) {
	if err := validateID("order", orderID); err != nil {
		return nil, err
	}

	l := e.locks.lock(orderID)
	defer e.locks.unlock(orderID, l)

	o, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(o.Items) == 0 {
		zctx.From(ctx).Debug("Nothing to recalculate", zap.String("order_id", orderID))
		return o, nil
	}

	for _, item := range o.Items {
		if err := e.recalcLine(ctx, o, item.ID); err != nil {
			return nil, err
		}
	}
	return e.store.GetOrder(ctx, orderID)
}

// mergeLine folds a new add request into an existing line: the combined
// quantity is resolved against availability and, when fulfillable at all,
// replaces the line's quantity. The result may be less than the naive sum.
func (e *Engine) mergeLine(ctx context.Context, orderID string, existing *Item, req AddItemRequest) error {
	needed := existing.Quantity + req.Quantity

	ix, err := e.readProduct(ctx, req.ProductID)
	if err != nil {
		return err
	}

	available := AvailableQuantity(ix, req.VariantID, needed)
	if available == 0 {
		return nil
	}
	return e.updateLine(ctx, orderID, existing.ID, ItemPatch{Quantity: &available})
}

// appendLine creates a new line whose quantity is the resolved availability,
// never the raw request. Zero availability appends nothing.
func (e *Engine) appendLine(ctx context.Context, orderID string, req AddItemRequest) error {
	ix, err := e.readProduct(ctx, req.ProductID)
	if err != nil {
		return err
	}

	available := AvailableQuantity(ix, req.VariantID, req.Quantity)
	if available == 0 {
		return nil
	}

	item := Item{
		ID:          uuid.New().String(),
		ProductID:   req.ProductID,
		VariantID:   req.VariantID,
		Quantity:    available,
		CustomPrice: req.CustomPrice,
		CustomNote:  req.CustomNote,
	}
	if err := e.store.AppendItem(ctx, orderID, item); err != nil {
		return errors.Wrap(err, "append item")
	}

	o, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return errors.Wrap(err, "reload order")
	}
	if err := e.recalcLine(ctx, o, item.ID); err != nil {
		return errors.Wrap(err, "calculate item")
	}

	if err := e.ledger.Reserve(ctx, orderID, item.ID); err != nil {
		zctx.From(ctx).Error("Stock reservation failed after item append, item is unreserved",
			zap.String("order_id", orderID),
			zap.String("item_id", item.ID),
			zap.Error(err),
		)
		return errors.Wrap(err, "reserve stock")
	}
	return nil
}

// updateLine applies release-then-reserve around a field patch: the old
// reservation is dropped first so a decreased quantity never keeps holding
// the larger reservation. Failures between the two ledger calls leave the
// line unreserved; they are logged distinctly so operators can reconcile the
// ledger.
func (e *Engine) updateLine(ctx context.Context, orderID, itemID string, patch ItemPatch) error {
	if err := e.ledger.Release(ctx, orderID, itemID); err != nil {
		return errors.Wrap(err, "release stock")
	}

	if err := e.store.UpdateItemFields(ctx, orderID, itemID, patch); err != nil {
		e.logUnreserved(ctx, orderID, itemID, err)
		return errors.Wrap(err, "update item")
	}

	o, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		e.logUnreserved(ctx, orderID, itemID, err)
		return errors.Wrap(err, "reload order")
	}
	if err := e.recalcLine(ctx, o, itemID); err != nil {
		e.logUnreserved(ctx, orderID, itemID, err)
		return errors.Wrap(err, "calculate item")
	}

	if err := e.ledger.Reserve(ctx, orderID, itemID); err != nil {
		e.logUnreserved(ctx, orderID, itemID, err)
		return errors.Wrap(err, "reserve stock")
	}
	return nil
}

func (e *Engine) deleteLine(ctx context.Context, orderID, itemID string) error {
	if err := e.ledger.Release(ctx, orderID, itemID); err != nil {
		return errors.Wrap(err, "release stock")
	}
	if err := e.store.RemoveItem(ctx, orderID, itemID); err != nil {
		return errors.Wrap(err, "remove item")
	}
	return nil
}

// recalcLine recomputes one line's derived fields against the current
// catalog. A line whose product is gone, or whose variant is gone, keeps its
// stale fields: recomputation degrades instead of failing the operation.
func (e *Engine) recalcLine(ctx context.Context, o *Order, itemID string) error {
	item := findItem(o, itemID)
	if item == nil {
		return nil
	}

	p, err := e.catalog.GetProduct(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			zctx.From(ctx).Debug("Product gone, keeping stale line fields",
				zap.String("order_id", o.ID),
				zap.String("item_id", itemID),
				zap.String("product_id", item.ProductID),
			)
			return nil
		}
		return errors.Wrap(err, "get product")
	}

	snap, err := ComputeSnapshot(item, catalog.NewIndex(p))
	if err != nil {
		if errors.Is(err, ErrDanglingVariant) {
			zctx.From(ctx).Debug("Variant gone, keeping stale line fields",
				zap.String("order_id", o.ID),
				zap.String("item_id", itemID),
				zap.String("variant_id", item.VariantID),
			)
			return nil
		}
		return err
	}
	return e.store.SetItemSnapshot(ctx, o.ID, itemID, *snap)
}

// readProduct resolves a product for availability checks. A missing product
// is not an error here: it resolves to a nil index, which fulfills nothing.
func (e *Engine) readProduct(ctx context.Context, productID string) (*catalog.Index, error) {
	p, err := e.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get product")
	}
	return catalog.NewIndex(p), nil
}

func (e *Engine) logUnreserved(ctx context.Context, orderID, itemID string, err error) {
	zctx.From(ctx).Error("Item left without a stock reservation mid-update",
		zap.String("order_id", orderID),
		zap.String("item_id", itemID),
		zap.Error(err),
	)
}

// findLine locates an existing line by (product_id, variant_id). An absent
// variant id matches only lines without one.
func findLine(o *Order, productID, variantID string) *Item {
	for i := range o.Items {
		it := &o.Items[i]
		if it.ProductID == productID && it.VariantID == variantID {
			return it
		}
	}
	return nil
}

func findItem(o *Order, itemID string) *Item {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

func validateID(field, value string) error {
	if uuid.Validate(value) != nil {
		return &InvalidIdentifierError{Field: field, Value: value}
	}
	return nil
}
