package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storecraft/order-engine/internal/domain/order"
)

// Orders are stored as one row per order with the item collection in a JSONB
// array, mirroring the document shape the engine reasons about. Every item
// mutation below is a single UPDATE statement, which is what gives the
// engine its per-document atomicity: concurrent writes to different items
// on the same order serialize on the row, not on the application.
const (
	getOrderSQL = `SELECT id, items, closed, cancelled, paid, draft, hold, subtotal, grand_total, created_at
		FROM orders WHERE id = $1`

	appendItemSQL = `UPDATE orders SET items = items || $2::jsonb WHERE id = $1`

	mergeItemFieldsSQL = `UPDATE orders SET items = (
			SELECT COALESCE(jsonb_agg(
				CASE WHEN elem->>'id' = $2 THEN elem || $3::jsonb ELSE elem END
				ORDER BY ord), '[]'::jsonb)
			FROM jsonb_array_elements(items) WITH ORDINALITY AS t(elem, ord)
		)
		WHERE id = $1`

	removeItemSQL = `UPDATE orders SET items = COALESCE(
			(SELECT jsonb_agg(elem ORDER BY ord)
			 FROM jsonb_array_elements(items) WITH ORDINALITY AS t(elem, ord)
			 WHERE elem->>'id' <> $2),
			'[]'::jsonb)
		WHERE id = $1`
)

var _ order.Store = (*OrderRepository)(nil)

// OrderRepository implements order.Store backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// GetOrder returns the order with its full item collection.
func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	var (
		o     order.Order
		items []byte
	)
	err := r.pool.QueryRow(ctx, getOrderSQL, orderID).Scan(
		&o.ID, &items, &o.Closed, &o.Cancelled, &o.Paid, &o.Draft, &o.Hold,
		&o.Subtotal, &o.GrandTotal, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &order.NotFoundError{Kind: "order", ID: orderID}
		}
		return nil, fmt.Errorf("getting order %q: %w", orderID, err)
	}

	if len(items) > 0 {
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decoding items of order %q: %w", orderID, err)
		}
	}
	return &o, nil
}

// AppendItem appends one item to the order's item array.
func (r *OrderRepository) AppendItem(ctx context.Context, orderID string, item order.Item) error {
	itemJSON, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshaling order item: %w", err)
	}

	tag, err := r.pool.Exec(ctx, appendItemSQL, orderID, itemJSON)
	if err != nil {
		return fmt.Errorf("appending item to order %q: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return &order.NotFoundError{Kind: "order", ID: orderID}
	}
	return nil
}

// UpdateItemFields merges the patch's set fields into the matching item.
// An item id that matches no line leaves the order unchanged.
func (r *OrderRepository) UpdateItemFields(ctx context.Context, orderID, itemID string, patch order.ItemPatch) error {
	fields := make(map[string]any, 4)
	if patch.Quantity != nil {
		fields["quantity"] = *patch.Quantity
	}
	if patch.VariantID != nil {
		fields["variant_id"] = *patch.VariantID
	}
	if patch.CustomPrice != nil {
		fields["custom_price"] = *patch.CustomPrice
	}
	if patch.CustomNote != nil {
		fields["custom_note"] = *patch.CustomNote
	}
	if len(fields) == 0 {
		return nil
	}
	return r.mergeItemFields(ctx, orderID, itemID, fields)
}

// SetItemSnapshot overwrites the matching item's derived fields.
func (r *OrderRepository) SetItemSnapshot(ctx context.Context, orderID, itemID string, snap order.Snapshot) error {
	fields := map[string]any{
		"product_image":  snap.ProductImages,
		"sku":            snap.SKU,
		"name":           snap.Name,
		"variant_name":   snap.VariantName,
		"price":          snap.Price,
		"tax_class":      snap.TaxClass,
		"tax_total":      snap.TaxTotal,
		"weight":         snap.Weight,
		"discount_total": snap.DiscountTotal,
		"price_total":    snap.PriceTotal,
	}
	return r.mergeItemFields(ctx, orderID, itemID, fields)
}

func (r *OrderRepository) mergeItemFields(ctx context.Context, orderID, itemID string, fields map[string]any) error {
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshaling item fields: %w", err)
	}

	tag, err := r.pool.Exec(ctx, mergeItemFieldsSQL, orderID, itemID, fieldsJSON)
	if err != nil {
		return fmt.Errorf("updating item %q of order %q: %w", itemID, orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return &order.NotFoundError{Kind: "order", ID: orderID}
	}
	return nil
}

// RemoveItem filters the matching item out of the order's item array. A
// missing item id is a no-op.
func (r *OrderRepository) RemoveItem(ctx context.Context, orderID, itemID string) error {
	tag, err := r.pool.Exec(ctx, removeItemSQL, orderID, itemID)
	if err != nil {
		return fmt.Errorf("removing item %q from order %q: %w", itemID, orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return &order.NotFoundError{Kind: "order", ID: orderID}
	}
	return nil
}
