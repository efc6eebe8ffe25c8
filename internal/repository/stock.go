package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storecraft/order-engine/internal/domain/order"
)

const (
	// Reserve reads the item's current quantity straight from the order row,
	// so the reservation always reflects what the order actually holds. An
	// item id that matches nothing inserts nothing, which keeps Reserve
	// idempotent and safe to call without a prior reservation.
	reserveStockSQL = `INSERT INTO stock_reservations (order_id, item_id, quantity)
		SELECT o.id, elem->>'id', (elem->>'quantity')::int
		FROM orders o, jsonb_array_elements(o.items) AS elem
		WHERE o.id = $1 AND elem->>'id' = $2
		ON CONFLICT (order_id, item_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, reserved_at = now()`

	releaseStockSQL = `DELETE FROM stock_reservations WHERE order_id = $1 AND item_id = $2`
)

var _ order.StockLedger = (*StockLedger)(nil)

// StockLedger implements order.StockLedger on a reservations table keyed by
// (order_id, item_id).
type StockLedger struct {
	pool *pgxpool.Pool
}

// NewStockLedger returns a StockLedger that uses the given pool.
func NewStockLedger(pool *pgxpool.Pool) *StockLedger {
	return &StockLedger{pool: pool}
}

// Reserve records the item's current quantity as reserved, replacing any
// previous reservation for the same item.
func (l *StockLedger) Reserve(ctx context.Context, orderID, itemID string) error {
	if _, err := l.pool.Exec(ctx, reserveStockSQL, orderID, itemID); err != nil {
		return fmt.Errorf("reserving stock for item %q of order %q: %w", itemID, orderID, err)
	}
	return nil
}

// Release drops the item's reservation. Releasing an item that holds no
// reservation is a no-op.
func (l *StockLedger) Release(ctx context.Context, orderID, itemID string) error {
	if _, err := l.pool.Exec(ctx, releaseStockSQL, orderID, itemID); err != nil {
		return fmt.Errorf("releasing stock for item %q of order %q: %w", itemID, orderID, err)
	}
	return nil
}
