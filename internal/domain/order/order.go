package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the order aggregate as seen by the item engine. The engine
// mutates only the Items collection and the per-item derived fields; status
// flags and order-level totals are owned by outside collaborators.
type Order struct {
	ID         string          `json:"id"`
	Items      []Item          `json:"items"`
	Closed     bool            `json:"closed"`
	Cancelled  bool            `json:"cancelled"`
	Paid       bool            `json:"paid"`
	Draft      bool            `json:"draft"`
	Hold       bool            `json:"hold"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Item is one line of an order. Quantity is always positive while the item
// exists; driving it to zero deletes the line. CustomPrice overrides catalog
// pricing when positive. The fields from ProductImages down are derived:
// they are recomputed from the catalog and never treated as input.
type Item struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	VariantID   string          `json:"variant_id,omitempty"`
	Quantity    int             `json:"quantity"`
	CustomPrice decimal.Decimal `json:"custom_price"`
	CustomNote  string          `json:"custom_note,omitempty"`

	ProductImages []string        `json:"product_image"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	VariantName   string          `json:"variant_name"`
	Price         decimal.Decimal `json:"price"`
	TaxClass      string          `json:"tax_class"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	Weight        float64         `json:"weight"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	PriceTotal    decimal.Decimal `json:"price_total"`
}

// ItemPatch lists the caller-settable fields of a line item. Nil fields are
// left unchanged.
type ItemPatch struct {
	Quantity    *int
	VariantID   *string
	CustomPrice *decimal.Decimal
	CustomNote  *string
}

// Snapshot holds the derived display and billing fields recomputed from the
// catalog for one line item.
type Snapshot struct {
	ProductImages []string
	SKU           string
	Name          string
	VariantName   string
	Price         decimal.Decimal
	TaxClass      string
	TaxTotal      decimal.Decimal
	Weight        float64
	DiscountTotal decimal.Decimal
	PriceTotal    decimal.Decimal
}

// Store persists orders with per-item atomic updates keyed by item id.
// UpdateItemFields and SetItemSnapshot are no-ops when the item id does not
// match any line on the order.
type Store interface {
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	AppendItem(ctx context.Context, orderID string, item Item) error
	UpdateItemFields(ctx context.Context, orderID, itemID string, patch ItemPatch) error
	SetItemSnapshot(ctx context.Context, orderID, itemID string, snap Snapshot) error
	RemoveItem(ctx context.Context, orderID, itemID string) error
}

// StockLedger is the system of record for reserved inventory. Both
// operations are idempotent and tolerate a missing prior reservation.
type StockLedger interface {
	Reserve(ctx context.Context, orderID, itemID string) error
	Release(ctx context.Context, orderID, itemID string) error
}
