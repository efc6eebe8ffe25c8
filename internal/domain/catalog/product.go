package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item together with its stock flags and its
// embedded variants and options.
type Product struct {
	ID             string          `json:"id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Weight         float64         `json:"weight"`
	TaxClass       string          `json:"tax_class"`
	Images         []string        `json:"images"`
	Discontinued   bool            `json:"discontinued"`
	StockBackorder bool            `json:"stock_backorder"`
	StockQuantity  int             `json:"stock_quantity"`
	Variable       bool            `json:"variable"`
	Variants       []Variant       `json:"variants,omitempty"`
	Options        []Option        `json:"options,omitempty"`
}

// Variant is a purchasable configuration of a variable product. A
// non-positive Price means the variant sells at the product price.
type Variant struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `json:"price"`
	Weight        float64         `json:"weight"`
	StockQuantity int             `json:"stock_quantity"`
	Selections    []Selection     `json:"options,omitempty"`
}

// Selection names one option value that composes a variant.
type Selection struct {
	OptionID string `json:"option_id"`
	ValueID  string `json:"value_id"`
}

// Option is a configurable product axis (size, color) with its values.
type Option struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Values []OptionValue `json:"values,omitempty"`
}

// OptionValue is a single choice within an option.
type OptionValue struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Reader resolves products from the catalog.
type Reader interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
}
