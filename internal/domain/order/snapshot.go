package order

import (
	"github.com/shopspring/decimal"

	"github.com/storecraft/order-engine/internal/domain/catalog"
)

// ComputeSnapshot derives the denormalized display and billing fields for a
// line item from the current catalog state. The result is a pure function of
// (product, quantity, custom price), so recomputation is idempotent.
//
// Branches, first match wins: a positive custom price snapshots the product's
// display fields at the custom price; an item with a variant snapshots the
// variant's sku, weight and price (falling back to the product price when the
// variant price is not positive); otherwise the product's own fields are
// used. A variant that no longer exists yields ErrDanglingVariant and no
// snapshot.
//
// TaxTotal and DiscountTotal are always emitted as zero. A tax/discount
// engine would fill them in; nothing here computes them.
func ComputeSnapshot(item *Item, ix *catalog.Index) (*Snapshot, error) {
	p := ix.Product()
	qty := decimal.NewFromInt(int64(item.Quantity))

	if item.CustomPrice.IsPositive() {
		return &Snapshot{
			ProductImages: p.Images,
			SKU:           p.SKU,
			Name:          p.Name,
			VariantName:   item.CustomNote,
			Price:         item.CustomPrice,
			TaxClass:      p.TaxClass,
			TaxTotal:      decimal.Zero,
			Weight:        p.Weight,
			DiscountTotal: decimal.Zero,
			PriceTotal:    item.CustomPrice.Mul(qty),
		}, nil
	}

	if item.VariantID != "" {
		v := ix.Variant(item.VariantID)
		if v == nil {
			return nil, ErrDanglingVariant
		}
		price := p.Price
		if v.Price.IsPositive() {
			price = v.Price
		}
		return &Snapshot{
			ProductImages: p.Images,
			SKU:           v.SKU,
			Name:          p.Name,
			VariantName:   ix.VariantLabel(item.VariantID),
			Price:         price,
			TaxClass:      p.TaxClass,
			TaxTotal:      decimal.Zero,
			Weight:        v.Weight,
			DiscountTotal: decimal.Zero,
			PriceTotal:    price.Mul(qty),
		}, nil
	}

	return &Snapshot{
		ProductImages: p.Images,
		SKU:           p.SKU,
		Name:          p.Name,
		VariantName:   "",
		Price:         p.Price,
		TaxClass:      p.TaxClass,
		TaxTotal:      decimal.Zero,
		Weight:        p.Weight,
		DiscountTotal: decimal.Zero,
		PriceTotal:    p.Price.Mul(qty),
	}, nil
}
