package order

import "github.com/storecraft/order-engine/internal/domain/catalog"

// AvailableQuantity reports how much of the requested quantity can actually
// be fulfilled for the indexed product, optionally for a specific variant.
// It only computes; reserving stock is the StockLedger's job.
//
// Policy, first match wins: unknown product and discontinued product fulfill
// nothing, backorder-enabled products fulfill everything, variable products
// with a variant clamp to the variant's stock (or fulfill nothing when the
// variant is gone), and simple products clamp to the product's stock.
func AvailableQuantity(ix *catalog.Index, variantID string, requested int) int {
	p := ix.Product()
	if p == nil {
		return 0
	}
	if p.Discontinued {
		return 0
	}
	if p.StockBackorder {
		return requested
	}
	if p.Variable && variantID != "" {
		v := ix.Variant(variantID)
		if v == nil {
			return 0
		}
		return clamp(requested, v.StockQuantity)
	}
	return clamp(requested, p.StockQuantity)
}

func clamp(requested, stock int) int {
	if stock < 0 {
		return 0
	}
	if requested > stock {
		return stock
	}
	return requested
}
