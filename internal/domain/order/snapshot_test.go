package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storecraft/order-engine/internal/domain/catalog"
)

func snapshotProduct() *catalog.Product {
	return &catalog.Product{
		ID:       "prod-1",
		SKU:      "SHIRT",
		Name:     "Shirt",
		Price:    decimal.RequireFromString("25.00"),
		Weight:   0.3,
		TaxClass: "standard",
		Images:   []string{"shirt.jpg"},
		Variable: true,
		Options: []catalog.Option{
			{ID: "opt-size", Name: "Size", Values: []catalog.OptionValue{{ID: "val-s", Name: "Small"}}},
		},
		Variants: []catalog.Variant{
			{
				ID:         "var-1",
				SKU:        "SHIRT-S",
				Price:      decimal.RequireFromString("30.00"),
				Weight:     0.25,
				Selections: []catalog.Selection{{OptionID: "opt-size", ValueID: "val-s"}},
			},
			{ID: "var-2", SKU: "SHIRT-M", Price: decimal.Zero, Weight: 0.35},
		},
	}
}

func TestComputeSnapshot_PlainProduct(t *testing.T) {
	item := &Item{ProductID: "prod-1", Quantity: 3}
	snap, err := ComputeSnapshot(item, catalog.NewIndex(snapshotProduct()))

	require.NoError(t, err)
	assert.Equal(t, "SHIRT", snap.SKU)
	assert.Equal(t, "Shirt", snap.Name)
	assert.Empty(t, snap.VariantName)
	assert.Equal(t, []string{"shirt.jpg"}, snap.ProductImages)
	assert.Equal(t, 0.3, snap.Weight)
	assert.True(t, decimal.RequireFromString("25.00").Equal(snap.Price))
	assert.True(t, decimal.RequireFromString("75.00").Equal(snap.PriceTotal))
}

func TestComputeSnapshot_Variant(t *testing.T) {
	item := &Item{ProductID: "prod-1", VariantID: "var-1", Quantity: 2}
	snap, err := ComputeSnapshot(item, catalog.NewIndex(snapshotProduct()))

	require.NoError(t, err)
	assert.Equal(t, "SHIRT-S", snap.SKU)
	assert.Equal(t, "Size: Small", snap.VariantName)
	assert.Equal(t, 0.25, snap.Weight)
	assert.True(t, decimal.RequireFromString("30.00").Equal(snap.Price))
	assert.True(t, decimal.RequireFromString("60.00").Equal(snap.PriceTotal))
}

func TestComputeSnapshot_VariantPriceFallsBackToProduct(t *testing.T) {
	item := &Item{ProductID: "prod-1", VariantID: "var-2", Quantity: 1}
	snap, err := ComputeSnapshot(item, catalog.NewIndex(snapshotProduct()))

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("25.00").Equal(snap.Price))
	assert.Equal(t, "SHIRT-M", snap.SKU)
}

func TestComputeSnapshot_CustomPriceBeatsVariantPrice(t *testing.T) {
	item := &Item{
		ProductID:   "prod-1",
		VariantID:   "var-1",
		Quantity:    2,
		CustomPrice: decimal.RequireFromString("50.00"),
		CustomNote:  "negotiated",
	}
	snap, err := ComputeSnapshot(item, catalog.NewIndex(snapshotProduct()))

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("50.00").Equal(snap.Price))
	assert.True(t, decimal.RequireFromString("100.00").Equal(snap.PriceTotal))
	assert.Equal(t, "negotiated", snap.VariantName)
	// Custom pricing snapshots the product's display fields, not the variant's.
	assert.Equal(t, "SHIRT", snap.SKU)
	assert.Equal(t, 0.3, snap.Weight)
}

func TestComputeSnapshot_DanglingVariant(t *testing.T) {
	item := &Item{ProductID: "prod-1", VariantID: "var-404", Quantity: 1}
	snap, err := ComputeSnapshot(item, catalog.NewIndex(snapshotProduct()))

	require.ErrorIs(t, err, ErrDanglingVariant)
	assert.Nil(t, snap)
}

func TestComputeSnapshot_TaxAndDiscountAlwaysZero(t *testing.T) {
	for _, item := range []*Item{
		{ProductID: "prod-1", Quantity: 1},
		{ProductID: "prod-1", VariantID: "var-1", Quantity: 1},
		{ProductID: "prod-1", Quantity: 1, CustomPrice: decimal.NewFromInt(9)},
	} {
		snap, err := ComputeSnapshot(item, catalog.NewIndex(snapshotProduct()))
		require.NoError(t, err)
		assert.True(t, snap.TaxTotal.IsZero())
		assert.True(t, snap.DiscountTotal.IsZero())
	}
}

func TestComputeSnapshot_Idempotent(t *testing.T) {
	item := &Item{ProductID: "prod-1", VariantID: "var-1", Quantity: 2}
	ix := catalog.NewIndex(snapshotProduct())

	first, err := ComputeSnapshot(item, ix)
	require.NoError(t, err)
	second, err := ComputeSnapshot(item, ix)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
