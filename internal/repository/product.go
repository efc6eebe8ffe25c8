package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storecraft/order-engine/internal/domain/catalog"
)

const getProductSQL = `SELECT id, sku, name, price, weight, tax_class, images,
		discontinued, stock_backorder, stock_quantity, variable, variants, options
	FROM products WHERE id = $1`

var _ catalog.Reader = (*ProductRepository)(nil)

// ProductRepository implements catalog.Reader backed by PostgreSQL. Variants,
// options and images live in JSONB columns, so a product arrives as one row
// with its embedded collections intact.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetProduct returns a single product by its identifier.
func (r *ProductRepository) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p        catalog.Product
		images   []byte
		variants []byte
		options  []byte
	)
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Price, &p.Weight, &p.TaxClass, &images,
		&p.Discontinued, &p.StockBackorder, &p.StockQuantity, &p.Variable,
		&variants, &options,
	)
	if err != nil {
		return p, err
	}

	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return p, fmt.Errorf("decoding product images: %w", err)
		}
	}
	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &p.Variants); err != nil {
			return p, fmt.Errorf("decoding product variants: %w", err)
		}
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &p.Options); err != nil {
			return p, fmt.Errorf("decoding product options: %w", err)
		}
	}
	return p, nil
}
