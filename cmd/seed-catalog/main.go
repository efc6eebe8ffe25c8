// Command seed-catalog bulk-loads products into PostgreSQL from a
// gzip-compressed JSON-lines dump (one product object per line). Existing
// products are updated in place, so the tool is safe to re-run.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/storecraft/order-engine/internal/domain/catalog"
	"github.com/storecraft/order-engine/internal/repository"
)

const upsertProductSQL = `INSERT INTO products
		(id, sku, name, price, weight, tax_class, images, discontinued,
		 stock_backorder, stock_quantity, variable, variants, options)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (id) DO UPDATE SET
		sku = EXCLUDED.sku,
		name = EXCLUDED.name,
		price = EXCLUDED.price,
		weight = EXCLUDED.weight,
		tax_class = EXCLUDED.tax_class,
		images = EXCLUDED.images,
		discontinued = EXCLUDED.discontinued,
		stock_backorder = EXCLUDED.stock_backorder,
		stock_quantity = EXCLUDED.stock_quantity,
		variable = EXCLUDED.variable,
		variants = EXCLUDED.variants,
		options = EXCLUDED.options,
		updated_at = now()`

const progressEvery = 10_000

func main() {
	var (
		databaseURL string
		dumpFile    string
		workers     int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&dumpFile, "file", "db/seed/products.jsonl.gz", "path to gzipped JSON-lines product dump")
	flag.IntVar(&workers, "workers", 4, "number of concurrent insert workers")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, databaseURL, dumpFile, workers); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, databaseURL, dumpFile string, workers int) error {
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	f, err := os.Open(dumpFile)
	if err != nil {
		return errors.Wrap(err, "open dump")
	}
	defer f.Close()

	zr, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "open gzip reader")
	}
	defer zr.Close()

	products := make(chan catalog.Product, workers*16)

	g, ctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			for p := range products {
				if err := upsert(ctx, pool, p); err != nil {
					return errors.Wrapf(err, "upsert product %s", p.ID)
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(products)

		var count int
		sc := bufio.NewScanner(zr)
		sc.Buffer(make([]byte, 0, 1<<20), 1<<24)
		for sc.Scan() {
			line := sc.Bytes()
			if len(line) == 0 {
				continue
			}

			var p catalog.Product
			if err := json.Unmarshal(line, &p); err != nil {
				return errors.Wrapf(err, "decode line %d", count+1)
			}
			if p.ID == "" || p.Name == "" {
				return errors.Errorf("line %d: product id and name are required", count+1)
			}

			select {
			case products <- p:
			case <-ctx.Done():
				return ctx.Err()
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("progress", "products", count)
			}
		}
		if err := sc.Err(); err != nil {
			return errors.Wrap(err, "scan dump")
		}
		slog.Info("dump read", "products", count)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("seed complete")
	return nil
}

func upsert(ctx context.Context, pool *pgxpool.Pool, p catalog.Product) error {
	images, err := json.Marshal(orEmpty(p.Images))
	if err != nil {
		return errors.Wrap(err, "marshal images")
	}
	variants, err := json.Marshal(orEmpty(p.Variants))
	if err != nil {
		return errors.Wrap(err, "marshal variants")
	}
	options, err := json.Marshal(orEmpty(p.Options))
	if err != nil {
		return errors.Wrap(err, "marshal options")
	}

	_, err = pool.Exec(ctx, upsertProductSQL,
		p.ID, p.SKU, p.Name, p.Price, p.Weight, p.TaxClass, images,
		p.Discontinued, p.StockBackorder, p.StockQuantity, p.Variable,
		variants, options,
	)
	return err
}

// orEmpty keeps nil slices out of the JSONB columns, which expect arrays.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
