package inventory

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-storefront-orders/internal/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore keeps stock in the products table. Mutate locks the rows
// (FOR UPDATE, id order) so concurrent checkouts serialize per product.
type PGStore struct{ DB *pgxpool.Pool }

func (s *PGStore) Load(ctx context.Context, ids []string) (map[string]catalog.Product, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, name, stock, stock_by_size FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return collectStock(rows)
}

func (s *PGStore) Mutate(ctx context.Context, ids []string, fn func(map[string]*catalog.Product) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, name, stock, stock_by_size FROM products
		WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return err
	}
	loaded, err := collectStock(rows)
	if err != nil {
		return err
	}

	ps := make(map[string]*catalog.Product, len(loaded))
	for id, p := range loaded {
		p := p
		ps[id] = &p
	}
	if err := fn(ps); err != nil {
		return err // rollback via defer
	}

	for _, p := range ps {
		sizes := p.StockBySize
		if sizes == nil {
			sizes = map[string]int{}
		}
		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock=$2, stock_by_size=$3, updated_at=now()
			WHERE id=$1`, p.ID, p.Stock, sizes); err != nil {
			return fmt.Errorf("update stock %s: %w", p.ID, err)
		}
	}
	return tx.Commit(ctx)
}

func collectStock(rows pgx.Rows) (map[string]catalog.Product, error) {
	defer rows.Close()
	out := map[string]catalog.Product{}
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Stock, &p.StockBySize); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}
