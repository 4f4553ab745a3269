package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id, name, description, price, original_price, category, images, sizes, colors,
	stock_by_size, stock, featured, is_new, rating, num_reviews, tags, created_at, updated_at`

type Repo struct{ DB *pgxpool.Pool }

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.OriginalPrice, &p.Category,
		&p.Images, &p.Sizes, &p.Colors, &p.StockBySize, &p.Stock, &p.Featured, &p.IsNew,
		&p.Rating, &p.NumReviews, &p.Tags, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *Repo) Get(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// List returns one page of products plus the total matching count.
func (r *Repo) List(ctx context.Context, q ProductQuery) ([]Product, int, error) {
	where, args := q.Where()

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	n := len(args)
	sql := `SELECT ` + productColumns + ` FROM products` + where + q.OrderBy() +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2)
	out, err := r.query(ctx, sql, append(args, q.Limit(), q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repo) Featured(ctx context.Context, limit int) ([]Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products WHERE featured ORDER BY created_at DESC LIMIT $1`, limit)
}

func (r *Repo) query(ctx context.Context, sql string, args ...any) ([]Product, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	normalize(p)
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		p.ID, p.Name, p.Description, p.Price, p.OriginalPrice, p.Category, p.Images, p.Sizes, p.Colors,
		p.StockBySize, p.Stock, p.Featured, p.IsNew, p.Rating, p.NumReviews, p.Tags, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Patch applies pt to product id while holding its row lock and writes back
// only the columns pt sets. Stock reservations take the same lock, so a patch
// that leaves stock alone never overwrites a concurrent decrement.
func (r *Repo) Patch(ctx context.Context, id string, pt Patch) (Product, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Product{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanProduct(tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("lock product %s: %w", id, err)
	}

	pt.Apply(&p)
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	normalize(&p)
	p.UpdatedAt = time.Now().UTC()

	cols, args := pt.assignments(p)
	cols = append(cols, "updated_at")
	args = append(args, p.UpdatedAt)
	set := make([]string, len(cols))
	for i, c := range cols {
		set[i] = fmt.Sprintf("%s=$%d", c, i+1)
	}
	args = append(args, id)
	sql := fmt.Sprintf(`UPDATE products SET %s WHERE id=$%d`, strings.Join(set, ", "), len(args))
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return Product{}, fmt.Errorf("update product %s: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Product{}, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

// normalize keeps jsonb columns as empty documents rather than null.
func normalize(p *Product) {
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Sizes == nil {
		p.Sizes = []string{}
	}
	if p.Colors == nil {
		p.Colors = []Color{}
	}
	if p.StockBySize == nil {
		p.StockBySize = map[string]int{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}
