package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id, user_id, user_email, user_name, is_guest, guest_email, items, shipping_address,
	payment_method, payment_result, items_total, shipping_price, tax_price, total_amount,
	status, is_paid, paid_at, delivered_at, created_at, updated_at`

// Repo stores orders in Postgres. Items, address and payment result are jsonb.
type Repo struct{ DB *pgxpool.Pool }

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o                   Order
		userID, email, name *string
		guestEmail          *string
	)
	err := row.Scan(&o.ID, &userID, &email, &name, &o.IsGuest, &guestEmail, &o.Items, &o.ShippingAddress,
		&o.PaymentMethod, &o.PaymentResult, &o.ItemsTotal, &o.ShippingPrice, &o.TaxPrice, &o.TotalAmount,
		&o.Status, &o.IsPaid, &o.PaidAt, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	if userID != nil {
		o.Owner = &Customer{ID: *userID, Email: deref(email), Name: deref(name)}
	}
	o.GuestEmail = deref(guestEmail)
	return o, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *Repo) Insert(ctx context.Context, o Order) error {
	var userID, email, name *string
	if o.Owner != nil {
		userID, email, name = &o.Owner.ID, nullable(o.Owner.Email), nullable(o.Owner.Name)
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO orders(`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		o.ID, userID, email, name, o.IsGuest, nullable(o.GuestEmail), o.Items, o.ShippingAddress,
		o.PaymentMethod, o.PaymentResult, o.ItemsTotal, o.ShippingPrice, o.TaxPrice, o.TotalAmount,
		o.Status, o.IsPaid, o.PaidAt, o.DeliveredAt, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

// Save writes the mutable lifecycle fields, guarded by the expected status.
func (r *Repo) Save(ctx context.Context, o Order, expected Status) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$3, is_paid=$4, paid_at=$5, delivered_at=$6, payment_result=$7, updated_at=$8
		WHERE id=$1 AND status=$2`,
		o.ID, expected, o.Status, o.IsPaid, o.PaidAt, o.DeliveredAt, o.PaymentResult, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save order %s: %w", o.ID, err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, o.ID).Scan(&exists); err != nil {
		return fmt.Errorf("save order %s: %w", o.ID, err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

func (r *Repo) ListByOwner(ctx context.Context, userID string) ([]Order, error) {
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]Order, int, error) {
	where, args := "", []any{}
	if q.Status() != "" {
		where, args = ` WHERE status=$1`, append(args, q.Status())
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	n := len(args)
	out, err := r.query(ctx, `SELECT `+orderColumns+` FROM orders`+where+
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, n+1, n+2),
		append(args, q.Limit(), q.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Stats counts orders per status. Revenue sums paid orders that were not cancelled.
func (r *Repo) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status='pending'),
			COUNT(*) FILTER (WHERE status='confirmed'),
			COUNT(*) FILTER (WHERE status='shipped'),
			COUNT(*) FILTER (WHERE status='delivered'),
			COUNT(*) FILTER (WHERE status='cancelled'),
			COALESCE(SUM(total_amount) FILTER (WHERE is_paid AND status <> 'cancelled'), 0)
		FROM orders`).Scan(&st.TotalOrders, &st.PendingOrders, &st.ConfirmedOrders, &st.ShippedOrders,
		&st.DeliveredOrders, &st.CancelledOrders, &st.TotalRevenue)
	if err != nil {
		return Stats{}, fmt.Errorf("order stats: %w", err)
	}
	return st, nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) query(ctx context.Context, sql string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
