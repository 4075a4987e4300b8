package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/chowline/chowline/internal/domain/order"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, shop_id, subtotal, delivery_fee, total, status, payment_status, delivery_address, payment_method, notes, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.ShopID, &o.Subtotal, &o.DeliveryFee, &o.Total,
		&o.Status, &o.PaymentStatus, &o.DeliveryAddress, &o.PaymentMethod,
		&o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) Insert(ctx context.Context, o *order.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: insert order: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (`+orderColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		o.ID, o.ShopID, o.Subtotal, o.DeliveryFee, o.Total,
		o.Status, o.PaymentStatus, o.DeliveryAddress, o.PaymentMethod,
		o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return order.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("postgres: insert order: %w", err)
	}
	for pos, l := range o.Lines {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_lines (order_id, position, menu_item_id, name, price, quantity, line_total)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			o.ID, pos, l.MenuItemID, l.Name, l.Price, l.Quantity, l.LineTotal,
		); err != nil {
			return fmt.Errorf("postgres: insert order line: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: insert order: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get order: %w", err)
	}
	if err := r.loadLines(ctx, map[string]*order.Order{o.ID: o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) ListByShop(ctx context.Context, shopID string) ([]*order.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE shop_id = $1 ORDER BY created_at, id`,
		shopID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*order.Order)
	var out []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan order: %w", err)
		}
		byID[o.ID] = o
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list orders: %w", err)
	}
	if err := r.loadLines(ctx, byID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *OrderRepository) loadLines(ctx context.Context, orders map[string]*order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, 0, len(orders))
	for id := range orders {
		ids = append(ids, id)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, menu_item_id, name, price, quantity, line_total
		 FROM order_lines WHERE order_id = ANY($1) ORDER BY order_id, position`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("postgres: load order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var orderID string
		var l order.Line
		if err := rows.Scan(&orderID, &l.MenuItemID, &l.Name, &l.Price, &l.Quantity, &l.LineTotal); err != nil {
			return fmt.Errorf("postgres: load order lines: %w", err)
		}
		if o, ok := orders[orderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres: load order lines: %w", err)
	}
	return nil
}

// Update persists the mutable order fields. Lines never change after
// admission, so they are left alone.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders
		 SET status = $2, payment_status = $3, updated_at = $4
		 WHERE id = $1`,
		o.ID, o.Status, o.PaymentStatus, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: update order: %w", err)
	}
	if n == 0 {
		return order.ErrNotFound
	}
	return nil
}
