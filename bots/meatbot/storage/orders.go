package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"meatbot/bots/meatbot/models"
)

// OrderRepo persists orders and their item snapshots.
type OrderRepo struct {
	db *sqlx.DB
}

// LastNumberWithPrefix returns the highest order number starting with the
// given prefix, or ErrNotFound when no order matches.
func (r *OrderRepo) LastNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	var number string
	err := r.db.GetContext(ctx, &number, `
		SELECT order_number FROM orders
		WHERE order_number LIKE $1 || '%'
		ORDER BY order_number DESC
		LIMIT 1`,
		prefix)
	if err != nil {
		return "", wrapNotFound(fmt.Errorf("last order number: %w", err))
	}
	return number, nil
}

// CreateWithItems inserts the order and its item snapshots and clears the
// user's cart, all in one transaction.
func (r *OrderRepo) CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin order tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var created models.Order
	err = tx.GetContext(ctx, &created, `
		INSERT INTO orders (user_id, order_number, status, payment_status, payment_method,
			phone, address, delivery_notes, subtotal, delivery_cost, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING *`,
		order.UserID, order.OrderNumber, order.Status, order.PaymentStatus,
		order.PaymentMethod, order.Phone, order.Address, order.DeliveryNotes,
		order.Subtotal, order.DeliveryCost, order.Total)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, fmt.Errorf("insert order %s: %w", order.OrderNumber, ErrDuplicate)
		}
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, unit, price, quantity, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			created.ID, item.ProductID, item.ProductName, item.Unit,
			item.Price, item.Quantity, item.Total); err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1`, created.UserID); err != nil {
		return nil, fmt.Errorf("clear cart in order tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order tx: %w", err)
	}
	return &created, nil
}

// GetByID loads one order by primary key.
func (r *OrderRepo) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var o models.Order
	err := r.db.GetContext(ctx, &o, `SELECT * FROM orders WHERE id = $1`, id)
	if err != nil {
		return nil, wrapNotFound(fmt.Errorf("get order: %w", err))
	}
	return &o, nil
}

// GetByNumber loads one order by its public number.
func (r *OrderRepo) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	var o models.Order
	err := r.db.GetContext(ctx, &o, `SELECT * FROM orders WHERE order_number = $1`, number)
	if err != nil {
		return nil, wrapNotFound(fmt.Errorf("get order by number: %w", err))
	}
	return &o, nil
}

// Items loads the snapshot positions of an order.
func (r *OrderRepo) Items(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var out []models.OrderItem
	err := r.db.SelectContext(ctx, &out,
		`SELECT * FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return out, nil
}

// ActiveByUser returns orders still in progress, newest first.
func (r *OrderRepo) ActiveByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Order, error) {
	var out []models.Order
	err := r.db.SelectContext(ctx, &out, `
		SELECT * FROM orders
		WHERE user_id = $1 AND status NOT IN ('delivered', 'cancelled')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list active orders: %w", err)
	}
	return out, nil
}

// HistoryByUser returns finished orders, newest first.
func (r *OrderRepo) HistoryByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Order, error) {
	var out []models.Order
	err := r.db.SelectContext(ctx, &out, `
		SELECT * FROM orders
		WHERE user_id = $1 AND status IN ('delivered', 'cancelled')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list order history: %w", err)
	}
	return out, nil
}

// ListByStatus returns orders in one status for the admin view, oldest first
// so staff work the queue in arrival order.
func (r *OrderRepo) ListByStatus(ctx context.Context, status models.OrderStatus, limit, offset int) ([]models.Order, error) {
	var out []models.Order
	err := r.db.SelectContext(ctx, &out, `
		SELECT * FROM orders
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3`,
		status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders by status: %w", err)
	}
	return out, nil
}

// UpdateStatus sets the order status and optionally the payment status in
// the same statement.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus, payment *models.PaymentStatus) error {
	var (
		res sql.Result
		err error
	)
	if payment != nil {
		res, err = r.db.ExecContext(ctx, `
			UPDATE orders SET status = $2, payment_status = $3, updated_at = now()
			WHERE id = $1`,
			id, status, *payment)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`,
			id, status)
	}
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates order counters and money totals.
func (r *OrderRepo) Stats(ctx context.Context) (*models.OrderStats, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	defer rows.Close()

	stats := &models.OrderStats{ByStatus: make(map[models.OrderStatus]int)}
	for rows.Next() {
		var (
			status models.OrderStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan order stats: %w", err)
		}
		stats.ByStatus[status] = count
		stats.TotalOrders += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order stats rows: %w", err)
	}

	var revenue, average decimal.NullDecimal
	err = r.db.QueryRowxContext(ctx, `
		SELECT SUM(total), AVG(total) FROM orders
		WHERE status NOT IN ('cancelled', 'refunded')`).
		Scan(&revenue, &average)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order revenue: %w", err)
	}
	if revenue.Valid {
		stats.Revenue = revenue.Decimal
	}
	if average.Valid {
		stats.AverageTotal = average.Decimal
	}
	return stats, nil
}
