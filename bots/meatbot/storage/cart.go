package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"meatbot/bots/meatbot/models"
)

// CartRepo persists cart positions.
type CartRepo struct {
	db *sqlx.DB
}

// Add puts a product into the user's cart. When the product is already
// there the quantity is incremented and the original price snapshot kept.
func (r *CartRepo) Add(ctx context.Context, userID, productID int64, quantity int, price decimal.Decimal) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.GetContext(ctx, &item, `
		INSERT INTO cart_items (user_id, product_id, quantity, price_at_add)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			quantity   = cart_items.quantity + EXCLUDED.quantity,
			updated_at = now()
		RETURNING *`,
		userID, productID, quantity, price)
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return &item, nil
}

// SetQuantity replaces the quantity of a cart position.
func (r *CartRepo) SetQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $3, updated_at = now()
		WHERE user_id = $1 AND product_id = $2`,
		userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("set cart quantity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove deletes one product from the cart.
func (r *CartRepo) Remove(ctx context.Context, userID, productID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear deletes every position in the user's cart.
func (r *CartRepo) Clear(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Lines returns the cart joined with product data for display and checkout.
func (r *CartRepo) Lines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	var out []models.CartLine
	err := r.db.SelectContext(ctx, &out, `
		SELECT ci.*, p.name AS product_name, p.unit, p.is_available
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return out, nil
}

// RefreshPrices re-snapshots every cart position to the current product price.
func (r *CartRepo) RefreshPrices(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE cart_items ci
		SET price_at_add = p.price, updated_at = now()
		FROM products p
		WHERE p.id = ci.product_id AND ci.user_id = $1`,
		userID); err != nil {
		return fmt.Errorf("refresh cart prices: %w", err)
	}
	return nil
}
