package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem holds one product position in a user's cart. The price is
// snapshotted at the moment the product is added so later price edits do not
// silently change the cart total.
type CartItem struct {
	ID         int64           `db:"id" json:"id"`
	UserID     int64           `db:"user_id" json:"user_id"`
	ProductID  int64           `db:"product_id" json:"product_id"`
	Quantity   int             `db:"quantity" json:"quantity"`
	PriceAtAdd decimal.Decimal `db:"price_at_add" json:"price_at_add"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// LineTotal returns price_at_add multiplied by quantity.
func (ci *CartItem) LineTotal() decimal.Decimal {
	return ci.PriceAtAdd.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}

// CartLine joins a cart item with its product for display.
type CartLine struct {
	CartItem
	ProductName string `db:"product_name" json:"product_name"`
	Unit        string `db:"unit" json:"unit"`
	IsAvailable bool   `db:"is_available" json:"is_available"`
}
