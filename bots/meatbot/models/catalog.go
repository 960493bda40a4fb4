package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products in the storefront catalog.
type Category struct {
	ID          int64          `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Description sql.NullString `db:"description" json:"description"`
	ImageURL    sql.NullString `db:"image_url" json:"image_url"`
	SortOrder   int            `db:"sort_order" json:"sort_order"`
	IsActive    bool           `db:"is_active" json:"is_active"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Product is a single sellable item.
type Product struct {
	ID          int64           `db:"id" json:"id"`
	CategoryID  int64           `db:"category_id" json:"category_id"`
	Name        string          `db:"name" json:"name"`
	Description sql.NullString  `db:"description" json:"description"`
	ImageURL    sql.NullString  `db:"image_url" json:"image_url"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Unit        string          `db:"unit" json:"unit"`
	IsAvailable bool            `db:"is_available" json:"is_available"`
	SortOrder   int             `db:"sort_order" json:"sort_order"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
