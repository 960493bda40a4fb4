package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"meatbot/bots/meatbot/models"
)

// CatalogRepo persists categories and products.
type CatalogRepo struct {
	db *sqlx.DB
}

// Categories returns all categories ordered for display.
func (r *CatalogRepo) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := r.db.SelectContext(ctx, &out,
		`SELECT * FROM categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// ActiveCategories returns only categories visible to customers.
func (r *CatalogRepo) ActiveCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := r.db.SelectContext(ctx, &out,
		`SELECT * FROM categories WHERE is_active ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list active categories: %w", err)
	}
	return out, nil
}

// GetCategory loads one category by id.
func (r *CatalogRepo) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	err := r.db.GetContext(ctx, &c, `SELECT * FROM categories WHERE id = $1`, id)
	if err != nil {
		return nil, wrapNotFound(fmt.Errorf("get category: %w", err))
	}
	return &c, nil
}

// CreateCategory inserts a category and returns it with generated fields.
func (r *CatalogRepo) CreateCategory(ctx context.Context, name, description string, sortOrder int) (*models.Category, error) {
	var c models.Category
	err := r.db.GetContext(ctx, &c, `
		INSERT INTO categories (name, description, sort_order)
		VALUES ($1, NULLIF($2, ''), $3)
		RETURNING *`,
		name, description, sortOrder)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &c, nil
}

// UpdateCategory changes display fields of a category.
func (r *CatalogRepo) UpdateCategory(ctx context.Context, id int64, name, description string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories
		SET name = $2, description = NULLIF($3, ''), updated_at = now()
		WHERE id = $1`,
		id, name, description)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCategoryActive toggles customer visibility of a category.
func (r *CatalogRepo) SetCategoryActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET is_active = $2, updated_at = now() WHERE id = $1`,
		id, active)
	if err != nil {
		return fmt.Errorf("toggle category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CategoryProducts returns products of a category ordered for display.
func (r *CatalogRepo) CategoryProducts(ctx context.Context, categoryID int64) ([]models.Product, error) {
	var out []models.Product
	err := r.db.SelectContext(ctx, &out,
		`SELECT * FROM products WHERE category_id = $1 ORDER BY sort_order, name`,
		categoryID)
	if err != nil {
		return nil, fmt.Errorf("list category products: %w", err)
	}
	return out, nil
}

// ActiveProducts returns every product customers can currently order.
func (r *CatalogRepo) ActiveProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := r.db.SelectContext(ctx, &out,
		`SELECT * FROM products WHERE is_available ORDER BY category_id, sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	return out, nil
}

// GetProduct loads one product by id.
func (r *CatalogRepo) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := r.db.GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1`, id)
	if err != nil {
		return nil, wrapNotFound(fmt.Errorf("get product: %w", err))
	}
	return &p, nil
}

// CreateProduct inserts a product and returns it with generated fields.
func (r *CatalogRepo) CreateProduct(ctx context.Context, categoryID int64, name, description, unit string, price decimal.Decimal) (*models.Product, error) {
	var p models.Product
	err := r.db.GetContext(ctx, &p, `
		INSERT INTO products (category_id, name, description, price, unit)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		RETURNING *`,
		categoryID, name, description, price, unit)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &p, nil
}

// UpdateProduct changes display fields and the price of a product.
func (r *CatalogRepo) UpdateProduct(ctx context.Context, id int64, name, description, unit string, price decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, description = NULLIF($3, ''), unit = $4, price = $5, updated_at = now()
		WHERE id = $1`,
		id, name, description, unit, price)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetProductAvailable toggles whether a product can be ordered.
func (r *CatalogRepo) SetProductAvailable(ctx context.Context, id int64, available bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET is_available = $2, updated_at = now() WHERE id = $1`,
		id, available)
	if err != nil {
		return fmt.Errorf("toggle product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
