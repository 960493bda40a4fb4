package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"meatbot/bots/meatbot/models"
)

// AdminRepo persists staff accounts.
type AdminRepo struct {
	db *sqlx.DB
}

// GetByTelegramID loads an active staff account.
func (r *AdminRepo) GetByTelegramID(ctx context.Context, tgID int64) (*models.AdminUser, error) {
	var a models.AdminUser
	err := r.db.GetContext(ctx, &a,
		`SELECT * FROM admin_users WHERE telegram_id = $1 AND is_active`, tgID)
	if err != nil {
		return nil, wrapNotFound(fmt.Errorf("get admin: %w", err))
	}
	return &a, nil
}

// List returns all staff accounts including disabled ones.
func (r *AdminRepo) List(ctx context.Context) ([]models.AdminUser, error) {
	var out []models.AdminUser
	err := r.db.SelectContext(ctx, &out,
		`SELECT * FROM admin_users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return out, nil
}

// Upsert grants or updates a staff role.
func (r *AdminRepo) Upsert(ctx context.Context, tgID int64, role models.AdminRole) (*models.AdminUser, error) {
	var a models.AdminUser
	err := r.db.GetContext(ctx, &a, `
		INSERT INTO admin_users (telegram_id, role)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE SET
			role       = EXCLUDED.role,
			is_active  = TRUE,
			updated_at = now()
		RETURNING *`,
		tgID, role)
	if err != nil {
		return nil, fmt.Errorf("upsert admin: %w", err)
	}
	return &a, nil
}

// Deactivate revokes admin access without deleting the row.
func (r *AdminRepo) Deactivate(ctx context.Context, tgID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE admin_users SET is_active = FALSE, updated_at = now() WHERE telegram_id = $1`,
		tgID)
	if err != nil {
		return fmt.Errorf("deactivate admin: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
