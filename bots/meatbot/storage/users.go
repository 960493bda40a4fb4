package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"meatbot/bots/meatbot/models"
)

// UserRepo persists storefront customers.
type UserRepo struct {
	db *sqlx.DB
}

// GetByTelegramID loads a user by their Telegram account id.
func (r *UserRepo) GetByTelegramID(ctx context.Context, tgID int64) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u,
		`SELECT * FROM users WHERE telegram_id = $1`, tgID)
	if err != nil {
		return nil, wrapNotFound(fmt.Errorf("get user by telegram id: %w", err))
	}
	return &u, nil
}

// GetByID loads a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, wrapNotFound(fmt.Errorf("get user: %w", err))
	}
	return &u, nil
}

// Upsert creates the user on first contact or refreshes profile fields on
// subsequent /start calls. Saved phone/address/notes are never overwritten.
func (r *UserRepo) Upsert(ctx context.Context, tgID int64, username, firstName, lastName string) (*models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `
		INSERT INTO users (telegram_id, username, first_name, last_name)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''))
		ON CONFLICT (telegram_id) DO UPDATE SET
			username   = COALESCE(NULLIF(EXCLUDED.username, ''), users.username),
			first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), users.first_name),
			last_name  = COALESCE(NULLIF(EXCLUDED.last_name, ''), users.last_name),
			updated_at = now()
		RETURNING *`,
		tgID, username, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &u, nil
}

// SaveContact stores the phone collected during checkout for reuse.
func (r *UserRepo) SaveContact(ctx context.Context, userID int64, phone string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET phone = $2, updated_at = now() WHERE id = $1`,
		userID, phone); err != nil {
		return fmt.Errorf("save user phone: %w", err)
	}
	return nil
}

// SaveAddress stores the delivery address collected during checkout.
func (r *UserRepo) SaveAddress(ctx context.Context, userID int64, address string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET address = $2, updated_at = now() WHERE id = $1`,
		userID, address); err != nil {
		return fmt.Errorf("save user address: %w", err)
	}
	return nil
}

// SaveDeliveryNotes stores the courier notes collected during checkout.
func (r *UserRepo) SaveDeliveryNotes(ctx context.Context, userID int64, notes string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET delivery_notes = $2, updated_at = now() WHERE id = $1`,
		userID, notes); err != nil {
		return fmt.Errorf("save user notes: %w", err)
	}
	return nil
}
