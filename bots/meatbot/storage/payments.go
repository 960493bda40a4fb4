package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"meatbot/bots/meatbot/models"
)

// PaymentRepo persists bank transfer requisites.
type PaymentRepo struct {
	db *sqlx.DB
}

// Active returns the current transfer requisites, or ErrNotFound when none
// are configured.
func (r *PaymentRepo) Active(ctx context.Context) (*models.PaymentSettings, error) {
	var p models.PaymentSettings
	err := r.db.GetContext(ctx, &p, `
		SELECT * FROM payment_settings
		WHERE is_active
		ORDER BY updated_at DESC
		LIMIT 1`)
	if err != nil {
		return nil, wrapNotFound(fmt.Errorf("active payment settings: %w", err))
	}
	return &p, nil
}

// Replace deactivates any previous requisites and inserts the new ones as
// the single active row, in one transaction.
func (r *PaymentRepo) Replace(ctx context.Context, bankName, cardNumber, recipient, info string) (*models.PaymentSettings, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin payment tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE payment_settings SET is_active = FALSE, updated_at = now() WHERE is_active`); err != nil {
		return nil, fmt.Errorf("deactivate payment settings: %w", err)
	}

	var p models.PaymentSettings
	err = tx.GetContext(ctx, &p, `
		INSERT INTO payment_settings (bank_name, card_number, recipient_name, additional_info)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING *`,
		bankName, cardNumber, recipient, info)
	if err != nil {
		return nil, fmt.Errorf("insert payment settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit payment tx: %w", err)
	}
	return &p, nil
}

// Deactivate hides the transfer requisites from customers.
func (r *PaymentRepo) Deactivate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE payment_settings SET is_active = FALSE, updated_at = now() WHERE is_active`); err != nil {
		return fmt.Errorf("deactivate payment settings: %w", err)
	}
	return nil
}
