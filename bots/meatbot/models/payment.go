package models

import (
	"database/sql"
	"strings"
	"time"
)

// PaymentSettings holds bank transfer requisites shown to customers who pay
// by transfer. Only one row is active at a time.
type PaymentSettings struct {
	ID             int64          `db:"id" json:"id"`
	BankName       string         `db:"bank_name" json:"bank_name"`
	CardNumber     string         `db:"card_number" json:"card_number"`
	RecipientName  string         `db:"recipient_name" json:"recipient_name"`
	AdditionalInfo sql.NullString `db:"additional_info" json:"additional_info"`
	IsActive       bool           `db:"is_active" json:"is_active"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// MaskedCard returns the card number with all but the last four digits hidden.
func (p *PaymentSettings) MaskedCard() string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, p.CardNumber)
	if len(digits) <= 4 {
		return digits
	}
	return "**** **** **** " + digits[len(digits)-4:]
}
