package models

import (
	"database/sql"
	"time"
)

// User is a storefront customer identified by their Telegram account.
type User struct {
	ID            int64          `db:"id" json:"id"`
	TelegramID    int64          `db:"telegram_id" json:"telegram_id"`
	Username      sql.NullString `db:"username" json:"username"`
	FirstName     sql.NullString `db:"first_name" json:"first_name"`
	LastName      sql.NullString `db:"last_name" json:"last_name"`
	Phone         sql.NullString `db:"phone" json:"phone"`
	Address       sql.NullString `db:"address" json:"address"`
	DeliveryNotes sql.NullString `db:"delivery_notes" json:"delivery_notes"`
	IsActive      bool           `db:"is_active" json:"is_active"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// DisplayName returns the best human-readable name available for the user.
func (u *User) DisplayName() string {
	if u.FirstName.Valid && u.FirstName.String != "" {
		if u.LastName.Valid && u.LastName.String != "" {
			return u.FirstName.String + " " + u.LastName.String
		}
		return u.FirstName.String
	}
	if u.Username.Valid && u.Username.String != "" {
		return "@" + u.Username.String
	}
	return "клиент"
}

// HasSavedContact reports whether the user has a saved phone number.
func (u *User) HasSavedContact() bool {
	return u.Phone.Valid && u.Phone.String != ""
}

// HasSavedAddress reports whether the user has a saved delivery address.
func (u *User) HasSavedAddress() bool {
	return u.Address.Valid && u.Address.String != ""
}

// HasSavedNotes reports whether the user has saved delivery notes.
func (u *User) HasSavedNotes() bool {
	return u.DeliveryNotes.Valid && u.DeliveryNotes.String != ""
}
