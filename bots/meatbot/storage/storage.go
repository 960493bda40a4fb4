// Package storage implements PostgreSQL persistence for the storefront
// using sqlx. Every method takes a context and returns ErrNotFound when a
// requested row does not exist.
package storage

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("storage: not found")

// ErrDuplicate is returned when an insert trips a unique constraint.
var ErrDuplicate = errors.New("storage: duplicate key")

// Storage bundles all repositories over a shared connection pool.
type Storage struct {
	Users    *UserRepo
	Catalog  *CatalogRepo
	Cart     *CartRepo
	Orders   *OrderRepo
	Admins   *AdminRepo
	Payments *PaymentRepo

	db *sqlx.DB
}

// New constructs the repository set over the given pool.
func New(db *sqlx.DB) *Storage {
	return &Storage{
		Users:    &UserRepo{db: db},
		Catalog:  &CatalogRepo{db: db},
		Cart:     &CartRepo{db: db},
		Orders:   &OrderRepo{db: db},
		Admins:   &AdminRepo{db: db},
		Payments: &PaymentRepo{db: db},
		db:       db,
	}
}

// DB exposes the underlying pool for transactional flows.
func (s *Storage) DB() *sqlx.DB {
	return s.db
}

func wrapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
