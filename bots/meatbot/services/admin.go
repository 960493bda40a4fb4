package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"meatbot/bots/meatbot/models"
	"meatbot/bots/meatbot/storage"
	"meatbot/core/logger"
)

const adminCacheTTL = 5 * time.Minute

type adminEntry struct {
	admin   *models.AdminUser
	fetched time.Time
}

type adminStore interface {
	GetByTelegramID(ctx context.Context, tgID int64) (*models.AdminUser, error)
	Upsert(ctx context.Context, tgID int64, role models.AdminRole) (*models.AdminUser, error)
	Deactivate(ctx context.Context, tgID int64) error
	List(ctx context.Context) ([]models.AdminUser, error)
}

// AdminService resolves staff roles and permissions. Lookups are cached in
// memory briefly because every admin-gated update triggers one.
type AdminService struct {
	store adminStore

	mu      sync.RWMutex
	entries map[int64]adminEntry
}

// NewAdminService wires the admin service.
func NewAdminService(store adminStore) *AdminService {
	return &AdminService{
		store:   store,
		entries: make(map[int64]adminEntry),
	}
}

// Lookup returns the staff account for a Telegram user, or nil for
// regular customers.
func (s *AdminService) Lookup(ctx context.Context, tgID int64) (*models.AdminUser, error) {
	s.mu.RLock()
	entry, ok := s.entries[tgID]
	s.mu.RUnlock()
	if ok && time.Since(entry.fetched) < adminCacheTTL {
		return entry.admin, nil
	}

	admin, err := s.store.GetByTelegramID(ctx, tgID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		admin = nil
	}

	s.mu.Lock()
	s.entries[tgID] = adminEntry{admin: admin, fetched: time.Now()}
	s.mu.Unlock()
	return admin, nil
}

// IsAdmin reports whether the Telegram user is active staff.
func (s *AdminService) IsAdmin(tgID int64) bool {
	admin, err := s.Lookup(context.Background(), tgID)
	return err == nil && admin != nil
}

// Can reports whether the Telegram user holds the permission.
func (s *AdminService) Can(ctx context.Context, tgID int64, p models.Permission) bool {
	admin, err := s.Lookup(ctx, tgID)
	if err != nil || admin == nil {
		return false
	}
	return admin.Role.Can(p)
}

// Grant adds or updates a staff account and drops the stale cache entry.
func (s *AdminService) Grant(ctx context.Context, tgID int64, role models.AdminRole) (*models.AdminUser, error) {
	admin, err := s.store.Upsert(ctx, tgID, role)
	if err != nil {
		return nil, err
	}
	s.invalidate(tgID)
	logger.SVCAdmin.Info("admin granted",
		slog.String("event", "grant"),
		slog.Int64("user_id", tgID),
		slog.String("role", string(role)),
	)
	return admin, nil
}

// Revoke disables a staff account.
func (s *AdminService) Revoke(ctx context.Context, tgID int64) error {
	if err := s.store.Deactivate(ctx, tgID); err != nil {
		return err
	}
	s.invalidate(tgID)
	logger.SVCAdmin.Info("admin revoked",
		slog.String("event", "revoke"),
		slog.Int64("user_id", tgID),
	)
	return nil
}

// List returns all staff accounts.
func (s *AdminService) List(ctx context.Context) ([]models.AdminUser, error) {
	return s.store.List(ctx)
}

func (s *AdminService) invalidate(tgID int64) {
	s.mu.Lock()
	delete(s.entries, tgID)
	s.mu.Unlock()
}

var _ adminStore = (*storage.AdminRepo)(nil)
