package services

import (
	"context"
	"log/slog"

	"meatbot/bots/meatbot/models"
	"meatbot/bots/meatbot/storage"
	"meatbot/core/logger"
)

type userStore interface {
	Upsert(ctx context.Context, tgID int64, username, firstName, lastName string) (*models.User, error)
	GetByTelegramID(ctx context.Context, tgID int64) (*models.User, error)
	SaveContact(ctx context.Context, userID int64, phone string) error
	SaveAddress(ctx context.Context, userID int64, address string) error
	SaveDeliveryNotes(ctx context.Context, userID int64, notes string) error
}

// UserService manages customer profiles and their saved checkout data.
type UserService struct {
	store userStore
}

// NewUserService wires the user service.
func NewUserService(store userStore) *UserService {
	return &UserService{store: store}
}

// Register upserts the customer from their Telegram profile on /start.
func (s *UserService) Register(ctx context.Context, tgID int64, username, firstName, lastName string) (*models.User, error) {
	u, err := s.store.Upsert(ctx, tgID, username, firstName, lastName)
	if err != nil {
		return nil, err
	}
	logger.SVCUsers.Debug("user registered",
		slog.String("event", "register"),
		slog.Int64("user_id", u.ID),
		slog.String("username", username),
	)
	return u, nil
}

// GetUserByTelegramID resolves a Telegram account to a customer profile.
func (s *UserService) GetUserByTelegramID(ctx context.Context, tgID int64) (*models.User, error) {
	return s.store.GetByTelegramID(ctx, tgID)
}

// SavePhone stores a validated phone for checkout reuse.
func (s *UserService) SavePhone(ctx context.Context, userID int64, phone string) error {
	return s.store.SaveContact(ctx, userID, phone)
}

// SaveAddress stores a delivery address for checkout reuse.
func (s *UserService) SaveAddress(ctx context.Context, userID int64, address string) error {
	return s.store.SaveAddress(ctx, userID, address)
}

// SaveNotes stores courier notes for checkout reuse.
func (s *UserService) SaveNotes(ctx context.Context, userID int64, notes string) error {
	return s.store.SaveDeliveryNotes(ctx, userID, notes)
}

var _ userStore = (*storage.UserRepo)(nil)
