package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"meatbot/bots/meatbot/models"
	"meatbot/bots/meatbot/storage"
	"meatbot/core/logger"
)

const paymentFallbackText = "Реквизиты для оплаты временно недоступны. " +
	"Пожалуйста, свяжитесь с менеджером для уточнения деталей оплаты."

type paymentStore interface {
	Active(ctx context.Context) (*models.PaymentSettings, error)
	Replace(ctx context.Context, bankName, cardNumber, recipient, info string) (*models.PaymentSettings, error)
	Deactivate(ctx context.Context) error
}

// PaymentService manages bank transfer requisites shown at checkout.
type PaymentService struct {
	store paymentStore
}

// NewPaymentService wires the payment settings service.
func NewPaymentService(store paymentStore) *PaymentService {
	return &PaymentService{store: store}
}

// Settings returns the active requisites, or nil when none are configured.
func (s *PaymentService) Settings(ctx context.Context) (*models.PaymentSettings, error) {
	p, err := s.store.Active(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// Message builds the transfer instructions shown to a customer, with the
// card number masked. Falls back to a contact-the-manager text when no
// requisites are configured.
func (s *PaymentService) Message(ctx context.Context, orderNumber string) (string, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return "", err
	}
	if settings == nil {
		return paymentFallbackText, nil
	}

	var b strings.Builder
	b.WriteString("💳 Оплата переводом\n\n")
	fmt.Fprintf(&b, "Банк: %s\n", settings.BankName)
	fmt.Fprintf(&b, "Карта: %s\n", settings.MaskedCard())
	fmt.Fprintf(&b, "Получатель: %s\n", settings.RecipientName)
	if settings.AdditionalInfo.Valid && settings.AdditionalInfo.String != "" {
		fmt.Fprintf(&b, "\n%s\n", settings.AdditionalInfo.String)
	}
	if orderNumber != "" {
		fmt.Fprintf(&b, "\nВ комментарии к переводу укажите номер заказа %s.", orderNumber)
	}
	b.WriteString("\nПосле оплаты отправьте фото или скриншот чека.")
	return b.String(), nil
}

// Update replaces the active requisites.
func (s *PaymentService) Update(ctx context.Context, bankName, cardNumber, recipient, info string) (*models.PaymentSettings, error) {
	p, err := s.store.Replace(ctx, bankName, cardNumber, recipient, info)
	if err != nil {
		return nil, err
	}
	logger.SVCPayments.Info("payment settings updated",
		slog.String("event", "update"),
		slog.String("bank", p.BankName),
	)
	return p, nil
}

// Disable hides the requisites from customers.
func (s *PaymentService) Disable(ctx context.Context) error {
	return s.store.Deactivate(ctx)
}

var _ paymentStore = (*storage.PaymentRepo)(nil)
