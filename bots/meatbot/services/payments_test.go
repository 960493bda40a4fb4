package services

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"meatbot/bots/meatbot/models"
	"meatbot/bots/meatbot/storage"
)

type fakePaymentStore struct {
	active *models.PaymentSettings
}

func (f *fakePaymentStore) Active(context.Context) (*models.PaymentSettings, error) {
	if f.active == nil {
		return nil, storage.ErrNotFound
	}
	return f.active, nil
}

func (f *fakePaymentStore) Replace(_ context.Context, bankName, cardNumber, recipient, info string) (*models.PaymentSettings, error) {
	f.active = &models.PaymentSettings{
		BankName:       bankName,
		CardNumber:     cardNumber,
		RecipientName:  recipient,
		AdditionalInfo: sql.NullString{String: info, Valid: info != ""},
		IsActive:       true,
	}
	return f.active, nil
}

func (f *fakePaymentStore) Deactivate(context.Context) error {
	f.active = nil
	return nil
}

func TestPaymentMessage(t *testing.T) {
	ctx := context.Background()
	store := &fakePaymentStore{}
	svc := &PaymentService{store: store}

	// Without requisites customers get the fallback text.
	msg, err := svc.Message(ctx, "ORD-20260830-0001")
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	if !strings.Contains(msg, "временно недоступны") {
		t.Fatalf("fallback text missing: %q", msg)
	}

	if _, err := svc.Update(ctx, "Т-Банк", "2200 1234 5678 9010", "Иван И.", "Перевод по номеру карты"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	msg, err = svc.Message(ctx, "ORD-20260830-0001")
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	if strings.Contains(msg, "2200 1234 5678") {
		t.Fatalf("full card number leaked: %q", msg)
	}
	for _, want := range []string{"Т-Банк", "9010", "Иван И.", "ORD-20260830-0001"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestMaskedCard(t *testing.T) {
	p := models.PaymentSettings{CardNumber: "2200-1234-5678-9010"}
	if got := p.MaskedCard(); got != "**** **** **** 9010" {
		t.Fatalf("MaskedCard = %q", got)
	}
	short := models.PaymentSettings{CardNumber: "9010"}
	if got := short.MaskedCard(); got != "9010" {
		t.Fatalf("MaskedCard short = %q", got)
	}
}
