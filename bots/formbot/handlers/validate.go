package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// MaxMessageLen caps the free-form message step.
const MaxMessageLen = 500

func validName(name string) error {
	return validate.Var(name, "required,min=2,max=50")
}

func validEmail(email string) error {
	return validate.Var(email, "required,email")
}

func validMessage(message string) error {
	if utf8.RuneCountInString(message) > MaxMessageLen {
		return fmt.Errorf("message too long")
	}
	return nil
}

// normalizePhone keeps digits and a leading plus, converts the local
// 8XXXXXXXXXX form to +7, and checks the result against E.164.
func normalizePhone(raw string) (string, error) {
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	phone := b.String()
	if len(phone) == 11 && strings.HasPrefix(phone, "8") {
		phone = "+7" + phone[1:]
	}
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	if err := validate.Var(phone, "required,e164"); err != nil {
		return "", fmt.Errorf("invalid phone: %w", err)
	}
	return phone, nil
}
