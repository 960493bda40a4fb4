package services

import (
	"fmt"
	"regexp"
	"strings"
)

// Input limits for checkout fields.
const (
	MinAddressLen = 10
	MaxNotesLen   = 200
)

var (
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	namePattern  = regexp.MustCompile(`^[\p{L} -]{2,50}$`)
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// NormalizePhone strips formatting characters and converts the local
// 8XXXXXXXXXX form to +7XXXXXXXXXX. It returns an error when the result is
// not a plausible E.164 number.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	phone := b.String()

	if len(phone) == 11 && strings.HasPrefix(phone, "8") {
		phone = "+7" + phone[1:]
	}
	if !phonePattern.MatchString(phone) {
		return "", fmt.Errorf("invalid phone number: %q", raw)
	}
	return phone, nil
}

// ValidateAddress checks the delivery address is detailed enough.
func ValidateAddress(address string) error {
	if len([]rune(strings.TrimSpace(address))) < MinAddressLen {
		return fmt.Errorf("address too short: need at least %d characters", MinAddressLen)
	}
	return nil
}

// ValidateNotes checks the courier notes fit the storage limit.
func ValidateNotes(notes string) error {
	if len([]rune(notes)) > MaxNotesLen {
		return fmt.Errorf("notes too long: at most %d characters", MaxNotesLen)
	}
	return nil
}

// ValidateName checks a person's name is plausible.
func ValidateName(name string) error {
	if !namePattern.MatchString(strings.TrimSpace(name)) {
		return fmt.Errorf("invalid name: %q", name)
	}
	return nil
}

// ValidateEmail checks the address shape without attempting delivery.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return fmt.Errorf("invalid email: %q", email)
	}
	return nil
}
