package services

import (
	"strings"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain e164", "+79161234567", "+79161234567", false},
		{"formatted", "+7 (916) 123-45-67", "+79161234567", false},
		{"local eight", "89161234567", "+79161234567", false},
		{"no plus kept", "79161234567", "79161234567", false},
		{"leading zero", "0123456", "", true},
		{"letters", "call me", "", true},
		{"too long", "+7916123456789012345", "", true},
		{"empty", "", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizePhone(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("NormalizePhone(%q) = %q, want error", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePhone(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestValidateAddress(t *testing.T) {
	if err := ValidateAddress("ул. Ленина, 10, кв. 5"); err != nil {
		t.Fatalf("valid address rejected: %v", err)
	}
	if err := ValidateAddress("дом 5"); err == nil {
		t.Fatal("short address accepted")
	}
	if err := ValidateAddress("         x        "); err == nil {
		t.Fatal("padded short address accepted")
	}
}

func TestValidateNotes(t *testing.T) {
	if err := ValidateNotes(strings.Repeat("а", MaxNotesLen)); err != nil {
		t.Fatalf("notes at limit rejected: %v", err)
	}
	if err := ValidateNotes(strings.Repeat("а", MaxNotesLen+1)); err == nil {
		t.Fatal("oversized notes accepted")
	}
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"Анна", "Jean-Pierre", "Мария Ивановна"} {
		if err := ValidateName(ok); err != nil {
			t.Errorf("ValidateName(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"A", "", "12345", strings.Repeat("a", 51)} {
		if err := ValidateName(bad); err == nil {
			t.Errorf("ValidateName(%q) accepted", bad)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	for _, ok := range []string{"user@example.com", "a.b+c@mail.ru"} {
		if err := ValidateEmail(ok); err != nil {
			t.Errorf("ValidateEmail(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"user@", "@example.com", "plain", "a@b"} {
		if err := ValidateEmail(bad); err == nil {
			t.Errorf("ValidateEmail(%q) accepted", bad)
		}
	}
}
