package handlers

import (
	"strings"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plus seven", "+79991234567", "+79991234567", false},
		{"local eight", "89991234567", "+79991234567", false},
		{"with separators", "8 (999) 123-45-67", "+79991234567", false},
		{"bare digits get plus", "79991234567", "+79991234567", false},
		{"letters", "звоните", "", true},
		{"too short", "+7", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizePhone(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("normalizePhone(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizePhone(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("normalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidName(t *testing.T) {
	if err := validName("Иван"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	if err := validName("Я"); err == nil {
		t.Error("single rune accepted")
	}
	if err := validName(strings.Repeat("а", 51)); err == nil {
		t.Error("over-long name accepted")
	}
}

func TestValidEmail(t *testing.T) {
	if err := validEmail("user@example.com"); err != nil {
		t.Errorf("valid email rejected: %v", err)
	}
	if err := validEmail("not-an-email"); err == nil {
		t.Error("junk accepted")
	}
}

func TestValidMessage(t *testing.T) {
	if err := validMessage(""); err != nil {
		t.Errorf("empty message rejected: %v", err)
	}
	if err := validMessage(strings.Repeat("б", MaxMessageLen+1)); err == nil {
		t.Error("over-long message accepted")
	}
}
