package services

import (
	"testing"
	"time"
)

func TestNextOrderNumber(t *testing.T) {
	day := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		last string
		want string
	}{
		{"first of the day", "", "ORD-20260830-0001"},
		{"increments suffix", "ORD-20260830-0007", "ORD-20260830-0008"},
		{"rolls past padding", "ORD-20260830-9999", "ORD-20260830-10000"},
		{"malformed restarts", "garbage", "ORD-20260830-0001"},
		{"bad suffix restarts", "ORD-20260830-00x7", "ORD-20260830-0001"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextOrderNumber(day, tc.last)
			if got != tc.want {
				t.Fatalf("NextOrderNumber(%q) = %q, want %q", tc.last, got, tc.want)
			}
		})
	}
}

func TestOrderNumberPrefix(t *testing.T) {
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := OrderNumberPrefix(day); got != "ORD-20260102-" {
		t.Fatalf("OrderNumberPrefix = %q", got)
	}
}

func TestValidOrderNumber(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"ORD-20260830-0001", true},
		{"ORD-20260830-12345", false},
		{"ORD-20261330-0001", false}, // month 13
		{"ord-20260830-0001", false},
		{"ORD-2026083-0001", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidOrderNumber(tc.in); got != tc.want {
			t.Errorf("ValidOrderNumber(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestOrderNumberDate(t *testing.T) {
	got, err := OrderNumberDate("ORD-20260830-0042")
	if err != nil {
		t.Fatalf("OrderNumberDate: %v", err)
	}
	want := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("OrderNumberDate = %v, want %v", got, want)
	}

	if _, err := OrderNumberDate("ORD-0001"); err == nil {
		t.Fatal("expected error for malformed number")
	}
}
