package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const orderNumberPrefix = "ORD"

var orderNumberPattern = regexp.MustCompile(`^ORD-(\d{8})-(\d{4})$`)

// OrderNumberPrefix returns the shared prefix of all order numbers generated
// on the given day, e.g. "ORD-20260830-".
func OrderNumberPrefix(day time.Time) string {
	return fmt.Sprintf("%s-%s-", orderNumberPrefix, day.Format("20060102"))
}

// NextOrderNumber produces the order number following last for the given
// day. When last is empty or malformed the sequence restarts at 1.
func NextOrderNumber(day time.Time, last string) string {
	seq := 1
	if last != "" {
		parts := strings.Split(last, "-")
		if len(parts) == 3 {
			if n, err := strconv.Atoi(parts[2]); err == nil {
				seq = n + 1
			}
		}
	}
	return fmt.Sprintf("%s%04d", OrderNumberPrefix(day), seq)
}

// ValidOrderNumber reports whether s matches the ORD-YYYYMMDD-NNNN format.
func ValidOrderNumber(s string) bool {
	m := orderNumberPattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	_, err := time.Parse("20060102", m[1])
	return err == nil
}

// OrderNumberDate extracts the day an order number was generated on.
func OrderNumberDate(s string) (time.Time, error) {
	m := orderNumberPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("malformed order number: %q", s)
	}
	return time.Parse("20060102", m[1])
}
