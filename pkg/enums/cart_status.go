package enums

import "fmt"

// CartStatus tracks where a cart sits in its checkout lifecycle.
type CartStatus string

const (
	CartStatusActive     CartStatus = "ACTIVE"
	CartStatusPending    CartStatus = "PENDING"
	CartStatusCheckedOut CartStatus = "CHECKED_OUT"
	CartStatusAbandoned  CartStatus = "ABANDONED"
	CartStatusExpired    CartStatus = "EXPIRED"
)

var validCartStatuses = []CartStatus{
	CartStatusActive,
	CartStatusPending,
	CartStatusCheckedOut,
	CartStatusAbandoned,
	CartStatusExpired,
}

// String implements fmt.Stringer.
func (c CartStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartStatus.
func (c CartStatus) IsValid() bool {
	for _, candidate := range validCartStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartStatus converts raw input into a CartStatus.
func ParseCartStatus(value string) (CartStatus, error) {
	for _, candidate := range validCartStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart status %q", value)
}
