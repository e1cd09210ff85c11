package enums

import "fmt"

// CartStatus tracks a cart through the checkout state machine. Transitions
// are monotonic: open -> locked -> checked_out, with locked -> open only as
// the checkout abort path.
type CartStatus string

const (
	CartStatusOpen       CartStatus = "open"
	CartStatusLocked     CartStatus = "locked"
	CartStatusCheckedOut CartStatus = "checked_out"
)

var validCartStatuses = []CartStatus{
	CartStatusOpen,
	CartStatusLocked,
	CartStatusCheckedOut,
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

// IsTerminal reports whether no further transition may leave this status.
func (c CartStatus) IsTerminal() bool {
	return c == CartStatusCheckedOut
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
