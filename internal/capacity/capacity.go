// Package capacity decides whether the vehicles assigned to a group can seat
// its headcount, counting approved-for-request overbook seats.
package capacity

import (
	"errors"
	"fmt"
)

// MaxOverbook bounds the per-assignment capacity exception.
const MaxOverbook = 2

// Assigned is one vehicle assignment's contribution to a group.
type Assigned struct {
	Capacity int
	Overbook int
}

// ViolationError carries the numbers the caller must surface: how many seats
// the group needs versus how many the assignments provide.
type ViolationError struct {
	Required  int
	Available int
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("insufficient capacity: required %d, available %d", e.Required, e.Available)
}

// Validate fails when the summed capacity plus overbook falls short of the
// group's headcount.
func Validate(headcount int, assigned []Assigned) error {
	total := 0
	for _, a := range assigned {
		total += a.Capacity + a.Overbook
	}
	if total < headcount {
		return &ViolationError{Required: headcount, Available: total}
	}
	return nil
}

// CheckOverbook enforces the save-time rules: the amount stays in [0,2] and a
// nonzero amount always carries a reason. Rejected here, not at submit time.
func CheckOverbook(amount int, reason string) error {
	if amount < 0 || amount > MaxOverbook {
		return fmt.Errorf("overbook_amount must be between 0 and %d", MaxOverbook)
	}
	if amount > 0 && reason == "" {
		return errors.New("overbook_reason is required when overbook_amount is set")
	}
	return nil
}
