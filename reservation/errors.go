package reservation

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrTableNotFound     = errors.New("table not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrNoAvailability    = errors.New("no available tables for the requested time and party size")
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrTableReserved     = errors.New("table is reserved")
)

// errSlotTaken means a conditional write lost to a concurrent booking.
var errSlotTaken = errors.New("slot taken")

// InputError reports a missing or invalid request field.
type InputError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return e.Err }

// DependencyError wraps a record store failure.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *DependencyError) Unwrap() error { return e.Err }

func dependency(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DependencyError
	if errors.As(err, &de) {
		return err
	}
	return &DependencyError{Op: op, Err: err}
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
