package model

import (
	"errors"
	"fmt"
)

var ErrNoRecord = errors.New("no record")

// ConflictError is returned when a requested interval overlaps existing
// non-cancelled events and no override was requested.
type ConflictError struct {
	Conflicts []*Event
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("interval conflicts with %d existing event(s)", len(e.Conflicts))
}

// InvalidStateError is returned on an illegal status transition.
type InvalidStateError struct {
	From Status
	To   Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid status transition %v -> %v", e.From, e.To)
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
