// Package transform maps backend sync views to channel-manager payloads.
//
// Every function here is pure: no network access, no clock, no globals.
package transform

import "fmt"

// PreconditionError reports local data that blocks a sync before any remote call.
type PreconditionError struct {
	Entity string
	Field  string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s cannot be synced: %s %s", e.Entity, e.Field, e.Reason)
}

func precondition(entity, field, reason string) error {
	return &PreconditionError{Entity: entity, Field: field, Reason: reason}
}
