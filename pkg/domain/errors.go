package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Typed errors below unwrap to one of these sentinels.
var (
	// ErrMissingRequiredReference drops a record during hydration.
	ErrMissingRequiredReference = errors.New("missing required reference")
	// ErrUnresolvedOptionalReference nulls a field during resolution.
	ErrUnresolvedOptionalReference = errors.New("unresolved optional reference")
	// ErrDuplicateKey rejects a store insertion.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrIllegalTransition rejects a lifecycle transition.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrEligibilityViolation rejects an operation on business grounds.
	ErrEligibilityViolation = errors.New("eligibility violation")
	// ErrMalformedRecord drops a record whose primitive fields do not parse.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrNotFound reports a missing entity in an operation.
	ErrNotFound = errors.New("not found")
	// ErrNotAuthorized reports an actor acting outside its role.
	ErrNotAuthorized = errors.New("not authorized")
)

// ReferenceError describes a reference field that failed to resolve.
type ReferenceError struct {
	Entity   EntityType
	ID       string
	Field    string
	Target   EntityType
	TargetID string
	Required bool
}

func (e ReferenceError) Error() string {
	kind := "optional"
	if e.Required {
		kind = "required"
	}
	return fmt.Sprintf("%s %s: %s reference %s=%q to %s does not resolve", e.Entity, e.ID, kind, e.Field, e.TargetID, e.Target)
}

// Unwrap maps the error onto its taxonomy sentinel.
func (e ReferenceError) Unwrap() error {
	if e.Required {
		return ErrMissingRequiredReference
	}
	return ErrUnresolvedOptionalReference
}

// DuplicateKeyError is returned when a key is inserted twice.
type DuplicateKeyError struct {
	Key any
}

func (e DuplicateKeyError) Error() string {
	return fmt.Sprintf("key %v already exists", e.Key)
}

// Unwrap returns ErrDuplicateKey.
func (e DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// TransitionError describes a rejected lifecycle transition.
type TransitionError struct {
	Kind ApplicationKind
	From ApplicationStatus
	To   ApplicationStatus
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("%s application cannot move from %s to %s", e.Kind, e.From, e.To)
}

// Unwrap returns ErrIllegalTransition.
func (e TransitionError) Unwrap() error { return ErrIllegalTransition }

// MalformedError describes a primitive field that failed to parse.
type MalformedError struct {
	Entity EntityType
	ID     string
	Field  string
	Err    error
}

func (e MalformedError) Error() string {
	return fmt.Sprintf("%s %s: field %s: %v", e.Entity, e.ID, e.Field, e.Err)
}

// Unwrap returns ErrMalformedRecord.
func (e MalformedError) Unwrap() error { return ErrMalformedRecord }

// ErrEntityNotFound is returned when an operation references an unknown entity.
type ErrEntityNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrEntityNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Unwrap returns ErrNotFound.
func (e ErrEntityNotFound) Unwrap() error { return ErrNotFound }
