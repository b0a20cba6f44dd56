package domain

import (
	"fmt"
)

// ReasonCode explains why an operation was rejected.
type ReasonCode string

// Rejection reasons surfaced to callers.
const (
	ReasonNone               ReasonCode = ""
	ReasonNotFound           ReasonCode = "not_found"
	ReasonNotAuthorized      ReasonCode = "not_authorized"
	ReasonInvalidInput       ReasonCode = "invalid_input"
	ReasonIllegalTransition  ReasonCode = "illegal_transition"
	ReasonCannotApply        ReasonCode = "cannot_apply"
	ReasonNotEligible        ReasonCode = "not_eligible"
	ReasonFlatTypeNotOffered ReasonCode = "flat_type_not_offered"
	ReasonProjectHidden      ReasonCode = "project_hidden"
	ReasonProjectClosed      ReasonCode = "project_closed"
	ReasonNoApplication      ReasonCode = "no_application"
	ReasonAlreadyWithdrawing ReasonCode = "already_withdrawing"
	ReasonProhibitedProject  ReasonCode = "prohibited_project"
	ReasonWindowOverlap      ReasonCode = "window_overlap"
	ReasonNoUnitsAvailable   ReasonCode = "no_units_available"
	ReasonNoOfficerSlots     ReasonCode = "no_officer_slots"
	ReasonActiveApplications ReasonCode = "active_applications"
	ReasonEnquiryReplied     ReasonCode = "enquiry_replied"
	ReasonManagerBusy        ReasonCode = "manager_busy"
)

// Sentinel maps a reason onto the error taxonomy.
func (r ReasonCode) Sentinel() error {
	switch r {
	case ReasonNone:
		return nil
	case ReasonNotFound:
		return ErrNotFound
	case ReasonNotAuthorized:
		return ErrNotAuthorized
	case ReasonIllegalTransition:
		return ErrIllegalTransition
	default:
		return ErrEligibilityViolation
	}
}

// Outcome is the discriminated result of a mutating operation.
type Outcome struct {
	Accepted bool
	Reason   ReasonCode
	Message  string
	// EntityID names the entity created or affected, when there is one.
	EntityID string
}

// Accept builds an accepted outcome for the affected entity.
func Accept(entityID string) Outcome {
	return Outcome{Accepted: true, EntityID: entityID}
}

// Reject builds a rejected outcome.
func Reject(reason ReasonCode, format string, args ...any) Outcome {
	return Outcome{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// OK reports whether the operation was accepted.
func (o Outcome) OK() bool { return o.Accepted }

// Err converts a rejection into an error; accepted outcomes return nil.
func (o Outcome) Err() error {
	if o.Accepted {
		return nil
	}
	return RejectionError{Outcome: o}
}

// RejectionError wraps a rejected Outcome.
type RejectionError struct {
	Outcome Outcome
}

func (e RejectionError) Error() string {
	if e.Outcome.Message == "" {
		return fmt.Sprintf("rejected: %s", e.Outcome.Reason)
	}
	return fmt.Sprintf("rejected (%s): %s", e.Outcome.Reason, e.Outcome.Message)
}

// Unwrap returns the taxonomy sentinel for the reason.
func (e RejectionError) Unwrap() error {
	if err := e.Outcome.Reason.Sentinel(); err != nil {
		return err
	}
	return ErrEligibilityViolation
}
