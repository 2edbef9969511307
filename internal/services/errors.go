package services

import (
	"errors"
	"fmt"

	"tes/crm/internal/models"
)

// ErrReassignLocked is returned when an agent change is attempted on an
// inquiry whose status no longer permits reassignment.
var ErrReassignLocked = errors.New("inquiry can no longer be reassigned")

// TransitionError reports a status change not permitted by the inquiry
// lifecycle. It is returned before any write happens.
type TransitionError struct {
	From models.InquiryStatus
	To   models.InquiryStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

// DuplicateInquiryError reports that the customer already has an active
// inquiry for the property. Existing carries one matching inquiry so the
// caller can surface its status and assigned agent.
type DuplicateInquiryError struct {
	Existing *models.Inquiry
}

func (e *DuplicateInquiryError) Error() string {
	return fmt.Sprintf("an active inquiry for this property already exists (status %q)", e.Existing.Status)
}

// ConflictError reports that a proposed calendar event collides with the
// agent's existing schedule. Conflicts lists every colliding event.
type ConflictError struct {
	Conflicts []models.CalendarEvent
	Message   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schedule conflict with %d existing event(s)", len(e.Conflicts))
}

// ValidationError reports malformed or missing input on a create/update
// request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
