package entity

import (
	"errors"
	"fmt"
)

// Code is the closed taxonomy of application-level error classes (§7).
// It intentionally carries no HTTP status: routing is an external
// collaborator of this module.
type Code string

const (
	CodeNotFound            Code = "not_found"
	CodeConflict            Code = "conflict"
	CodeForbidden           Code = "forbidden"
	CodeValidation          Code = "validation"
	CodePreconditionFailed  Code = "precondition_failed"
	CodeExternalUnavailable Code = "external_unavailable"
)

// Error is the typed application error every package in this module
// returns instead of bare fmt.Errorf values, so callers can branch on
// Code via errors.As without string matching.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError constructs a classified error with an optional wrapped cause.
func NewError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// IsCode reports whether err (or something it wraps) carries the given Code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsNotFound reports whether err is a NotFound application error.
func IsNotFound(err error) bool { return IsCode(err, CodeNotFound) }

// IsForbidden reports whether err is a Forbidden application error.
func IsForbidden(err error) bool { return IsCode(err, CodeForbidden) }

// IsConflict reports whether err is a Conflict application error.
func IsConflict(err error) bool { return IsCode(err, CodeConflict) }

// IsValidation reports whether err is a Validation application error.
func IsValidation(err error) bool { return IsCode(err, CodeValidation) }

// IsPreconditionFailed reports whether err is a PreconditionFailed error.
func IsPreconditionFailed(err error) bool { return IsCode(err, CodePreconditionFailed) }

// Domain sentinel errors used where a Code classification alone is
// not expressive enough for the call site.
var (
	ErrInvalidScheduleStateTransition = errors.New("invalid schedule state transition")
	ErrDuplicateSlot                  = errors.New("duplicate (staff, date, block) slot")
	ErrUnknownBlockCode               = errors.New("unknown block code")
	ErrInvalidDateRange               = errors.New("invalid date range: end before start")
)

// ValidateEmploymentType validates an employment type string.
func ValidateEmploymentType(s string) bool {
	return s == string(EmploymentFullTime) || s == string(EmploymentPartTime)
}

// ValidateLocationType validates a location type string.
func ValidateLocationType(s string) bool {
	return s == string(LocationInClinic) || s == string(LocationOuting) || s == string(LocationVisit)
}

// ValidateEventPriority validates an event priority string.
func ValidateEventPriority(s string) bool {
	switch EventPriority(s) {
	case PriorityRequired, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ValidateEventStatus validates an event status string.
func ValidateEventStatus(s string) bool {
	switch EventStatus(s) {
	case EventUnassigned, EventAssigned, EventHold, EventDone:
		return true
	}
	return false
}

// ValidateTemplateType validates a rule template type string.
func ValidateTemplateType(s string) bool {
	switch RuleTemplateType(s) {
	case TemplateHeadcount, TemplateAvailability, TemplateSkillReq,
		TemplateResourceReq, TemplatePreference, TemplateRecurring, TemplateSpecificDate:
		return true
	}
	return false
}

// ValidateHardness validates a hard/soft string.
func ValidateHardness(s string) bool {
	return s == string(Hard) || s == string(Soft)
}

// ValidateScheduleStatus validates a schedule status string.
func ValidateScheduleStatus(s string) bool {
	switch ScheduleStatus(s) {
	case ScheduleDraft, ScheduleReviewing, ScheduleConfirmed:
		return true
	}
	return false
}

// ClampWeight enforces the [1,1000] penalty-weight invariant (§3, §4.1).
func ClampWeight(w int) int {
	if w < 1 {
		return 1
	}
	if w > 1000 {
		return 1000
	}
	return w
}
