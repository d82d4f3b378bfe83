package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MonthDates returns every calendar date in the schedule's YearMonth,
// in ascending order. Used by internal/snapshot to populate the
// snapshot's date list.
func (s *Schedule) MonthDates() ([]time.Time, error) {
	return DatesInYearMonth(s.YearMonth)
}

// DatesInYearMonth expands a "YYYY-MM" string into every date in that month.
func DatesInYearMonth(yearMonth string) ([]time.Time, error) {
	t, err := time.Parse("2006-01", yearMonth)
	if err != nil {
		return nil, NewError(CodeValidation, fmt.Sprintf("invalid year_month %q", yearMonth), err)
	}
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)
	dates := make([]time.Time, 0, 31)
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates, nil
}

// WeekdayMon0 converts t's weekday into the §6 convention: Mon=0..Sun=6.
func WeekdayMon0(t time.Time) int {
	wd := int(t.Weekday()) // time.Sunday=0 .. time.Saturday=6
	return (wd + 6) % 7
}

// IsClinicWeekday reports whether t is Monday through Friday.
func IsClinicWeekday(t time.Time) bool {
	w := WeekdayMon0(t)
	return w >= 0 && w <= 4
}

// ValidateDateRange checks that a range is well-formed (end not before start).
func ValidateDateRange(start, end time.Time) error {
	if end.Before(start) {
		return ErrInvalidDateRange
	}
	return nil
}

// Violation is the structured record emitted by the validator (C7)
// describing one broken hard or soft constraint (§4.7).
type Violation struct {
	Type               Hardness
	Severity           int // 1..1000
	Description        string
	AffectedDate       *time.Time
	AffectedTimeBlock  *BlockCode
	AffectedStaff      []uuid.UUID
	Suggestion         string
	RuleID             *uuid.UUID
	EventID            *uuid.UUID
}

// ValidationResult is a generic severity/code/message result with a
// free-form context map. It is separate from the C7 output:
// internal/validator returns a plain []Violation.
type ValidationResult struct {
	Valid    bool
	Code     string
	Severity string
	Message  string
	Context  map[string]interface{}
}

// NewValidationResult creates a successful validation result.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:    true,
		Code:     "VALIDATION_SUCCESS",
		Severity: "INFO",
		Message:  "Validation passed",
		Context:  make(map[string]interface{}),
	}
}

// NewValidationError creates a validation error result.
func NewValidationError(code, message string) *ValidationResult {
	return &ValidationResult{
		Valid:    false,
		Code:     code,
		Severity: "ERROR",
		Message:  message,
		Context:  make(map[string]interface{}),
	}
}

// NewValidationWarning creates a validation warning result.
func NewValidationWarning(code, message string) *ValidationResult {
	return &ValidationResult{
		Valid:    true,
		Code:     code,
		Severity: "WARNING",
		Message:  message,
		Context:  make(map[string]interface{}),
	}
}

// AddContext adds contextual information to the validation result.
func (vr *ValidationResult) AddContext(key string, value interface{}) {
	if vr.Context == nil {
		vr.Context = make(map[string]interface{})
	}
	vr.Context[key] = value
}
