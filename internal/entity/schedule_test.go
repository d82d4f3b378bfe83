package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateDateRangeTable(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		valid bool
	}{
		{
			name:  "valid range",
			start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
			valid: true,
		},
		{
			name:  "same day",
			start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			valid: true,
		},
		{
			name:  "end before start",
			start: time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDateRange(tt.start, tt.end)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestWeekdayMon0(t *testing.T) {
	monday := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, 5, 4, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, WeekdayMon0(monday))
	assert.Equal(t, 6, WeekdayMon0(sunday))
	assert.True(t, IsClinicWeekday(monday))
	assert.False(t, IsClinicWeekday(sunday))
}

func TestValidationResultBuilders(t *testing.T) {
	ok := NewValidationResult()
	assert.True(t, ok.Valid)

	errResult := NewValidationError("BAD_INPUT", "missing field")
	assert.False(t, errResult.Valid)
	assert.Equal(t, "ERROR", errResult.Severity)

	warn := NewValidationWarning("SOFT_ISSUE", "consider reviewing")
	assert.True(t, warn.Valid)
	assert.Equal(t, "WARNING", warn.Severity)

	warn.AddContext("staff_id", "abc-123")
	assert.Equal(t, "abc-123", warn.Context["staff_id"])
}

func TestViolationShape(t *testing.T) {
	date := time.Date(2025, 5, 6, 0, 0, 0, 0, time.UTC)
	block := Block17

	v := Violation{
		Type:              Hard,
		Severity:          900,
		Description:       "skill shortfall",
		AffectedDate:      &date,
		AffectedTimeBlock: &block,
	}

	assert.Equal(t, Hard, v.Type)
	assert.Equal(t, 900, v.Severity)
	assert.Equal(t, Block17, *v.AffectedTimeBlock)
}
