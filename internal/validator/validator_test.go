package validator

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/clinicroster/scheduler/internal/repository/memory"
)

func sept(d int) time.Time { return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC) } // Tue

func newValidatorSchedule(t *testing.T, db *memory.DB) uuid.UUID {
	t.Helper()
	sched := &entity.Schedule{ID: uuid.New(), YearMonth: "2026-09", Status: entity.ScheduleDraft, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.ScheduleRepository().Create(context.Background(), sched))
	return sched.ID
}

func TestDuplicateAssignmentViolation(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	schedID := newValidatorSchedule(t, db)

	staff := &entity.Staff{ID: uuid.New(), Name: "Ito", EmploymentType: entity.EmploymentFullTime, IsActive: true, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.StaffRepository().Create(ctx, staff))

	first := &entity.ScheduleAssignment{ID: uuid.New(), ScheduleID: schedID, StaffID: staff.ID, Date: sept(1), Block: entity.BlockAM, TaskTypeCode: "consult", Source: entity.AssignmentSourceManual, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.AssignmentRepository().Create(ctx, first))

	// The repository rejects a second row for the same slot, so the
	// duplicate row is handed to check 1 directly.
	stored, err := db.AssignmentRepository().ListBySchedule(ctx, schedID)
	require.NoError(t, err)
	dup := *first
	dup.ID = uuid.New()
	violations := checkDuplicateAssignment(append(stored, &dup))
	found := false
	for _, v := range violations {
		if v.Severity == severityDuplicate {
			found = true
		}
	}
	assert.True(t, found, "expected a duplicate-assignment violation")
}

func TestSkillShortfallViolation(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	schedID := newValidatorSchedule(t, db)

	staff := &entity.Staff{ID: uuid.New(), Name: "Suzuki", EmploymentType: entity.EmploymentFullTime, IsActive: true, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.StaffRepository().Create(ctx, staff))

	consult := &entity.TaskType{Code: "consult", DisplayName: "Consult", RequiredSkills: []string{"triage"}, MinStaff: 0, IsActive: true, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.TaskTypeRepository().Create(ctx, consult))

	a := &entity.ScheduleAssignment{ID: uuid.New(), ScheduleID: schedID, StaffID: staff.ID, Date: sept(1), Block: entity.BlockAM, TaskTypeCode: "consult", Source: entity.AssignmentSourceManual, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.AssignmentRepository().Create(ctx, a))

	violations, err := Run(ctx, db, schedID)
	require.NoError(t, err)
	found := false
	for _, v := range violations {
		if v.Severity == severitySkillShortfall {
			found = true
		}
	}
	assert.True(t, found, "expected a skill-shortfall violation")
}

func TestRequiredEventUnassignedViolation(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	schedID := newValidatorSchedule(t, db)

	ev := &entity.Event{ID: uuid.New(), TypeCode: "visit_nurse", DurationHours: 1, TimeConstraintType: entity.TimeConstraintFixed, Priority: entity.PriorityRequired, Status: entity.EventUnassigned, ScheduleID: &schedID, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.EventRepository().Create(ctx, ev))

	violations, err := Run(ctx, db, schedID)
	require.NoError(t, err)
	found := false
	for _, v := range violations {
		if v.Severity == severityRequiredEvent {
			found = true
		}
	}
	assert.True(t, found, "expected a required-event-unassigned violation")
}

func TestConsecutiveOverworkFlagsSixNonLunchBlocks(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	schedID := newValidatorSchedule(t, db)

	staff := &entity.Staff{ID: uuid.New(), Name: "Endo", EmploymentType: entity.EmploymentFullTime, IsActive: true, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.StaffRepository().Create(ctx, staff))

	blocks := []entity.BlockCode{entity.BlockAM, entity.BlockPM, entity.Block15, entity.Block16, entity.Block17, entity.Block18Plus}
	for _, b := range blocks {
		a := &entity.ScheduleAssignment{ID: uuid.New(), ScheduleID: schedID, StaffID: staff.ID, Date: sept(1), Block: b, TaskTypeCode: "consult", Source: entity.AssignmentSourceManual, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
		require.NoError(t, db.AssignmentRepository().Create(ctx, a))
	}

	violations, err := Run(ctx, db, schedID)
	require.NoError(t, err)
	found := false
	for _, v := range violations {
		if v.Severity == severityOverwork {
			found = true
		}
	}
	assert.True(t, found, "expected a consecutive-overwork violation for 6 non-lunch blocks")
}

func TestNoViolationsOnCleanSchedule(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	schedID := newValidatorSchedule(t, db)

	violations, err := Run(ctx, db, schedID)
	require.NoError(t, err)
	assert.Empty(t, violations)
}
