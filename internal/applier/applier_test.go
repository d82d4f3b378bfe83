package applier

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

func newSchedule(t *testing.T, db *memory.DB, status entity.ScheduleStatus) uuid.UUID {
	t.Helper()
	sched := &entity.Schedule{ID: uuid.New(), YearMonth: "2026-09", Status: status, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.ScheduleRepository().Create(context.Background(), sched))
	return sched.ID
}

func TestApplyInsertsDraftsAndClearsUnlocked(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	schedID := newSchedule(t, db, entity.ScheduleDraft)

	staff := &entity.Staff{ID: uuid.New(), Name: "Sato", EmploymentType: entity.EmploymentFullTime, IsActive: true, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.StaffRepository().Create(ctx, staff))

	locked := &entity.ScheduleAssignment{ID: uuid.New(), ScheduleID: schedID, StaffID: staff.ID, Date: time.Now(), Block: entity.BlockAM, TaskTypeCode: "consult", IsLocked: true, Source: entity.AssignmentSourceManual, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	stale := &entity.ScheduleAssignment{ID: uuid.New(), ScheduleID: schedID, StaffID: staff.ID, Date: time.Now(), Block: entity.BlockPM, TaskTypeCode: "consult", IsLocked: false, Source: entity.AssignmentSourceSolver, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.AssignmentRepository().Create(ctx, locked))
	require.NoError(t, db.AssignmentRepository().Create(ctx, stale))

	drafts := []entity.AssignmentDraft{
		{StaffID: staff.ID, Date: time.Now(), Block: entity.Block15, TaskTypeCode: "consult", Source: entity.AssignmentSourceSolver},
	}
	count, err := Apply(ctx, db, schedID, drafts, true)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	remaining, err := db.AssignmentRepository().ListBySchedule(ctx, schedID)
	require.NoError(t, err)
	assert.Len(t, remaining, 2) // locked survives, stale cleared, one new inserted
}

func TestApplySynchronizesEventStatus(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	schedID := newSchedule(t, db, entity.ScheduleDraft)

	staff := &entity.Staff{ID: uuid.New(), Name: "Endo", EmploymentType: entity.EmploymentFullTime, IsActive: true, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.StaffRepository().Create(ctx, staff))

	placed := &entity.Event{ID: uuid.New(), TypeCode: "consult", DurationHours: 1, TimeConstraintType: entity.TimeConstraintFixed, Priority: entity.PriorityMedium, Status: entity.EventUnassigned, ScheduleID: &schedID, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	dropped := &entity.Event{ID: uuid.New(), TypeCode: "consult", DurationHours: 1, TimeConstraintType: entity.TimeConstraintFixed, Priority: entity.PriorityMedium, Status: entity.EventAssigned, ScheduleID: &schedID, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.EventRepository().Create(ctx, placed))
	require.NoError(t, db.EventRepository().Create(ctx, dropped))

	placedID := placed.ID
	drafts := []entity.AssignmentDraft{
		{StaffID: staff.ID, Date: time.Now(), Block: entity.BlockAM, TaskTypeCode: "consult", Source: entity.AssignmentSourceSolver, EventID: &placedID},
	}
	_, err := Apply(ctx, db, schedID, drafts, false)
	require.NoError(t, err)

	gotPlaced, err := db.EventRepository().GetByID(ctx, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EventAssigned, gotPlaced.Status)

	gotDropped, err := db.EventRepository().GetByID(ctx, dropped.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EventUnassigned, gotDropped.Status)
}

func TestApplyRejectsConfirmedSchedule(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	schedID := newSchedule(t, db, entity.ScheduleConfirmed)

	_, err := Apply(ctx, db, schedID, nil, false)
	require.Error(t, err)
	assert.True(t, entity.IsForbidden(err))
}
