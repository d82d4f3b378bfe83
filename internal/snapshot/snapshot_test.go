package snapshot

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/clinicroster/scheduler/internal/repository/memory"
)

func seedDB(t *testing.T) (*memory.DB, uuid.UUID) {
	db := memory.New()
	ctx := context.Background()

	sched := &entity.Schedule{ID: uuid.New(), YearMonth: "2026-09", Status: entity.ScheduleDraft, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.ScheduleRepository().Create(ctx, sched))

	staffB := &entity.Staff{ID: uuid.New(), Name: "Beppu", EmploymentType: entity.EmploymentFullTime, SkillCodes: []string{"triage"}, IsActive: true, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	staffA := &entity.Staff{ID: uuid.New(), Name: "Abe", EmploymentType: entity.EmploymentPartTime, IsActive: true, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.StaffRepository().Create(ctx, staffB))
	require.NoError(t, db.StaffRepository().Create(ctx, staffA))

	tt := &entity.TaskType{Code: "consult", DisplayName: "Consult", MinStaff: 1, LocationType: entity.LocationInClinic, IsActive: true, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.TaskTypeRepository().Create(ctx, tt))

	locked := &entity.ScheduleAssignment{ID: uuid.New(), ScheduleID: sched.ID, StaffID: staffA.ID, Date: entity.Now(), Block: entity.BlockAM, TaskTypeCode: "consult", IsLocked: true, Source: entity.AssignmentSourceManual, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.AssignmentRepository().Create(ctx, locked))

	ev := &entity.Event{ID: uuid.New(), TypeCode: "consult", DurationHours: 1, TimeConstraintType: entity.TimeConstraintFixed, Priority: entity.PriorityMedium, Status: entity.EventUnassigned, ScheduleID: &sched.ID, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.EventRepository().Create(ctx, ev))

	res := &entity.Resource{ID: uuid.New(), Type: "car", Name: "Car 1", Capacity: 1, IsActive: true, CreatedAt: entity.Now(), UpdatedAt: entity.Now()}
	require.NoError(t, db.ResourceRepository().Create(ctx, res))

	return db, sched.ID
}

func TestLoadBuildsCompleteSnapshot(t *testing.T) {
	db, schedID := seedDB(t)

	snap, err := Load(context.Background(), db, schedID, false)
	require.NoError(t, err)

	require.Len(t, snap.Staff, 2)
	assert.Equal(t, "Abe", snap.Staff[0].Name) // sorted by name
	assert.Equal(t, "Beppu", snap.Staff[1].Name)
	assert.True(t, snap.HasSkill(snap.Staff[1].ID, "triage"))
	assert.Contains(t, snap.TaskTypes, "consult")
	require.Len(t, snap.LockedAssignments, 1)
	require.Len(t, snap.Events, 1)
	assert.Contains(t, snap.ResourcesByType, "car")
	assert.Len(t, snap.Dates, 30) // September has 30 days
}

func TestLoadRejectsUnknownSchedule(t *testing.T) {
	db := memory.New()
	_, err := Load(context.Background(), db, uuid.New(), false)
	require.Error(t, err)
	assert.True(t, entity.IsNotFound(err))
}

func TestLoadRejectsWriteOnConfirmedSchedule(t *testing.T) {
	db, schedID := seedDB(t)
	sched, err := db.ScheduleRepository().GetByID(context.Background(), schedID)
	require.NoError(t, err)
	sched.Status = entity.ScheduleConfirmed
	require.NoError(t, db.ScheduleRepository().Update(context.Background(), sched))

	_, err = Load(context.Background(), db, schedID, true)
	require.Error(t, err)
	assert.True(t, entity.IsPreconditionFailed(err))
}
