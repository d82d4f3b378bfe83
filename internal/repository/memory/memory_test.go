package memory

import (
	"context"
	"testing"
	"time"

	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/clinicroster/scheduler/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestStaffCreateAndListActiveSortedByName(t *testing.T) {
	db := New()
	ctx := context.Background()

	bob := &entity.Staff{ID: uuid.New(), Name: "Bob", IsActive: true}
	alice := &entity.Staff{ID: uuid.New(), Name: "Alice", IsActive: true}
	inactive := &entity.Staff{ID: uuid.New(), Name: "Zed", IsActive: false}

	repo := db.StaffRepository()
	require.NoError(t, repo.Create(ctx, bob))
	require.NoError(t, repo.Create(ctx, alice))
	require.NoError(t, repo.Create(ctx, inactive))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, "Alice", active[0].Name)
	require.Equal(t, "Bob", active[1].Name)
}

func TestAssignmentCreateRejectsDuplicateSlot(t *testing.T) {
	db := New()
	ctx := context.Background()
	repo := db.AssignmentRepository()

	scheduleID, staffID := uuid.New(), uuid.New()
	date := time.Date(2025, 5, 6, 0, 0, 0, 0, time.UTC)

	a1 := &entity.ScheduleAssignment{ID: uuid.New(), ScheduleID: scheduleID, StaffID: staffID, Date: date, Block: entity.BlockAM}
	require.NoError(t, repo.Create(ctx, a1))

	a2 := &entity.ScheduleAssignment{ID: uuid.New(), ScheduleID: scheduleID, StaffID: staffID, Date: date, Block: entity.BlockAM}
	err := repo.Create(ctx, a2)
	require.Error(t, err)
}

func TestAssignmentDeleteUnlockedBySchedulePreservesLocked(t *testing.T) {
	db := New()
	ctx := context.Background()
	repo := db.AssignmentRepository()
	scheduleID := uuid.New()

	locked := &entity.ScheduleAssignment{ID: uuid.New(), ScheduleID: scheduleID, StaffID: uuid.New(), Block: entity.BlockAM, IsLocked: true}
	unlocked := &entity.ScheduleAssignment{ID: uuid.New(), ScheduleID: scheduleID, StaffID: uuid.New(), Block: entity.BlockPM, IsLocked: false}
	require.NoError(t, repo.Create(ctx, locked))
	require.NoError(t, repo.Create(ctx, unlocked))

	n, err := repo.DeleteUnlockedBySchedule(ctx, scheduleID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	remaining, err := repo.ListBySchedule(ctx, scheduleID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.True(t, remaining[0].IsLocked)
}

func TestScheduleCreateRejectsDuplicateYearMonth(t *testing.T) {
	db := New()
	ctx := context.Background()
	repo := db.ScheduleRepository()

	s1 := &entity.Schedule{ID: uuid.New(), YearMonth: "2025-05", Status: entity.ScheduleDraft}
	require.NoError(t, repo.Create(ctx, s1))

	s2 := &entity.Schedule{ID: uuid.New(), YearMonth: "2025-05", Status: entity.ScheduleDraft}
	err := repo.Create(ctx, s2)
	require.Error(t, err)
}

func TestGetByIDNotFound(t *testing.T) {
	db := New()
	_, err := db.StaffRepository().GetByID(context.Background(), uuid.New())

	require.Error(t, err)
	require.True(t, repository.IsNotFound(err))
}
