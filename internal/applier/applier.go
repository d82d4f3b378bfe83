// Package applier is C6: it commits a solver (or manually curated)
// assignment draft list to a schedule as one atomic unit of work, then
// synchronizes the status of every event the schedule owns.
package applier

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/clinicroster/scheduler/internal/repository"
)

// Apply writes drafts to scheduleID inside one transaction. When
// clearUnlocked is set, every non-locked assignment in the schedule is
// deleted first; locked rows are never touched. Returns the number of
// assignments inserted. No partial insertion survives a failure: any
// error rolls the whole transaction back.
func Apply(ctx context.Context, db repository.Database, scheduleID uuid.UUID, drafts []entity.AssignmentDraft, clearUnlocked bool) (int, error) {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	sched, err := tx.ScheduleRepository().GetByID(ctx, scheduleID)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, entity.NewError(entity.CodeNotFound, "schedule not found", err)
		}
		return 0, fmt.Errorf("failed to load schedule: %w", err)
	}
	if sched.Status == entity.ScheduleConfirmed {
		return 0, entity.NewError(entity.CodeForbidden, "schedule is confirmed and cannot accept new assignments", nil)
	}

	if clearUnlocked {
		if _, err := tx.AssignmentRepository().DeleteUnlockedBySchedule(ctx, scheduleID); err != nil {
			return 0, fmt.Errorf("failed to clear unlocked assignments: %w", err)
		}
	}

	assignedEvents := make(map[uuid.UUID]bool, len(drafts))
	count := 0
	for _, d := range drafts {
		a := &entity.ScheduleAssignment{
			ID:           uuid.New(),
			ScheduleID:   scheduleID,
			StaffID:      d.StaffID,
			Date:         d.Date,
			Block:        d.Block,
			TaskTypeCode: d.TaskTypeCode,
			IsLocked:     false,
			Source:       entity.AssignmentSourceSolver,
			EventID:      d.EventID,
			CreatedAt:    entity.Now(),
			UpdatedAt:    entity.Now(),
		}
		if err := tx.AssignmentRepository().Create(ctx, a); err != nil {
			return 0, fmt.Errorf("failed to insert assignment: %w", err)
		}
		count++
		if d.EventID != nil {
			assignedEvents[*d.EventID] = true
		}
	}

	events, err := tx.EventRepository().ListActiveForSchedule(ctx, scheduleID)
	if err != nil {
		return 0, fmt.Errorf("failed to load schedule events: %w", err)
	}
	for _, ev := range events {
		if assignedEvents[ev.ID] {
			ev.MarkAssigned()
		} else {
			ev.MarkUnassigned()
		}
		if err := tx.EventRepository().Update(ctx, ev); err != nil {
			return 0, fmt.Errorf("failed to sync event status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit applied assignments: %w", err)
	}
	committed = true
	return count, nil
}
