package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/clinicroster/scheduler/internal/repository"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type assignmentRepo struct {
	q querier
}

func (r *assignmentRepo) Create(ctx context.Context, a *entity.ScheduleAssignment) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO schedule_assignments (id, schedule_id, staff_id, date, block, task_type_code,
			status_color, is_locked, source, event_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		a.ID, a.ScheduleID, a.StaffID, a.Date, a.Block, a.TaskTypeCode, a.StatusColor, a.IsLocked,
		a.Source, a.EventID, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &repository.ValidationError{Message: "duplicate (schedule, staff, date, block) slot"}
		}
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

func (r *assignmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ScheduleAssignment, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, schedule_id, staff_id, date, block, task_type_code, status_color, is_locked,
			source, event_id, created_at, updated_at
		FROM schedule_assignments WHERE id = $1`, id)
	return scanAssignment(row)
}

func (r *assignmentRepo) ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*entity.ScheduleAssignment, error) {
	return r.listWhere(ctx, "schedule_id = $1", scheduleID)
}

func (r *assignmentRepo) ListLockedBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*entity.ScheduleAssignment, error) {
	return r.listWhere(ctx, "schedule_id = $1 AND is_locked = true", scheduleID)
}

func (r *assignmentRepo) listWhere(ctx context.Context, where string, args ...interface{}) ([]*entity.ScheduleAssignment, error) {
	rows, err := r.q.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, schedule_id, staff_id, date, block, task_type_code, status_color, is_locked,
			source, event_id, created_at, updated_at
		FROM schedule_assignments WHERE %s`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var out []*entity.ScheduleAssignment
	for rows.Next() {
		a, err := scanAssignmentRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *assignmentRepo) Update(ctx context.Context, a *entity.ScheduleAssignment) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE schedule_assignments SET task_type_code=$2, status_color=$3, is_locked=$4, source=$5,
			event_id=$6, updated_at=$7
		WHERE id=$1`,
		a.ID, a.TaskTypeCode, a.StatusColor, a.IsLocked, a.Source, a.EventID, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	return requireRowsAffected(result, "ScheduleAssignment", a.ID.String())
}

func (r *assignmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM schedule_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return requireRowsAffected(result, "ScheduleAssignment", id.String())
}

// DeleteUnlockedBySchedule backs the C6 clear_unlocked step: it must
// never remove a locked row, matching the invariant that every locked
// assignment present before a solver run survives apply_solver_result.
func (r *assignmentRepo) DeleteUnlockedBySchedule(ctx context.Context, scheduleID uuid.UUID) (int64, error) {
	result, err := r.q.ExecContext(ctx, `
		DELETE FROM schedule_assignments WHERE schedule_id = $1 AND is_locked = false`, scheduleID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear unlocked assignments: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}

func (r *assignmentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedule_assignments`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return n, nil
}

func scanAssignment(row *sql.Row) (*entity.ScheduleAssignment, error) {
	a := &entity.ScheduleAssignment{}
	err := row.Scan(&a.ID, &a.ScheduleID, &a.StaffID, &a.Date, &a.Block, &a.TaskTypeCode, &a.StatusColor,
		&a.IsLocked, &a.Source, &a.EventID, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "ScheduleAssignment"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}
	return a, nil
}

func scanAssignmentRows(rows *sql.Rows) (*entity.ScheduleAssignment, error) {
	a := &entity.ScheduleAssignment{}
	err := rows.Scan(&a.ID, &a.ScheduleID, &a.StaffID, &a.Date, &a.Block, &a.TaskTypeCode, &a.StatusColor,
		&a.IsLocked, &a.Source, &a.EventID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignment row: %w", err)
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}
