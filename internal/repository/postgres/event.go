package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/clinicroster/scheduler/internal/repository"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type eventRepo struct {
	q querier
}

func (r *eventRepo) Create(ctx context.Context, e *entity.Event) error {
	constraintJSON, err := json.Marshal(e.TimeConstraintData)
	if err != nil {
		return fmt.Errorf("failed to marshal time constraint data: %w", err)
	}
	_, err = r.q.ExecContext(ctx, `
		INSERT INTO events (id, type_code, subject_name, subject_anonymous_id, duration_hours,
			time_constraint_type, time_constraint_data, required_skills, required_resources,
			priority, status, schedule_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		e.ID, e.TypeCode, e.SubjectName, e.SubjectAnonymousID, e.DurationHours,
		e.TimeConstraintType, constraintJSON, pq.Array(e.RequiredSkills), pq.Array(e.RequiredResources),
		e.Priority, e.Status, e.ScheduleID, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *eventRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	row := r.q.QueryRowContext(ctx, eventSelect+` WHERE id = $1`, id)
	return scanEvent(row)
}

// ListActiveForSchedule returns events bound to scheduleID whose
// status is unassigned or assigned, matching the C2 snapshot contract.
func (r *eventRepo) ListActiveForSchedule(ctx context.Context, scheduleID uuid.UUID) ([]*entity.Event, error) {
	rows, err := r.q.QueryContext(ctx, eventSelect+`
		WHERE schedule_id = $1 AND status IN ('unassigned', 'assigned')`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active events: %w", err)
	}
	defer rows.Close()

	var out []*entity.Event
	for rows.Next() {
		e, err := scanEventRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) Update(ctx context.Context, e *entity.Event) error {
	constraintJSON, err := json.Marshal(e.TimeConstraintData)
	if err != nil {
		return fmt.Errorf("failed to marshal time constraint data: %w", err)
	}
	result, err := r.q.ExecContext(ctx, `
		UPDATE events SET type_code=$2, subject_name=$3, subject_anonymous_id=$4, duration_hours=$5,
			time_constraint_type=$6, time_constraint_data=$7, required_skills=$8, required_resources=$9,
			priority=$10, status=$11, schedule_id=$12, updated_at=$13
		WHERE id=$1`,
		e.ID, e.TypeCode, e.SubjectName, e.SubjectAnonymousID, e.DurationHours,
		e.TimeConstraintType, constraintJSON, pq.Array(e.RequiredSkills), pq.Array(e.RequiredResources),
		e.Priority, e.Status, e.ScheduleID, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return requireRowsAffected(result, "Event", e.ID.String())
}

func (r *eventRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return requireRowsAffected(result, "Event", id.String())
}

func (r *eventRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

const eventSelect = `
	SELECT id, type_code, subject_name, subject_anonymous_id, duration_hours, time_constraint_type,
		time_constraint_data, required_skills, required_resources, priority, status, schedule_id,
		created_at, updated_at
	FROM events`

func scanEvent(row *sql.Row) (*entity.Event, error) {
	e := &entity.Event{}
	var constraintJSON []byte
	var requiredSkills, requiredResources []string
	err := row.Scan(&e.ID, &e.TypeCode, &e.SubjectName, &e.SubjectAnonymousID, &e.DurationHours,
		&e.TimeConstraintType, &constraintJSON, pq.Array(&requiredSkills), pq.Array(&requiredResources),
		&e.Priority, &e.Status, &e.ScheduleID, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Event"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	return finishEventScan(e, constraintJSON, requiredSkills, requiredResources)
}

func scanEventRows(rows *sql.Rows) (*entity.Event, error) {
	e := &entity.Event{}
	var constraintJSON []byte
	var requiredSkills, requiredResources []string
	err := rows.Scan(&e.ID, &e.TypeCode, &e.SubjectName, &e.SubjectAnonymousID, &e.DurationHours,
		&e.TimeConstraintType, &constraintJSON, pq.Array(&requiredSkills), pq.Array(&requiredResources),
		&e.Priority, &e.Status, &e.ScheduleID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event row: %w", err)
	}
	return finishEventScan(e, constraintJSON, requiredSkills, requiredResources)
}

func finishEventScan(e *entity.Event, constraintJSON []byte, requiredSkills, requiredResources []string) (*entity.Event, error) {
	if len(constraintJSON) > 0 {
		if err := json.Unmarshal(constraintJSON, &e.TimeConstraintData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal time constraint data: %w", err)
		}
	}
	e.RequiredSkills = requiredSkills
	e.RequiredResources = requiredResources
	return e, nil
}
