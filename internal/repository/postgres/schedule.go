package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/clinicroster/scheduler/internal/repository"
	"github.com/google/uuid"
)

type scheduleRepo struct {
	q querier
}

func (r *scheduleRepo) Create(ctx context.Context, s *entity.Schedule) error {
	resultJSON, err := marshalSolverResult(s.SolverResult)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx, `
		INSERT INTO schedules (id, year_month, status, solver_result, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		s.ID, s.YearMonth, s.Status, resultJSON, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Schedule, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, year_month, status, solver_result, created_at, updated_at FROM schedules WHERE id = $1`, id)
	return scanSchedule(row)
}

func (r *scheduleRepo) GetByYearMonth(ctx context.Context, yearMonth string) (*entity.Schedule, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, year_month, status, solver_result, created_at, updated_at FROM schedules WHERE year_month = $1`, yearMonth)
	return scanSchedule(row)
}

func (r *scheduleRepo) Update(ctx context.Context, s *entity.Schedule) error {
	resultJSON, err := marshalSolverResult(s.SolverResult)
	if err != nil {
		return err
	}
	result, err := r.q.ExecContext(ctx, `
		UPDATE schedules SET status=$2, solver_result=$3, updated_at=$4 WHERE id=$1`,
		s.ID, s.Status, resultJSON, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	return requireRowsAffected(result, "Schedule", s.ID.String())
}

func (r *scheduleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// Assignments are owned by their schedule and cascade-delete with
	// it (§3 "Lifecycles"); the foreign key carries ON DELETE CASCADE.
	result, err := r.q.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return requireRowsAffected(result, "Schedule", id.String())
}

func (r *scheduleRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedules`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count schedules: %w", err)
	}
	return n, nil
}

// marshalSolverResult returns the JSON encoding of r, or an untyped nil
// (SQL NULL) when r is nil.
func marshalSolverResult(r *entity.SolverResultRecord) (interface{}, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal solver result: %w", err)
	}
	return b, nil
}

func scanSchedule(row *sql.Row) (*entity.Schedule, error) {
	s := &entity.Schedule{}
	var resultJSON []byte
	err := row.Scan(&s.ID, &s.YearMonth, &s.Status, &resultJSON, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Schedule"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan schedule: %w", err)
	}
	if len(resultJSON) > 0 {
		var rec entity.SolverResultRecord
		if err := json.Unmarshal(resultJSON, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal solver result: %w", err)
		}
		s.SolverResult = &rec
	}
	return s, nil
}
