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

type taskTypeRepo struct {
	q querier
}

func (r *taskTypeRepo) Create(ctx context.Context, t *entity.TaskType) error {
	blocks := blockCodesToStrings(t.DefaultBlocks)
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO task_types (code, display_name, default_blocks, required_skills, preferred_skills,
			required_resources, min_staff, max_staff, location_type, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		t.Code, t.DisplayName, pq.Array(blocks), pq.Array(t.RequiredSkills), pq.Array(t.PreferredSkills),
		pq.Array(t.RequiredResources), t.MinStaff, t.MaxStaff, t.LocationType, t.IsActive, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task type: %w", err)
	}
	return nil
}

func (r *taskTypeRepo) GetByCode(ctx context.Context, code string) (*entity.TaskType, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT code, display_name, default_blocks, required_skills, preferred_skills,
			required_resources, min_staff, max_staff, location_type, is_active, created_at, updated_at
		FROM task_types WHERE code = $1`, code)
	return scanTaskType(row)
}

func (r *taskTypeRepo) ListActive(ctx context.Context) ([]*entity.TaskType, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT code, display_name, default_blocks, required_skills, preferred_skills,
			required_resources, min_staff, max_staff, location_type, is_active, created_at, updated_at
		FROM task_types WHERE is_active = true ORDER BY code ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active task types: %w", err)
	}
	defer rows.Close()

	var out []*entity.TaskType
	for rows.Next() {
		t, err := scanTaskTypeRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *taskTypeRepo) Update(ctx context.Context, t *entity.TaskType) error {
	blocks := blockCodesToStrings(t.DefaultBlocks)
	result, err := r.q.ExecContext(ctx, `
		UPDATE task_types SET display_name=$2, default_blocks=$3, required_skills=$4, preferred_skills=$5,
			required_resources=$6, min_staff=$7, max_staff=$8, location_type=$9, is_active=$10, updated_at=$11
		WHERE code=$1`,
		t.Code, t.DisplayName, pq.Array(blocks), pq.Array(t.RequiredSkills), pq.Array(t.PreferredSkills),
		pq.Array(t.RequiredResources), t.MinStaff, t.MaxStaff, t.LocationType, t.IsActive, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update task type: %w", err)
	}
	return requireRowsAffected(result, "TaskType", t.Code)
}

func (r *taskTypeRepo) Delete(ctx context.Context, code string, deleterID uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `UPDATE task_types SET is_active = false, updated_at = NOW() WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to soft-delete task type: %w", err)
	}
	return requireRowsAffected(result, "TaskType", code)
}

func (r *taskTypeRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM task_types`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count task types: %w", err)
	}
	return n, nil
}

func blockCodesToStrings(blocks []entity.BlockCode) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = string(b)
	}
	return out
}

func stringsToBlockCodes(strs []string) []entity.BlockCode {
	out := make([]entity.BlockCode, len(strs))
	for i, s := range strs {
		out[i] = entity.BlockCode(s)
	}
	return out
}

func scanTaskType(row *sql.Row) (*entity.TaskType, error) {
	t := &entity.TaskType{}
	var blocks, required, preferred, resources []string
	err := row.Scan(&t.Code, &t.DisplayName, pq.Array(&blocks), pq.Array(&required), pq.Array(&preferred),
		pq.Array(&resources), &t.MinStaff, &t.MaxStaff, &t.LocationType, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "TaskType"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task type: %w", err)
	}
	t.DefaultBlocks = stringsToBlockCodes(blocks)
	t.RequiredSkills = required
	t.PreferredSkills = preferred
	t.RequiredResources = resources
	return t, nil
}

func scanTaskTypeRows(rows *sql.Rows) (*entity.TaskType, error) {
	t := &entity.TaskType{}
	var blocks, required, preferred, resources []string
	err := rows.Scan(&t.Code, &t.DisplayName, pq.Array(&blocks), pq.Array(&required), pq.Array(&preferred),
		pq.Array(&resources), &t.MinStaff, &t.MaxStaff, &t.LocationType, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan task type row: %w", err)
	}
	t.DefaultBlocks = stringsToBlockCodes(blocks)
	t.RequiredSkills = required
	t.PreferredSkills = preferred
	t.RequiredResources = resources
	return t, nil
}
