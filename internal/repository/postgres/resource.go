package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/clinicroster/scheduler/internal/repository"
	"github.com/google/uuid"
)

type resourceRepo struct {
	q querier
}

func (r *resourceRepo) Create(ctx context.Context, res *entity.Resource) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO resources (id, type, name, capacity, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		res.ID, res.Type, res.Name, res.Capacity, res.IsActive, res.CreatedAt, res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}
	return nil
}

func (r *resourceRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Resource, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, type, name, capacity, is_active, created_at, updated_at FROM resources WHERE id = $1`, id)
	return scanResource(row)
}

// ListActiveByType groups active resources by Type, per the C2
// snapshot contract ("resources grouped by type").
func (r *resourceRepo) ListActiveByType(ctx context.Context) (map[string][]*entity.Resource, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, type, name, capacity, is_active, created_at, updated_at
		FROM resources WHERE is_active = true ORDER BY type ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active resources: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]*entity.Resource)
	for rows.Next() {
		res, err := scanResourceRows(rows)
		if err != nil {
			return nil, err
		}
		out[res.Type] = append(out[res.Type], res)
	}
	return out, rows.Err()
}

func (r *resourceRepo) Update(ctx context.Context, res *entity.Resource) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE resources SET type=$2, name=$3, capacity=$4, is_active=$5, updated_at=$6
		WHERE id=$1`,
		res.ID, res.Type, res.Name, res.Capacity, res.IsActive, res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update resource: %w", err)
	}
	return requireRowsAffected(result, "Resource", res.ID.String())
}

func (r *resourceRepo) Delete(ctx context.Context, id uuid.UUID, deleterID uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `UPDATE resources SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete resource: %w", err)
	}
	return requireRowsAffected(result, "Resource", id.String())
}

func (r *resourceRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count resources: %w", err)
	}
	return n, nil
}

func scanResource(row *sql.Row) (*entity.Resource, error) {
	res := &entity.Resource{}
	err := row.Scan(&res.ID, &res.Type, &res.Name, &res.Capacity, &res.IsActive, &res.CreatedAt, &res.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Resource"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan resource: %w", err)
	}
	return res, nil
}

func scanResourceRows(rows *sql.Rows) (*entity.Resource, error) {
	res := &entity.Resource{}
	err := rows.Scan(&res.ID, &res.Type, &res.Name, &res.Capacity, &res.IsActive, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan resource row: %w", err)
	}
	return res, nil
}
