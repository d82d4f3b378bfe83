package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/clinicroster/scheduler/internal/repository"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type staffRepo struct {
	q querier
}

func (r *staffRepo) Create(ctx context.Context, s *entity.Staff) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO staffs (id, name, employment_type, job_category, can_drive, can_bicycle, is_active, skill_codes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.Name, s.EmploymentType, s.JobCategory, s.CanDrive, s.CanBicycle, s.IsActive,
		pq.Array(s.SkillCodes), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create staff: %w", err)
	}
	return nil
}

func (r *staffRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Staff, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, name, employment_type, job_category, can_drive, can_bicycle, is_active, skill_codes, created_at, updated_at
		FROM staffs WHERE id = $1`, id)
	return scanStaff(row)
}

func (r *staffRepo) ListActive(ctx context.Context) ([]*entity.Staff, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, employment_type, job_category, can_drive, can_bicycle, is_active, skill_codes, created_at, updated_at
		FROM staffs WHERE is_active = true ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active staff: %w", err)
	}
	defer rows.Close()

	var out []*entity.Staff
	for rows.Next() {
		s, err := scanStaffRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *staffRepo) Update(ctx context.Context, s *entity.Staff) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE staffs SET name=$2, employment_type=$3, job_category=$4, can_drive=$5, can_bicycle=$6,
			is_active=$7, skill_codes=$8, updated_at=$9
		WHERE id=$1`,
		s.ID, s.Name, s.EmploymentType, s.JobCategory, s.CanDrive, s.CanBicycle, s.IsActive,
		pq.Array(s.SkillCodes), s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update staff: %w", err)
	}
	return requireRowsAffected(result, "Staff", s.ID.String())
}

func (r *staffRepo) Delete(ctx context.Context, id uuid.UUID, deleterID uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `UPDATE staffs SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete staff: %w", err)
	}
	return requireRowsAffected(result, "Staff", id.String())
}

func (r *staffRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM staffs`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count staff: %w", err)
	}
	return n, nil
}

// GetSkillsByStaffIDs batch-loads skill codes for every staff id in
// one round trip instead of one query per staff member.
func (r *staffRepo) GetSkillsByStaffIDs(ctx context.Context, staffIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	out := make(map[uuid.UUID][]string, len(staffIDs))
	if len(staffIDs) == 0 {
		return out, nil
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, skill_codes FROM staffs WHERE id = ANY($1)`, pq.Array(staffIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to batch-load skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var skills []string
		if err := rows.Scan(&id, pq.Array(&skills)); err != nil {
			return nil, fmt.Errorf("failed to scan skill row: %w", err)
		}
		sort.Strings(skills)
		out[id] = skills
	}
	return out, rows.Err()
}

func scanStaff(row *sql.Row) (*entity.Staff, error) {
	s := &entity.Staff{}
	var skills []string
	err := row.Scan(&s.ID, &s.Name, &s.EmploymentType, &s.JobCategory, &s.CanDrive, &s.CanBicycle,
		&s.IsActive, pq.Array(&skills), &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Staff"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan staff: %w", err)
	}
	s.SkillCodes = skills
	return s, nil
}

func scanStaffRows(rows *sql.Rows) (*entity.Staff, error) {
	s := &entity.Staff{}
	var skills []string
	err := rows.Scan(&s.ID, &s.Name, &s.EmploymentType, &s.JobCategory, &s.CanDrive, &s.CanBicycle,
		&s.IsActive, pq.Array(&skills), &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan staff row: %w", err)
	}
	s.SkillCodes = skills
	return s, nil
}

func requireRowsAffected(result sql.Result, resourceType, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return &repository.NotFoundError{ResourceType: resourceType, ResourceID: id}
	}
	return nil
}
