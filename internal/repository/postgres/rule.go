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

type ruleRepo struct {
	q querier
}

func (r *ruleRepo) Create(ctx context.Context, rule *entity.Rule) error {
	bodyJSON, err := json.Marshal(rule.Body)
	if err != nil {
		return fmt.Errorf("failed to marshal rule body: %w", err)
	}
	_, err = r.q.ExecContext(ctx, `
		INSERT INTO rules (id, label, template_type, hard_or_soft, weight, body, tags, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rule.ID, rule.Label, rule.TemplateType, rule.HardOrSoft, rule.Weight, bodyJSON,
		pq.Array(rule.Tags), rule.IsActive, rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}
	return nil
}

func (r *ruleRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Rule, error) {
	row := r.q.QueryRowContext(ctx, ruleSelect+` WHERE id = $1`, id)
	return scanRule(row)
}

func (r *ruleRepo) ListActive(ctx context.Context) ([]*entity.Rule, error) {
	rows, err := r.q.QueryContext(ctx, ruleSelect+` WHERE is_active = true`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active rules: %w", err)
	}
	defer rows.Close()

	var out []*entity.Rule
	for rows.Next() {
		rule, err := scanRuleRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *ruleRepo) Update(ctx context.Context, rule *entity.Rule) error {
	bodyJSON, err := json.Marshal(rule.Body)
	if err != nil {
		return fmt.Errorf("failed to marshal rule body: %w", err)
	}
	result, err := r.q.ExecContext(ctx, `
		UPDATE rules SET label=$2, template_type=$3, hard_or_soft=$4, weight=$5, body=$6, tags=$7,
			is_active=$8, updated_at=$9
		WHERE id=$1`,
		rule.ID, rule.Label, rule.TemplateType, rule.HardOrSoft, rule.Weight, bodyJSON,
		pq.Array(rule.Tags), rule.IsActive, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}
	return requireRowsAffected(result, "Rule", rule.ID.String())
}

func (r *ruleRepo) Delete(ctx context.Context, id uuid.UUID, deleterID uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `UPDATE rules SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to soft-delete rule: %w", err)
	}
	return requireRowsAffected(result, "Rule", id.String())
}

func (r *ruleRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM rules`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rules: %w", err)
	}
	return n, nil
}

const ruleSelect = `
	SELECT id, label, template_type, hard_or_soft, weight, body, tags, is_active, created_at, updated_at
	FROM rules`

func scanRule(row *sql.Row) (*entity.Rule, error) {
	rule := &entity.Rule{}
	var bodyJSON []byte
	var tags []string
	err := row.Scan(&rule.ID, &rule.Label, &rule.TemplateType, &rule.HardOrSoft, &rule.Weight, &bodyJSON,
		pq.Array(&tags), &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Rule"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}
	return finishRuleScan(rule, bodyJSON, tags)
}

func scanRuleRows(rows *sql.Rows) (*entity.Rule, error) {
	rule := &entity.Rule{}
	var bodyJSON []byte
	var tags []string
	err := rows.Scan(&rule.ID, &rule.Label, &rule.TemplateType, &rule.HardOrSoft, &rule.Weight, &bodyJSON,
		pq.Array(&tags), &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan rule row: %w", err)
	}
	return finishRuleScan(rule, bodyJSON, tags)
}

func finishRuleScan(rule *entity.Rule, bodyJSON []byte, tags []string) (*entity.Rule, error) {
	if len(bodyJSON) > 0 {
		if err := json.Unmarshal(bodyJSON, &rule.Body); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rule body: %w", err)
		}
	}
	rule.Tags = tags
	return rule, nil
}
