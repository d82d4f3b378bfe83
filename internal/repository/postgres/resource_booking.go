package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/google/uuid"
)

type bookingRepo struct {
	q querier
}

func (r *bookingRepo) Create(ctx context.Context, b *entity.ResourceBooking) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO resource_bookings (id, resource_id, assignment_id, event_id, date, block, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		b.ID, b.ResourceID, b.AssignmentID, b.EventID, b.Date, b.Block, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create resource booking: %w", err)
	}
	return nil
}

func (r *bookingRepo) ListByResourceAndWindow(ctx context.Context, resourceID uuid.UUID, start, end time.Time) ([]*entity.ResourceBooking, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, resource_id, assignment_id, event_id, date, block, created_at
		FROM resource_bookings WHERE resource_id = $1 AND date >= $2 AND date <= $3`,
		resourceID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by resource and window: %w", err)
	}
	defer rows.Close()
	return scanBookingRows(rows)
}

// ListByScheduleWindow batch-loads bookings for every resource touched
// by assignments in a schedule's date range, avoiding N+1 lookups
// during resource-capacity validation (C7 check 9).
func (r *bookingRepo) ListByScheduleWindow(ctx context.Context, scheduleID uuid.UUID, start, end time.Time) ([]*entity.ResourceBooking, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT rb.id, rb.resource_id, rb.assignment_id, rb.event_id, rb.date, rb.block, rb.created_at
		FROM resource_bookings rb
		LEFT JOIN schedule_assignments sa ON sa.id = rb.assignment_id
		WHERE (sa.schedule_id = $1 OR rb.event_id IN (SELECT id FROM events WHERE schedule_id = $1))
			AND rb.date >= $2 AND rb.date <= $3`,
		scheduleID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings by schedule window: %w", err)
	}
	defer rows.Close()
	return scanBookingRows(rows)
}

func (r *bookingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM resource_bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete resource booking: %w", err)
	}
	return requireRowsAffected(result, "ResourceBooking", id.String())
}

func scanBookingRows(rows *sql.Rows) ([]*entity.ResourceBooking, error) {
	var out []*entity.ResourceBooking
	for rows.Next() {
		b := &entity.ResourceBooking{}
		if err := rows.Scan(&b.ID, &b.ResourceID, &b.AssignmentID, &b.EventID, &b.Date, &b.Block, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resource booking row: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
