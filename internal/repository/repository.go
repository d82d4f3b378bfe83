package repository

import (
	"context"
	"time"

	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/google/uuid"
)

// Database provides access to all repositories and transaction control.
type Database interface {
	BeginTx(ctx context.Context) (Transaction, error)

	StaffRepository() StaffRepository
	TaskTypeRepository() TaskTypeRepository
	ScheduleRepository() ScheduleRepository
	AssignmentRepository() AssignmentRepository
	EventRepository() EventRepository
	RuleRepository() RuleRepository
	ResourceRepository() ResourceRepository
	ResourceBookingRepository() ResourceBookingRepository

	Close() error
	Health(ctx context.Context) error
}

// Transaction represents one unit of work across repositories.
type Transaction interface {
	Commit() error
	Rollback() error

	StaffRepository() StaffRepository
	TaskTypeRepository() TaskTypeRepository
	ScheduleRepository() ScheduleRepository
	AssignmentRepository() AssignmentRepository
	EventRepository() EventRepository
	RuleRepository() RuleRepository
	ResourceRepository() ResourceRepository
	ResourceBookingRepository() ResourceBookingRepository
}

// StaffRepository defines data access operations for staff members.
type StaffRepository interface {
	Create(ctx context.Context, staff *entity.Staff) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Staff, error)
	ListActive(ctx context.Context) ([]*entity.Staff, error) // sorted by name, per C2
	Update(ctx context.Context, staff *entity.Staff) error
	Delete(ctx context.Context, id uuid.UUID, deleterID uuid.UUID) error
	Count(ctx context.Context) (int64, error)

	// GetSkillsByStaffIDs batch-loads skill sets to avoid N+1 queries
	// when assembling a snapshot over many staff.
	GetSkillsByStaffIDs(ctx context.Context, staffIDs []uuid.UUID) (map[uuid.UUID][]string, error)
}

// TaskTypeRepository defines data access operations for task types.
type TaskTypeRepository interface {
	Create(ctx context.Context, t *entity.TaskType) error
	GetByCode(ctx context.Context, code string) (*entity.TaskType, error)
	ListActive(ctx context.Context) ([]*entity.TaskType, error)
	Update(ctx context.Context, t *entity.TaskType) error
	Delete(ctx context.Context, code string, deleterID uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// ScheduleRepository defines data access operations for schedules.
type ScheduleRepository interface {
	Create(ctx context.Context, s *entity.Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Schedule, error)
	GetByYearMonth(ctx context.Context, yearMonth string) (*entity.Schedule, error)
	Update(ctx context.Context, s *entity.Schedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// AssignmentRepository defines data access operations for schedule assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, a *entity.ScheduleAssignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ScheduleAssignment, error)
	ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*entity.ScheduleAssignment, error)
	ListLockedBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*entity.ScheduleAssignment, error)
	Update(ctx context.Context, a *entity.ScheduleAssignment) error
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteUnlockedBySchedule is used by the result applier's
	// clear_unlocked step; it must never touch locked rows.
	DeleteUnlockedBySchedule(ctx context.Context, scheduleID uuid.UUID) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// EventRepository defines data access operations for events.
type EventRepository interface {
	Create(ctx context.Context, e *entity.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Event, error)

	// ListActiveForSchedule returns events bound to scheduleID whose
	// status is unassigned or assigned, per the C2 snapshot contract.
	ListActiveForSchedule(ctx context.Context, scheduleID uuid.UUID) ([]*entity.Event, error)
	Update(ctx context.Context, e *entity.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// RuleRepository defines data access operations for rules.
type RuleRepository interface {
	Create(ctx context.Context, r *entity.Rule) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Rule, error)
	ListActive(ctx context.Context) ([]*entity.Rule, error)
	Update(ctx context.Context, r *entity.Rule) error
	Delete(ctx context.Context, id uuid.UUID, deleterID uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// ResourceRepository defines data access operations for resources.
type ResourceRepository interface {
	Create(ctx context.Context, r *entity.Resource) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Resource, error)

	// ListActiveByType returns active resources grouped by type, per
	// the C2 snapshot contract ("resources grouped by type").
	ListActiveByType(ctx context.Context) (map[string][]*entity.Resource, error)
	Update(ctx context.Context, r *entity.Resource) error
	Delete(ctx context.Context, id uuid.UUID, deleterID uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// ResourceBookingRepository defines data access operations for resource bookings.
type ResourceBookingRepository interface {
	Create(ctx context.Context, b *entity.ResourceBooking) error
	ListByResourceAndWindow(ctx context.Context, resourceID uuid.UUID, start, end time.Time) ([]*entity.ResourceBooking, error)

	// ListByScheduleWindow batch-loads bookings for every resource
	// touched in a schedule's date range, avoiding N+1 lookups during
	// resource-capacity validation (C7 check 9).
	ListByScheduleWindow(ctx context.Context, scheduleID uuid.UUID, start, end time.Time) ([]*entity.ResourceBooking, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NotFoundError represents a record-not-found error at the storage boundary.
type NotFoundError struct {
	ResourceType string
	ResourceID   string
}

func (e *NotFoundError) Error() string {
	return "not found: " + e.ResourceType + " " + e.ResourceID
}

// IsNotFound checks if an error is a NotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// ValidationError represents a storage-layer validation error
// (e.g. a uniqueness or column-shape failure surfaced by the driver).
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
