// Package snapshot loads an immutable projection of the store that is
// sufficient to build a CSP model or run validation against a single
// schedule, without further mutation of the underlying repositories.
package snapshot

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/clinicroster/scheduler/internal/repository"
)

// Snapshot is the pure-data projection consumed by internal/eventslot,
// internal/csp, and internal/validator.
type Snapshot struct {
	Schedule          *entity.Schedule
	Staff             []*entity.Staff // sorted by name
	StaffSkills       map[uuid.UUID][]string
	TaskTypes         map[string]*entity.TaskType
	LockedAssignments []*entity.ScheduleAssignment
	Rules             []*entity.Rule
	Events            []*entity.Event
	ResourcesByType   map[string][]*entity.Resource
	Dates             []time.Time
}

// Load builds a Snapshot for scheduleID. It fails with NotFound if the
// schedule does not exist, and with PreconditionFailed if the schedule
// is confirmed and forWrite is true.
func Load(ctx context.Context, db repository.Database, scheduleID uuid.UUID, forWrite bool) (*Snapshot, error) {
	sched, err := db.ScheduleRepository().GetByID(ctx, scheduleID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, entity.NewError(entity.CodeNotFound, "schedule not found", err)
		}
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}

	if forWrite && sched.Status == entity.ScheduleConfirmed {
		return nil, entity.NewError(entity.CodePreconditionFailed, "schedule is confirmed and cannot be written", nil)
	}

	staff, err := db.StaffRepository().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active staff: %w", err)
	}
	sort.Slice(staff, func(i, j int) bool { return staff[i].Name < staff[j].Name })

	staffIDs := make([]uuid.UUID, len(staff))
	for i, s := range staff {
		staffIDs[i] = s.ID
	}
	skills, err := db.StaffRepository().GetSkillsByStaffIDs(ctx, staffIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load staff skills: %w", err)
	}

	taskTypeList, err := db.TaskTypeRepository().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active task types: %w", err)
	}
	taskTypes := make(map[string]*entity.TaskType, len(taskTypeList))
	for _, t := range taskTypeList {
		taskTypes[t.Code] = t
	}

	locked, err := db.AssignmentRepository().ListLockedBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load locked assignments: %w", err)
	}

	rules, err := db.RuleRepository().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules: %w", err)
	}

	events, err := db.EventRepository().ListActiveForSchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active events: %w", err)
	}

	resources, err := db.ResourceRepository().ListActiveByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active resources: %w", err)
	}

	dates, err := entity.DatesInYearMonth(sched.YearMonth)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Schedule:          sched,
		Staff:             staff,
		StaffSkills:       skills,
		TaskTypes:         taskTypes,
		LockedAssignments: locked,
		Rules:             rules,
		Events:            events,
		ResourcesByType:   resources,
		Dates:             dates,
	}, nil
}

// StaffSkillSet returns the skill set for a staff id, or an empty slice
// if the staff has no recorded skills.
func (s *Snapshot) StaffSkillSet(staffID uuid.UUID) []string {
	return s.StaffSkills[staffID]
}

// HasSkill reports whether the given staff holds skillCode in this snapshot.
func (s *Snapshot) HasSkill(staffID uuid.UUID, skillCode string) bool {
	for _, c := range s.StaffSkills[staffID] {
		if c == skillCode {
			return true
		}
	}
	return false
}

// DateIndex returns the zero-based index of date within s.Dates, or -1.
func (s *Snapshot) DateIndex(date time.Time) int {
	for i, d := range s.Dates {
		if d.Year() == date.Year() && d.Month() == date.Month() && d.Day() == date.Day() {
			return i
		}
	}
	return -1
}
