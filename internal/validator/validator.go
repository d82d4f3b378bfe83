// Package validator is C7: an independent checker that re-derives
// every hard and soft violation a schedule currently exhibits,
// regardless of how its assignments got there (solver, manual edit,
// import). It never mutates anything it reads.
package validator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/clinicroster/scheduler/internal/repository"
	"github.com/clinicroster/scheduler/internal/ruleeval"
)

const (
	severityDuplicate        = 1000
	severitySkillShortfall   = 900
	severityMinStaffShortage = 700
	severityCarTransport     = 800
	severityBicycleTransport = 500
	severityOverwork         = 400
	severityRequiredEvent    = 950
	severityEventSkill       = 900
	severityResourceCapacity = 850

	overworkBlockThreshold = 6
)

// Run loads everything needed to validate scheduleID and concatenates
// the results of all nine checks, rule evaluation (C8) being check 6. Results
// are not globally deduplicated, per §4.7.
func Run(ctx context.Context, db repository.Database, scheduleID uuid.UUID) ([]entity.Violation, error) {
	sched, err := db.ScheduleRepository().GetByID(ctx, scheduleID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, entity.NewError(entity.CodeNotFound, "schedule not found", err)
		}
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}

	assignments, err := db.AssignmentRepository().ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}

	staffList, err := db.StaffRepository().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load staff: %w", err)
	}
	staffByID := make(map[uuid.UUID]*entity.Staff, len(staffList))
	for _, s := range staffList {
		staffByID[s.ID] = s
	}

	taskTypeList, err := db.TaskTypeRepository().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load task types: %w", err)
	}
	taskTypes := make(map[string]*entity.TaskType, len(taskTypeList))
	for _, tt := range taskTypeList {
		taskTypes[tt.Code] = tt
	}

	rules, err := db.RuleRepository().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	events, err := db.EventRepository().ListActiveForSchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	dates, err := entity.DatesInYearMonth(sched.YearMonth)
	if err != nil {
		return nil, err
	}
	var windowStart, windowEnd time.Time
	if len(dates) > 0 {
		windowStart, windowEnd = dates[0], dates[len(dates)-1].AddDate(0, 0, 1)
	}
	bookings, err := db.ResourceBookingRepository().ListByScheduleWindow(ctx, scheduleID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load resource bookings: %w", err)
	}
	resourcesByType, err := db.ResourceRepository().ListActiveByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load resources: %w", err)
	}
	resourcesByID := make(map[uuid.UUID]*entity.Resource)
	for _, list := range resourcesByType {
		for _, r := range list {
			resourcesByID[r.ID] = r
		}
	}

	var violations []entity.Violation
	violations = append(violations, checkDuplicateAssignment(assignments)...)
	violations = append(violations, checkSkillShortfall(assignments, staffByID, taskTypes)...)
	violations = append(violations, checkMinStaffShortfall(assignments, taskTypes)...)
	violations = append(violations, checkTransport(assignments, staffByID, taskTypes)...)
	violations = append(violations, checkConsecutiveOverwork(assignments)...)
	violations = append(violations, checkRules(rules, assignments, staffByID)...)
	violations = append(violations, checkRequiredEventsUnassigned(events, assignments)...)
	violations = append(violations, checkEventAssignmentSkills(events, assignments, staffByID)...)
	violations = append(violations, checkResourceCapacity(bookings, resourcesByID)...)
	return violations, nil
}

type staffDateBlock struct {
	staff uuid.UUID
	date  time.Time
	block entity.BlockCode
}

// checkDuplicateAssignment is check 1: any (staff, date, block) triple
// appearing more than once.
func checkDuplicateAssignment(assignments []*entity.ScheduleAssignment) []entity.Violation {
	counts := map[staffDateBlock]int{}
	for _, a := range assignments {
		counts[staffDateBlock{a.StaffID, a.Date, a.Block}]++
	}
	var out []entity.Violation
	for k, n := range counts {
		if n <= 1 {
			continue
		}
		date, block := k.date, k.block
		out = append(out, entity.Violation{
			Type: entity.Hard, Severity: severityDuplicate,
			Description:       fmt.Sprintf("duplicate assignment for the same staff/date/block (%d rows)", n),
			AffectedDate:      &date,
			AffectedTimeBlock: &block,
			AffectedStaff:     []uuid.UUID{k.staff},
		})
	}
	return out
}

// checkSkillShortfall is check 2: plain (non-event) assignments whose
// task's required skills are not all held by the assigned staff.
func checkSkillShortfall(assignments []*entity.ScheduleAssignment, staffByID map[uuid.UUID]*entity.Staff, taskTypes map[string]*entity.TaskType) []entity.Violation {
	var out []entity.Violation
	for _, a := range assignments {
		if a.EventID != nil || a.TaskTypeCode == "off" {
			continue
		}
		tt, ok := taskTypes[a.TaskTypeCode]
		if !ok {
			continue
		}
		st, ok := staffByID[a.StaffID]
		if !ok {
			continue
		}
		for _, skill := range tt.RequiredSkills {
			if !st.HasSkill(skill) {
				date, block := a.Date, a.Block
				out = append(out, entity.Violation{
					Type: entity.Hard, Severity: severitySkillShortfall,
					Description:       fmt.Sprintf("staff lacks required skill %q for task %q", skill, a.TaskTypeCode),
					AffectedDate:      &date,
					AffectedTimeBlock: &block,
					AffectedStaff:     []uuid.UUID{a.StaffID},
				})
				break
			}
		}
	}
	return out
}

type dateBlockTask struct {
	date  time.Time
	block entity.BlockCode
	task  string
}

// checkMinStaffShortfall is check 3: per (date, block, task_code) on
// clinic weekdays within the task's default blocks, headcount below
// task.min_staff. Only slots holding at least one assignment of the
// task are examined; a slot with no such assignment is not reported.
func checkMinStaffShortfall(assignments []*entity.ScheduleAssignment, taskTypes map[string]*entity.TaskType) []entity.Violation {
	groups := map[dateBlockTask][]uuid.UUID{}
	for _, a := range assignments {
		if a.TaskTypeCode == "off" {
			continue
		}
		groups[dateBlockTask{a.Date, a.Block, a.TaskTypeCode}] = append(groups[dateBlockTask{a.Date, a.Block, a.TaskTypeCode}], a.StaffID)
	}

	var out []entity.Violation
	for _, tt := range taskTypes {
		if tt.MinStaff <= 0 {
			continue
		}
		seen := map[dateBlockTask]bool{}
		for k := range groups {
			if k.task != tt.Code {
				continue
			}
			seen[k] = true
		}
		for k := range seen {
			if !entity.IsClinicWeekday(k.date) || !blockIn(k.block, tt.DefaultBlocks) {
				continue
			}
			staffIDs := groups[k]
			if len(staffIDs) >= tt.MinStaff {
				continue
			}
			date, block := k.date, k.block
			out = append(out, entity.Violation{
				Type: entity.Soft, Severity: severityMinStaffShortage,
				Description:       fmt.Sprintf("headcount %d below min_staff %d for task %q", len(staffIDs), tt.MinStaff, tt.Code),
				AffectedDate:      &date,
				AffectedTimeBlock: &block,
				AffectedStaff:     staffIDs,
			})
		}
	}
	return out
}

func blockIn(b entity.BlockCode, list []entity.BlockCode) bool {
	for _, c := range list {
		if c == b {
			return true
		}
	}
	return false
}

// checkTransport is check 4: a visit-type task requires car or
// bicycle and the assigned staff lacks the capability.
func checkTransport(assignments []*entity.ScheduleAssignment, staffByID map[uuid.UUID]*entity.Staff, taskTypes map[string]*entity.TaskType) []entity.Violation {
	var out []entity.Violation
	for _, a := range assignments {
		if a.EventID != nil || a.TaskTypeCode == "off" {
			continue
		}
		tt, ok := taskTypes[a.TaskTypeCode]
		if !ok || tt.LocationType != entity.LocationVisit {
			continue
		}
		st, ok := staffByID[a.StaffID]
		if !ok {
			continue
		}
		date, block := a.Date, a.Block
		if tt.RequiresResource("car") && !st.CanDrive {
			out = append(out, entity.Violation{
				Type: entity.Hard, Severity: severityCarTransport,
				Description:       "visit task requires a car but staff cannot drive",
				AffectedDate:      &date,
				AffectedTimeBlock: &block,
				AffectedStaff:     []uuid.UUID{a.StaffID},
			})
		}
		if tt.RequiresResource("bicycle") && !st.CanBicycle {
			out = append(out, entity.Violation{
				Type: entity.Soft, Severity: severityBicycleTransport,
				Description:       "visit task requires a bicycle but staff cannot ride one",
				AffectedDate:      &date,
				AffectedTimeBlock: &block,
				AffectedStaff:     []uuid.UUID{a.StaffID},
			})
		}
	}
	return out
}

// checkConsecutiveOverwork is check 5: any staff working >= 6
// non-lunch blocks in one day, excluding "off" assignments.
func checkConsecutiveOverwork(assignments []*entity.ScheduleAssignment) []entity.Violation {
	type staffDate struct {
		staff uuid.UUID
		date  time.Time
	}
	counts := map[staffDate]int{}
	for _, a := range assignments {
		if a.TaskTypeCode == "off" || a.Block == entity.BlockLunch {
			continue
		}
		counts[staffDate{a.StaffID, a.Date}]++
	}

	var out []entity.Violation
	for k, n := range counts {
		if n < overworkBlockThreshold {
			continue
		}
		date := k.date
		out = append(out, entity.Violation{
			Type: entity.Soft, Severity: severityOverwork,
			Description:   fmt.Sprintf("staff worked %d non-lunch blocks in one day", n),
			AffectedDate:  &date,
			AffectedStaff: []uuid.UUID{k.staff},
		})
	}
	return out
}

// checkRules is check 6: dispatch every active rule through C8.
func checkRules(rules []*entity.Rule, assignments []*entity.ScheduleAssignment, staffByID map[uuid.UUID]*entity.Staff) []entity.Violation {
	var out []entity.Violation
	for _, r := range rules {
		out = append(out, ruleeval.Evaluate(r, assignments, staffByID)...)
	}
	return out
}

// checkRequiredEventsUnassigned is check 7: every required-priority
// event not appearing in any assignment's event_id set.
func checkRequiredEventsUnassigned(events []*entity.Event, assignments []*entity.ScheduleAssignment) []entity.Violation {
	placed := map[uuid.UUID]bool{}
	for _, a := range assignments {
		if a.EventID != nil {
			placed[*a.EventID] = true
		}
	}
	var out []entity.Violation
	for _, ev := range events {
		if ev.Priority != entity.PriorityRequired || placed[ev.ID] {
			continue
		}
		eventID := ev.ID
		out = append(out, entity.Violation{
			Type: entity.Hard, Severity: severityRequiredEvent,
			Description: "required event was not placed on the schedule",
			EventID:     &eventID,
		})
	}
	return out
}

// checkEventAssignmentSkills is check 8: for each unique (event,
// staff) pair, required event skills not all held by that staff.
// Deduplicated across blocks of the same event/staff pair.
func checkEventAssignmentSkills(events []*entity.Event, assignments []*entity.ScheduleAssignment, staffByID map[uuid.UUID]*entity.Staff) []entity.Violation {
	eventsByID := make(map[uuid.UUID]*entity.Event, len(events))
	for _, ev := range events {
		eventsByID[ev.ID] = ev
	}

	type pair struct {
		event uuid.UUID
		staff uuid.UUID
	}
	seen := map[pair]bool{}
	var out []entity.Violation
	for _, a := range assignments {
		if a.EventID == nil {
			continue
		}
		p := pair{*a.EventID, a.StaffID}
		if seen[p] {
			continue
		}
		seen[p] = true

		ev, ok := eventsByID[p.event]
		if !ok {
			continue
		}
		st, ok := staffByID[p.staff]
		if !ok {
			continue
		}
		for _, skill := range ev.RequiredSkills {
			if !st.HasSkill(skill) {
				eventID := ev.ID
				out = append(out, entity.Violation{
					Type: entity.Hard, Severity: severityEventSkill,
					Description:   fmt.Sprintf("staff lacks required event skill %q", skill),
					AffectedStaff: []uuid.UUID{p.staff},
					EventID:       &eventID,
				})
				break
			}
		}
	}
	return out
}

type resourceDateBlock struct {
	resource uuid.UUID
	date     time.Time
	block    entity.BlockCode
}

// checkResourceCapacity is check 9: group bookings by (resource, date,
// block) and compare the count to the resource's capacity.
func checkResourceCapacity(bookings []*entity.ResourceBooking, resourcesByID map[uuid.UUID]*entity.Resource) []entity.Violation {
	groups := map[resourceDateBlock]int{}
	for _, b := range bookings {
		groups[resourceDateBlock{b.ResourceID, b.Date, b.Block}]++
	}

	keys := make([]resourceDateBlock, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].date.Before(keys[j].date) })

	var out []entity.Violation
	for _, k := range keys {
		res, ok := resourcesByID[k.resource]
		if !ok {
			continue
		}
		count := groups[k]
		if count <= res.Capacity {
			continue
		}
		date, block := k.date, k.block
		out = append(out, entity.Violation{
			Type: entity.Hard, Severity: severityResourceCapacity,
			Description:       fmt.Sprintf("resource %q booked %d times, capacity %d", res.Name, count, res.Capacity),
			AffectedDate:      &date,
			AffectedTimeBlock: &block,
		})
	}
	return out
}
