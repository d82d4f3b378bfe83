// Package ruleeval is C8: it dispatches one operator-authored Rule
// against a schedule's assignments and produces the Violation records
// the rule's body describes. Unknown template types and unknown body
// keys are ignored silently, per §4.7.
package ruleeval

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicroster/scheduler/internal/entity"
)

// Evaluate dispatches rule by its template type against assignments.
// staffByID resolves the "by exact name" matching that availability,
// preference, and specific_date bodies require. skill_req and
// resource_req are explicit no-ops: the spec leaves their dispatch as
// an open question and no surviving caller exercises them.
func Evaluate(rule *entity.Rule, assignments []*entity.ScheduleAssignment, staffByID map[uuid.UUID]*entity.Staff) []entity.Violation {
	switch rule.TemplateType {
	case entity.TemplateHeadcount:
		return evalHeadcount(rule, assignments)
	case entity.TemplateAvailability:
		return evalAvailability(rule, assignments, staffByID)
	case entity.TemplatePreference:
		return evalPreference(rule, assignments, staffByID)
	case entity.TemplateRecurring:
		return evalRecurring(rule, assignments)
	case entity.TemplateSpecificDate:
		return evalSpecificDate(rule, assignments, staffByID)
	default:
		return nil
	}
}

func staffNamed(staffID uuid.UUID, name string, staffByID map[uuid.UUID]*entity.Staff) bool {
	st, ok := staffByID[staffID]
	return ok && st.Name == name
}

func anyStaffNamed(staffIDs []uuid.UUID, name string, staffByID map[uuid.UUID]*entity.Staff) bool {
	for _, id := range staffIDs {
		if staffNamed(id, name, staffByID) {
			return true
		}
	}
	return false
}

// severityFor mirrors rule.HardOrSoft: a soft rule's violations carry
// its own weight as severity, a hard rule's violations are pinned to
// the maximum severity regardless of weight.
func severityFor(rule *entity.Rule) int {
	if rule.HardOrSoft == entity.Hard {
		return 1000
	}
	return rule.Weight
}

func newRuleViolation(rule *entity.Rule, desc string, date *time.Time, block *entity.BlockCode, staff []uuid.UUID) entity.Violation {
	ruleID := rule.ID
	return entity.Violation{
		Type:              rule.HardOrSoft,
		Severity:          severityFor(rule),
		Description:       desc,
		AffectedDate:      date,
		AffectedTimeBlock: block,
		AffectedStaff:     staff,
		RuleID:            &ruleID,
	}
}

func evalHeadcount(rule *entity.Rule, assignments []*entity.ScheduleAssignment) []entity.Violation {
	taskCode, hasTask := stringFromAny(rule.Body["task_type_code"])
	eventCode, hasEvent := stringFromAny(rule.Body["event_code"])
	if !hasTask && !hasEvent {
		return nil
	}
	matchCode := taskCode
	if !hasTask {
		matchCode = eventCode
	}
	minStaff, hasMin := intFromAny(rule.Body["min_staff"])
	maxStaff, hasMax := intFromAny(rule.Body["max_staff"])
	if !hasMin && !hasMax {
		return nil
	}

	type key struct {
		date  time.Time
		block entity.BlockCode
	}
	groups := map[key][]uuid.UUID{}
	for _, a := range assignments {
		if a.TaskTypeCode != matchCode {
			continue
		}
		k := key{a.Date, a.Block}
		groups[k] = append(groups[k], a.StaffID)
	}

	var out []entity.Violation
	for k, staffIDs := range groups {
		date, block := k.date, k.block
		if hasMin && len(staffIDs) < minStaff {
			out = append(out, newRuleViolation(rule, "headcount shortfall for "+matchCode, &date, &block, staffIDs))
		}
		if hasMax && len(staffIDs) > maxStaff {
			out = append(out, newRuleViolation(rule, "headcount overflow for "+matchCode, &date, &block, staffIDs))
		}
	}
	return out
}

func evalAvailability(rule *entity.Rule, assignments []*entity.ScheduleAssignment, staffByID map[uuid.UUID]*entity.Staff) []entity.Violation {
	staffName, ok := stringFromAny(rule.Body["staff_name"])
	if !ok {
		return nil
	}
	blockedWeekdays := intSetFromAny(rule.Body["blocked_weekdays"])
	if len(blockedWeekdays) == 0 {
		return nil
	}
	blockedBlocks, hasBlockFilter := stringSetFromAny(rule.Body["blocked_blocks"])

	var out []entity.Violation
	for _, a := range assignments {
		if a.TaskTypeCode == "off" {
			continue
		}
		if !staffNamed(a.StaffID, staffName, staffByID) {
			continue
		}
		if !blockedWeekdays[entity.WeekdayMon0(a.Date)] {
			continue
		}
		if hasBlockFilter && !blockedBlocks[string(a.Block)] {
			continue
		}
		date, block := a.Date, a.Block
		out = append(out, newRuleViolation(rule, staffName+" assigned during a blocked availability window", &date, &block, []uuid.UUID{a.StaffID}))
	}
	return out
}

func evalPreference(rule *entity.Rule, assignments []*entity.ScheduleAssignment, staffByID map[uuid.UUID]*entity.Staff) []entity.Violation {
	preferredName, ok := stringFromAny(rule.Body["preferred_staff_name"])
	if !ok {
		return nil
	}
	taskCode, ok := stringFromAny(rule.Body["task_type_code"])
	if !ok {
		return nil
	}
	weekday, hasWeekday := intFromAny(rule.Body["weekday"])

	type key struct {
		date  time.Time
		block entity.BlockCode
	}
	groups := map[key][]uuid.UUID{}
	for _, a := range assignments {
		if a.TaskTypeCode != taskCode {
			continue
		}
		if hasWeekday && entity.WeekdayMon0(a.Date) != weekday {
			continue
		}
		k := key{a.Date, a.Block}
		groups[k] = append(groups[k], a.StaffID)
	}

	var out []entity.Violation
	for k, staffIDs := range groups {
		date, block := k.date, k.block
		if !anyStaffNamed(staffIDs, preferredName, staffByID) {
			// Preference violations are always soft/weight-scored, regardless
			// of the rule's own hard_or_soft field, so they never go through
			// newRuleViolation/severityFor.
			ruleID := rule.ID
			out = append(out, entity.Violation{
				Type:              entity.Soft,
				Severity:          rule.Weight,
				Description:       preferredName + " was not assigned to " + taskCode + " as preferred",
				AffectedDate:      &date,
				AffectedTimeBlock: &block,
				AffectedStaff:     staffIDs,
				RuleID:            &ruleID,
			})
		}
	}
	return out
}

func evalRecurring(rule *entity.Rule, assignments []*entity.ScheduleAssignment) []entity.Violation {
	weekdays := intSetFromAny(rule.Body["weekdays"])
	if len(weekdays) == 0 {
		return nil
	}
	taskCode, ok := stringFromAny(rule.Body["task_type_code"])
	if !ok {
		return nil
	}
	minStaff, ok := intFromAny(rule.Body["min_staff"])
	if !ok {
		return nil
	}
	timeBlocks, hasBlockFilter := stringSetFromAny(rule.Body["time_blocks"])

	type key struct {
		date  time.Time
		block entity.BlockCode
	}
	seen := map[key]bool{}
	groups := map[key][]uuid.UUID{}
	for _, a := range assignments {
		if !weekdays[entity.WeekdayMon0(a.Date)] {
			continue
		}
		if hasBlockFilter && !timeBlocks[string(a.Block)] {
			continue
		}
		k := key{a.Date, a.Block}
		seen[k] = true
		if a.TaskTypeCode == taskCode {
			groups[k] = append(groups[k], a.StaffID)
		}
	}

	var out []entity.Violation
	for k := range seen {
		date, block := k.date, k.block
		if len(groups[k]) < minStaff {
			out = append(out, newRuleViolation(rule, "recurring headcount shortfall for "+taskCode, &date, &block, groups[k]))
		}
	}
	return out
}

func evalSpecificDate(rule *entity.Rule, assignments []*entity.ScheduleAssignment, staffByID map[uuid.UUID]*entity.Staff) []entity.Violation {
	dateStr, ok := stringFromAny(rule.Body["date"])
	if !ok {
		return nil
	}
	targetDate, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil
	}
	taskCode, hasTask := stringFromAny(rule.Body["task_type_code"])
	minStaff, hasMin := intFromAny(rule.Body["min_staff"])
	requiredNames, _ := stringSliceFromAny(rule.Body["required_staff_names"])
	blockFilter, hasBlockFilter := stringFromAny(rule.Body["time_block"])

	var matched []*entity.ScheduleAssignment
	for _, a := range assignments {
		if !sameDate(a.Date, targetDate) {
			continue
		}
		if hasTask && a.TaskTypeCode != taskCode {
			continue
		}
		if hasBlockFilter && string(a.Block) != blockFilter {
			continue
		}
		matched = append(matched, a)
	}

	staffIDs := make([]uuid.UUID, 0, len(matched))
	for _, a := range matched {
		staffIDs = append(staffIDs, a.StaffID)
	}

	var out []entity.Violation
	if hasMin && len(matched) < minStaff {
		out = append(out, newRuleViolation(rule, "specific-date headcount shortfall", &targetDate, nil, staffIDs))
	}
	for _, name := range requiredNames {
		if !anyStaffNamed(staffIDs, name, staffByID) {
			out = append(out, newRuleViolation(rule, name+" was required on "+dateStr+" but not assigned", &targetDate, nil, staffIDs))
		}
	}
	return out
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
