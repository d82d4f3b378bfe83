package csp

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/clinicroster/scheduler/internal/eventslot"
	"github.com/clinicroster/scheduler/internal/snapshot"
)

const (
	shortfallWeight   = 500
	overworkThreshold = 5
	overworkWeight    = 200
)

var eventPriorityWeight = map[entity.EventPriority]int{
	entity.PriorityHigh:   800,
	entity.PriorityMedium: 400,
	entity.PriorityLow:    100,
}

// Model is the compiled problem: the variable grid plus enough
// bookkeeping for the extractor (C5) to turn a Solution back into
// AssignmentDrafts without re-deriving any of this wiring.
type Model struct {
	Backend Backend

	Dates     []time.Time
	Staff     []*entity.Staff
	TaskCodes []string // 1-based: TaskCodes[v-1] is the code for cell value v

	// CellGrid[s][d][b] is the CellRef for staff s, date index d, block index b.
	CellGrid [][][]CellRef
	// LockedCells holds every CellRef fixed by a locked assignment, so
	// the extractor can skip re-emitting them (they are already
	// authoritative in the store).
	LockedCells map[CellRef]bool

	Events                 []*entity.Event
	EventGroups            []EventGroupRef
	EventCandidatesByEvent [][]EventCandidate // parallel to Events/EventGroups
}

// Build compiles snap into a Model against backend, registering every
// hard constraint and soft penalty from §4.4. Returns an error only
// for structural problems that make the snapshot impossible to model
// (mapped by the caller to MODEL_INVALID), never for ordinary
// infeasibility — that is a solve outcome, not a build error.
func Build(snap *snapshot.Snapshot, backend Backend) (*Model, error) {
	numBlocks := len(entity.BlockOrder)
	numStaff := len(snap.Staff)
	numDays := len(snap.Dates)

	taskCodes := make([]string, 0, len(snap.TaskTypes))
	for code := range snap.TaskTypes {
		taskCodes = append(taskCodes, code)
	}
	sort.Strings(taskCodes)
	taskIndex := make(map[string]int, len(taskCodes))
	for i, code := range taskCodes {
		taskIndex[code] = i + 1 // 0 is reserved for "unassigned"
	}
	maxTask := len(taskCodes)

	m := &Model{
		Backend:     backend,
		Dates:       snap.Dates,
		Staff:       snap.Staff,
		TaskCodes:   taskCodes,
		LockedCells: map[CellRef]bool{},
	}

	// Variables: x[s,d,b], one per (staff, date, block).
	m.CellGrid = make([][][]CellRef, numStaff)
	for s := 0; s < numStaff; s++ {
		m.CellGrid[s] = make([][]CellRef, numDays)
		for d := 0; d < numDays; d++ {
			m.CellGrid[s][d] = make([]CellRef, numBlocks)
			for b := 0; b < numBlocks; b++ {
				m.CellGrid[s][d][b] = backend.NewCellVar(maxTask)
			}
		}
	}

	staffIndex := make(map[uuid.UUID]int, numStaff)
	for i, st := range snap.Staff {
		staffIndex[st.ID] = i
	}

	// Constraint 2 (skill prerequisites) and 3 (transport for visits):
	// forbid ineligible task values for the whole staff member up front.
	for s, st := range snap.Staff {
		var forbidden []int
		for _, code := range taskCodes {
			tt := snap.TaskTypes[code]
			if !staffQualifies(st, tt, snap) {
				forbidden = append(forbidden, taskIndex[code])
			}
		}
		if len(forbidden) == 0 {
			continue
		}
		for d := 0; d < numDays; d++ {
			for b := 0; b < numBlocks; b++ {
				backend.ForbidValues(m.CellGrid[s][d][b], forbidden)
			}
		}
	}

	// Constraint 4: part-time restriction.
	partTimeBlocks := map[entity.BlockCode]bool{
		entity.Block15: true, entity.Block16: true, entity.Block17: true, entity.Block18Plus: true,
	}
	for s, st := range snap.Staff {
		if st.EmploymentType != entity.EmploymentPartTime {
			continue
		}
		for d := 0; d < numDays; d++ {
			for b, block := range entity.BlockOrder {
				if partTimeBlocks[block] {
					backend.FixCell(m.CellGrid[s][d][b], 0)
				}
			}
		}
	}

	// Constraint 1: locked cells.
	lockedSet := map[[3]int]bool{}
	for _, a := range snap.LockedAssignments {
		s, ok := staffIndex[a.StaffID]
		if !ok {
			continue
		}
		d := snap.DateIndex(a.Date)
		if d < 0 {
			continue
		}
		b := entity.BlockIndex(a.Block)
		if b < 0 {
			continue
		}
		value := 0
		if idx, ok := taskIndex[a.TaskTypeCode]; ok {
			value = idx
		}
		ref := m.CellGrid[s][d][b]
		backend.FixCell(ref, value)
		m.LockedCells[ref] = true
		lockedSet[[3]int{s, d, b}] = true
	}

	// Constraint 10: rule-derived hard headcount.
	for _, rule := range snap.Rules {
		if rule.TemplateType != entity.TemplateHeadcount || rule.HardOrSoft != entity.Hard {
			continue
		}
		code, minStaff, ok := parseHeadcountRule(rule.Body)
		if !ok {
			continue
		}
		tt, ok := snap.TaskTypes[code]
		if !ok {
			continue
		}
		idx := taskIndex[code]
		for d, date := range snap.Dates {
			if !entity.IsClinicWeekday(date) {
				continue
			}
			for _, block := range tt.DefaultBlocks {
				b := entity.BlockIndex(block)
				if b < 0 {
					continue
				}
				cells := columnCells(m.CellGrid, d, b)
				backend.AddHeadcountFloor(cells, idx, minStaff)
			}
		}
	}

	// Soft: min-staff shortfall.
	for _, code := range taskCodes {
		tt := snap.TaskTypes[code]
		if tt.MinStaff <= 0 {
			continue
		}
		idx := taskIndex[code]
		for d, date := range snap.Dates {
			if !entity.IsClinicWeekday(date) {
				continue
			}
			for _, block := range tt.DefaultBlocks {
				b := entity.BlockIndex(block)
				if b < 0 {
					continue
				}
				cells := columnCells(m.CellGrid, d, b)
				backend.AddShortfallPenalty(cells, idx, tt.MinStaff, shortfallWeight)
			}
		}
	}

	// Soft: daily overwork, excluding the lunch block.
	lunchIdx := entity.BlockIndex(entity.BlockLunch)
	for s := 0; s < numStaff; s++ {
		for d := 0; d < numDays; d++ {
			var cells []CellRef
			for b := 0; b < numBlocks; b++ {
				if b == lunchIdx {
					continue
				}
				cells = append(cells, m.CellGrid[s][d][b])
			}
			backend.AddOverworkPenalty(cells, overworkThreshold, overworkWeight)
		}
	}

	// Events: e[ev,s,d,b] realized as one candidate-selection group per event.
	resourceGroups := map[string]map[[2]int][]ResourceMember{}
	for _, ev := range snap.Events {
		slots := eventslot.AllowedSlots(ev, snap.Dates)
		var candidates []EventCandidate
		for s, st := range snap.Staff {
			if !staffHasAllSkills(st, ev.RequiredSkills) {
				continue // constraint 8: event skills
			}
			for _, slot := range slots {
				spanBlocks := eventslot.SpanIndices(slot.BlockIndex, ev.DurationHours)
				if len(spanBlocks) == 0 {
					continue
				}
				// Constraint 7: only the non-locked blocks in the span are
				// forced to 0; a locked block keeps its own fixed value and
				// is simply left out of the zeroing set.
				cells := make([]CellRef, 0, len(spanBlocks))
				for _, b := range spanBlocks {
					if lockedSet[[3]int{s, slot.DayIndex, b}] {
						continue
					}
					cells = append(cells, m.CellGrid[s][slot.DayIndex][b])
				}
				candidates = append(candidates, EventCandidate{
					Staff:         s,
					DayIndex:      slot.DayIndex,
					BlockIndex:    slot.BlockIndex,
					SpanBlocks:    spanBlocks,
					Cells:         cells,
					ResourceTypes: ev.RequiredResources,
				})
			}
		}

		required := ev.Priority == entity.PriorityRequired
		weight := eventPriorityWeight[ev.Priority]
		groupRef := backend.NewEventGroup(required, weight, candidates)

		m.Events = append(m.Events, ev)
		m.EventGroups = append(m.EventGroups, groupRef)
		m.EventCandidatesByEvent = append(m.EventCandidatesByEvent, candidates)

		for idx, cand := range candidates {
			for _, rtype := range cand.ResourceTypes {
				for _, b := range cand.SpanBlocks {
					key := [2]int{cand.DayIndex, b}
					if resourceGroups[rtype] == nil {
						resourceGroups[rtype] = map[[2]int][]ResourceMember{}
					}
					resourceGroups[rtype][key] = append(resourceGroups[rtype][key], ResourceMember{Group: groupRef, CandidateIdx: idx})
				}
			}
		}
	}

	// Constraint 9: resource capacity, one constraint per (resource type, day, block).
	for rtype, byDayBlock := range resourceGroups {
		capacity := 0
		for _, r := range snap.ResourcesByType[rtype] {
			capacity += r.Capacity
		}
		for _, members := range byDayBlock {
			backend.AddResourceCapacity(members, capacity)
		}
	}

	return m, nil
}

func staffQualifies(st *entity.Staff, tt *entity.TaskType, snap *snapshot.Snapshot) bool {
	for _, skill := range tt.RequiredSkills {
		if !snap.HasSkill(st.ID, skill) {
			return false
		}
	}
	if tt.LocationType == entity.LocationVisit {
		if tt.RequiresResource("car") && !st.CanDrive {
			return false
		}
		if tt.RequiresResource("bicycle") && !st.CanBicycle {
			return false
		}
	}
	return true
}

func staffHasAllSkills(st *entity.Staff, skills []string) bool {
	for _, skill := range skills {
		if !st.HasSkill(skill) {
			return false
		}
	}
	return true
}

func columnCells(grid [][][]CellRef, d, b int) []CellRef {
	cells := make([]CellRef, 0, len(grid))
	for s := range grid {
		cells = append(cells, grid[s][d][b])
	}
	return cells
}

// parseHeadcountRule reads the {task_type_code, min_staff} shape a
// headcount rule body carries, mirroring the template C8 dispatches on.
func parseHeadcountRule(body map[string]interface{}) (code string, minStaff int, ok bool) {
	code, ok = body["task_type_code"].(string)
	if !ok || code == "" {
		return "", 0, false
	}
	n, ok := numberFrom(body["min_staff"])
	if !ok {
		return "", 0, false
	}
	return code, n, true
}

func numberFrom(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
