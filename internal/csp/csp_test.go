package csp

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/clinicroster/scheduler/internal/snapshot"
)

func sept(day int) time.Time {
	return time.Date(2026, 9, day, 0, 0, 0, 0, time.UTC)
}

func baseSnapshot(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	dates := make([]time.Time, 3)
	for i := range dates {
		dates[i] = sept(i + 1) // Sept 1-3 2026 are Tue/Wed/Thu
	}
	consult := &entity.TaskType{
		Code: "consult", DisplayName: "Consult", MinStaff: 1,
		DefaultBlocks: []entity.BlockCode{entity.BlockAM},
		RequiredSkills: []string{"triage"}, LocationType: entity.LocationInClinic, IsActive: true,
	}
	return &snapshot.Snapshot{
		Schedule: &entity.Schedule{ID: uuid.New(), YearMonth: "2026-09", Status: entity.ScheduleDraft},
		Staff: []*entity.Staff{
			{ID: uuid.New(), Name: "Skilled", EmploymentType: entity.EmploymentFullTime, SkillCodes: []string{"triage"}, IsActive: true},
			{ID: uuid.New(), Name: "Unskilled", EmploymentType: entity.EmploymentFullTime, IsActive: true},
			{ID: uuid.New(), Name: "Parttime", EmploymentType: entity.EmploymentPartTime, SkillCodes: []string{"triage"}, IsActive: true},
		},
		StaffSkills:     map[uuid.UUID][]string{},
		TaskTypes:       map[string]*entity.TaskType{"consult": consult},
		ResourcesByType: map[string][]*entity.Resource{},
		Dates:           dates,
	}
}

func TestBuildForbidsUnskilledStaffFromConsult(t *testing.T) {
	snap := baseSnapshot(t)
	backend := NewLocalBackend()
	m, err := Build(snap, backend)
	require.NoError(t, err)

	consultIdx := 1 // only task type, sorted
	require.Equal(t, []string{"consult"}, m.TaskCodes)

	unskilledStaffIdx := 1
	sol := backend.Solve(context.Background(), SolveOptions{MaxTimeSeconds: 0.2, Seed: 42})
	for d := range snap.Dates {
		for b := range entity.BlockOrder {
			ref := m.CellGrid[unskilledStaffIdx][d][b]
			assert.NotEqual(t, consultIdx, sol.CellValues[ref])
		}
	}
}

func TestBuildForcesPartTimeLateBlocksToZero(t *testing.T) {
	snap := baseSnapshot(t)
	backend := NewLocalBackend()
	m, err := Build(snap, backend)
	require.NoError(t, err)

	partTimeIdx := 2
	sol := backend.Solve(context.Background(), SolveOptions{MaxTimeSeconds: 0.2, Seed: 42})
	for _, block := range []entity.BlockCode{entity.Block15, entity.Block16, entity.Block17, entity.Block18Plus} {
		b := entity.BlockIndex(block)
		for d := range snap.Dates {
			ref := m.CellGrid[partTimeIdx][d][b]
			assert.Equal(t, 0, sol.CellValues[ref])
		}
	}
}

func TestBuildFixesLockedCellAndRecordsIt(t *testing.T) {
	snap := baseSnapshot(t)
	staffID := snap.Staff[0].ID
	snap.LockedAssignments = []*entity.ScheduleAssignment{
		{StaffID: staffID, Date: sept(1), Block: entity.BlockAM, TaskTypeCode: "consult", IsLocked: true},
	}
	backend := NewLocalBackend()
	m, err := Build(snap, backend)
	require.NoError(t, err)

	ref := m.CellGrid[0][0][entity.BlockIndex(entity.BlockAM)]
	assert.True(t, m.LockedCells[ref])

	sol := backend.Solve(context.Background(), SolveOptions{MaxTimeSeconds: 0.1, Seed: 42})
	assert.Equal(t, 1, sol.CellValues[ref]) // consult is task index 1
}

func TestRequiredEventGetsPlacedWhenFeasible(t *testing.T) {
	snap := baseSnapshot(t)
	snap.Events = []*entity.Event{
		{
			ID: uuid.New(), TypeCode: "consult", DurationHours: 3,
			TimeConstraintType: entity.TimeConstraintFixed,
			TimeConstraintData: map[string]interface{}{"date": "2026-09-01", "start": 9},
			RequiredSkills:      []string{"triage"},
			Priority:            entity.PriorityRequired,
			Status:              entity.EventUnassigned,
		},
	}
	backend := NewLocalBackend()
	_, err := Build(snap, backend)
	require.NoError(t, err)

	sol := backend.Solve(context.Background(), SolveOptions{MaxTimeSeconds: 1.5, Seed: 42})
	require.Len(t, sol.Selections, 1)
	assert.GreaterOrEqual(t, sol.Selections[0], 0, "required event should find a candidate among skilled staff")
	assert.True(t, sol.Status.Feasible())
}

func TestUnassignedOptionalEventIsPenalizedNotForbidden(t *testing.T) {
	snap := baseSnapshot(t)
	snap.Events = []*entity.Event{
		{
			ID: uuid.New(), TypeCode: "consult", DurationHours: 1,
			TimeConstraintType: entity.TimeConstraintFixed,
			TimeConstraintData: map[string]interface{}{"date": "2026-09-01", "start": 18},
			RequiredSkills:      []string{"does-not-exist"}, // unsatisfiable -> zero candidates
			Priority:            entity.PriorityLow,
			Status:              entity.EventUnassigned,
		},
	}
	backend := NewLocalBackend()
	m, err := Build(snap, backend)
	require.NoError(t, err)
	require.Empty(t, m.EventCandidatesByEvent[0])

	sol := backend.Solve(context.Background(), SolveOptions{MaxTimeSeconds: 0.2, Seed: 42})
	assert.Equal(t, -1, sol.Selections[0])
	// low priority, unsatisfiable, but not required: must not block feasibility.
	assert.True(t, sol.Status.Feasible())
}

func TestPresetsHaveDistinctSeedsAndLabels(t *testing.T) {
	presets := Presets()
	require.Len(t, presets, 3)
	seen := map[int64]bool{}
	for _, p := range presets {
		assert.False(t, seen[p.Seed], "seed %d reused", p.Seed)
		seen[p.Seed] = true
		assert.NotEmpty(t, p.Label)
	}
}

// captureBackend wraps a real Backend and records the arguments of
// every AddHeadcountFloor/AddResourceCapacity call, so Build()'s
// constraint wiring can be asserted without driving a full Solve.
type captureBackend struct {
	Backend
	headcountCalls []capturedHeadcountFloor
	resourceCalls  []capturedResourceCapacity
}

type capturedHeadcountFloor struct {
	cells     []CellRef
	taskValue int
	minStaff  int
}

type capturedResourceCapacity struct {
	members  []ResourceMember
	capacity int
}

func newCaptureBackend() *captureBackend {
	return &captureBackend{Backend: NewLocalBackend()}
}

func (c *captureBackend) AddHeadcountFloor(cells []CellRef, taskValue, minStaff int) {
	c.headcountCalls = append(c.headcountCalls, capturedHeadcountFloor{cells: cells, taskValue: taskValue, minStaff: minStaff})
	c.Backend.AddHeadcountFloor(cells, taskValue, minStaff)
}

func (c *captureBackend) AddResourceCapacity(members []ResourceMember, capacity int) {
	c.resourceCalls = append(c.resourceCalls, capturedResourceCapacity{members: members, capacity: capacity})
	c.Backend.AddResourceCapacity(members, capacity)
}

func TestBuildWiresHardHeadcountRuleOntoBackend(t *testing.T) {
	snap := baseSnapshot(t)
	snap.Rules = []*entity.Rule{
		{
			ID: uuid.New(), TemplateType: entity.TemplateHeadcount, HardOrSoft: entity.Hard, Weight: 1,
			Body: map[string]interface{}{"task_type_code": "consult", "min_staff": 2},
		},
	}
	backend := newCaptureBackend()
	m, err := Build(snap, backend)
	require.NoError(t, err)

	require.NotEmpty(t, backend.headcountCalls, "hard headcount rule must register a floor constraint")
	consultIdx := 0
	for i, code := range m.TaskCodes {
		if code == "consult" {
			consultIdx = i + 1 // 0 is reserved for "unassigned"
		}
	}
	for _, call := range backend.headcountCalls {
		assert.Equal(t, consultIdx, call.taskValue)
		assert.Equal(t, 2, call.minStaff)
		assert.Len(t, call.cells, len(snap.Staff), "one cell per staff member in the (day,block) column")
	}
	// one floor per clinic-weekday column the task type runs in
	assert.Len(t, backend.headcountCalls, len(snap.Dates))
}

func TestBuildWiresResourceCapacityOntoBackend(t *testing.T) {
	snap := baseSnapshot(t)
	snap.ResourcesByType = map[string][]*entity.Resource{
		"exam-room": {{ID: uuid.New(), Type: "exam-room", Capacity: 1, IsActive: true}},
	}
	snap.Events = []*entity.Event{
		{ID: uuid.New(), TypeCode: "consult", DurationHours: 1,
			TimeConstraintType: entity.TimeConstraintFixed,
			TimeConstraintData: map[string]interface{}{"date": "2026-09-01", "start": 9},
			RequiredResources:  []string{"exam-room"},
			Priority:           entity.PriorityMedium, Status: entity.EventUnassigned},
		{ID: uuid.New(), TypeCode: "consult", DurationHours: 1,
			TimeConstraintType: entity.TimeConstraintFixed,
			TimeConstraintData: map[string]interface{}{"date": "2026-09-01", "start": 9},
			RequiredResources:  []string{"exam-room"},
			Priority:           entity.PriorityMedium, Status: entity.EventUnassigned},
	}
	backend := newCaptureBackend()
	_, err := Build(snap, backend)
	require.NoError(t, err)

	require.NotEmpty(t, backend.resourceCalls, "two events sharing a capacity-1 resource must register a capacity constraint")
	for _, call := range backend.resourceCalls {
		assert.Equal(t, 1, call.capacity)
		assert.NotEmpty(t, call.members)
	}
}

func TestSolveIsDeterministicForSameSeed(t *testing.T) {
	snap := baseSnapshot(t)

	run := func() *Solution {
		backend := NewLocalBackend()
		_, err := Build(snap, backend)
		require.NoError(t, err)
		return backend.Solve(context.Background(), SolveOptions{MaxTimeSeconds: 0.3, Seed: 7})
	}

	first := run()
	second := run()
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.CellValues, second.CellValues)
	assert.Equal(t, first.Selections, second.Selections)
	assert.Equal(t, first.ObjectiveValue, second.ObjectiveValue)
}
