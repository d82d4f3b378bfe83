// Package solver is C5: it wraps internal/csp to run one or many
// solves against a snapshot, maps the backend's outcome onto the
// closed status vocabulary, and extracts assignment drafts from a
// feasible solution.
package solver

import (
	"context"
	"time"

	"github.com/clinicroster/scheduler/internal/csp"
	"github.com/clinicroster/scheduler/internal/entity"
	"github.com/clinicroster/scheduler/internal/snapshot"
)

// Status is the closed outcome vocabulary for a solve, extending
// csp.Status with NO_STAFF, the one outcome that short-circuits
// before any model is built.
type Status string

const (
	StatusOptimal      Status = "OPTIMAL"
	StatusFeasible     Status = "FEASIBLE"
	StatusInfeasible   Status = "INFEASIBLE"
	StatusModelInvalid Status = "MODEL_INVALID"
	StatusUnknown      Status = "UNKNOWN"
	StatusNoStaff      Status = "NO_STAFF"
)

// Result is one solve's outcome: status, objective, timing, and the
// assignment drafts ready for internal/applier.
type Result struct {
	Status         Status
	ObjectiveValue *float64
	WallTimeSecs   float64
	Assignments    []entity.AssignmentDraft
	NumStaff       int
	NumDates       int
	NumEvents      int
}

// Solve compiles and solves snap once under the given time budget,
// seed, and soft-penalty weight scale.
func Solve(ctx context.Context, snap *snapshot.Snapshot, maxTimeSeconds float64, seed int64, weightScale float64) (*Result, error) {
	if len(snap.Staff) == 0 {
		return &Result{Status: StatusNoStaff, NumDates: len(snap.Dates), NumEvents: len(snap.Events)}, nil
	}

	backend := csp.NewLocalBackend()
	model, err := csp.Build(snap, backend)
	if err != nil {
		return &Result{Status: StatusModelInvalid, NumStaff: len(snap.Staff), NumDates: len(snap.Dates), NumEvents: len(snap.Events)}, nil
	}

	start := time.Now()
	sol := backend.Solve(ctx, csp.SolveOptions{MaxTimeSeconds: maxTimeSeconds, Seed: seed, WeightScale: weightScale})
	wall := time.Since(start).Seconds()

	result := &Result{
		Status:         Status(sol.Status),
		ObjectiveValue: sol.ObjectiveValue,
		WallTimeSecs:   wall,
		NumStaff:       len(snap.Staff),
		NumDates:       len(snap.Dates),
		NumEvents:      len(snap.Events),
	}
	if sol.Status.Feasible() {
		result.Assignments = extract(model, sol)
	}
	return result, nil
}

// MultiSolve iterates presets A, B, C against the same snapshot and
// returns one summary plus one assignment set per preset, in order.
func MultiSolve(ctx context.Context, snap *snapshot.Snapshot, maxTimeSecondsPerPreset float64) ([]entity.SolverRunSummary, map[string][]entity.AssignmentDraft, error) {
	summaries := make([]entity.SolverRunSummary, 0, 3)
	solutions := make(map[string][]entity.AssignmentDraft, 3)

	for _, preset := range csp.Presets() {
		res, err := Solve(ctx, snap, maxTimeSecondsPerPreset, preset.Seed, preset.WeightScale)
		if err != nil {
			return nil, nil, err
		}
		summaries = append(summaries, entity.SolverRunSummary{
			Preset:         preset.Code,
			Status:         string(res.Status),
			ObjectiveValue: res.ObjectiveValue,
			NumAssignments: len(res.Assignments),
		})
		solutions[preset.Code] = res.Assignments

		select {
		case <-ctx.Done():
			return summaries, solutions, nil
		default:
		}
	}
	return summaries, solutions, nil
}

// extract walks x skipping locked cells (already authoritative), then
// walks the event selections, emitting one draft per span block.
func extract(m *csp.Model, sol *csp.Solution) []entity.AssignmentDraft {
	var drafts []entity.AssignmentDraft

	for s, staff := range m.Staff {
		for d, date := range m.Dates {
			for b, block := range entity.BlockOrder {
				ref := m.CellGrid[s][d][b]
				if m.LockedCells[ref] {
					continue
				}
				val := sol.CellValues[ref]
				if val == 0 {
					continue
				}
				drafts = append(drafts, entity.AssignmentDraft{
					StaffID:      staff.ID,
					Date:         date,
					Block:        block,
					TaskTypeCode: m.TaskCodes[val-1],
					Source:       entity.AssignmentSourceSolver,
				})
			}
		}
	}

	for i, ev := range m.Events {
		sel := sol.Selections[i]
		if sel < 0 {
			continue
		}
		cand := m.EventCandidatesByEvent[i][sel]
		staff := m.Staff[cand.Staff]
		evID := ev.ID
		for _, b := range cand.SpanBlocks {
			drafts = append(drafts, entity.AssignmentDraft{
				StaffID:      staff.ID,
				Date:         m.Dates[cand.DayIndex],
				Block:        entity.BlockOrder[b],
				TaskTypeCode: ev.TypeCode,
				Source:       entity.AssignmentSourceSolver,
				EventID:      &evID,
			})
		}
	}

	return drafts
}
