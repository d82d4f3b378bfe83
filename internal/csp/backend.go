package csp

import "context"

// Backend is the narrow facade the model builder emits a problem
// against. A conforming implementation need only support boolean/int
// variables, linear constraints over them, and weighted-sum
// minimization — the same primitives a CP-SAT or ILP binding would
// expose, per the design note in §9. localBackend is the only
// implementation shipped; nothing in the reference corpus binds an
// actual CP-SAT/MIP solver, so this facade exists to keep the model
// builder honest about what it actually needs rather than coupling it
// to one engine's API.
type Backend interface {
	// NewCellVar allocates an x[s,d,b] variable with domain [0, maxTask].
	NewCellVar(maxTask int) CellRef

	// FixCell pins a cell to value for the lifetime of the solve
	// (locked assignments, part-time restricted blocks).
	FixCell(ref CellRef, value int)

	// ForbidValues removes the listed task indices from ref's domain
	// (skill prerequisites, transport-for-visits).
	ForbidValues(ref CellRef, values []int)

	// NewEventGroup registers one event's candidate placements.
	// required events must select a candidate for the model to be
	// feasible; weight is the unassigned-event soft penalty applied
	// when no candidate is selected and the event is not required.
	NewEventGroup(required bool, weight int, candidates []EventCandidate) EventGroupRef

	// AddResourceCapacity caps how many of the given (group, candidate
	// index) pairs may be selected simultaneously — they all consume
	// one unit of the same resource type at the same (day, block).
	AddResourceCapacity(members []ResourceMember, capacity int)

	// AddHeadcountFloor is a hard constraint: among cells, the count
	// assigned taskValue must be >= minStaff.
	AddHeadcountFloor(cells []CellRef, taskValue, minStaff int)

	// AddShortfallPenalty is the min-staff-shortfall soft term.
	AddShortfallPenalty(cells []CellRef, taskValue, minStaff, weight int)

	// AddOverworkPenalty is the daily-overwork soft term; cells must
	// already exclude the lunch block for the (staff, day) it covers.
	AddOverworkPenalty(cells []CellRef, threshold, weight int)

	// Solve runs the search under opts and returns the frozen result.
	Solve(ctx context.Context, opts SolveOptions) *Solution
}

// ResourceMember names one candidate placement that consumes a unit of
// a capacity-constrained resource.
type ResourceMember struct {
	Group        EventGroupRef
	CandidateIdx int
}
