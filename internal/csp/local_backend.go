package csp

import (
	"context"
	"math"
	"math/rand"
)

type cellVar struct {
	maxTask   int
	fixed     bool
	fixedVal  int
	forbidden map[int]bool
}

type eventGroup struct {
	required   bool
	weight     int
	candidates []EventCandidate
}

type headcountFloor struct {
	cells     []CellRef
	taskValue int
	minStaff  int
}

type shortfallPenalty struct {
	cells     []CellRef
	taskValue int
	minStaff  int
	weight    int
}

type overworkPenalty struct {
	cells     []CellRef
	threshold int
	weight    int
}

type resourceCapacity struct {
	members  []ResourceMember
	capacity int
}

// NewLocalBackend returns the shipped Backend implementation: a
// randomized-construction plus simulated-annealing local search. See
// the package doc and DESIGN.md for why no CP-SAT/ILP binding is used.
func NewLocalBackend() Backend {
	return &localBackend{}
}

type localBackend struct {
	cells         []*cellVar
	groups        []*eventGroup
	floors        []headcountFloor
	shortfalls    []shortfallPenalty
	overworks     []overworkPenalty
	resourceCaps  []resourceCapacity
}

func (b *localBackend) NewCellVar(maxTask int) CellRef {
	b.cells = append(b.cells, &cellVar{maxTask: maxTask, forbidden: map[int]bool{}})
	return CellRef(len(b.cells) - 1)
}

func (b *localBackend) FixCell(ref CellRef, value int) {
	c := b.cells[ref]
	c.fixed = true
	c.fixedVal = value
}

func (b *localBackend) ForbidValues(ref CellRef, values []int) {
	c := b.cells[ref]
	for _, v := range values {
		c.forbidden[v] = true
	}
}

func (b *localBackend) NewEventGroup(required bool, weight int, candidates []EventCandidate) EventGroupRef {
	b.groups = append(b.groups, &eventGroup{required: required, weight: weight, candidates: candidates})
	return EventGroupRef(len(b.groups) - 1)
}

func (b *localBackend) AddResourceCapacity(members []ResourceMember, capacity int) {
	b.resourceCaps = append(b.resourceCaps, resourceCapacity{members: members, capacity: capacity})
}

func (b *localBackend) AddHeadcountFloor(cells []CellRef, taskValue, minStaff int) {
	b.floors = append(b.floors, headcountFloor{cells: cells, taskValue: taskValue, minStaff: minStaff})
}

func (b *localBackend) AddShortfallPenalty(cells []CellRef, taskValue, minStaff, weight int) {
	b.shortfalls = append(b.shortfalls, shortfallPenalty{cells: cells, taskValue: taskValue, minStaff: minStaff, weight: weight})
}

func (b *localBackend) AddOverworkPenalty(cells []CellRef, threshold, weight int) {
	b.overworks = append(b.overworks, overworkPenalty{cells: cells, threshold: threshold, weight: weight})
}

func (b *localBackend) allowedValues(ref CellRef) []int {
	c := b.cells[ref]
	out := make([]int, 0, c.maxTask+1)
	for v := 0; v <= c.maxTask; v++ {
		if !c.forbidden[v] {
			out = append(out, v)
		}
	}
	return out
}

func (b *localBackend) randomMutableCell(rng *rand.Rand) int {
	if len(b.cells) == 0 {
		return -1
	}
	for tries := 0; tries < 20; tries++ {
		i := rng.Intn(len(b.cells))
		if !b.cells[i].fixed {
			return i
		}
	}
	return -1
}

// reservedCounts tallies, per cell, how many selected event candidates
// claim it; a count above 1 is a placement conflict between two events.
func (b *localBackend) reservedCounts(selections []int) []int {
	counts := make([]int, len(b.cells))
	for gi, sel := range selections {
		if sel < 0 {
			continue
		}
		for _, c := range b.groups[gi].candidates[sel].Cells {
			counts[c]++
		}
	}
	return counts
}

// evaluate scores one candidate state. hard counts every broken hard
// constraint (weighted by how far off it is); soft is the weighted sum
// of the three penalty terms, with weightScale applied per §4.4's
// optional preset weight-scaling enhancement.
func (b *localBackend) evaluate(cellValues []int, selections []int, weightScale float64) (hard int, soft float64) {
	reserved := b.reservedCounts(selections)
	effective := func(ref CellRef) int {
		if reserved[ref] > 0 {
			return 0
		}
		if b.cells[ref].fixed {
			return b.cells[ref].fixedVal
		}
		return cellValues[ref]
	}

	for _, c := range reserved {
		if c > 1 {
			hard += c - 1
		}
	}

	for gi, g := range b.groups {
		if g.required && selections[gi] < 0 {
			hard++
		}
	}

	for _, rc := range b.resourceCaps {
		count := 0
		for _, m := range rc.members {
			if selections[m.Group] == m.CandidateIdx {
				count++
			}
		}
		if count > rc.capacity {
			hard += count - rc.capacity
		}
	}

	for _, f := range b.floors {
		count := 0
		for _, c := range f.cells {
			if effective(c) == f.taskValue {
				count++
			}
		}
		if count < f.minStaff {
			hard += f.minStaff - count
		}
	}

	for _, s := range b.shortfalls {
		count := 0
		for _, c := range s.cells {
			if effective(c) == s.taskValue {
				count++
			}
		}
		if count < s.minStaff {
			soft += float64(s.minStaff-count) * float64(s.weight) * weightScale
		}
	}

	for _, o := range b.overworks {
		worked := 0
		for _, c := range o.cells {
			if effective(c) != 0 {
				worked++
			}
		}
		if worked > o.threshold {
			soft += float64(worked-o.threshold) * float64(o.weight) * weightScale
		}
	}

	for gi, g := range b.groups {
		if !g.required && selections[gi] < 0 {
			soft += float64(g.weight) * weightScale
		}
	}

	return hard, soft
}

const hardPenaltyScale = 1_000_000.0

func objectiveOf(hard int, soft float64) float64 {
	return float64(hard)*hardPenaltyScale + soft
}

func acceptMove(newObj, curObj, temperature float64, rng *rand.Rand) bool {
	if newObj <= curObj {
		return true
	}
	if temperature <= 0 {
		return false
	}
	return rng.Float64() < math.Exp((curObj-newObj)/temperature)
}

func (b *localBackend) Solve(ctx context.Context, opts SolveOptions) *Solution {
	weightScale := opts.WeightScale
	if weightScale <= 0 {
		weightScale = 1.0
	}
	seed := opts.Seed
	if seed == 0 {
		seed = 1
	}
	rng := rand.New(rand.NewSource(seed))

	cellValues := make([]int, len(b.cells))
	for i, c := range b.cells {
		if c.fixed {
			cellValues[i] = c.fixedVal
		}
	}
	selections := make([]int, len(b.groups))
	for i := range selections {
		selections[i] = -1
	}

	curHard, curSoft := b.evaluate(cellValues, selections, weightScale)
	curObj := objectiveOf(curHard, curSoft)

	bestCellValues := append([]int(nil), cellValues...)
	bestSelections := append([]int(nil), selections...)
	bestHard, bestSoft, bestObj := curHard, curSoft, curObj

	maxSeconds := opts.MaxTimeSeconds
	if maxSeconds <= 0 {
		maxSeconds = 1
	}
	// The move budget is a pure function of maxSeconds and problem size,
	// never of measured wall-clock time: two Solve calls against the same
	// snapshot and seed must execute the same number of moves regardless
	// of how fast the host is, per spec.md §8's same-seed-same-output
	// property. movesPerSecond is a fixed nominal rate, not a measurement.
	const movesPerSecond = 20000
	problemSize := len(b.cells) + len(b.groups) + 1
	maxIterations := int(maxSeconds*movesPerSecond) * problemSize
	temperature := 10000.0
	const cooling = 0.9995

	iterations := 0
search:
	for iterations < maxIterations {
		select {
		case <-ctx.Done():
			break search
		default:
		}
		iterations++

		if rng.Float64() < 0.6 || len(b.groups) == 0 {
			i := b.randomMutableCell(rng)
			if i < 0 {
				continue
			}
			ref := CellRef(i)
			allowed := b.allowedValues(ref)
			if len(allowed) == 0 {
				continue
			}
			old := cellValues[ref]
			cellValues[ref] = allowed[rng.Intn(len(allowed))]
			h, s := b.evaluate(cellValues, selections, weightScale)
			obj := objectiveOf(h, s)
			if acceptMove(obj, curObj, temperature, rng) {
				curHard, curSoft, curObj = h, s, obj
			} else {
				cellValues[ref] = old
			}
		} else {
			gi := rng.Intn(len(b.groups))
			old := selections[gi]
			choices := len(b.groups[gi].candidates)
			newSel := rng.Intn(choices+1) - 1
			selections[gi] = newSel
			h, s := b.evaluate(cellValues, selections, weightScale)
			obj := objectiveOf(h, s)
			if acceptMove(obj, curObj, temperature, rng) {
				curHard, curSoft, curObj = h, s, obj
			} else {
				selections[gi] = old
			}
		}

		if curObj < bestObj {
			bestObj, bestHard, bestSoft = curObj, curHard, curSoft
			copy(bestCellValues, cellValues)
			copy(bestSelections, selections)
		}

		temperature *= cooling
		if temperature < 0.01 {
			temperature = 0.01
		}
	}

	status := StatusFeasible
	switch {
	case iterations == 0:
		status = StatusUnknown
	case bestHard > 0:
		status = StatusInfeasible
	case bestSoft == 0:
		status = StatusOptimal
	}

	reserved := b.reservedCounts(bestSelections)
	effectiveValues := make([]int, len(b.cells))
	for i := range b.cells {
		switch {
		case reserved[i] > 0:
			effectiveValues[i] = 0
		case b.cells[i].fixed:
			effectiveValues[i] = b.cells[i].fixedVal
		default:
			effectiveValues[i] = bestCellValues[i]
		}
	}

	sol := &Solution{
		Status:     status,
		CellValues: effectiveValues,
		Selections: bestSelections,
	}
	if status.Feasible() {
		obj := bestSoft
		sol.ObjectiveValue = &obj
	}
	return sol
}
