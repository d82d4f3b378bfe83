package csp

// Preset is one named solver configuration. The model structure is
// identical across presets; variety comes from the seed plus the
// optional weight-scaling enhancement mentioned in §4.4.
type Preset struct {
	Code        string
	Label       string
	Seed        int64
	WeightScale float64
}

// Presets returns A, B, C in order. A keeps the default penalty
// balance. B dampens the soft weights so the search spends its budget
// chasing hard feasibility instead of trading off against penalties.
// C amplifies them so it pushes harder on minimizing shortfalls,
// overwork, and unassigned events at the cost of wandering further
// from the first feasible point it finds.
func Presets() []Preset {
	return []Preset{
		{Code: "A", Label: "均等配分", Seed: 42, WeightScale: 1.0},
		{Code: "B", Label: "ハード制約厳守", Seed: 137, WeightScale: 0.2},
		{Code: "C", Label: "ソフト制約最大化", Seed: 271, WeightScale: 2.0},
	}
}
