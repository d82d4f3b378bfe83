package ruleeval

// Parsing helpers for untyped rule bodies. Every dispatcher treats a
// missing or mistyped key as "rule produces no violations", per §6's
// "missing required keys cause the rule to produce no violations
// (silent)".

func stringFromAny(raw interface{}) (string, bool) {
	s, ok := raw.(string)
	return s, ok
}

func intFromAny(raw interface{}) (int, bool) {
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

func intSetFromAny(raw interface{}) map[int]bool {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	set := make(map[int]bool, len(items))
	for _, item := range items {
		if n, ok := intFromAny(item); ok {
			set[n] = true
		}
	}
	return set
}

func stringSetFromAny(raw interface{}) (map[string]bool, bool) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, false
	}
	set := make(map[string]bool, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			set[s] = true
		}
	}
	return set, true
}

func stringSliceFromAny(raw interface{}) ([]string, bool) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}
