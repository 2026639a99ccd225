// Package pairs turns predicted values into two-character digit pairs.
package pairs

// Expand returns every ordered concatenation value[a]+value[b] for a, b in
// [0, len(value)). Repeats are kept: they weight the later frequency count.
// Values shorter than two characters produce nothing.
func Expand(value string) []string {
	n := len(value)
	if n < 2 {
		return nil
	}

	out := make([]string, 0, n*n)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			out = append(out, string([]byte{value[a], value[b]}))
		}
	}
	return out
}

// ExpandAll expands each value, keeping one slice per value
func ExpandAll(values []string) [][]string {
	sets := make([][]string, 0, len(values))
	for _, v := range values {
		if len(v) < 2 {
			continue
		}
		sets = append(sets, Expand(v))
	}
	return sets
}

// Flatten joins pair sets into one sequence
func Flatten(sets [][]string) []string {
	var out []string
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}
