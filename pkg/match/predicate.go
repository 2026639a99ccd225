// Package match holds the cell predicates used to compare table values
// against pattern elements.
package match

import "strings"

// Predicate reports whether a cell satisfies a pattern element
type Predicate func(cell, element string) bool

// Exact matches when the cell's trailing two characters equal the element
func Exact(cell, element string) bool {
	if len(cell) < 2 || element == "" {
		return false
	}
	return cell[len(cell)-2:] == element
}

// Loose matches when both characters of the element occur anywhere in the cell
func Loose(cell, element string) bool {
	if len(cell) < 2 || len(element) != 2 {
		return false
	}
	return strings.IndexByte(cell, element[0]) >= 0 && strings.IndexByte(cell, element[1]) >= 0
}

// For returns Exact when exact is set, Loose otherwise
func For(exact bool) Predicate {
	if exact {
		return Exact
	}
	return Loose
}

// Name returns the match mode label
func Name(exact bool) string {
	if exact {
		return "exact"
	}
	return "loose"
}
