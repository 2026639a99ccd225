package scan

import (
	"sort"

	"github.com/tunogya/soicau/pkg/model"
)

// PositionSet collects distinct cell positions for one request
type PositionSet struct {
	seen  map[string]struct{}
	order []model.Position
}

// NewPositionSet creates an empty set
func NewPositionSet() *PositionSet {
	return &PositionSet{seen: make(map[string]struct{})}
}

// Add inserts a position, returning false if it was already present
func (s *PositionSet) Add(p model.Position) bool {
	key := p.Key()
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.order = append(s.order, p)
	return true
}

// AddAll inserts every position
func (s *PositionSet) AddAll(ps []model.Position) {
	for _, p := range ps {
		s.Add(p)
	}
}

// Has reports whether (row, col) is in the set
func (s *PositionSet) Has(row, col int) bool {
	_, ok := s.seen[model.Position{Row: row, Col: col}.Key()]
	return ok
}

// Len returns the number of distinct positions
func (s *PositionSet) Len() int {
	return len(s.order)
}

// Positions returns the positions in insertion order
func (s *PositionSet) Positions() []model.Position {
	out := make([]model.Position, len(s.order))
	copy(out, s.order)
	return out
}

// Sorted returns the positions ordered by row, then column
func (s *PositionSet) Sorted() []model.Position {
	out := s.Positions()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}
