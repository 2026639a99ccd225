package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Pattern is the ordered lineage of trailing pairs behind an anchor, oldest first.
// An empty element means no value was reachable at that step.
type Pattern []string

// String joins the elements with commas
func (p Pattern) String() string {
	return strings.Join(p, ",")
}

// IsEmpty returns true if no element holds a value
func (p Pattern) IsEmpty() bool {
	for _, e := range p {
		if e != "" {
			return false
		}
	}
	return true
}

// Position addresses one cell of a table
type Position struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Column string `json:"col_name"`
}

// Key returns a stable map key for the position
func (p Position) Key() string {
	return fmt.Sprintf("%d:%d", p.Row, p.Col)
}

// MatchWindow is one set of cells that satisfied a pattern in a bucket
type MatchWindow struct {
	Bucket    int        `json:"bucket"`
	Positions []Position `json:"positions"`
}

// Prediction is the cell that follows a matched window in scan direction
type Prediction struct {
	Position
	Bucket int    `json:"bucket"`
	Value  string `json:"value"`
}

// ColumnSet is a set of column names
type ColumnSet map[string]struct{}

// NewColumnSet creates a set holding the given columns
func NewColumnSet(columns ...string) ColumnSet {
	s := make(ColumnSet, len(columns))
	for _, c := range columns {
		s.Add(c)
	}
	return s
}

// Add inserts a column; empty names are ignored
func (s ColumnSet) Add(column string) {
	if column == "" {
		return
	}
	s[column] = struct{}{}
}

// Has reports set membership
func (s ColumnSet) Has(column string) bool {
	_, ok := s[column]
	return ok
}

// Sorted returns the members in lexical order
func (s ColumnSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// GenerateRunID creates a deterministic analysis run ID
// Format: hash(fingerprint|row|column|count|exact)
// Re-running the same request on the same table yields the same ID.
func GenerateRunID(fingerprint string, anchorRow int, anchorColumn string, patternCount int, exact bool) string {
	data := fmt.Sprintf("%s|%d|%s|%d|%t",
		fingerprint,
		anchorRow,
		anchorColumn,
		patternCount,
		exact,
	)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
