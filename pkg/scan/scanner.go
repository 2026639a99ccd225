package scan

import (
	"github.com/tunogya/soicau/pkg/logging"
	"github.com/tunogya/soicau/pkg/match"
	"github.com/tunogya/soicau/pkg/model"
	"github.com/tunogya/soicau/pkg/pairs"
)

// Scanner sweeps a table for recurrences of a pattern
type Scanner struct {
	Predicate match.Predicate
}

// NewScanner creates a scanner using the given predicate
func NewScanner(p match.Predicate) *Scanner {
	if p == nil {
		p = match.Loose
	}
	return &Scanner{Predicate: p}
}

// column is a scan target resolved once per call
type column struct {
	name  string
	index int
}

// Scan runs every requested bucket and returns all 12 buckets in index order.
// Buckets not in keys are returned empty with Scanned unset. A nil keys slice
// scans all buckets.
func (s *Scanner) Scan(t *model.Table, pattern model.Pattern, excluded model.ColumnSet, keys []model.BucketKey) []model.Bucket {
	if keys == nil {
		keys = model.AllBucketKeys()
	}

	buckets := make([]model.Bucket, model.NumBuckets)
	for i := range buckets {
		buckets[i] = model.NewBucket(model.BucketKeyFromIndex(i))
	}

	columns := scanColumns(t, excluded)
	for _, key := range keys {
		if !key.Valid() {
			continue
		}
		b := &buckets[key.Index()]
		b.Scanned = true
		s.scanBucket(t, pattern, columns, b)

		logging.Logger().Debug("bucket scanned",
			"bucket", key.Index(),
			"direction", key.Direction.String(),
			"gap", key.Gap,
			"matches", b.Matches,
			"predictions", len(b.Predictions),
		)
	}

	return buckets
}

// scanColumns lists the data columns that may be scanned, in table order
func scanColumns(t *model.Table, excluded model.ColumnSet) []column {
	var cols []column
	for _, name := range t.DataColumns() {
		if excluded.Has(name) {
			continue
		}
		cols = append(cols, column{name: name, index: t.ColumnIndex(name)})
	}
	return cols
}

func (s *Scanner) scanBucket(t *model.Table, pattern model.Pattern, columns []column, b *model.Bucket) {
	n := t.NumRows()
	count := len(pattern)
	if count == 0 {
		return
	}
	step := b.Key.Direction.Sign() * b.Key.Gap

	for _, col := range columns {
		for i := 0; i < n; i++ {
			last := i + (count-1)*step
			if last < 0 || last >= n {
				continue
			}

			window, ok := s.matchWindow(t, pattern, col, i, step)
			if !ok {
				continue
			}

			predicted := i + count*step
			if predicted < 0 || predicted >= n {
				continue
			}

			b.Matches++
			b.Windows = append(b.Windows, model.MatchWindow{
				Bucket:    b.Key.Index(),
				Positions: window,
			})

			value := t.Cell(predicted, col.index)
			if value == "" {
				continue
			}
			b.Predictions = append(b.Predictions, model.Prediction{
				Position: model.Position{Row: predicted, Col: col.index, Column: col.name},
				Bucket:   b.Key.Index(),
				Value:    value,
			})
			if expanded := pairs.Expand(value); len(expanded) > 0 {
				b.Pairs = append(b.Pairs, expanded)
			}
		}
	}
}

// matchWindow checks pattern[k] against row start+k*step for every k.
// It gives up on the first mismatch.
func (s *Scanner) matchWindow(t *model.Table, pattern model.Pattern, col column, start, step int) ([]model.Position, bool) {
	positions := make([]model.Position, 0, len(pattern))
	for k, element := range pattern {
		row := start + k*step
		if !s.Predicate(t.Cell(row, col.index), element) {
			return nil, false
		}
		positions = append(positions, model.Position{Row: row, Col: col.index, Column: col.name})
	}
	return positions, true
}
