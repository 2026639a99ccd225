package level

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tunogya/soicau/pkg/model"
)

var (
	// ErrNoSelection is returned when a final report is requested with nothing selected
	ErrNoSelection = errors.New("no level selected")
	// ErrUnknownSelection is returned when a selection names a missing bucket or level
	ErrUnknownSelection = errors.New("unknown level selection")
)

// NoSelectionMessage is the report text shown when no level is selected
const NoSelectionMessage = "Chưa chọn mức nào."

// Classify counts each distinct pair and groups pairs sharing a count.
// Levels are ordered by descending count; pairs inside a level ascend numerically.
func Classify(pairs []string) []model.Level {
	if len(pairs) == 0 {
		return nil
	}

	freq := make(map[string]int)
	for _, p := range pairs {
		freq[p]++
	}

	byCount := make(map[int][]string)
	for p, c := range freq {
		byCount[c] = append(byCount[c], p)
	}

	levels := make([]model.Level, 0, len(byCount))
	for c, ps := range byCount {
		sortPairs(ps)
		levels = append(levels, model.Level{Count: c, Pairs: ps})
	}
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Count > levels[j].Count
	})

	return levels
}

// sortPairs orders numeric pairs by value, then any non-numeric pairs lexically
func sortPairs(ps []string) {
	sort.Slice(ps, func(i, j int) bool {
		a, errA := strconv.Atoi(ps[i])
		b, errB := strconv.Atoi(ps[j])
		switch {
		case errA == nil && errB == nil:
			if a != b {
				return a < b
			}
			return ps[i] < ps[j]
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ps[i] < ps[j]
		}
	})
}

// ClassifyBuckets classifies each bucket's flattened pairs, indexed like the buckets
func ClassifyBuckets(buckets []model.Bucket) [][]model.Level {
	out := make([][]model.Level, len(buckets))
	for i := range buckets {
		out[i] = Classify(buckets[i].FlatPairs())
	}
	return out
}

// Selection picks one level (by its count) of one bucket
type Selection struct {
	Bucket int `json:"bucket"`
	Count  int `json:"count"`
}

// String formats the selection as "bucket:count"
func (s Selection) String() string {
	return fmt.Sprintf("%d:%d", s.Bucket, s.Count)
}

// ParseSelections parses "bucket:count" pairs separated by commas, e.g. "0:3,6:2"
func ParseSelections(s string) ([]Selection, error) {
	var out []Selection
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b, c, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("invalid selection %q: expected bucket:count", part)
		}
		bucket, err := strconv.Atoi(strings.TrimSpace(b))
		if err != nil {
			return nil, fmt.Errorf("invalid selection bucket %q: %w", b, err)
		}
		count, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return nil, fmt.Errorf("invalid selection count %q: %w", c, err)
		}
		out = append(out, Selection{Bucket: bucket, Count: count})
	}
	return out, nil
}

// Final merges the pairs of every selected level and classifies the merged
// multiset. Each selection contributes its distinct pairs once.
func Final(bucketLevels [][]model.Level, selections []Selection) ([]model.Level, error) {
	if len(selections) == 0 {
		return nil, ErrNoSelection
	}

	var merged []string
	for _, sel := range selections {
		lvl, ok := find(bucketLevels, sel)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSelection, sel)
		}
		merged = append(merged, lvl.Pairs...)
	}

	return Classify(merged), nil
}

func find(bucketLevels [][]model.Level, sel Selection) (model.Level, bool) {
	if sel.Bucket < 0 || sel.Bucket >= len(bucketLevels) {
		return model.Level{}, false
	}
	for _, l := range bucketLevels[sel.Bucket] {
		if l.Count == sel.Count {
			return l, true
		}
	}
	return model.Level{}, false
}

// FormatLevels renders one "Mức" line per level
func FormatLevels(levels []model.Level) string {
	if len(levels) == 0 {
		return NoSelectionMessage
	}
	var sb strings.Builder
	for _, l := range levels {
		sb.WriteString(l.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
