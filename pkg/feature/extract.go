package feature

import (
	"github.com/tunogya/soicau/pkg/model"
)

// PairProfile counts every pair "00".."99" in pairs and returns the
// L2-normalized histogram. Non-numeric pairs are ignored.
func PairProfile(pairs []string) model.ProfileVector {
	v := model.NewProfileVector()
	for _, p := range pairs {
		if i := pairIndex(p); i >= 0 {
			v[i]++
		}
	}
	return L2Normalize(v)
}

// Stats describes the raw pair histogram behind a profile
type Stats struct {
	TotalPairs    int    `json:"total_pairs"`
	DistinctPairs int    `json:"distinct_pairs"`
	TopPair       string `json:"top_pair"`
	TopCount      int    `json:"top_count"`
}

// Extractor builds run-level profiles from bucket pair sets
type Extractor struct {
	Buckets []int // bucket indexes to include; empty means every bucket
}

// NewExtractor creates an extractor over the given buckets
func NewExtractor(buckets ...int) *Extractor {
	return &Extractor{Buckets: buckets}
}

// Extract merges the selected pair sets into one profile
func (e *Extractor) Extract(pairSets [][]string) (model.ProfileVector, Stats) {
	var counts [model.ProfileDim]int
	for _, i := range e.indexes(len(pairSets)) {
		for _, p := range pairSets[i] {
			if j := pairIndex(p); j >= 0 {
				counts[j]++
			}
		}
	}

	v := model.NewProfileVector()
	var stats Stats
	for i, c := range counts {
		if c == 0 {
			continue
		}
		v[i] = float32(c)
		stats.TotalPairs += c
		stats.DistinctPairs++
		// ties keep the lower pair
		if c > stats.TopCount {
			stats.TopCount = c
			stats.TopPair = pairLabel(i)
		}
	}
	return L2Normalize(v), stats
}

func (e *Extractor) indexes(n int) []int {
	if len(e.Buckets) == 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	out := make([]int, 0, len(e.Buckets))
	for _, i := range e.Buckets {
		if i >= 0 && i < n {
			out = append(out, i)
		}
	}
	return out
}
