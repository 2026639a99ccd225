package rerank

import (
	"math"
	"sort"
	"time"

	"github.com/tunogya/soicau/pkg/store/milvus"
)

// TimeDecayConfig holds configuration for reranking similar runs
type TimeDecayConfig struct {
	Lambda float64 // Exponential decay rate per day of run age
	// Segment weights replace the exponential curve when UseSegments is true
	UseSegments  bool
	RecentDays   float64
	MediumDays   float64
	RecentWeight float64
	MediumWeight float64
	OldWeight    float64
	// SameModeBoost multiplies hits scanned with the same match mode as the query
	SameModeBoost float64
}

// DefaultTimeDecayConfig returns a default configuration
func DefaultTimeDecayConfig() TimeDecayConfig {
	return TimeDecayConfig{
		Lambda:        0.05,
		RecentDays:    7,
		MediumDays:    60,
		RecentWeight:  1.0,
		MediumWeight:  0.7,
		OldWeight:     0.4,
		SameModeBoost: 1.0,
	}
}

// SegmentConfig returns a configuration using segment-based weights
func SegmentConfig() TimeDecayConfig {
	cfg := DefaultTimeDecayConfig()
	cfg.UseSegments = true
	return cfg
}

// Query describes the run the hits were searched for
type Query struct {
	RunID      string
	ExactMatch bool
}

// RankedResult extends SearchResult with reranked score
type RankedResult struct {
	milvus.SearchResult
	OriginalScore float32
	TimeWeight    float64
	FinalScore    float64
}

// AgeDays returns the run age in days at the given instant
func (r RankedResult) AgeDays(now time.Time) float64 {
	return ageDays(r.CreatedAt, now)
}

// Reranker reorders similar-run hits by score, age and match mode
type Reranker struct {
	config TimeDecayConfig
}

// NewReranker creates a new reranker with the given configuration
func NewReranker(config TimeDecayConfig) *Reranker {
	if config.SameModeBoost <= 0 {
		config.SameModeBoost = 1
	}
	return &Reranker{config: config}
}

// Rerank scores every hit except the query run itself, best first
func (r *Reranker) Rerank(results []milvus.SearchResult, q Query, now time.Time) []RankedResult {
	ranked := make([]RankedResult, 0, len(results))

	for _, result := range results {
		if q.RunID != "" && result.RunID == q.RunID {
			continue
		}

		age := ageDays(result.CreatedAt, now)
		var weight float64
		if r.config.UseSegments {
			weight = r.segmentWeight(age)
		} else {
			weight = r.exponentialDecay(age)
		}

		final := float64(result.Score) * weight
		if result.ExactMatch == q.ExactMatch {
			final *= r.config.SameModeBoost
		}

		ranked = append(ranked, RankedResult{
			SearchResult:  result,
			OriginalScore: result.Score,
			TimeWeight:    weight,
			FinalScore:    final,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})

	return ranked
}

func ageDays(createdAt, now time.Time) float64 {
	d := now.Sub(createdAt).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

func (r *Reranker) exponentialDecay(age float64) float64 {
	return math.Exp(-r.config.Lambda * age)
}

func (r *Reranker) segmentWeight(age float64) float64 {
	switch {
	case age <= r.config.RecentDays:
		return r.config.RecentWeight
	case age <= r.config.MediumDays:
		return r.config.MediumWeight
	default:
		return r.config.OldWeight
	}
}

// TopN returns the top N results after reranking
func (r *Reranker) TopN(results []milvus.SearchResult, q Query, now time.Time, n int) []RankedResult {
	ranked := r.Rerank(results, q, now)
	if len(ranked) <= n {
		return ranked
	}
	return ranked[:n]
}

// FilterByMinScore filters results by minimum final score
func FilterByMinScore(results []RankedResult, minScore float64) []RankedResult {
	var filtered []RankedResult
	for _, r := range results {
		if r.FinalScore >= minScore {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
