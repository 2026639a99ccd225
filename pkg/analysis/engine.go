package analysis

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tunogya/soicau/pkg/level"
	"github.com/tunogya/soicau/pkg/logging"
	"github.com/tunogya/soicau/pkg/match"
	"github.com/tunogya/soicau/pkg/model"
	"github.com/tunogya/soicau/pkg/pattern"
	"github.com/tunogya/soicau/pkg/scan"
)

var (
	// ErrNoTable is returned when no table is available to analyze
	ErrNoTable = errors.New("no table available")
	// ErrInvalidBucket is returned when the bucket filter is not one of the 12 buckets
	ErrInvalidBucket = errors.New("invalid bucket filter")
)

// Config holds configuration for the analysis engine
type Config struct {
	PatternCount  int // Default pattern count when a request leaves it unset
	ReferenceYear int // Year column used by sequential tables
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		PatternCount:  2,
		ReferenceYear: time.Now().Year(),
	}
}

// Request holds the parameters of one analysis
type Request struct {
	AnchorRow    int              `json:"anchor_row"`
	AnchorColumn string           `json:"anchor_column,omitempty"`
	PatternCount int              `json:"pattern_count"`
	ExactMatch   bool             `json:"exact_match"`
	Bucket       *model.BucketKey `json:"bucket,omitempty"` // scan only this bucket
}

// Engine runs pattern analyses. It holds no per-request state and is safe
// for concurrent use.
type Engine struct {
	config  Config
	builder *pattern.Builder
}

// NewEngine creates a new analysis engine
func NewEngine(cfg Config) *Engine {
	if cfg.PatternCount <= 0 {
		cfg.PatternCount = DefaultConfig().PatternCount
	}
	return &Engine{
		config:  cfg,
		builder: pattern.NewBuilder(pattern.Config{ReferenceYear: cfg.ReferenceYear}),
	}
}

// Run builds the pattern for the request and scans the table with it
func (e *Engine) Run(t *model.Table, req Request) (*Result, error) {
	if t == nil || len(t.Columns) == 0 {
		return nil, ErrNoTable
	}
	if req.PatternCount == 0 {
		req.PatternCount = e.config.PatternCount
	}

	var keys []model.BucketKey
	if req.Bucket != nil {
		if !req.Bucket.Valid() {
			return nil, fmt.Errorf("%w: direction %d gap %d", ErrInvalidBucket, req.Bucket.Direction, req.Bucket.Gap)
		}
		keys = []model.BucketKey{*req.Bucket}
	}

	built, err := e.builder.Build(t, req.AnchorRow, req.AnchorColumn, req.PatternCount)
	if err != nil {
		return nil, fmt.Errorf("failed to build pattern: %w", err)
	}

	scanner := scan.NewScanner(match.For(req.ExactMatch))
	buckets := scanner.Scan(t, built.Pattern, built.Consumed, keys)

	result := &Result{
		RunID:     model.GenerateRunID(t.Fingerprint(), req.AnchorRow, req.AnchorColumn, req.PatternCount, req.ExactMatch),
		TableName: t.Name,
		Request:   req,
		Pattern:   built.Pattern,
		Mode:      built.Mode,
		Reference: built.Reference,
		Consumed:  built.Consumed.Sorted(),
		Buckets:   buckets,
		CreatedAt: time.Now(),
	}

	logging.Logger().Debug("analysis finished",
		"run_id", result.RunID,
		"table", t.Name,
		"match_mode", match.Name(req.ExactMatch),
		"total_matches", result.TotalMatches(),
	)
	return result, nil
}

// Result is the complete output of one analysis
type Result struct {
	RunID     string          `json:"run_id"`
	TableName string          `json:"table_name"`
	Request   Request         `json:"request"`
	Pattern   model.Pattern   `json:"patterns"`
	Mode      model.TableMode `json:"mode"`
	Reference string          `json:"reference,omitempty"`
	Consumed  []string        `json:"consumed"`
	Buckets   []model.Bucket  `json:"buckets"`
	CreatedAt time.Time       `json:"created_at"`
}

// MatchCounts returns the match count of every bucket in index order
func (r *Result) MatchCounts() []int {
	counts := make([]int, len(r.Buckets))
	for i := range r.Buckets {
		counts[i] = r.Buckets[i].Matches
	}
	return counts
}

// TotalMatches sums matches across buckets
func (r *Result) TotalMatches() int {
	total := 0
	for i := range r.Buckets {
		total += r.Buckets[i].Matches
	}
	return total
}

// WindowPositions flattens every match window position across buckets
func (r *Result) WindowPositions() []model.Position {
	var out []model.Position
	for i := range r.Buckets {
		for _, w := range r.Buckets[i].Windows {
			out = append(out, w.Positions...)
		}
	}
	return out
}

// PredictionPositions flattens every prediction position across buckets
func (r *Result) PredictionPositions() []model.Position {
	var out []model.Position
	for i := range r.Buckets {
		for _, p := range r.Buckets[i].Predictions {
			out = append(out, p.Position)
		}
	}
	return out
}

// Highlights returns the distinct window and prediction cells
func (r *Result) Highlights() (windows, predictions *scan.PositionSet) {
	windows = scan.NewPositionSet()
	windows.AddAll(r.WindowPositions())
	predictions = scan.NewPositionSet()
	predictions.AddAll(r.PredictionPositions())
	return windows, predictions
}

// PairSets returns each bucket's raw pair list, indexed like the buckets
func (r *Result) PairSets() [][]string {
	sets := make([][]string, len(r.Buckets))
	for i := range r.Buckets {
		sets[i] = r.Buckets[i].FlatPairs()
	}
	return sets
}

// Levels classifies every bucket's pairs
func (r *Result) Levels() [][]model.Level {
	return level.ClassifyBuckets(r.Buckets)
}

// FinalLevels merges the selected bucket levels into one report
func (r *Result) FinalLevels(selections []level.Selection) ([]model.Level, error) {
	return level.Final(r.Levels(), selections)
}

// Summaries returns the human-readable line of every scanned bucket
func (r *Result) Summaries() []string {
	var out []string
	for i := range r.Buckets {
		if !r.Buckets[i].Scanned {
			continue
		}
		out = append(out, r.Buckets[i].Summary())
	}
	return out
}

// StatsText joins all bucket summaries
func (r *Result) StatsText() string {
	return strings.Join(r.Summaries(), "\n\n")
}

// UserMessage turns an analysis error into the message shown to end users
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, pattern.ErrAnchorColumnRequired), errors.Is(err, pattern.ErrInvalidAnchorColumn):
		return "Vui lòng chọn tháng trước khi phân tích!"
	case errors.Is(err, ErrNoTable):
		return "Vui lòng lấy dữ liệu trước khi phân tích."
	case errors.Is(err, level.ErrNoSelection):
		return level.NoSelectionMessage
	default:
		return "Lỗi phân tích: " + err.Error()
	}
}
