package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tunogya/soicau/pkg/analysis"
	"github.com/tunogya/soicau/pkg/model"
)

// ErrRunNotFound is returned when no run has the requested ID
var ErrRunNotFound = errors.New("analysis run not found")

// RunRecord is a stored analysis run without its buckets
type RunRecord struct {
	RunID        string
	TableName    string
	Mode         model.TableMode
	AnchorRow    int
	AnchorColumn string
	PatternCount int
	ExactMatch   bool
	Pattern      model.Pattern
	TotalMatches int
	CreatedAt    time.Time
}

// RunRepo handles analysis run persistence
type RunRepo struct {
	client *Client
}

// NewRunRepo creates a new run repository
func NewRunRepo(client *Client) *RunRepo {
	return &RunRepo{client: client}
}

// Save stores a run and its buckets.
// Runs are keyed by their deterministic ID, so saving the same run twice is a no-op.
func (r *RunRepo) Save(ctx context.Context, result *analysis.Result) error {
	tx, err := r.client.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_runs (run_id, table_name, mode, anchor_row, anchor_column, pattern_count, exact_match, pattern, total_matches, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id) DO NOTHING
	`,
		result.RunID,
		result.TableName,
		result.Mode.String(),
		result.Request.AnchorRow,
		result.Request.AnchorColumn,
		len(result.Pattern),
		result.Request.ExactMatch,
		result.Pattern.String(),
		result.TotalMatches(),
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_buckets (run_id, bucket_idx, direction, gap, scanned, match_count, predictions, pairs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, bucket_idx) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range result.Buckets {
		b := &result.Buckets[i]
		_, err := stmt.ExecContext(ctx,
			result.RunID,
			b.Index(),
			b.Key.Direction.String(),
			b.Key.Gap,
			b.Scanned,
			b.Matches,
			strings.Join(b.Values(), ","),
			strings.Join(b.FlatPairs(), ","),
		)
		if err != nil {
			return fmt.Errorf("failed to insert bucket %d: %w", b.Index(), err)
		}
	}

	return tx.Commit()
}

// GetByID retrieves a run by its ID
func (r *RunRepo) GetByID(ctx context.Context, runID string) (*RunRecord, error) {
	row := r.client.QueryRow(ctx, `
		SELECT run_id, table_name, mode, anchor_row, anchor_column, pattern_count, exact_match, pattern, total_matches, created_at
		FROM analysis_runs
		WHERE run_id = ?
	`, runID)

	rec, err := scanRunRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return rec, nil
}

// ListByTable returns the most recent runs of a table
func (r *RunRepo) ListByTable(ctx context.Context, tableName string, limit int) ([]*RunRecord, error) {
	rows, err := r.client.Query(ctx, `
		SELECT run_id, table_name, mode, anchor_row, anchor_column, pattern_count, exact_match, pattern, total_matches, created_at
		FROM analysis_runs
		WHERE table_name = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, tableName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		rec, err := scanRunRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetPairSets returns the stored pair list of every bucket, indexed like the buckets
func (r *RunRepo) GetPairSets(ctx context.Context, runID string) ([][]string, error) {
	rows, err := r.client.Query(ctx, `
		SELECT bucket_idx, pairs
		FROM run_buckets
		WHERE run_id = ?
		ORDER BY bucket_idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query buckets: %w", err)
	}
	defer rows.Close()

	sets := make([][]string, model.NumBuckets)
	found := false
	for rows.Next() {
		var (
			idx   int
			pairs string
		)
		if err := rows.Scan(&idx, &pairs); err != nil {
			return nil, fmt.Errorf("failed to scan bucket: %w", err)
		}
		if idx < 0 || idx >= model.NumBuckets {
			continue
		}
		found = true
		sets[idx] = splitList(pairs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRunNotFound
	}
	return sets, nil
}

// Count returns the number of stored runs for a table
func (r *RunRepo) Count(ctx context.Context, tableName string) (int64, error) {
	var count int64
	err := r.client.QueryRow(ctx, `
		SELECT COUNT(*) FROM analysis_runs WHERE table_name = ?
	`, tableName).Scan(&count)
	return count, err
}

func scanRunRecord(row rowScanner) (*RunRecord, error) {
	var (
		rec     RunRecord
		mode    string
		pattern string
	)
	err := row.Scan(
		&rec.RunID,
		&rec.TableName,
		&mode,
		&rec.AnchorRow,
		&rec.AnchorColumn,
		&rec.PatternCount,
		&rec.ExactMatch,
		&pattern,
		&rec.TotalMatches,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Mode, _ = model.ParseTableMode(mode)
	// keep empty elements: "" joined with "12" is ",12"
	rec.Pattern = model.Pattern(strings.Split(pattern, ","))
	return &rec, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
