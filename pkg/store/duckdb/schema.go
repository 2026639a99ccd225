package duckdb

import (
	"context"
	"fmt"
)

// CreateDrawTablesTable creates the table catalog
const CreateDrawTablesTable = `
CREATE TABLE IF NOT EXISTS draw_tables (
    name VARCHAR PRIMARY KEY,
    mode VARCHAR NOT NULL,
    date_column VARCHAR NOT NULL,
    columns VARCHAR NOT NULL,
    row_count INTEGER NOT NULL,
    fingerprint VARCHAR NOT NULL,
    imported_at TIMESTAMP NOT NULL
);
`

// CreateDrawCellsTable creates the long-format cell table
const CreateDrawCellsTable = `
CREATE TABLE IF NOT EXISTS draw_cells (
    table_name VARCHAR NOT NULL,
    row_idx INTEGER NOT NULL,
    col_idx INTEGER NOT NULL,
    value VARCHAR NOT NULL
);
`

// CreateAnalysisRunsTable creates the analysis run index
const CreateAnalysisRunsTable = `
CREATE TABLE IF NOT EXISTS analysis_runs (
    run_id VARCHAR PRIMARY KEY,
    table_name VARCHAR NOT NULL,
    mode VARCHAR NOT NULL,
    anchor_row INTEGER NOT NULL,
    anchor_column VARCHAR NOT NULL,
    pattern_count INTEGER NOT NULL,
    exact_match BOOLEAN NOT NULL,
    pattern VARCHAR NOT NULL,
    total_matches INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_analysis_runs_table ON analysis_runs(table_name);
`

// CreateRunBucketsTable creates the per-bucket run output table
const CreateRunBucketsTable = `
CREATE TABLE IF NOT EXISTS run_buckets (
    run_id VARCHAR NOT NULL,
    bucket_idx INTEGER NOT NULL,
    direction VARCHAR NOT NULL,
    gap INTEGER NOT NULL,
    scanned BOOLEAN NOT NULL,
    match_count INTEGER NOT NULL,
    predictions VARCHAR NOT NULL,
    pairs VARCHAR NOT NULL,
    PRIMARY KEY (run_id, bucket_idx)
);
`

// InitializeSchema creates all required tables
func InitializeSchema(ctx context.Context, c *Client) error {
	schemas := []string{
		CreateDrawTablesTable,
		CreateDrawCellsTable,
		CreateAnalysisRunsTable,
		CreateRunBucketsTable,
	}

	for _, schema := range schemas {
		if err := c.Exec(ctx, schema); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// DropAllTables drops every table and run (import -reset)
func DropAllTables(ctx context.Context, c *Client) error {
	tables := []string{"run_buckets", "analysis_runs", "draw_cells", "draw_tables"}
	for _, table := range tables {
		if err := c.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
