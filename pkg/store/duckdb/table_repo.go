package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tunogya/soicau/pkg/data"
	"github.com/tunogya/soicau/pkg/model"
)

// TableInfo describes a stored table without its cells
type TableInfo struct {
	Name        string
	Mode        model.TableMode
	DateColumn  string
	Columns     []string
	RowCount    int
	Fingerprint string
	ImportedAt  time.Time
}

// TableRepo handles draw table persistence
type TableRepo struct {
	client *Client
}

// NewTableRepo creates a new table repository
func NewTableRepo(client *Client) *TableRepo {
	return &TableRepo{client: client}
}

// Save stores a table, replacing any previous table with the same name
func (r *TableRepo) Save(ctx context.Context, t *model.Table) error {
	columns, err := json.Marshal(t.Columns)
	if err != nil {
		return fmt.Errorf("failed to encode columns: %w", err)
	}

	tx, err := r.client.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO draw_tables (name, mode, date_column, columns, row_count, fingerprint, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			mode = EXCLUDED.mode,
			date_column = EXCLUDED.date_column,
			columns = EXCLUDED.columns,
			row_count = EXCLUDED.row_count,
			fingerprint = EXCLUDED.fingerprint,
			imported_at = EXCLUDED.imported_at
	`, t.Name, t.Mode().String(), t.DateColumn, string(columns), t.NumRows(), t.Fingerprint(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert table: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM draw_cells WHERE table_name = ?", t.Name); err != nil {
		return fmt.Errorf("failed to clear cells: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO draw_cells (table_name, row_idx, col_idx, value)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, row := range t.Rows {
		for j, v := range row {
			if v == "" {
				continue
			}
			if _, err := stmt.ExecContext(ctx, t.Name, i, j, v); err != nil {
				return fmt.Errorf("failed to insert cell: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Info retrieves the catalog entry for a table
func (r *TableRepo) Info(ctx context.Context, name string) (*TableInfo, error) {
	row := r.client.QueryRow(ctx, `
		SELECT name, mode, date_column, columns, row_count, fingerprint, imported_at
		FROM draw_tables
		WHERE name = ?
	`, name)

	info, err := scanTableInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, data.ErrTableNotFound
	}
	return info, err
}

// FetchTable loads a stored table. TableRepo satisfies data.TableProvider.
func (r *TableRepo) FetchTable(ctx context.Context, name string) (*model.Table, error) {
	info, err := r.Info(ctx, name)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, info.RowCount)
	for i := range rows {
		rows[i] = make([]string, len(info.Columns))
	}

	cells, err := r.client.Query(ctx, `
		SELECT row_idx, col_idx, value
		FROM draw_cells
		WHERE table_name = ?
		ORDER BY row_idx ASC, col_idx ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query cells: %w", err)
	}
	defer cells.Close()

	for cells.Next() {
		var (
			rowIdx, colIdx int
			value          string
		)
		if err := cells.Scan(&rowIdx, &colIdx, &value); err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		if rowIdx < 0 || rowIdx >= len(rows) || colIdx < 0 || colIdx >= len(info.Columns) {
			continue
		}
		rows[rowIdx][colIdx] = value
	}
	if err := cells.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cells: %w", err)
	}

	return &model.Table{
		Name:       info.Name,
		DateColumn: info.DateColumn,
		Columns:    info.Columns,
		Rows:       rows,
	}, nil
}

// List returns the catalog entries ordered by name
func (r *TableRepo) List(ctx context.Context) ([]*TableInfo, error) {
	rows, err := r.client.Query(ctx, `
		SELECT name, mode, date_column, columns, row_count, fingerprint, imported_at
		FROM draw_tables
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var out []*TableInfo
	for rows.Next() {
		info, err := scanTableInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes a table and its cells
func (r *TableRepo) Delete(ctx context.Context, name string) error {
	tx, err := r.client.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM draw_cells WHERE table_name = ?", name); err != nil {
		return fmt.Errorf("failed to delete cells: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM draw_tables WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTableInfo(row rowScanner) (*TableInfo, error) {
	var (
		info    TableInfo
		mode    string
		columns string
	)
	err := row.Scan(&info.Name, &mode, &info.DateColumn, &columns, &info.RowCount, &info.Fingerprint, &info.ImportedAt)
	if err != nil {
		return nil, err
	}

	info.Mode, _ = model.ParseTableMode(mode)
	if err := json.Unmarshal([]byte(columns), &info.Columns); err != nil {
		return nil, fmt.Errorf("failed to decode columns: %w", err)
	}
	return &info, nil
}
