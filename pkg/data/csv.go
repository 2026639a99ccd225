package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tunogya/soicau/pkg/model"
)

// CSVProvider implements TableProvider for a CSV file.
// The first record is the header; the table is named after the file.
type CSVProvider struct {
	filePath string
	cleaner  *Cleaner
	table    *model.Table
	loaded   bool
}

// NewCSVProvider creates a new CSV-based table provider
func NewCSVProvider(filePath string, width int) *CSVProvider {
	return &CSVProvider{
		filePath: filePath,
		cleaner:  NewCleaner(width),
		loaded:   false,
	}
}

// TableName derives the table name from the file name
func (p *CSVProvider) TableName() string {
	base := filepath.Base(p.filePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// loadIfNeeded loads the CSV file if not already loaded
func (p *CSVProvider) loadIfNeeded() error {
	if p.loaded {
		return nil
	}

	file, err := os.Open(p.filePath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	t, err := ReadTable(file, p.TableName(), p.cleaner)
	if err != nil {
		return err
	}

	p.table = t
	p.loaded = true
	return nil
}

// FetchTable loads the file's table. An empty name or the file's own name
// selects it; any other name is not found.
func (p *CSVProvider) FetchTable(ctx context.Context, name string) (*model.Table, error) {
	if name != "" && name != p.TableName() {
		return nil, ErrTableNotFound
	}
	if err := p.loadIfNeeded(); err != nil {
		return nil, err
	}
	return p.table, nil
}

// ReadTable reads a header plus records from r and cleans them
func ReadTable(r io.Reader, name string, cleaner *Cleaner) (*model.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("failed to read CSV header: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		records = append(records, record)
	}

	if cleaner == nil {
		cleaner = NewCleaner(DefaultCellWidth)
	}
	return cleaner.Table(name, header, records), nil
}

// WriteTable writes a table as CSV, header first
func WriteTable(w io.Writer, t *model.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
