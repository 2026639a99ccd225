package data

import (
	"strconv"
	"strings"

	"github.com/tunogya/soicau/pkg/model"
)

// DefaultCellWidth is the zero-padded width of a draw value
const DefaultCellWidth = 5

// missingCell is how the source marks a day without a draw
const missingCell = "-----"

// Cleaner normalizes raw cells and headers into a model.Table
type Cleaner struct {
	Width int // zero-pad width for numeric cells
}

// NewCleaner creates a cleaner padding numeric cells to width
func NewCleaner(width int) *Cleaner {
	if width <= 0 {
		width = DefaultCellWidth
	}
	return &Cleaner{Width: width}
}

// Cell normalizes one raw value: blanks and "-----" become "", a trailing
// ".0" is dropped and integers are zero-padded. Other text is kept.
func (c *Cleaner) Cell(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || s == missingCell {
		return ""
	}
	s = strings.TrimSuffix(s, ".0")
	if _, err := strconv.Atoi(s); err != nil {
		return s
	}
	if len(s) >= c.Width {
		return s
	}
	return strings.Repeat("0", c.Width-len(s)) + s
}

// Header normalizes column names: "Ngày.1" is renamed to the date column, and
// a first column that is neither a period nor the date column is renamed too.
func (c *Cleaner) Header(columns []string) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		col = strings.TrimSpace(col)
		if col == model.DefaultDateColumn+".1" {
			col = model.DefaultDateColumn
		}
		out[i] = col
	}
	if len(out) > 0 {
		if !strings.HasPrefix(out[0], model.PeriodPrefix) {
			out[0] = model.DefaultDateColumn
		}
	}
	return out
}

// Table builds a cleaned table from a raw header and raw records.
// Short records are padded with empty cells.
func (c *Cleaner) Table(name string, header []string, records [][]string) *model.Table {
	columns := c.Header(header)
	dateCol := -1
	for i, col := range columns {
		if col == model.DefaultDateColumn {
			dateCol = i
			break
		}
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(columns))
		for i := range columns {
			if i >= len(rec) {
				continue
			}
			if i == dateCol {
				row[i] = strings.TrimSpace(rec[i])
				continue
			}
			row[i] = c.Cell(rec[i])
		}
		rows = append(rows, row)
	}

	return model.NewTable(name, columns, rows)
}
