package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// DefaultDateColumn is the name of the date label column produced by the cleaner
const DefaultDateColumn = "Ngày"

// PeriodPrefix prefixes sub-period column names ("TH1".."TH12")
const PeriodPrefix = "TH"

// NumPeriods is the number of sub-period columns in a cross-period table
const NumPeriods = 12

// TableMode selects how a pattern is addressed inside a table
type TableMode int

const (
	// Sequential tables hold one column per calendar year, rows are days of one month
	Sequential TableMode = iota
	// CrossPeriod tables hold one column per month ("TH1".."TH12"), rows are days
	CrossPeriod
)

// String returns the mode name
func (m TableMode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case CrossPeriod:
		return "cross_period"
	default:
		return "unknown"
	}
}

// ParseTableMode parses a mode name produced by String
func ParseTableMode(s string) (TableMode, bool) {
	switch s {
	case "sequential":
		return Sequential, true
	case "cross_period":
		return CrossPeriod, true
	default:
		return Sequential, false
	}
}

// Table is a cleaned grid of draw results.
// Rows are ordered chronologically (oldest first), columns keep source order.
type Table struct {
	Name       string     `json:"name"`
	DateColumn string     `json:"date_column"`
	Columns    []string   `json:"columns"`
	Rows       [][]string `json:"rows"`
}

// NewTable creates a table with the default date column
func NewTable(name string, columns []string, rows [][]string) *Table {
	return &Table{
		Name:       name,
		DateColumn: DefaultDateColumn,
		Columns:    columns,
		Rows:       rows,
	}
}

// NumRows returns the number of rows
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of a column, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has the named column
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// dateColumn returns the configured date column name
func (t *Table) dateColumn() string {
	if t.DateColumn == "" {
		return DefaultDateColumn
	}
	return t.DateColumn
}

// IsDateColumn reports whether the named column is the date label column
func (t *Table) IsDateColumn(name string) bool {
	return name == t.dateColumn()
}

// Cell returns the value at (row, col). Out-of-range addresses yield "".
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// CellByName returns the value at (row, column name)
func (t *Table) CellByName(row int, column string) string {
	return t.Cell(row, t.ColumnIndex(column))
}

// LastNonEmptyRow returns the last row holding a non-blank value in the
// named column, or -1 if the column is missing or blank
func (t *Table) LastNonEmptyRow(column string) int {
	col := t.ColumnIndex(column)
	if col < 0 {
		return -1
	}
	for r := len(t.Rows) - 1; r >= 0; r-- {
		if strings.TrimSpace(t.Cell(r, col)) != "" {
			return r
		}
	}
	return -1
}

// Mode derives the addressing mode from the column names
func (t *Table) Mode() TableMode {
	for _, c := range t.Columns {
		if _, ok := PeriodNumber(c); ok {
			return CrossPeriod
		}
	}
	return Sequential
}

// DataColumns returns every column except the date column, in table order
func (t *Table) DataColumns() []string {
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if t.IsDateColumn(c) {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// Fingerprint hashes column names and cell values.
// Two tables with identical content share a fingerprint.
func (t *Table) Fingerprint() string {
	h := sha256.New()
	for _, c := range t.Columns {
		h.Write([]byte(c))
		h.Write([]byte{0x1f})
	}
	h.Write([]byte{0x1e})
	for _, row := range t.Rows {
		for _, v := range row {
			h.Write([]byte(v))
			h.Write([]byte{0x1f})
		}
		h.Write([]byte{0x1e})
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

// PeriodNumber parses a sub-period column name ("TH1".."TH12")
func PeriodNumber(column string) (int, bool) {
	if !strings.HasPrefix(column, PeriodPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(column[len(PeriodPrefix):])
	if err != nil || n < 1 || n > NumPeriods {
		return 0, false
	}
	return n, true
}

// PeriodColumn formats a sub-period column name
func PeriodColumn(n int) string {
	return PeriodPrefix + strconv.Itoa(n)
}

// PreviousPeriod returns the period before n, wrapping 1 to 12
func PreviousPeriod(n int) int {
	if n <= 1 {
		return NumPeriods
	}
	return n - 1
}

// TrailingPair returns the last two characters of a value, or "" when the
// value is shorter than two characters
func TrailingPair(v string) string {
	if len(v) < 2 {
		return ""
	}
	return v[len(v)-2:]
}
