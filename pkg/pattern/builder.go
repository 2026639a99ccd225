package pattern

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/tunogya/soicau/pkg/logging"
	"github.com/tunogya/soicau/pkg/model"
)

var (
	// ErrAnchorColumnRequired is returned when a cross-period table is analyzed without a month column
	ErrAnchorColumnRequired = errors.New("anchor month column required")
	// ErrUnknownColumn is returned when the anchor column is not in the table
	ErrUnknownColumn = errors.New("unknown anchor column")
	// ErrInvalidAnchorColumn is returned when the anchor column is not a month column
	ErrInvalidAnchorColumn = errors.New("anchor column is not a month column")
	// ErrInvalidPatternCount is returned for a pattern count outside [1, MaxPatternCount]
	ErrInvalidPatternCount = errors.New("invalid pattern count")
	// ErrAnchorOutOfRange is returned when the anchor row is outside [0, rows]
	ErrAnchorOutOfRange = errors.New("anchor row out of range")
)

// MaxPatternCount bounds the pattern length: one element per day of a full year
// of month columns
const MaxPatternCount = 31 * model.NumPeriods

// Config holds configuration for pattern building
type Config struct {
	ReferenceYear int // Year whose column feeds sequential patterns
}

// DefaultConfig returns a Config using the current year
func DefaultConfig() Config {
	return Config{
		ReferenceYear: time.Now().Year(),
	}
}

// Result is a built pattern plus the columns it was read from
type Result struct {
	Pattern   model.Pattern
	Mode      model.TableMode
	Reference string          // reference column (sequential mode only)
	Consumed  model.ColumnSet // columns that must not be scanned
}

// Builder builds patterns backward from an anchor cell
type Builder struct {
	ReferenceYear int
}

// NewBuilder creates a new pattern builder with the given configuration
func NewBuilder(cfg Config) *Builder {
	year := cfg.ReferenceYear
	if year <= 0 {
		year = time.Now().Year()
	}
	return &Builder{ReferenceYear: year}
}

// Build produces count trailing pairs ending just before the anchor, oldest first.
// anchorColumn is only used by cross-period tables.
func (b *Builder) Build(t *model.Table, anchorRow int, anchorColumn string, count int) (Result, error) {
	if count < 1 || count > MaxPatternCount {
		return Result{}, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidPatternCount, count, MaxPatternCount)
	}
	if anchorRow < 0 || anchorRow > t.NumRows() {
		return Result{}, fmt.Errorf("%w: row %d of %d", ErrAnchorOutOfRange, anchorRow, t.NumRows())
	}

	var (
		res Result
		err error
	)
	switch mode := t.Mode(); mode {
	case model.CrossPeriod:
		res, err = b.buildCrossPeriod(t, anchorRow, anchorColumn, count)
	default:
		res = b.buildSequential(t, anchorRow, count)
	}
	if err != nil {
		return Result{}, err
	}

	logging.Logger().Debug("pattern built",
		"mode", res.Mode.String(),
		"anchor_row", anchorRow,
		"anchor_column", anchorColumn,
		"pattern", res.Pattern.String(),
		"consumed", res.Consumed.Sorted(),
	)
	return res, nil
}

// ReferenceColumn picks the column feeding sequential patterns: the column
// named for the reference year, else the second column, else "".
func (b *Builder) ReferenceColumn(t *model.Table) string {
	year := strconv.Itoa(b.ReferenceYear)
	if t.HasColumn(year) {
		return year
	}
	if len(t.Columns) > 1 {
		return t.Columns[1]
	}
	return ""
}

func (b *Builder) buildSequential(t *model.Table, anchorRow, count int) Result {
	ref := b.ReferenceColumn(t)
	col := t.ColumnIndex(ref)

	pattern := make(model.Pattern, count)
	for k := 0; k < count; k++ {
		row := anchorRow - (count - k)
		if row < 0 || col < 0 {
			continue
		}
		pattern[k] = model.TrailingPair(t.Cell(row, col))
	}

	return Result{
		Pattern:   pattern,
		Mode:      model.Sequential,
		Reference: ref,
		Consumed:  model.NewColumnSet(ref),
	}
}

func (b *Builder) buildCrossPeriod(t *model.Table, anchorRow int, anchorColumn string, count int) (Result, error) {
	if anchorColumn == "" {
		return Result{}, ErrAnchorColumnRequired
	}
	if !t.HasColumn(anchorColumn) {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownColumn, anchorColumn)
	}
	if _, ok := model.PeriodNumber(anchorColumn); !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrInvalidAnchorColumn, anchorColumn)
	}

	consumed := model.NewColumnSet(anchorColumn)
	walk := make([]string, 0, count)

	row, column := anchorRow, anchorColumn
	failed := false
	for len(walk) < count {
		if failed {
			walk = append(walk, "")
			continue
		}

		prevRow, prevCol, ok := previousCell(t, row, column)
		if !ok {
			failed = true
			walk = append(walk, "")
			continue
		}

		consumed.Add(prevCol)
		walk = append(walk, model.TrailingPair(t.CellByName(prevRow, prevCol)))
		row, column = prevRow, prevCol
	}

	// walk is newest first
	pattern := make(model.Pattern, count)
	for i, v := range walk {
		pattern[count-1-i] = v
	}

	return Result{
		Pattern:  pattern,
		Mode:     model.CrossPeriod,
		Consumed: consumed,
	}, nil
}

// previousCell steps one day back: up one row in the same column, or to the
// last filled row of the previous month when already at row 0.
func previousCell(t *model.Table, row int, column string) (int, string, bool) {
	if row > 0 {
		return row - 1, column, true
	}

	n, ok := model.PeriodNumber(column)
	if !ok {
		return -1, "", false
	}
	prevCol := model.PeriodColumn(model.PreviousPeriod(n))
	prevRow := t.LastNonEmptyRow(prevCol)
	if prevRow < 0 {
		return -1, "", false
	}
	return prevRow, prevCol, true
}
