package data

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/soicau/pkg/model"
)

// writeCSV writes a CSV file with the given header and rows to path.
func writeCSV(t *testing.T, path, header string, rows []string) {
	t.Helper()
	content := header + "\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCleanerCell(t *testing.T) {
	c := NewCleaner(5)
	tests := map[string]string{
		"":         "",
		"  ":       "",
		"-----":    "",
		"12":       "00012",
		" 345.0 ":  "00345",
		"12345":    "12345",
		"123456":   "123456",
		"abc":      "abc",
		"12.5":     "12.5",
		"0":        "00000",
	}
	for raw, want := range tests {
		assert.Equal(t, want, c.Cell(raw), "Cell(%q)", raw)
	}
}

func TestCleanerHeader(t *testing.T) {
	c := NewCleaner(0)
	assert.Equal(t, DefaultCellWidth, c.Width)

	assert.Equal(t, []string{"Ngày", "2023", "2024"}, c.Header([]string{"Ngày.1", "2023", "2024"}))
	assert.Equal(t, []string{"Ngày", "2024"}, c.Header([]string{"Day", "2024"}))
	assert.Equal(t, []string{"TH1", "TH2"}, c.Header([]string{"TH1", "TH2"}))
}

func TestCleanerTablePadsShortRecords(t *testing.T) {
	c := NewCleaner(5)
	tbl := c.Table("month", []string{"Ngày", "2023", "2024"}, [][]string{
		{"01", "12", "-----"},
		{"02", "7.0"},
	})

	assert.Equal(t, model.Sequential, tbl.Mode())
	assert.Equal(t, [][]string{
		{"01", "00012", ""},
		{"02", "00007", ""},
	}, tbl.Rows)
}

func TestCSVProviderLoadsAndCleans(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "thang5.csv")
	writeCSV(t, path, "Ngày,2023,2024", []string{
		"01,12345,678",
		"02,-----,90",
		"03,5.0,",
	})

	p := NewCSVProvider(path, 5)
	assert.Equal(t, "thang5", p.TableName())

	tbl, err := p.FetchTable(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "thang5", tbl.Name)
	assert.Equal(t, []string{"Ngày", "2023", "2024"}, tbl.Columns)
	assert.Equal(t, [][]string{
		{"01", "12345", "00678"},
		{"02", "", "00090"},
		{"03", "00005", ""},
	}, tbl.Rows)

	_, err = p.FetchTable(context.Background(), "other")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestCSVProviderMissingFile(t *testing.T) {
	p := NewCSVProvider(filepath.Join(t.TempDir(), "missing.csv"), 5)
	_, err := p.FetchTable(context.Background(), "")
	assert.Error(t, err)
}

func TestReadTableEmpty(t *testing.T) {
	_, err := ReadTable(strings.NewReader(""), "empty", nil)
	assert.Error(t, err)
}

func TestWriteTableRoundTrip(t *testing.T) {
	tbl := model.NewTable("year", []string{"Ngày", "TH1", "TH2"}, [][]string{
		{"01", "00012", ""},
		{"02", "", "00034"},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, tbl))

	back, err := ReadTable(&buf, "year", NewCleaner(5))
	require.NoError(t, err)
	assert.Equal(t, tbl.Columns, back.Columns)
	assert.Equal(t, tbl.Rows, back.Rows)
	assert.Equal(t, model.CrossPeriod, back.Mode())
}

func TestMemoryProvider(t *testing.T) {
	tbl := model.NewTable("m", []string{"Ngày", "2024"}, nil)
	p := NewMemoryProvider(tbl)

	got, err := p.FetchTable(context.Background(), "m")
	require.NoError(t, err)
	assert.Same(t, tbl, got)

	_, err = p.FetchTable(context.Background(), "x")
	assert.ErrorIs(t, err, ErrTableNotFound)
}
