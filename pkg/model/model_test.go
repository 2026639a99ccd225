package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableMode(t *testing.T) {
	seq := NewTable("month", []string{"Ngày", "2023", "2024"}, nil)
	assert.Equal(t, Sequential, seq.Mode())

	cross := NewTable("year", []string{"Ngày", "TH1", "TH2"}, nil)
	assert.Equal(t, CrossPeriod, cross.Mode())

	// TH13 is not a period column
	odd := NewTable("odd", []string{"Ngày", "TH13", "THx"}, nil)
	assert.Equal(t, Sequential, odd.Mode())
}

func TestTableCellOutOfRange(t *testing.T) {
	tbl := NewTable("t", []string{"Ngày", "2024"}, [][]string{
		{"01", "00012"},
		{"02"},
	})

	assert.Equal(t, "00012", tbl.Cell(0, 1))
	assert.Equal(t, "", tbl.Cell(1, 1))
	assert.Equal(t, "", tbl.Cell(-1, 1))
	assert.Equal(t, "", tbl.Cell(5, 0))
	assert.Equal(t, "", tbl.Cell(0, -1))
	assert.Equal(t, "", tbl.CellByName(0, "missing"))
}

func TestDataColumnsAndEmptyPattern(t *testing.T) {
	tbl := NewTable("t", []string{"Ngày", "2023", "2024"}, nil)
	assert.Equal(t, []string{"2023", "2024"}, tbl.DataColumns())

	assert.True(t, Pattern{"", ""}.IsEmpty())
	assert.False(t, Pattern{"", "12"}.IsEmpty())
}

func TestLastNonEmptyRow(t *testing.T) {
	tbl := NewTable("t", []string{"Ngày", "TH1", "TH2"}, [][]string{
		{"01", "11111", ""},
		{"02", "22222", ""},
		{"03", "", ""},
	})

	assert.Equal(t, 1, tbl.LastNonEmptyRow("TH1"))
	assert.Equal(t, -1, tbl.LastNonEmptyRow("TH2"))
	assert.Equal(t, -1, tbl.LastNonEmptyRow("TH3"))
}

func TestPeriodHelpers(t *testing.T) {
	n, ok := PeriodNumber("TH12")
	require.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = PeriodNumber("TH0")
	assert.False(t, ok)
	_, ok = PeriodNumber("2024")
	assert.False(t, ok)

	assert.Equal(t, "TH7", PeriodColumn(7))
	assert.Equal(t, 12, PreviousPeriod(1))
	assert.Equal(t, 2, PreviousPeriod(3))
}

func TestTrailingPair(t *testing.T) {
	assert.Equal(t, "45", TrailingPair("12345"))
	assert.Equal(t, "", TrailingPair("5"))
	assert.Equal(t, "", TrailingPair(""))
}

func TestFingerprintStable(t *testing.T) {
	a := NewTable("a", []string{"Ngày", "2024"}, [][]string{{"01", "00012"}})
	b := NewTable("b", []string{"Ngày", "2024"}, [][]string{{"01", "00012"}})
	c := NewTable("c", []string{"Ngày", "2024"}, [][]string{{"01", "00013"}})

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestBucketKeyIndexRoundTrip(t *testing.T) {
	keys := AllBucketKeys()
	require.Len(t, keys, NumBuckets)

	for i, k := range keys {
		assert.Equal(t, i, k.Index())
		assert.True(t, k.Valid())
		assert.Equal(t, k, BucketKeyFromIndex(i))
	}

	assert.Equal(t, 0, BucketKey{Direction: Inside, Gap: 1}.Index())
	assert.Equal(t, 11, BucketKey{Direction: Outside, Gap: 6}.Index())
	assert.False(t, BucketKey{Direction: Inside, Gap: 7}.Valid())
}

func TestParseBucketKey(t *testing.T) {
	k, err := ParseBucketKey("outside:3")
	require.NoError(t, err)
	assert.Equal(t, BucketKey{Direction: Outside, Gap: 3}, k)
	assert.Equal(t, "outside:3", k.String())

	for _, bad := range []string{"outside", "sideways:1", "inside:x", "inside:0", "in:7"} {
		_, err := ParseBucketKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestBucketSummary(t *testing.T) {
	b := NewBucket(BucketKey{Direction: Inside, Gap: 2})
	assert.Equal(t, "Từ trên xuống – Cách 2: 0 cầu\nGiá trị: Không tìm thấy cầu", b.Summary())

	b.Matches = 3
	b.Predictions = []Prediction{{Value: "00123"}, {Value: "00456"}, {Value: "00123"}}
	assert.Equal(t, "Từ trên xuống – Cách 2: 3 cầu\nGiá trị: 00123,00456", b.Summary())
	assert.Equal(t, []string{"00123", "00456", "00123"}, b.Values())
}

func TestGenerateRunIDDeterministic(t *testing.T) {
	a := GenerateRunID("fp", 3, "TH3", 2, true)
	b := GenerateRunID("fp", 3, "TH3", 2, true)
	c := GenerateRunID("fp", 3, "TH3", 2, false)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}

func TestColumnSet(t *testing.T) {
	s := NewColumnSet("TH3", "", "TH2")
	assert.True(t, s.Has("TH2"))
	assert.False(t, s.Has(""))
	assert.Equal(t, []string{"TH2", "TH3"}, s.Sorted())
}
