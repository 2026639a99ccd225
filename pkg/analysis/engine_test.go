package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/soicau/pkg/level"
	"github.com/tunogya/soicau/pkg/model"
	"github.com/tunogya/soicau/pkg/pattern"
)

func newTestEngine() *Engine {
	return NewEngine(Config{PatternCount: 2, ReferenceYear: 2024})
}

func TestRunReferenceColumnExcluded(t *testing.T) {
	tbl := model.NewTable("month", []string{"Ngày", "2024"}, [][]string{
		{"01", "00001"},
		{"02", "00012"},
		{"03", "00023"},
	})

	res, err := newTestEngine().Run(tbl, Request{AnchorRow: 2, PatternCount: 1, ExactMatch: true})
	require.NoError(t, err)

	assert.Equal(t, model.Pattern{"12"}, res.Pattern)
	assert.Equal(t, "2024", res.Reference)
	assert.Equal(t, []string{"2024"}, res.Consumed)
	require.Len(t, res.Buckets, model.NumBuckets)
	for _, b := range res.Buckets {
		assert.True(t, b.Scanned)
		assert.Equal(t, 0, b.Matches)
	}
	assert.Equal(t, 0, res.TotalMatches())
	assert.Empty(t, res.WindowPositions())
	assert.Empty(t, res.PredictionPositions())
}

func TestRunCrossPeriodConsumedColumns(t *testing.T) {
	columns := []string{"Ngày"}
	for m := 1; m <= model.NumPeriods; m++ {
		columns = append(columns, model.PeriodColumn(m))
	}
	rows := make([][]string, 3)
	for r := range rows {
		rows[r] = make([]string, len(columns))
		rows[r][0] = "0" + string(rune('1'+r))
	}
	// TH1 = col 1, TH2 = col 2, TH3 = col 3, TH4 = col 4
	rows[0][1], rows[1][1], rows[2][1] = "00011", "00022", "00033"
	rows[0][2], rows[1][2] = "00011", "00022"
	rows[0][3] = "00099"
	rows[0][4], rows[1][4], rows[2][4] = "00011", "00022", "00045"

	tbl := model.NewTable("year", columns, rows)
	res, err := newTestEngine().Run(tbl, Request{AnchorRow: 0, AnchorColumn: "TH3", PatternCount: 2, ExactMatch: true})
	require.NoError(t, err)

	assert.Equal(t, model.CrossPeriod, res.Mode)
	assert.Equal(t, model.Pattern{"11", "22"}, res.Pattern)
	assert.Equal(t, []string{"TH2", "TH3"}, res.Consumed)

	// TH1 and TH4 both hold 11,22 followed by a third value
	inside1 := res.Buckets[model.BucketKey{Direction: model.Inside, Gap: 1}.Index()]
	assert.Equal(t, 2, inside1.Matches)
	assert.Equal(t, []string{"00033", "00045"}, inside1.Values())
	for _, p := range res.WindowPositions() {
		assert.NotEqual(t, "TH2", p.Column)
		assert.NotEqual(t, "TH3", p.Column)
	}

	summary := inside1.Summary()
	assert.Contains(t, summary, "Từ trên xuống – Cách 1: 2 cầu")
	assert.Contains(t, summary, "00033,00045")
}

func TestRunCrossPeriodRequiresAnchorColumn(t *testing.T) {
	tbl := model.NewTable("year", []string{"Ngày", "TH1", "TH2"}, [][]string{{"01", "00001", "00002"}})

	_, err := newTestEngine().Run(tbl, Request{AnchorRow: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, pattern.ErrAnchorColumnRequired)
	assert.Equal(t, "Vui lòng chọn tháng trước khi phân tích!", UserMessage(err))
}

func TestRunRejectsInvalidRequests(t *testing.T) {
	columns := []string{"Ngày"}
	for m := 1; m <= model.NumPeriods; m++ {
		columns = append(columns, model.PeriodColumn(m))
	}
	rows := make([][]string, 5)
	for r := range rows {
		rows[r] = make([]string, len(columns))
		rows[r][0] = "0" + string(rune('1'+r))
		rows[r][3] = "0001" + string(rune('1'+r))
	}
	tbl := model.NewTable("year", columns, rows)

	_, err := newTestEngine().Run(tbl, Request{AnchorRow: 1, AnchorColumn: "TH3", PatternCount: 1 << 62})
	assert.ErrorIs(t, err, pattern.ErrInvalidPatternCount)

	_, err = newTestEngine().Run(tbl, Request{AnchorRow: 3, AnchorColumn: "Ngày", PatternCount: 2, ExactMatch: true})
	assert.ErrorIs(t, err, pattern.ErrInvalidAnchorColumn)
	assert.Equal(t, "Vui lòng chọn tháng trước khi phân tích!", UserMessage(err))
}

func TestRunNoTable(t *testing.T) {
	_, err := newTestEngine().Run(nil, Request{})
	assert.ErrorIs(t, err, ErrNoTable)

	_, err = newTestEngine().Run(&model.Table{}, Request{})
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestRunSingleBucket(t *testing.T) {
	tbl := model.NewTable("month", []string{"Ngày", "2023", "2024"}, [][]string{
		{"01", "00012", "00001"},
		{"02", "00034", "00012"},
		{"03", "00056", "00034"},
	})
	key := model.BucketKey{Direction: model.Inside, Gap: 1}

	res, err := newTestEngine().Run(tbl, Request{AnchorRow: 3, ExactMatch: true, Bucket: &key})
	require.NoError(t, err)

	assert.Equal(t, model.Pattern{"12", "34"}, res.Pattern)
	assert.Len(t, res.Summaries(), 1)
	assert.Equal(t, 1, res.Buckets[key.Index()].Matches)
	assert.Equal(t, []int{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, res.MatchCounts())

	pairSets := res.PairSets()
	require.Len(t, pairSets, model.NumBuckets)
	assert.Len(t, pairSets[key.Index()], 25)

	_, err = newTestEngine().Run(tbl, Request{AnchorRow: 3, Bucket: &model.BucketKey{Direction: model.Inside, Gap: 9}})
	assert.ErrorIs(t, err, ErrInvalidBucket)
}

func TestRunDefaultsPatternCount(t *testing.T) {
	tbl := model.NewTable("month", []string{"Ngày", "2024"}, [][]string{{"01", "00001"}})

	res, err := newTestEngine().Run(tbl, Request{AnchorRow: 1})
	require.NoError(t, err)
	assert.Len(t, res.Pattern, 2)
	assert.Equal(t, 2, res.Request.PatternCount)
}

func TestRunIdempotent(t *testing.T) {
	tbl := model.NewTable("month", []string{"Ngày", "2023", "2024"}, [][]string{
		{"01", "00012", "00001"},
		{"02", "00034", "00012"},
		{"03", "00056", "00034"},
		{"04", "00012", "00078"},
		{"05", "00043", "00012"},
	})
	e := newTestEngine()
	req := Request{AnchorRow: 3, PatternCount: 2}

	a, err := e.Run(tbl, req)
	require.NoError(t, err)
	b, err := e.Run(tbl, req)
	require.NoError(t, err)

	assert.Equal(t, a.RunID, b.RunID)
	assert.Equal(t, a.Buckets, b.Buckets)
	assert.Equal(t, a.MatchCounts(), b.MatchCounts())
}

func TestFinalLevelsFromResult(t *testing.T) {
	tbl := model.NewTable("month", []string{"Ngày", "2023", "2024"}, [][]string{
		{"01", "00012", "00001"},
		{"02", "00034", "00012"},
		{"03", "00056", "00034"},
	})
	res, err := newTestEngine().Run(tbl, Request{AnchorRow: 3, ExactMatch: true})
	require.NoError(t, err)

	levels := res.Levels()
	require.Len(t, levels, model.NumBuckets)
	// "00056" has three zeros, so "00" occurs 9 times
	require.NotEmpty(t, levels[0])
	assert.Equal(t, 9, levels[0][0].Count)
	assert.Equal(t, []string{"00"}, levels[0][0].Pairs)

	final, err := res.FinalLevels([]level.Selection{{Bucket: 0, Count: 9}})
	require.NoError(t, err)
	assert.Equal(t, []model.Level{{Count: 1, Pairs: []string{"00"}}}, final)

	_, err = res.FinalLevels(nil)
	assert.Equal(t, level.NoSelectionMessage, UserMessage(err))
}

func TestHighlightsDeduplicate(t *testing.T) {
	tbl := model.NewTable("month", []string{"Ngày", "2023", "2024"}, [][]string{
		{"01", "00000", "00000"},
		{"02", "00000", "00000"},
		{"03", "00000", "00000"},
		{"04", "00000", "00000"},
	})
	res, err := newTestEngine().Run(tbl, Request{AnchorRow: 2, PatternCount: 1, ExactMatch: true})
	require.NoError(t, err)

	windows, predictions := res.Highlights()
	assert.Greater(t, len(res.WindowPositions()), windows.Len())
	assert.Equal(t, 4, windows.Len())
	assert.Equal(t, 4, predictions.Len())
}
