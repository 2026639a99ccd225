package nats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/soicau/pkg/analysis"
	"github.com/tunogya/soicau/pkg/model"
	"github.com/tunogya/soicau/pkg/pattern"
)

func TestRequestMsgToRequest(t *testing.T) {
	bucket := model.BucketKey{Direction: model.Outside, Gap: 3}
	raw, err := Encode(&AnalysisRequestMsg{
		RequestID:    "req-1",
		TableName:    "nam-2024",
		Table:        model.NewTable("nam-2024", []string{"Ngày", "TH1"}, [][]string{{"01", "00012"}}),
		AnchorRow:    1,
		AnchorColumn: "TH1",
		PatternCount: 3,
		ExactMatch:   true,
		Bucket:       &bucket,
	})
	require.NoError(t, err)

	msg, err := DecodeAnalysisRequest(raw)
	require.NoError(t, err)
	require.NotNil(t, msg.Table)
	assert.Equal(t, "00012", msg.Table.Cell(0, 1))

	req := msg.ToRequest()
	assert.Equal(t, 1, req.AnchorRow)
	assert.Equal(t, "TH1", req.AnchorColumn)
	assert.Equal(t, 3, req.PatternCount)
	assert.True(t, req.ExactMatch)
	require.NotNil(t, req.Bucket)
	assert.Equal(t, 9, req.Bucket.Index())
}

func TestResultMsgFromAnalysis(t *testing.T) {
	tbl := model.NewTable("thang-01", []string{"Ngày", "2023", "2024"}, [][]string{
		{"01", "00012", "00012"},
		{"02", "00034", "00034"},
		{"03", "00056", ""},
	})
	res, err := analysis.NewEngine(analysis.Config{PatternCount: 2, ReferenceYear: 2024}).
		Run(tbl, analysis.Request{AnchorRow: 2, PatternCount: 2})
	require.NoError(t, err)

	raw, err := Encode(NewResultMsg("req-2", res))
	require.NoError(t, err)

	msg, err := DecodeAnalysisResult(raw)
	require.NoError(t, err)
	assert.False(t, msg.Failed())
	assert.Equal(t, res.RunID, msg.RunID)
	assert.Equal(t, model.Pattern{"12", "34"}, msg.Pattern)
	assert.Len(t, msg.MatchCounts, model.NumBuckets)
	assert.Len(t, msg.PairSets, model.NumBuckets)

	windows, predictions := res.Highlights()
	assert.Equal(t, windows.Len(), msg.WindowCells)
	assert.Equal(t, predictions.Len(), msg.PredictionCells)
	assert.Greater(t, msg.WindowCells, 0)
}

func TestErrorMsg(t *testing.T) {
	msg := NewErrorMsg("req-3", "nam-2024", pattern.ErrAnchorColumnRequired)
	assert.True(t, msg.Failed())
	assert.Equal(t, "Vui lòng chọn tháng trước khi phân tích!", msg.Error)

	msg = NewErrorMsg("req-4", "nam-2024", errors.New("boom"))
	assert.Equal(t, "Lỗi phân tích: boom", msg.Error)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := DecodeAnalysisRequest([]byte("{"))
	assert.Error(t, err)
	_, err = DecodeAnalysisResult([]byte("nope"))
	assert.Error(t, err)
}
