package nats

import (
	"encoding/json"
	"time"

	"github.com/tunogya/soicau/pkg/analysis"
	"github.com/tunogya/soicau/pkg/model"
)

// Subject constants
const (
	SubjectAnalysisRequest = "soicau.analysis.request"
	SubjectAnalysisResult  = "soicau.analysis.result"
)

// Subjects returns every subject the stream carries
func Subjects() []string {
	return []string{SubjectAnalysisRequest, SubjectAnalysisResult}
}

// AnalysisRequestMsg asks a worker to analyze a table.
// Table is sent inline when set; otherwise the worker loads TableName from its store.
type AnalysisRequestMsg struct {
	RequestID    string           `json:"request_id"`
	TableName    string           `json:"table_name"`
	Table        *model.Table     `json:"table,omitempty"`
	AnchorRow    int              `json:"anchor_row"`
	AnchorColumn string           `json:"anchor_column,omitempty"`
	PatternCount int              `json:"pattern_count"`
	ExactMatch   bool             `json:"exact_match"`
	Bucket       *model.BucketKey `json:"bucket,omitempty"`
}

// ToRequest converts the message into an engine request
func (m *AnalysisRequestMsg) ToRequest() analysis.Request {
	return analysis.Request{
		AnchorRow:    m.AnchorRow,
		AnchorColumn: m.AnchorColumn,
		PatternCount: m.PatternCount,
		ExactMatch:   m.ExactMatch,
		Bucket:       m.Bucket,
	}
}

// AnalysisResultMsg carries the outcome of one request
type AnalysisResultMsg struct {
	RequestID   string        `json:"request_id"`
	RunID       string        `json:"run_id,omitempty"`
	TableName   string        `json:"table_name"`
	Pattern     model.Pattern `json:"pattern,omitempty"`
	MatchCounts []int         `json:"match_counts,omitempty"`
	PairSets    [][]string    `json:"pair_sets,omitempty"`
	Summaries   []string      `json:"summaries,omitempty"`
	Error       string        `json:"error,omitempty"`
	FinishedAt  time.Time     `json:"finished_at"`

	// distinct highlighted cells across buckets
	WindowCells     int `json:"window_cells"`
	PredictionCells int `json:"prediction_cells"`
}

// NewResultMsg builds a result message from a finished analysis
func NewResultMsg(requestID string, res *analysis.Result) *AnalysisResultMsg {
	windows, predictions := res.Highlights()
	return &AnalysisResultMsg{
		RequestID:       requestID,
		RunID:           res.RunID,
		TableName:       res.TableName,
		Pattern:         res.Pattern,
		MatchCounts:     res.MatchCounts(),
		PairSets:        res.PairSets(),
		Summaries:       res.Summaries(),
		FinishedAt:      time.Now(),
		WindowCells:     windows.Len(),
		PredictionCells: predictions.Len(),
	}
}

// NewErrorMsg builds a result message for a request that could not be analyzed
func NewErrorMsg(requestID, tableName string, err error) *AnalysisResultMsg {
	return &AnalysisResultMsg{
		RequestID:  requestID,
		TableName:  tableName,
		Error:      analysis.UserMessage(err),
		FinishedAt: time.Now(),
	}
}

// Failed reports whether the request produced an error
func (m *AnalysisResultMsg) Failed() bool {
	return m.Error != ""
}

// Encode serializes a message to JSON bytes
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeAnalysisRequest deserializes an AnalysisRequestMsg from JSON bytes
func DecodeAnalysisRequest(data []byte) (*AnalysisRequestMsg, error) {
	var msg AnalysisRequestMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DecodeAnalysisResult deserializes an AnalysisResultMsg from JSON bytes
func DecodeAnalysisResult(data []byte) (*AnalysisResultMsg, error) {
	var msg AnalysisResultMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
