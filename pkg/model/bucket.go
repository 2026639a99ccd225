package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Direction is the row order a scan window walks in
type Direction int

const (
	// Inside windows walk with increasing row index
	Inside Direction = iota
	// Outside windows walk with decreasing row index
	Outside
)

// Gap limits
const (
	MinGap     = 1
	MaxGap     = 6
	NumBuckets = 2 * MaxGap
)

// Label returns the direction label shown in reports
func (d Direction) Label() string {
	if d == Outside {
		return "Từ dưới lên"
	}
	return "Từ trên xuống"
}

// String returns the direction name
func (d Direction) String() string {
	if d == Outside {
		return "outside"
	}
	return "inside"
}

// ParseDirection parses "inside" or "outside"
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(s) {
	case "inside", "in":
		return Inside, true
	case "outside", "out":
		return Outside, true
	default:
		return Inside, false
	}
}

// Sign is +1 for Inside and -1 for Outside
func (d Direction) Sign() int {
	if d == Outside {
		return -1
	}
	return 1
}

// BucketKey identifies one (direction, gap) combination
type BucketKey struct {
	Direction Direction `json:"direction"`
	Gap       int       `json:"gap"`
}

// Index flattens the key as direction*6 + (gap-1)
func (k BucketKey) Index() int {
	return int(k.Direction)*MaxGap + (k.Gap - 1)
}

// Valid returns true if the key addresses one of the 12 buckets
func (k BucketKey) Valid() bool {
	return (k.Direction == Inside || k.Direction == Outside) && k.Gap >= MinGap && k.Gap <= MaxGap
}

// Label returns "<direction> – Cách <gap>"
func (k BucketKey) Label() string {
	return fmt.Sprintf("%s – Cách %d", k.Direction.Label(), k.Gap)
}

// String formats the key as "<direction>:<gap>"
func (k BucketKey) String() string {
	return fmt.Sprintf("%s:%d", k.Direction, k.Gap)
}

// ParseBucketKey parses "<direction>:<gap>", e.g. "outside:3"
func ParseBucketKey(s string) (BucketKey, error) {
	d, g, ok := strings.Cut(s, ":")
	if !ok {
		return BucketKey{}, fmt.Errorf("invalid bucket %q: expected direction:gap", s)
	}
	dir, ok := ParseDirection(strings.TrimSpace(d))
	if !ok {
		return BucketKey{}, fmt.Errorf("invalid bucket direction %q", d)
	}
	gap, err := strconv.Atoi(strings.TrimSpace(g))
	if err != nil {
		return BucketKey{}, fmt.Errorf("invalid bucket gap %q: %w", g, err)
	}
	k := BucketKey{Direction: dir, Gap: gap}
	if !k.Valid() {
		return BucketKey{}, fmt.Errorf("bucket gap %d out of range [%d, %d]", gap, MinGap, MaxGap)
	}
	return k, nil
}

// BucketKeyFromIndex is the inverse of Index
func BucketKeyFromIndex(i int) BucketKey {
	return BucketKey{
		Direction: Direction(i / MaxGap),
		Gap:       i%MaxGap + 1,
	}
}

// AllBucketKeys returns all 12 keys in index order
func AllBucketKeys() []BucketKey {
	keys := make([]BucketKey, 0, NumBuckets)
	for i := 0; i < NumBuckets; i++ {
		keys = append(keys, BucketKeyFromIndex(i))
	}
	return keys
}

// Bucket holds the scan output for one (direction, gap) combination
type Bucket struct {
	Key         BucketKey     `json:"key"`
	Scanned     bool          `json:"scanned"`
	Matches     int           `json:"matches"`
	Windows     []MatchWindow `json:"windows"`
	Predictions []Prediction  `json:"predictions"`
	Pairs       [][]string    `json:"pairs"` // expanded pairs, one slice per prediction
}

// NewBucket creates an empty bucket
func NewBucket(key BucketKey) Bucket {
	return Bucket{Key: key}
}

// Index returns the flattened bucket index
func (b *Bucket) Index() int {
	return b.Key.Index()
}

// FlatPairs returns the bucket's pairs as one sequence
func (b *Bucket) FlatPairs() []string {
	n := 0
	for _, p := range b.Pairs {
		n += len(p)
	}
	flat := make([]string, 0, n)
	for _, p := range b.Pairs {
		flat = append(flat, p...)
	}
	return flat
}

// Values returns every predicted value in discovery order
func (b *Bucket) Values() []string {
	values := make([]string, len(b.Predictions))
	for i, p := range b.Predictions {
		values[i] = p.Value
	}
	return values
}

// DistinctValues returns predicted values without repeats, in discovery order
func (b *Bucket) DistinctValues() []string {
	seen := make(map[string]struct{}, len(b.Predictions))
	var values []string
	for _, p := range b.Predictions {
		if _, ok := seen[p.Value]; ok {
			continue
		}
		seen[p.Value] = struct{}{}
		values = append(values, p.Value)
	}
	return values
}

// Summary returns the human-readable bucket line
func (b *Bucket) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d cầu\n", b.Key.Label(), b.Matches)
	values := b.DistinctValues()
	if len(values) == 0 {
		sb.WriteString("Giá trị: Không tìm thấy cầu")
	} else {
		sb.WriteString("Giá trị: ")
		sb.WriteString(strings.Join(values, ","))
	}
	return sb.String()
}

// Level groups the distinct pairs that occurred exactly Count times
type Level struct {
	Count int      `json:"count"`
	Pairs []string `json:"pairs"`
}

// String returns "Mức <count>: <n> số: a,b,c"
func (l Level) String() string {
	return fmt.Sprintf("Mức %d: %d số: %s", l.Count, len(l.Pairs), strings.Join(l.Pairs, ","))
}

// ProfileDim is the length of a pair profile vector ("00".."99")
const ProfileDim = 100

// ProfileVector is a fixed-length float32 vector for similarity search
type ProfileVector []float32

// NewProfileVector creates a zeroed ProfileVector
func NewProfileVector() ProfileVector {
	return make(ProfileVector, ProfileDim)
}

// Dim returns the dimension of the vector
func (pv ProfileVector) Dim() int {
	return len(pv)
}
