package feature

import (
	"math"

	"github.com/tunogya/soicau/pkg/model"
)

// pairIndex maps "00".."99" to 0..99; anything else yields -1
func pairIndex(pair string) int {
	if len(pair) != 2 {
		return -1
	}
	hi, lo := pair[0], pair[1]
	if hi < '0' || hi > '9' || lo < '0' || lo > '9' {
		return -1
	}
	return int(hi-'0')*10 + int(lo-'0')
}

// pairLabel is the inverse of pairIndex
func pairLabel(i int) string {
	return string([]byte{byte('0' + i/10), byte('0' + i%10)})
}

// L2Normalize scales v to unit length in place. A zero vector is left as is.
func L2Normalize(v model.ProfileVector) model.ProfileVector {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// CosineSimilarity returns the cosine of the angle between a and b,
// or 0 when either is a zero vector or the lengths differ
func CosineSimilarity(a, b model.ProfileVector) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
