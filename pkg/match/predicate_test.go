package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExact(t *testing.T) {
	tests := []struct {
		cell, element string
		want          bool
	}{
		{"00012", "12", true},
		{"00012", "21", false},
		{"12", "12", true},
		{"2", "2", false},
		{"", "12", false},
		{"00012", "", false},
		{"00012", "2", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Exact(tt.cell, tt.element), "Exact(%q, %q)", tt.cell, tt.element)
	}
}

func TestLoose(t *testing.T) {
	tests := []struct {
		cell, element string
		want          bool
	}{
		{"00012", "12", true},
		{"00012", "21", true},
		{"10002", "12", true},
		{"00012", "13", false},
		{"55", "55", true},
		{"5", "55", false},
		{"", "12", false},
		{"00012", "", false},
		{"00012", "1", false},
		{"00012", "123", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Loose(tt.cell, tt.element), "Loose(%q, %q)", tt.cell, tt.element)
	}
}

func TestExactImpliesLoose(t *testing.T) {
	cells := []string{"", "1", "12", "00012", "98765", "11111", "40404", "ab", "x9"}
	elements := []string{"", "1", "12", "21", "65", "11", "04", "ab", "99", "123"}

	for _, c := range cells {
		for _, e := range elements {
			if Exact(c, e) {
				assert.True(t, Loose(c, e), "exact(%q, %q) but not loose", c, e)
			}
		}
	}
}

func TestFor(t *testing.T) {
	assert.True(t, For(true)("00021", "21"))
	assert.False(t, For(true)("00012", "21"))
	assert.True(t, For(false)("00012", "21"))
	assert.Equal(t, "exact", Name(true))
	assert.Equal(t, "loose", Name(false))
}
