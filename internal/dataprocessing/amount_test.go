package dataprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{"nil", nil, 0},
		{"int", 42, 42},
		{"int64", int64(-7), -7},
		{"uint16", uint16(9), 9},
		{"float", 1234.5, 1234.5},
		{"float32", float32(2.5), 2.5},
		{"NaN float", math.NaN(), 0},
		{"infinite float", math.Inf(1), 0},
		{"plain text", "4500", 4500},
		{"padded text", "  4500.25  ", 4500.25},
		{"thousands separators", "1,05,000", 105000},
		{"western separators", "1,234,567.5", 1234567.5},
		{"nill", "nill", 0},
		{"NILL uppercase", "NILL", 0},
		{"nil", "Nil", 0},
		{"dash", "-", 0},
		{"empty", "", 0},
		{"whitespace", "   ", 0},
		{"garbage", "pending", 0},
		{"currency symbol", "Rs. 500", 0},
		{"bytes", []byte("250"), 250},
		{"stringer", stringer("1,000"), 1000},
		{"bool falls back to text", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAmount(tt.input))
		})
	}
}

func TestNormalizeAmount_NeverPanics(t *testing.T) {
	inputs := []any{struct{}{}, []int{1}, map[string]int{}, "--", ",,,", "nilnil", "1e400"}
	for _, in := range inputs {
		assert.NotPanics(t, func() { NormalizeAmount(in) })
	}
	assert.Equal(t, 0.0, NormalizeAmount("1e400"), "overflow is not a usable amount")
}
