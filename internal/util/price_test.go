package util

import (
	"math"
	"testing"
)

func TestRoundToTick(t *testing.T) {
	tests := []struct {
		name     string
		x        float64
		tick     float64
		expected float64
	}{
		{
			name:     "basic rounding down",
			x:        1.2345,
			tick:     0.01,
			expected: 1.23,
		},
		{
			name:     "larger tick size",
			x:        1.27,
			tick:     0.05,
			expected: 1.25,
		},
		{
			name:     "index points tick",
			x:        48037,
			tick:     100,
			expected: 48000,
		},
		{
			name:     "non-positive tick returns input",
			x:        1.2345,
			tick:     0,
			expected: 1.2345,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RoundToTick(tt.x, tt.tick)
			if math.Abs(result-tt.expected) > 1e-10 {
				t.Errorf("RoundToTick(%v, %v) = %v, expected %v", tt.x, tt.tick, result, tt.expected)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		name     string
		x        float64
		expected float64
	}{
		{"already two places", 20.25, 20.25},
		{"target multiplier", 20 * 1.5, 30},
		{"stop multiplier", 20 * 0.7, 14},
		{"ratio", 1.23456, 1.23},
		{"negative", -0.456, -0.46},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Round2(tt.x); math.Abs(got-tt.expected) > 1e-10 {
				t.Errorf("Round2(%v) = %v, expected %v", tt.x, got, tt.expected)
			}
		})
	}
}
