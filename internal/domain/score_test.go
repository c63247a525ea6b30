package domain

import (
	"math"
	"testing"
)

func TestSigmoid(t *testing.T) {
	if got := Sigmoid(0); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Sigmoid(0) = %v, want 0.5", got)
	}
	if got := Sigmoid(10); got <= 0.99 {
		t.Errorf("Sigmoid(10) = %v, want > 0.99", got)
	}
	if got := Sigmoid(-10); got >= 0.01 {
		t.Errorf("Sigmoid(-10) = %v, want < 0.01", got)
	}
}

func TestScaleCosine(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-1, 0},
		{0, 0.5},
		{1, 1},
	}
	for _, tt := range tests {
		if got := ScaleCosine(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ScaleCosine(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCombineScores(t *testing.T) {
	got := CombineScores(0.8, 0.4, DefaultAlpha)
	want := 0.75*0.8 + 0.25*0.4
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("CombineScores = %v, want %v", got, want)
	}

	// Result stays in [0,1] for inputs in [0,1].
	for _, pair := range [][2]float64{{0, 0}, {1, 1}, {0, 1}, {1, 0}} {
		c := CombineScores(pair[0], pair[1], DefaultAlpha)
		if c < 0 || c > 1 {
			t.Errorf("CombineScores(%v, %v) = %v out of [0,1]", pair[0], pair[1], c)
		}
	}
}
