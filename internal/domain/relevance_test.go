package domain

import "testing"

func TestLogitBatch_One(t *testing.T) {
	b := OneLogit(1.5)

	vals, err := b.Values(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vals) != 1 || vals[0] != 1.5 {
		t.Errorf("Values(1) = %v, want [1.5]", vals)
	}

	if _, err := b.Values(2); err == nil {
		t.Error("expected count mismatch error for scalar batch expanded to 2")
	}
}

func TestLogitBatch_Many(t *testing.T) {
	b := ManyLogits([]float64{0.1, 0.2, 0.3})

	vals, err := b.Values(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vals) != 3 || vals[2] != 0.3 {
		t.Errorf("Values(3) = %v, want [0.1 0.2 0.3]", vals)
	}

	if _, err := b.Values(2); err == nil {
		t.Error("expected count mismatch error")
	}
}
