package bucket

import (
	"math"
	"testing"
)

func TestRefill(t *testing.T) {
	m := New(4, 1.0)

	tests := []struct {
		name      string
		tokens    float64
		elapsedMs float64
		want      float64
	}{
		{"no time", 1, 0, 1},
		{"half second", 1, 500, 1.5},
		{"caps at capacity", 3, 5000, 4},
		{"already full", 4, 1000, 4},
		{"from empty", 0, 2000, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Refill(tt.tokens, tt.elapsedMs)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Refill(%v, %v) = %v, want %v", tt.tokens, tt.elapsedMs, got, tt.want)
			}
		})
	}
}

func TestRefill_NeverExceedsCapacity(t *testing.T) {
	m := New(15, 0.017)
	tokens := 0.0
	for i := 0; i < 10000; i++ {
		tokens = m.Refill(tokens, float64(i%977))
		if tokens > m.Capacity {
			t.Fatalf("tokens %v exceeded capacity at step %d", tokens, i)
		}
	}
}

func TestWaitMs(t *testing.T) {
	m := New(4, 2.0)

	if got := m.WaitMs(0.5, 1); got != 250 {
		t.Errorf("expected 250ms, got %v", got)
	}
	if got := m.WaitMs(1, 1); got != 0 {
		t.Errorf("expected 0 when affordable, got %v", got)
	}
}

func TestAffords(t *testing.T) {
	m := New(4, 1)
	if !m.Affords(1, 1) {
		t.Error("exact balance should afford")
	}
	if m.Affords(0.999, 1) {
		t.Error("short balance should not afford")
	}
}
