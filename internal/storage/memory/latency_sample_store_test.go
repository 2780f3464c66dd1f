package memory

import (
	"context"
	"errors"
	"testing"

	"x402-lab/internal/storage"
)

func TestLatencySampleStore_InsertAndGet(t *testing.T) {
	store := NewLatencySampleStore()
	ctx := context.Background()

	samples := []float64{50, 3000, 50, 512}
	if err := store.InsertBulk(ctx, "r1", samples); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	samples[0] = -1

	got, err := store.GetByRunID(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	want := []float64{50, 3000, 50, 512}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLatencySampleStore_Duplicate(t *testing.T) {
	store := NewLatencySampleStore()
	ctx := context.Background()

	_ = store.InsertBulk(ctx, "r1", []float64{1})
	if err := store.InsertBulk(ctx, "r1", []float64{2}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestLatencySampleStore_Missing(t *testing.T) {
	store := NewLatencySampleStore()

	got, err := store.GetByRunID(context.Background(), "none")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}
