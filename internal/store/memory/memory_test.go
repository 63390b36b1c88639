package memory

import (
	"context"
	"errors"
	"testing"

	"warungpay/backend/internal/domain"
)

func TestLoadMissingKey(t *testing.T) {
	s := New()
	var dest map[string]int
	if err := s.Load(context.Background(), "missing", &dest); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	in := map[string]int{"a": 1, "b": 2}
	if err := s.Save(ctx, "doc", in); err != nil {
		t.Fatalf("save: %v", err)
	}

	var out map[string]int
	if err := s.Load(ctx, "doc", &out); err != nil {
		t.Fatalf("load: %v", err)
	}
	if out["a"] != 1 || out["b"] != 2 {
		t.Fatalf("unexpected document: %v", out)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Save(ctx, "doc", []int{1, 2, 3}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, "doc", []int{9}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	var out []int
	if err := s.Load(ctx, "doc", &out); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 1 || out[0] != 9 {
		t.Fatalf("expected overwritten document, got %v", out)
	}
}

func TestSaveRejectsUnmarshalableValue(t *testing.T) {
	s := New()
	if err := s.Save(context.Background(), "doc", make(chan int)); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
