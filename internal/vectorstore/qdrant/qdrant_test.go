package qdrant

import (
	"errors"
	"testing"

	"ragmail/internal/domain"
)

func TestNewStorage_RequiresCollection(t *testing.T) {
	_, err := NewStorage(Config{Host: "localhost"})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}

func TestToFloat32(t *testing.T) {
	got := toFloat32([]float64{0.5, -1, 2})
	want := []float32{0.5, -1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
