package parallel

import (
	"errors"
	"math"
	"testing"
)

func TestWorkerPoolOverflow(t *testing.T) {
	_, err := NewWorkerPool(math.MaxInt)
	if !errors.Is(err, ErrTooManyWorkers) {
		t.Errorf("Expected ErrTooManyWorkers, got %v", err)
	}
}

func TestWorkerPoolSize(t *testing.T) {
	tests := []struct {
		requested int
		want      int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{16, 16},
		{1000, 1000},
	}

	for _, tt := range tests {
		pool, err := NewWorkerPool(tt.requested)
		if err != nil {
			t.Fatalf("NewWorkerPool(%d): %v", tt.requested, err)
		}
		if pool.Workers() != tt.want {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want %d", tt.requested, pool.Workers(), tt.want)
		}
		if cap(pool.taskQueue) != tt.want*2 {
			t.Errorf("queue capacity %d, want %d", cap(pool.taskQueue), tt.want*2)
		}
		pool.Close()
	}
}
