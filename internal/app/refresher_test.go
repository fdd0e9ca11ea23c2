package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shelfkeep/shelf/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 70; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestCalculateBackoff_LongBaseIsKept(t *testing.T) {
	if got := calculateBackoff(3, time.Minute); got != time.Minute {
		t.Fatalf("calculateBackoff = %v, want 1m", got)
	}
}

type countingInvalidator struct{ n atomic.Int32 }

func (c *countingInvalidator) Refresh() { c.n.Add(1) }

func TestRefresher_InvalidatesOnEveryTick(t *testing.T) {
	target := &countingInvalidator{}
	r := StartRefresher(context.Background(), target, &state.Store{}, 10*time.Millisecond, nil)

	deadline := time.Now().Add(2 * time.Second)
	for target.n.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("refresh ran %d times, want at least 3", target.n.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := r.Shutdown(); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
	after := target.n.Load()
	time.Sleep(30 * time.Millisecond)
	if got := target.n.Load(); got != after {
		t.Fatalf("refresh kept running after Shutdown: %d -> %d", after, got)
	}
	_ = r.Shutdown()
}

func TestRefresher_DisabledIsIdle(t *testing.T) {
	target := &countingInvalidator{}
	r := StartRefresher(context.Background(), target, &state.Store{}, 0, nil)
	time.Sleep(20 * time.Millisecond)
	if err := r.Shutdown(); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
	if target.n.Load() != 0 {
		t.Fatalf("disabled refresher ran %d times", target.n.Load())
	}
}
