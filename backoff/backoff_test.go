package backoff_test

import (
	"testing"
	"time"

	"github.com/xraph/courier/backoff"
)

func TestConstant_ReturnsFixedDelay(t *testing.T) {
	c := backoff.NewConstant(5 * time.Second)
	for attempt := 1; attempt <= 10; attempt++ {
		if got := c.Delay(attempt); got != 5*time.Second {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, 5*time.Second)
		}
	}
}

func TestLinear_GrowsLinearly(t *testing.T) {
	l := backoff.NewLinear(time.Second, time.Minute)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 3 * time.Second},
		{5, 5 * time.Second},
		{10, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := l.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestLinear_CapsAtMax(t *testing.T) {
	l := backoff.NewLinear(time.Second, 5*time.Second)

	if got := l.Delay(10); got != 5*time.Second {
		t.Errorf("Delay(10) = %v, want %v (capped at Max)", got, 5*time.Second)
	}
	if got := l.Delay(100); got != 5*time.Second {
		t.Errorf("Delay(100) = %v, want %v (capped at Max)", got, 5*time.Second)
	}
}

func TestExponential_DoublesEachAttempt(t *testing.T) {
	e := backoff.NewExponential(time.Second, time.Hour)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},  // 1 * 2^0
		{2, 2 * time.Second},  // 1 * 2^1
		{3, 4 * time.Second},  // 1 * 2^2
		{4, 8 * time.Second},  // 1 * 2^3
		{5, 16 * time.Second}, // 1 * 2^4
	}
	for _, tt := range tests {
		if got := e.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponential_CapsAtMax(t *testing.T) {
	e := backoff.NewExponential(time.Second, 10*time.Second)

	// Attempt 5 = 16s > 10s max → should return 10s.
	if got := e.Delay(5); got != 10*time.Second {
		t.Errorf("Delay(5) = %v, want %v (capped at Max)", got, 10*time.Second)
	}
	if got := e.Delay(20); got != 10*time.Second {
		t.Errorf("Delay(20) = %v, want %v (capped at Max)", got, 10*time.Second)
	}
}

func TestExponentialWithJitter_WithinBounds(t *testing.T) {
	e := backoff.NewExponentialWithJitter(time.Second, 10*time.Second)

	for attempt := 1; attempt <= 5; attempt++ {
		// Calculate expected max for this attempt.
		maxDelay := 10 * time.Second // capped at Max

		for range 100 {
			got := e.Delay(attempt)
			if got < 0 {
				t.Errorf("Delay(%d) = %v, should be >= 0", attempt, got)
			}
			if got > maxDelay {
				t.Errorf("Delay(%d) = %v, should be <= %v", attempt, got, maxDelay)
			}
		}
	}
}

func TestExponentialWithJitter_ClampsLowAttempts(t *testing.T) {
	e := backoff.NewExponentialWithJitter(time.Second, 10*time.Second)

	for _, attempt := range []int{0, -3} {
		var above bool
		for range 200 {
			got := e.Delay(attempt)
			if got < 0 || got > time.Second {
				t.Fatalf("Delay(%d) = %v, want within [0, 1s]", attempt, got)
			}
			if got > 500*time.Millisecond {
				above = true
			}
		}
		if !above {
			t.Errorf("Delay(%d) never exceeded 500ms; attempt was not clamped to 1", attempt)
		}
	}
}

func TestExponentialWithJitter_ProducesVariance(t *testing.T) {
	e := backoff.NewExponentialWithJitter(time.Second, time.Minute)

	// Collect 100 samples for attempt 3 and check they're not all the same.
	seen := make(map[time.Duration]bool)
	for range 100 {
		d := e.Delay(3)
		seen[d] = true
	}

	// With jitter, we should see many distinct values.
	if len(seen) < 2 {
		t.Errorf("expected variance in jitter, got only %d distinct values", len(seen))
	}
}

func TestExponential_LongStreakStaysCapped(t *testing.T) {
	e := backoff.NewExponential(100*time.Millisecond, 3*time.Second)

	for _, attempt := range []int{64, 100, 10_000} {
		if got := e.Delay(attempt); got != 3*time.Second {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, 3*time.Second)
		}
	}
}

func TestDefaultPause_StartsAtMinimum(t *testing.T) {
	s := backoff.DefaultPause()
	if got := s.Delay(1); got != 100*time.Millisecond {
		t.Errorf("DefaultPause().Delay(1) = %v, want 100ms", got)
	}
	if got := s.Delay(50); got != 3*time.Second {
		t.Errorf("DefaultPause().Delay(50) = %v, want 3s", got)
	}
}

// ──────────────────────────────────────────────────
// Sequence
// ──────────────────────────────────────────────────

func TestSequence_NonDecreasingAndCapped(t *testing.T) {
	seq := backoff.NewSequence(backoff.NewExponential(100*time.Millisecond, 3*time.Second))

	prev := time.Duration(0)
	for i := range 20 {
		d := seq.Next()
		if d < prev {
			t.Fatalf("step %d: delay %v decreased from %v", i, d, prev)
		}
		if d > 3*time.Second {
			t.Fatalf("step %d: delay %v exceeds max", i, d)
		}
		prev = d
	}
	if seq.Attempt() != 20 {
		t.Errorf("Attempt() = %d, want 20", seq.Attempt())
	}
}

func TestSequence_ResetReturnsToMinimum(t *testing.T) {
	seq := backoff.NewSequence(backoff.NewExponential(100*time.Millisecond, 3*time.Second))

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	for i, w := range want {
		if got := seq.Next(); got != w {
			t.Errorf("Next() #%d = %v, want %v", i+1, got, w)
		}
	}

	seq.Reset()
	if got := seq.Next(); got != 100*time.Millisecond {
		t.Errorf("Next() after Reset = %v, want 100ms", got)
	}
}
