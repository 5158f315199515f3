package video

import (
	"testing"
	"time"
)

func TestTickStats(t *testing.T) {
	s := NewTickStats(3)
	for _, d := range []time.Duration{-5, 10, 40, 20, 30} {
		s.Observe(d * time.Millisecond)
	}
	if s.Count() != 5 {
		t.Fatalf("Count() = %d, want 5", s.Count())
	}
	if s.Max() != 40*time.Millisecond {
		t.Fatalf("Max() = %v, want 40ms", s.Max())
	}
	if s.Mean() != 30*time.Millisecond {
		t.Fatalf("Mean() = %v, want 30ms over the window", s.Mean())
	}
	got := s.Recent(5)
	want := []time.Duration{40 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}
	if len(got) != len(want) {
		t.Fatalf("Recent() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Recent() = %v, want %v", got, want)
		}
	}

	s.Clear()
	if s.Count() != 0 || s.Max() != 0 || s.Mean() != 0 || s.Recent(1) != nil {
		t.Fatal("Clear() did not reset stats")
	}
}

func TestTickStatsClampsEarlyTicks(t *testing.T) {
	s := NewTickStats(0)
	s.Observe(-time.Second)
	if s.Max() != 0 || s.Mean() != 0 {
		t.Fatalf("negative overrun recorded: max %v mean %v", s.Max(), s.Mean())
	}
}
