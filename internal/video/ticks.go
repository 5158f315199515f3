package video

import (
	"sync"
	"time"
)

// TickStats records how far capture ticks ran past their budget, keeping a
// rolling window of recent overruns plus the all-time maximum.
type TickStats struct {
	buf   []time.Duration
	size  int
	w     int // write position
	len   int // current fill level
	max   time.Duration
	count int
	mu    sync.Mutex
}

// NewTickStats creates stats with a rolling window of size ticks.
func NewTickStats(size int) *TickStats {
	if size < 1 {
		size = 1
	}
	return &TickStats{
		buf:  make([]time.Duration, size),
		size: size,
	}
}

// Observe records one tick's overrun. Ticks that finish early count as zero.
func (s *TickStats) Observe(overrun time.Duration) {
	if overrun < 0 {
		overrun = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf[s.w] = overrun
	s.w = (s.w + 1) % s.size
	if s.len < s.size {
		s.len++
	}
	s.count++
	s.max = max(s.max, overrun)
}

// Max returns the largest overrun seen since the last Clear.
func (s *TickStats) Max() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.max
}

// Count returns the number of ticks observed.
func (s *TickStats) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Mean returns the average overrun over the rolling window.
func (s *TickStats) Mean() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.len == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range s.recent(s.len) {
		sum += d
	}
	return sum / time.Duration(s.len)
}

// Recent returns up to n most recent overruns, oldest first.
func (s *TickStats) Recent(n int) []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recent(n)
}

func (s *TickStats) recent(n int) []time.Duration {
	if n > s.len {
		n = s.len
	}
	if n <= 0 {
		return nil
	}
	out := make([]time.Duration, n)
	start := (s.w - n + s.size) % s.size
	for i := 0; i < n; i++ {
		out[i] = s.buf[(start+i)%s.size]
	}
	return out
}

// Clear resets all stats.
func (s *TickStats) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = 0
	s.len = 0
	s.count = 0
	s.max = 0
}
