package player

import (
	"math"
	"sync"
	"time"
)

// Playback reports how far audio output has progressed.
//
// A negative Position means the stream has ended. Implementations return a
// negative value once all audio has been played or the backend was closed;
// the capture loop treats it as the end-of-track signal.
type Playback interface {
	Position() time.Duration
}

// Clock maps the playback position to a spectral frame index. It holds the
// single "current position" sampled once per capture tick.
type Clock struct {
	playback Playback
	period   float64
	frames   int

	mu      sync.Mutex
	current time.Duration
	ended   bool
}

// NewClock creates a clock over frames spectral frames spaced refreshPeriod
// seconds apart.
func NewClock(playback Playback, refreshPeriod float64, frames int) *Clock {
	return &Clock{playback: playback, period: refreshPeriod, frames: frames}
}

// Sample reads the playback position once and stores it. It returns false
// once playback has ended.
func (c *Clock) Sample() bool {
	pos := c.playback.Position()
	c.mu.Lock()
	defer c.mu.Unlock()
	if pos < 0 {
		c.ended = true
		return false
	}
	c.current = pos
	return true
}

// Current returns the last sampled position.
func (c *Clock) Current() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Ended reports whether a sample has observed the end of playback.
func (c *Clock) Ended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ended
}

// FrameIndexFor returns floor(elapsed/refreshPeriod) clamped to the valid
// frame range. Positions within a microsecond of a frame boundary count as
// reaching it.
func (c *Clock) FrameIndexFor(elapsed float64) int {
	if c.frames < 1 || !(c.period > 0) || !(elapsed > 0) {
		return 0
	}
	idx := math.Floor((elapsed + 1e-6) / c.period)
	if idx >= float64(c.frames-1) {
		return c.frames - 1
	}
	return int(idx)
}

// Index returns the frame index for the current position.
func (c *Clock) Index() int {
	return c.FrameIndexFor(c.Current().Seconds())
}

// VirtualPlayback is a deterministic playback position that moves only when
// Advance is called. It drives offline captures without an audio device.
// Positions are k*period computed in seconds, so a period that is not a
// whole number of nanoseconds does not drift.
type VirtualPlayback struct {
	mu     sync.Mutex
	step   int
	steps  int
	period float64
}

// NewVirtualPlayback creates a position that steps by period seconds through
// a track of the given length. It yields one position per spectral frame.
func NewVirtualPlayback(seconds, period float64) *VirtualPlayback {
	steps := 0
	if period > 0 && seconds > 0 {
		steps = int(math.Ceil(seconds/period - 1e-9))
	}
	return &VirtualPlayback{steps: steps, period: period}
}

// Position returns the elapsed time, or -1 once every step has been played.
func (v *VirtualPlayback) Position() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.step >= v.steps {
		return -1
	}
	return time.Duration(math.Round(float64(v.step) * v.period * float64(time.Second)))
}

// Advance moves the position forward by one step.
func (v *VirtualPlayback) Advance() {
	v.mu.Lock()
	v.step++
	v.mu.Unlock()
}
