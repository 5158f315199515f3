package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/olivier-w/barviz/internal/player"
	"github.com/olivier-w/barviz/internal/visualizer"
)

// SessionOptions wires a capture session together.
type SessionOptions struct {
	Sequence *visualizer.Sequence
	Renderer *visualizer.BarRenderer
	Recorder Recorder
	Clock    *player.Clock

	// Advance moves a virtual playback forward after each tick. Nil when a
	// real player drives the clock.
	Advance func()

	// TickPeriod is the per-tick budget. When Pace is set the loop also
	// waits for it between ticks.
	TickPeriod time.Duration
	Pace       bool

	// Smoother eases heights between ticks; nil draws raw heights.
	Smoother *visualizer.SpringSmoother

	// OnCapture is called after each recorded frame with the running count.
	OnCapture func(captured int)

	Logger *log.Logger
}

// Session is the cooperative capture loop: each tick samples the playback
// clock, selects the matching spectral frame, renders it and records it.
type Session struct {
	opts  SessionOptions
	ticks *TickStats

	stopped atomic.Bool

	mu       sync.Mutex
	captured int
}

func NewSession(opts SessionOptions) (*Session, error) {
	switch {
	case opts.Sequence == nil:
		return nil, errors.New("session needs a spectral sequence")
	case opts.Renderer == nil:
		return nil, errors.New("session needs a renderer")
	case opts.Recorder == nil:
		return nil, errors.New("session needs a recorder")
	case opts.Clock == nil:
		return nil, errors.New("session needs a clock")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Session{opts: opts, ticks: NewTickStats(256)}, nil
}

// Stop ends capture after the current tick. Frames captured so far are kept.
func (s *Session) Stop() { s.stopped.Store(true) }

// Stopped reports whether Stop has been called.
func (s *Session) Stopped() bool { return s.stopped.Load() }

// Stats returns tick overrun statistics.
func (s *Session) Stats() *TickStats { return s.ticks }

// Captured returns the number of recorded frames.
func (s *Session) Captured() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captured
}

// Tick runs one capture step. It returns false when capture is over,
// either because playback ended or Stop was called.
func (s *Session) Tick() (bool, error) {
	if s.stopped.Load() {
		return false, nil
	}
	clock := s.opts.Clock
	if !clock.Sample() {
		return false, nil
	}

	idx := clock.Index()
	var frame *visualizer.SpectralFrame
	if s.opts.Sequence.Len() > 0 {
		frame = s.opts.Sequence.At(idx)
	}

	heights := s.opts.Renderer.Heights(frame)
	if s.opts.Smoother != nil {
		heights = s.opts.Smoother.Step(heights, float64(s.opts.Renderer.Options().Height))
	}

	s.mu.Lock()
	ordinal := s.captured
	s.mu.Unlock()

	rendered := s.opts.Renderer.Draw(heights, ordinal)
	rendered.Spectral = idx
	if err := s.opts.Recorder.Capture(rendered); err != nil {
		return false, fmt.Errorf("recording frame %d: %w", ordinal, err)
	}

	s.mu.Lock()
	s.captured++
	count := s.captured
	s.mu.Unlock()

	if s.opts.OnCapture != nil {
		s.opts.OnCapture(count)
	}
	if s.opts.Advance != nil {
		s.opts.Advance()
	}
	return true, nil
}

// Run drives Tick until playback ends, Stop is called or ctx is cancelled.
// Cancellation returns an error wrapping both ErrAborted and ctx.Err().
func (s *Session) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if s.opts.Pace && s.opts.TickPeriod > 0 {
		ticker := time.NewTicker(s.opts.TickPeriod)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrAborted, err)
		}

		start := time.Now()
		more, err := s.Tick()
		if err != nil {
			return err
		}
		if !more {
			s.opts.Logger.Debug("capture finished",
				"frames", s.Captured(),
				"max_overrun", s.ticks.Max(),
				"stopped", s.stopped.Load())
			return nil
		}
		if s.opts.TickPeriod > 0 {
			s.ticks.Observe(time.Since(start) - s.opts.TickPeriod)
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
			case <-tick:
			}
		}
	}
}
