package visualizer

import "github.com/charmbracelet/harmonica"

// SpringSmoother eases bar heights toward each new target with a damped
// spring, one step per capture tick. It is stateful and must be driven from
// a single goroutine.
type SpringSmoother struct {
	spring harmonica.Spring
	pos    []float64
	vel    []float64
}

// NewSpringSmoother creates a smoother stepping at fps updates per second.
// Damping below 1 lets bars overshoot; 1 is critically damped.
func NewSpringSmoother(fps int, frequency, damping float64) *SpringSmoother {
	if fps < 1 {
		fps = 1
	}
	return &SpringSmoother{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
}

func (s *SpringSmoother) resize(n int) {
	if len(s.pos) == n {
		return
	}
	s.pos = make([]float64, n)
	s.vel = make([]float64, n)
}

// Step advances every bar one tick toward targets and returns the smoothed
// heights, clamped to [0, limit].
func (s *SpringSmoother) Step(targets []float64, limit float64) []float64 {
	s.resize(len(targets))
	out := make([]float64, len(targets))
	for i, target := range targets {
		p, v := s.spring.Update(s.pos[i], s.vel[i], target)
		s.pos[i] = p
		s.vel[i] = v
		out[i] = min(max(p, 0), limit)
	}
	return out
}
