package video

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/olivier-w/barviz/internal/media"
	"github.com/olivier-w/barviz/internal/player"
	"github.com/olivier-w/barviz/internal/visualizer"
)

func toneTrack(t *testing.T, rate int, seconds float64) *media.AudioTrack {
	t.Helper()
	samples := make([]int32, int(float64(rate)*seconds))
	for i := range samples {
		samples[i] = int32(8000 * math.Sin(2*math.Pi*220*float64(i)/float64(rate)))
	}
	track, err := media.NewTrack(samples, rate, 16, 1)
	if err != nil {
		t.Fatalf("NewTrack() error = %v", err)
	}
	return track
}

func buildSequence(t *testing.T, track *media.AudioTrack) *visualizer.Sequence {
	t.Helper()
	seq, err := visualizer.Build(context.Background(), track, visualizer.DefaultBuildOptions())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return seq
}

func smallRenderer(t *testing.T, gmax float64) *visualizer.BarRenderer {
	t.Helper()
	opts := visualizer.DefaultBarOptions(gmax)
	opts.Bars = 16
	opts.Width = 64
	opts.Height = 36
	r, err := visualizer.NewBarRenderer(opts)
	if err != nil {
		t.Fatalf("NewBarRenderer() error = %v", err)
	}
	return r
}

// offlineSession captures one frame per refresh period from a virtual clock.
func offlineSession(t *testing.T, track *media.AudioTrack, seq *visualizer.Sequence, rec Recorder) *Session {
	t.Helper()
	period := time.Duration(seq.RefreshPeriod * float64(time.Second))
	vp := player.NewVirtualPlayback(track.Seconds(), seq.RefreshPeriod)
	s, err := NewSession(SessionOptions{
		Sequence:   seq,
		Renderer:   smallRenderer(t, seq.GlobalMax()),
		Recorder:   rec,
		Clock:      player.NewClock(vp, seq.RefreshPeriod, seq.Len()),
		Advance:    vp.Advance,
		TickPeriod: period,
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}
