package visualizer

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/olivier-w/barviz/internal/media"
)

func sineTrack(t *testing.T, rate int, seconds, freq float64) *media.AudioTrack {
	t.Helper()
	samples := make([]int32, int(float64(rate)*seconds))
	for i := range samples {
		samples[i] = int32(12000 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	track, err := media.NewTrack(samples, rate, 16, 1)
	if err != nil {
		t.Fatalf("NewTrack() error = %v", err)
	}
	return track
}

func TestFrameCount(t *testing.T) {
	tests := []struct {
		seconds, period float64
		want            int
	}{
		{10, 0.03, 334},
		{0.3, 0.03, 10},
		{0.30001, 0.03, 11},
		{0.01, 0.03, 1},
		{0, 0.03, 0},
		{1, 0, 0},
	}
	for _, tt := range tests {
		if got := FrameCount(tt.seconds, tt.period); got != tt.want {
			t.Errorf("FrameCount(%v, %v) = %d, want %d", tt.seconds, tt.period, got, tt.want)
		}
	}
}

func TestBuildTenSecondScenario(t *testing.T) {
	track := sineTrack(t, 44100, 10, 1000)

	seq, err := Build(context.Background(), track, DefaultBuildOptions())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if seq.Len() != 334 {
		t.Fatalf("Len() = %d, want 334", seq.Len())
	}

	for i := 0; i < seq.Len(); i++ {
		f := seq.At(i)
		if math.Abs(f.Timestamp-float64(i)*0.03) > 1e-9 {
			t.Fatalf("frame %d timestamp = %v", i, f.Timestamp)
		}
		if len(f.Frequencies) != len(f.Magnitudes) {
			t.Fatalf("frame %d: %d frequencies, %d magnitudes", i, len(f.Frequencies), len(f.Magnitudes))
		}
		for k, m := range f.Magnitudes {
			if m < 0 {
				t.Fatalf("frame %d bin %d negative magnitude %v", i, k, m)
			}
			if k > 0 && f.Frequencies[k] <= f.Frequencies[k-1] {
				t.Fatalf("frame %d frequencies not increasing at %d", i, k)
			}
		}
	}

	x, y := WindowBounds(track, 0, 0.03, 3)
	if x != 0 || y != 3969 {
		t.Fatalf("WindowBounds(0) = [%d, %d), want [0, 3969)", x, y)
	}
	first := seq.At(0)
	if want := int(3969 * 2 / 10); len(first.Magnitudes) != want {
		t.Fatalf("frame 0 keeps %d bins, want %d", len(first.Magnitudes), want)
	}
	if math.Abs(first.Frequencies[1]-44100.0/3969) > 1e-9 {
		t.Fatalf("frequency resolution = %v", first.Frequencies[1])
	}

	_, y = WindowBounds(track, 333, 0.03, 3)
	if y != track.FrameCount()-1 {
		t.Fatalf("last window end = %d, want clamp to %d", y, track.FrameCount()-1)
	}

	mid := seq.At(100)
	peakBin := 0
	for k, m := range mid.Magnitudes {
		if m > mid.Magnitudes[peakBin] {
			peakBin = k
		}
	}
	resolution := 44100.0 / 3969
	if math.Abs(mid.Frequencies[peakBin]-1000) > resolution {
		t.Fatalf("peak at %v Hz, want ~1000 Hz", mid.Frequencies[peakBin])
	}

	gmax := 0.0
	for i := range seq.Frames {
		gmax = math.Max(gmax, seq.Frames[i].Peak())
	}
	if seq.GlobalMax() != gmax || gmax <= 0 {
		t.Fatalf("GlobalMax() = %v, want %v", seq.GlobalMax(), gmax)
	}
}

func TestBuildIsDeterministicAcrossWorkerCounts(t *testing.T) {
	track := sineTrack(t, 8000, 1, 440)

	opts := DefaultBuildOptions()
	opts.Workers = 1
	serial, err := Build(context.Background(), track, opts)
	if err != nil {
		t.Fatalf("Build(serial) error = %v", err)
	}
	opts.Workers = 8
	parallel, err := Build(context.Background(), track, opts)
	if err != nil {
		t.Fatalf("Build(parallel) error = %v", err)
	}

	if serial.Len() != parallel.Len() {
		t.Fatalf("lengths differ: %d vs %d", serial.Len(), parallel.Len())
	}
	for i := range serial.Frames {
		a, b := serial.At(i), parallel.At(i)
		if a.Timestamp != b.Timestamp || len(a.Magnitudes) != len(b.Magnitudes) {
			t.Fatalf("frame %d differs", i)
		}
		for k := range a.Magnitudes {
			if a.Magnitudes[k] != b.Magnitudes[k] {
				t.Fatalf("frame %d bin %d differs", i, k)
			}
		}
	}
}

func TestBuildShortTrackYieldsEmptyTailFrames(t *testing.T) {
	samples := make([]int32, 10)
	for i := range samples {
		samples[i] = int32(i * 100)
	}
	track, err := media.NewTrack(samples, 100, 16, 1)
	if err != nil {
		t.Fatalf("NewTrack() error = %v", err)
	}

	seq, err := Build(context.Background(), track, DefaultBuildOptions())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if seq.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", seq.Len())
	}
	last := seq.At(3)
	if len(last.Magnitudes) != 0 || len(last.Frequencies) != 0 {
		t.Fatalf("expected empty tail frame, got %d bins", len(last.Magnitudes))
	}
}

func TestBuildReportsProgress(t *testing.T) {
	track := sineTrack(t, 8000, 0.5, 200)
	opts := DefaultBuildOptions()
	var calls, lastTotal atomic.Int64
	opts.OnFrame = func(done, total int) {
		calls.Add(1)
		lastTotal.Store(int64(total))
	}
	seq, err := Build(context.Background(), track, opts)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if int(calls.Load()) != seq.Len() || int(lastTotal.Load()) != seq.Len() {
		t.Fatalf("OnFrame called %d times with total %d, want %d", calls.Load(), lastTotal.Load(), seq.Len())
	}
}

type shortEngine struct{}

func (shortEngine) Magnitudes(window []float64) []float64 {
	if len(window) == 0 {
		return nil
	}
	return make([]float64, len(window)-1)
}

func TestBuildReportsAnalysisError(t *testing.T) {
	track := sineTrack(t, 8000, 0.2, 200)
	opts := DefaultBuildOptions()
	opts.Engine = shortEngine{}

	_, err := Build(context.Background(), track, opts)
	var ae *AnalysisError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AnalysisError, got %v", err)
	}
	if !errors.Is(err, ErrSpectrumLength) {
		t.Fatalf("expected ErrSpectrumLength, got %v", err)
	}
}

func TestBuildCancelled(t *testing.T) {
	track := sineTrack(t, 8000, 2, 200)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, track, DefaultBuildOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBuildRejectsInvalidOptions(t *testing.T) {
	track := sineTrack(t, 8000, 0.2, 200)
	mutate := []func(*BuildOptions){
		func(o *BuildOptions) { o.RefreshPeriod = 0 },
		func(o *BuildOptions) { o.WindowSpan = -1 },
		func(o *BuildOptions) { o.FrequencyRatio = 1.5 },
		func(o *BuildOptions) { o.FrequencyRatio = math.NaN() },
		func(o *BuildOptions) { o.Engine = nil },
	}
	for i, m := range mutate {
		opts := DefaultBuildOptions()
		m(&opts)
		if _, err := Build(context.Background(), track, opts); !errors.Is(err, ErrInvalidOptions) {
			t.Fatalf("case %d: expected ErrInvalidOptions, got %v", i, err)
		}
	}
}
