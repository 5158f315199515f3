package visualizer

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"slices"
	"sync/atomic"

	"github.com/olivier-w/barviz/internal/media"
	"golang.org/x/sync/errgroup"
)

// SpectralFrame is the truncated magnitude spectrum of one analysis window.
type SpectralFrame struct {
	Timestamp   float64   // seconds
	Frequencies []float64 // Hz, increasing
	Magnitudes  []float64 // same length as Frequencies
}

// Peak returns the largest magnitude in the frame, or 0 if it is empty.
func (f *SpectralFrame) Peak() float64 {
	peak := 0.0
	for _, m := range f.Magnitudes {
		if m > peak {
			peak = m
		}
	}
	return peak
}

// Sequence holds every spectral frame of a track in timestamp order.
// It is read-only once Build returns.
type Sequence struct {
	Frames        []SpectralFrame
	RefreshPeriod float64
	globalMax     float64
}

// Len returns the number of frames.
func (s *Sequence) Len() int { return len(s.Frames) }

// At returns frame i.
func (s *Sequence) At(i int) *SpectralFrame { return &s.Frames[i] }

// GlobalMax returns the largest magnitude across the whole sequence.
func (s *Sequence) GlobalMax() float64 { return s.globalMax }

// BuildOptions controls spectral analysis.
type BuildOptions struct {
	RefreshPeriod  float64 // seconds between frames
	WindowSpan     float64 // window length in refresh periods
	FrequencyRatio float64 // fraction of the spectrum kept, lowest bins first
	Engine         Engine
	Workers        int
	// OnFrame is called after each frame completes, from worker goroutines.
	OnFrame func(done, total int)
}

// DefaultBuildOptions returns a 30 ms refresh over three-period windows,
// keeping the lowest fifth of the spectrum.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		RefreshPeriod:  0.03,
		WindowSpan:     3,
		FrequencyRatio: 0.2,
		Engine:         DSPEngine{},
		Workers:        runtime.NumCPU(),
	}
}

func (o BuildOptions) validate() error {
	switch {
	case !(o.RefreshPeriod > 0):
		return fmt.Errorf("%w: refresh period %v", ErrInvalidOptions, o.RefreshPeriod)
	case !(o.WindowSpan > 0):
		return fmt.Errorf("%w: window span %v", ErrInvalidOptions, o.WindowSpan)
	case !(o.FrequencyRatio > 0 && o.FrequencyRatio <= 1):
		return fmt.Errorf("%w: frequency ratio %v", ErrInvalidOptions, o.FrequencyRatio)
	case o.Engine == nil:
		return fmt.Errorf("%w: no FFT engine", ErrInvalidOptions)
	}
	return nil
}

// FrameCount returns ceil(seconds/period). Exact multiples do not gain an
// extra frame from floating-point noise.
func FrameCount(seconds, period float64) int {
	if !(seconds > 0) || !(period > 0) {
		return 0
	}
	return int(math.Ceil(seconds/period - 1e-9))
}

// WindowBounds returns the sample range [x, y) analyzed for frame i: the
// samples nearest to i and i+span refresh periods.
func WindowBounds(track *media.AudioTrack, i int, period, span float64) (int, int) {
	n := track.FrameCount()
	x := NearestIndex(n, track.TimeAt, float64(i)*period)
	y := NearestIndex(n, track.TimeAt, (float64(i)+span)*period)
	return x, y
}

// Build precomputes the spectral frame sequence of track. Frames are
// analyzed in parallel and stored by index.
func Build(ctx context.Context, track *media.AudioTrack, opts BuildOptions) (*Sequence, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	total := FrameCount(track.Seconds(), opts.RefreshPeriod)
	frames := make([]SpectralFrame, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	var done atomic.Int64
	for i := 0; i < total; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := analyzeFrame(track, i, opts)
			if err != nil {
				return err
			}
			frames[i] = f
			if opts.OnFrame != nil {
				opts.OnFrame(int(done.Add(1)), total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seq := &Sequence{Frames: frames, RefreshPeriod: opts.RefreshPeriod}
	for i := range frames {
		seq.globalMax = math.Max(seq.globalMax, frames[i].Peak())
	}
	return seq, nil
}

func analyzeFrame(track *media.AudioTrack, i int, opts BuildOptions) (SpectralFrame, error) {
	x, y := WindowBounds(track, i, opts.RefreshPeriod, opts.WindowSpan)
	if x > y || y > track.FrameCount() {
		return SpectralFrame{}, &AnalysisError{Index: i, Err: fmt.Errorf("%w: [%d, %d) of %d samples", ErrWindowBounds, x, y, track.FrameCount())}
	}

	window := track.Window(x, y)
	mags := opts.Engine.Magnitudes(window)
	if len(mags) != len(window) {
		return SpectralFrame{}, &AnalysisError{Index: i, Err: fmt.Errorf("%w: got %d, want %d", ErrSpectrumLength, len(mags), len(window))}
	}

	length := len(window)
	keep := int(float64(length) * opts.FrequencyRatio)
	freqs := make([]float64, keep)
	for k := range freqs {
		freqs[k] = float64(k) * float64(track.SampleRate) / float64(length)
	}

	return SpectralFrame{
		Timestamp:   float64(i) * opts.RefreshPeriod,
		Frequencies: freqs,
		Magnitudes:  slices.Clone(mags[:keep]),
	}, nil
}
