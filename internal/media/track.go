package media

import (
	"fmt"
	"time"
)

// AudioTrack is a decoded mono waveform. It is never mutated after load.
type AudioTrack struct {
	Path       string
	Samples    []int32
	SampleRate int
	BitDepth   int
	Channels   int // channel count of the source before downmix
}

// NewTrack validates and wraps already-decoded mono samples.
func NewTrack(samples []int32, sampleRate, bitDepth, channels int) (*AudioTrack, error) {
	switch {
	case sampleRate <= 0:
		return nil, &DecodeError{Err: fmt.Errorf("invalid sample rate %d", sampleRate)}
	case !validBitDepth(bitDepth):
		return nil, &DecodeError{Err: fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)}
	case channels < 1:
		return nil, &DecodeError{Err: ErrNoChannels}
	case len(samples) == 0:
		return nil, &DecodeError{Err: ErrEmptyTrack}
	}
	return &AudioTrack{
		Samples:    samples,
		SampleRate: sampleRate,
		BitDepth:   bitDepth,
		Channels:   channels,
	}, nil
}

// FrameCount returns the number of mono sample frames.
func (t *AudioTrack) FrameCount() int {
	return len(t.Samples)
}

// Seconds returns the track length in seconds.
func (t *AudioTrack) Seconds() float64 {
	return float64(len(t.Samples)) / float64(t.SampleRate)
}

// Duration returns the track length.
func (t *AudioTrack) Duration() time.Duration {
	return time.Duration(t.Seconds() * float64(time.Second))
}

// TimeAt returns the time in seconds of sample frame k.
func (t *AudioTrack) TimeAt(k int) float64 {
	return float64(k) / float64(t.SampleRate)
}

// Window returns samples [x, y) as float64 for analysis.
func (t *AudioTrack) Window(x, y int) []float64 {
	out := make([]float64, y-x)
	for i, s := range t.Samples[x:y] {
		out[i] = float64(s)
	}
	return out
}

func validBitDepth(bits int) bool {
	switch bits {
	case 8, 16, 24, 32:
		return true
	}
	return false
}

// downmix averages each interleaved sample frame into a single mono value.
func downmix(data []int, channels int) ([]int32, error) {
	if channels < 1 {
		return nil, ErrNoChannels
	}
	if len(data)%channels != 0 {
		return nil, ErrPartialFrame
	}
	out := make([]int32, len(data)/channels)
	if channels == 1 {
		for i, v := range data {
			out[i] = int32(v)
		}
		return out, nil
	}
	for i := range out {
		var sum int64
		for ch := 0; ch < channels; ch++ {
			sum += int64(data[i*channels+ch])
		}
		out[i] = int32(sum / int64(channels))
	}
	return out, nil
}
