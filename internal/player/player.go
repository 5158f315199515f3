package player

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/olivier-w/barviz/internal/media"
)

const (
	sampleRate   = 44100
	channelCount = 2
	bitDepth     = 2
	frameBytes   = channelCount * bitDepth
	bytesPerSec  = sampleRate * frameBytes
)

// countingReader records how many PCM bytes oto has pulled from the track.
type countingReader struct {
	reader io.Reader
	pos    atomic.Int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.pos.Add(int64(n))
	return n, err
}

func (cr *countingReader) Pos() int64 {
	return cr.pos.Load()
}

var (
	deviceOnce sync.Once
	device     *oto.Context
	deviceErr  error
)

// openDevice creates the process-wide oto context. oto allows only one.
func openDevice() (*oto.Context, error) {
	deviceOnce.Do(func() {
		var ready chan struct{}
		device, ready, deviceErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channelCount,
			Format:       oto.FormatSignedInt16LE,
		})
		if deviceErr == nil {
			<-ready
		}
	})
	return device, deviceErr
}

// Player plays a decoded track aloud and reports the audible position, so
// a capture clock can follow what the listener actually hears.
type Player struct {
	pcm    *countingReader
	stream *oto.Player
	size   int64

	finished chan struct{}
	closing  chan struct{}
	once     sync.Once
	closeErr error
}

// New starts playing track from the beginning.
func New(track *media.AudioTrack) (*Player, error) {
	data := encodePCM(track)
	dev, err := openDevice()
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}

	p := &Player{
		pcm:      &countingReader{reader: bytes.NewReader(data)},
		size:     int64(len(data)),
		finished: make(chan struct{}),
		closing:  make(chan struct{}),
	}
	p.stream = dev.NewPlayer(p.pcm)
	p.stream.Play()
	go p.watch()
	return p, nil
}

// watch closes finished once oto has drained every byte of the track.
func (p *Player) watch() {
	t := time.NewTicker(20 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-p.closing:
			return
		case <-t.C:
			if p.pcm.Pos() >= p.size && p.stream.BufferedSize() == 0 {
				close(p.finished)
				return
			}
		}
	}
}

// Position returns the audible playback position: bytes handed to the
// device minus what is still buffered. It returns -1 once playback has
// finished or the player is closed.
func (p *Player) Position() time.Duration {
	select {
	case <-p.finished:
		return -1
	case <-p.closing:
		return -1
	default:
	}
	return bytesToDuration(playedBytes(p.pcm.Pos(), p.stream.BufferedSize()))
}

// Close stops playback and releases the device stream.
func (p *Player) Close() error {
	p.once.Do(func() {
		close(p.closing)
		p.stream.Pause()
		p.closeErr = p.stream.Close()
	})
	return p.closeErr
}

func playedBytes(consumed int64, buffered int) int64 {
	played := consumed - int64(buffered)
	if played < 0 {
		return 0
	}
	return played - played%frameBytes
}

func bytesToDuration(n int64) time.Duration {
	return time.Duration(float64(n) / float64(bytesPerSec) * float64(time.Second))
}

// encodePCM converts track to interleaved 16-bit stereo at the device rate,
// resampling linearly when the track rate differs.
func encodePCM(track *media.AudioTrack) []byte {
	src := track.Samples
	shift := track.BitDepth - 16

	n := len(src)
	if track.SampleRate != sampleRate && n > 0 {
		n = int(int64(len(src)) * sampleRate / int64(track.SampleRate))
	}
	step := float64(track.SampleRate) / sampleRate

	out := make([]byte, n*frameBytes)
	for i := 0; i < n; i++ {
		var v float64
		if track.SampleRate == sampleRate {
			v = float64(src[i])
		} else {
			at := float64(i) * step
			k := int(at)
			frac := at - float64(k)
			next := min(k+1, len(src)-1)
			v = float64(src[k])*(1-frac) + float64(src[next])*frac
		}
		s := to16(v, shift)
		binary.LittleEndian.PutUint16(out[i*frameBytes:], uint16(s))
		binary.LittleEndian.PutUint16(out[i*frameBytes+bitDepth:], uint16(s))
	}
	return out
}

func to16(v float64, shift int) int16 {
	switch {
	case shift > 0:
		v /= float64(int64(1) << shift)
	case shift < 0:
		v *= float64(int64(1) << -shift)
	}
	return int16(min(max(v, -32768), 32767))
}
