package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// pcm is interleaved integer audio straight out of a format decoder.
type pcm struct {
	data       []int
	channels   int
	sampleRate int
	bitDepth   int
}

// decodeFunc turns an open container into interleaved PCM.
type decodeFunc func(r io.ReadSeeker) (pcm, error)

var decoders = map[string]decodeFunc{
	".wav":  decodeWAV,
	".flac": decodeFLAC,
	".mp3":  decodeMP3,
	".ogg":  decodeOGG,
}

// Load reads the audio file at path into a mono track. Any failure is
// reported as a *DecodeError.
func Load(path string) (*AudioTrack, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if needsTranscode(ext) {
		return loadTranscoded(path)
	}

	decode, ok := decoders[ext]
	if !ok {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	return loadFrom(path, f, decode)
}

func loadFrom(path string, r io.ReadSeeker, decode decodeFunc) (*AudioTrack, error) {
	p, err := decode(r)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	track, err := p.track()
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = path
			return nil, de
		}
		return nil, &DecodeError{Path: path, Err: err}
	}
	track.Path = path
	return track, nil
}

func (p pcm) track() (*AudioTrack, error) {
	if p.channels < 1 {
		return nil, ErrNoChannels
	}
	if !validBitDepth(p.bitDepth) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, p.bitDepth)
	}
	mono, err := downmix(p.data, p.channels)
	if err != nil {
		return nil, err
	}
	return NewTrack(mono, p.sampleRate, p.bitDepth, p.channels)
}

// --- WAV ---

func decodeWAV(r io.ReadSeeker) (pcm, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return pcm{}, fmt.Errorf("invalid WAV file: %w", err)
		}
		if dec.NumChans < 1 {
			return pcm{}, ErrNoChannels
		}
		return pcm{}, fmt.Errorf("invalid WAV file")
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return pcm{}, fmt.Errorf("%w: WAV format tag %d", ErrUnsupportedEncoding, dec.WavAudioFormat)
	}

	bitDepth := int(dec.BitDepth)
	if !validBitDepth(bitDepth) {
		return pcm{}, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	channels := int(dec.NumChans)

	if err := dec.FwdToPCM(); err != nil {
		return pcm{}, fmt.Errorf("reading WAV PCM data: %w", err)
	}
	frameSize := int64(channels) * int64(bitDepth/8)
	if dec.PCMLen()%frameSize != 0 {
		return pcm{}, fmt.Errorf("%w: %d bytes with %d-byte frames", ErrPartialFrame, dec.PCMLen(), frameSize)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return pcm{}, fmt.Errorf("reading WAV PCM data: %w", err)
	}
	data := buf.Data
	if bitDepth == 8 {
		// 8-bit WAV is unsigned
		for i, v := range data {
			data[i] = v - 128
		}
	}

	return pcm{
		data:       data,
		channels:   channels,
		sampleRate: int(dec.SampleRate),
		bitDepth:   bitDepth,
	}, nil
}

// --- FLAC ---

func decodeFLAC(r io.ReadSeeker) (pcm, error) {
	stream, err := flac.New(r)
	if err != nil {
		return pcm{}, fmt.Errorf("decoding FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	bps := int(info.BitsPerSample)
	target := containerBitDepth(bps)
	if target == 0 {
		return pcm{}, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bps)
	}
	shift := uint(target - bps)

	data := make([]int, 0, int(info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return pcm{}, fmt.Errorf("decoding FLAC frame: %w", err)
		}
		if len(frame.Subframes) != channels {
			return pcm{}, fmt.Errorf("FLAC frame has %d subframes, want %d", len(frame.Subframes), channels)
		}
		n := int(frame.Subframes[0].NSamples)
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				data = append(data, int(frame.Subframes[ch].Samples[i])<<shift)
			}
		}
	}

	return pcm{
		data:       data,
		channels:   channels,
		sampleRate: int(info.SampleRate),
		bitDepth:   target,
	}, nil
}

// containerBitDepth rounds an odd FLAC sample size up to the next supported
// depth. Returns 0 when nothing fits.
func containerBitDepth(bps int) int {
	for _, d := range []int{8, 16, 24, 32} {
		if bps <= d {
			return d
		}
	}
	return 0
}

// --- MP3 ---

func decodeMP3(r io.ReadSeeker) (pcm, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return pcm{}, fmt.Errorf("decoding MP3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return pcm{}, fmt.Errorf("decoding MP3: %w", err)
	}

	// go-mp3 always yields 16-bit little-endian stereo.
	raw = raw[:len(raw)-len(raw)%4]
	data := make([]int, len(raw)/2)
	for i := range data {
		data[i] = int(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}
	return pcm{data: data, channels: 2, sampleRate: dec.SampleRate(), bitDepth: 16}, nil
}

// --- OGG Vorbis ---

func decodeOGG(r io.ReadSeeker) (pcm, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return pcm{}, fmt.Errorf("decoding OGG: %w", err)
	}

	channels := reader.Channels()
	data := make([]int, 0, reader.Length()*int64(channels))
	buf := make([]float32, 4096*channels)
	for {
		n, err := reader.Read(buf)
		for _, s := range buf[:n] {
			data = append(data, floatTo16(s))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return pcm{}, fmt.Errorf("decoding OGG: %w", err)
		}
		if n == 0 {
			break
		}
	}

	return pcm{data: data, channels: channels, sampleRate: reader.SampleRate(), bitDepth: 16}, nil
}

func floatTo16(s float32) int {
	if s > 1.0 {
		s = 1.0
	} else if s < -1.0 {
		s = -1.0
	}
	return int(s * 32767)
}
