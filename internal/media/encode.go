package media

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV encodes t as a mono PCM WAV at its source bit depth.
func WriteWAV(w io.WriteSeeker, t *AudioTrack) error {
	data := make([]int, len(t.Samples))
	for i, s := range t.Samples {
		data[i] = int(s)
	}
	if t.BitDepth == 8 {
		for i := range data {
			data[i] += 128
		}
	}

	enc := wav.NewEncoder(w, t.SampleRate, t.BitDepth, 1, wavFormatPCM)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: 1, SampleRate: t.SampleRate},
		SourceBitDepth: t.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding WAV: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing WAV: %w", err)
	}
	return nil
}

// WriteWAVFile writes t to a new WAV file at path.
func WriteWAVFile(path string, t *AudioTrack) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWAV(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
