package media

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat   = errors.New("unsupported audio format")
	ErrUnsupportedEncoding = errors.New("unsupported sample encoding")
	ErrUnsupportedBitDepth = errors.New("unsupported bit depth")
	ErrNoChannels          = errors.New("audio has no channels")
	ErrPartialFrame        = errors.New("pcm data is not a whole number of sample frames")
	ErrEmptyTrack          = errors.New("audio track is empty")
	errFFmpegNotFound      = errors.New("ffmpeg not found (required for .aac/.m4a/.m4b input)")
)

// DecodeError reports an audio file that could not be turned into a track.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("decoding audio: %v", e.Err)
	}
	return fmt.Sprintf("decoding %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
