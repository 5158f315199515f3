package video

import (
	"errors"
	"fmt"
)

var (
	ErrNoFrames       = errors.New("no frames captured")
	ErrAborted        = errors.New("capture aborted")
	ErrFFmpegNotFound = errors.New("ffmpeg not found")
)

// EncodingError reports a failure to assemble or write the output video.
type EncodingError struct {
	Path string
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding %s: %v", e.Path, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
