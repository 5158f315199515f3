package video

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// EncodeJob describes one mux of a numbered PNG sequence with an audio file.
type EncodeJob struct {
	Pattern string // printf-style frame path, frame 0 first
	FPS     float64
	Audio   string
	Output  string
	Width   int
	Height  int
}

// Encoder turns a frame sequence and an audio file into a video container.
type Encoder interface {
	Encode(ctx context.Context, job EncodeJob) error
}

var (
	ffmpegLookPath = exec.LookPath
	ffmpegRun      = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdin = nil
		return cmd.CombinedOutput()
	}
)

// FFmpegEncoder runs the ffmpeg binary found on PATH.
type FFmpegEncoder struct{}

func (FFmpegEncoder) Encode(ctx context.Context, job EncodeJob) error {
	ffmpeg, err := ffmpegLookPath("ffmpeg")
	if err != nil {
		return ErrFFmpegNotFound
	}

	output, err := ffmpegRun(ctx, ffmpeg, encodeArgs(job)...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			return fmt.Errorf("ffmpeg failed: %w", err)
		}
		return fmt.Errorf("ffmpeg failed: %w\n%s", err, msg)
	}
	return nil
}

func encodeArgs(job EncodeJob) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-framerate", strconv.FormatFloat(job.FPS, 'f', -1, 64),
		"-i", job.Pattern,
		"-i", job.Audio,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
	}
	// yuv420p needs even dimensions.
	if job.Width%2 != 0 || job.Height%2 != 0 {
		args = append(args, "-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2")
	}
	return append(args,
		"-c:a", "aac",
		"-shortest",
		"-y", job.Output,
	)
}
