package video

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

func stubFFmpeg(t *testing.T, lookErr error, run func(name string, args []string) ([]byte, error)) {
	t.Helper()
	origLook, origRun := ffmpegLookPath, ffmpegRun
	t.Cleanup(func() {
		ffmpegLookPath, ffmpegRun = origLook, origRun
	})
	ffmpegLookPath = func(string) (string, error) {
		if lookErr != nil {
			return "", lookErr
		}
		return "/usr/bin/ffmpeg", nil
	}
	ffmpegRun = func(_ context.Context, name string, args ...string) ([]byte, error) {
		return run(name, args)
	}
}

func TestEncodeArgs(t *testing.T) {
	args := encodeArgs(EncodeJob{
		Pattern: "/w/frame_%06d.png",
		FPS:     33.4,
		Audio:   "/music/a.wav",
		Output:  "/out/Visualizer_a.mp4",
		Width:   1920,
		Height:  1080,
	})
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-framerate 33.4 -i /w/frame_%06d.png -i /music/a.wav",
		"-c:v libx264 -pix_fmt yuv420p",
		"-c:a aac -shortest -y /out/Visualizer_a.mp4",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
	if slices.Contains(args, "-vf") {
		t.Fatal("even canvas should not be padded")
	}

	odd := encodeArgs(EncodeJob{FPS: 1, Width: 65, Height: 36})
	if !slices.Contains(odd, "-vf") {
		t.Fatal("odd canvas should be padded")
	}
}

func TestFFmpegEncoderNotFound(t *testing.T) {
	stubFFmpeg(t, errors.New("missing"), nil)
	err := FFmpegEncoder{}.Encode(context.Background(), EncodeJob{})
	if !errors.Is(err, ErrFFmpegNotFound) {
		t.Fatalf("Encode() error = %v, want ErrFFmpegNotFound", err)
	}
}

func TestFFmpegEncoderReportsOutput(t *testing.T) {
	var gotName string
	stubFFmpeg(t, nil, func(name string, args []string) ([]byte, error) {
		gotName = name
		return []byte("Unknown encoder 'libx264'\n"), errors.New("exit status 1")
	})
	err := FFmpegEncoder{}.Encode(context.Background(), EncodeJob{FPS: 30})
	if err == nil || !strings.Contains(err.Error(), "libx264") {
		t.Fatalf("Encode() error = %v, want ffmpeg output", err)
	}
	if gotName != "/usr/bin/ffmpeg" {
		t.Fatalf("ran %q", gotName)
	}
}

func TestFFmpegEncoderSuccess(t *testing.T) {
	stubFFmpeg(t, nil, func(string, []string) ([]byte, error) { return nil, nil })
	if err := (FFmpegEncoder{}).Encode(context.Background(), EncodeJob{FPS: 30}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
}
