package media

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var (
	ffmpegLookPath = exec.LookPath
	ffmpegRun      = func(name string, args ...string) ([]byte, error) {
		cmd := exec.Command(name, args...)
		cmd.Stdin = nil
		return cmd.CombinedOutput()
	}
	mkdirTemp = os.MkdirTemp
	removeAll = os.RemoveAll
	sleep     = time.Sleep
)

func needsTranscode(ext string) bool {
	switch strings.ToLower(ext) {
	case ".aac", ".m4a", ".m4b":
		return true
	default:
		return false
	}
}

// loadTranscoded decodes containers Go has no native decoder for by letting
// ffmpeg write a 16-bit WAV next to nothing else in a private temp dir.
func loadTranscoded(path string) (*AudioTrack, error) {
	wavPath, cleanup, err := transcodeToTempWAV(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer cleanup()

	f, err := os.Open(wavPath)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	return loadFrom(path, f, decodeWAV)
}

func transcodeToTempWAV(path string) (string, func(), error) {
	ffmpeg, err := ffmpegLookPath("ffmpeg")
	if err != nil {
		return "", nil, errFFmpegNotFound
	}

	tmpDir, err := mkdirTemp("", "barviz-audio-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp dir: %w", err)
	}
	cleanup := func() {
		RemoveDirWithRetry(tmpDir)
	}

	outPath := filepath.Join(tmpDir, "audio.wav")
	output, err := ffmpegRun(ffmpeg, "-y", "-v", "error", "-i", path, "-vn", "-c:a", "pcm_s16le", outPath)
	if err != nil {
		cleanup()
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			return "", nil, fmt.Errorf("ffmpeg failed to decode audio: %w", err)
		}
		return "", nil, fmt.Errorf("ffmpeg failed to decode audio: %w\n%s", err, msg)
	}

	return outPath, cleanup, nil
}

// RemoveDirWithRetry removes dir, retrying briefly when a file inside is
// still held open (ffmpeg on Windows releases handles late).
func RemoveDirWithRetry(dir string) error {
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		if err = removeAll(dir); err == nil || attempt == 4 {
			return err
		}
		sleep(75 * time.Millisecond)
	}
	return err
}
