package main

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/olivier-w/barviz/internal/media"
	"github.com/olivier-w/barviz/internal/video"
)

type recordingEncoder struct {
	mu      sync.Mutex
	outputs []string
}

func (e *recordingEncoder) Encode(_ context.Context, job video.EncodeJob) error {
	e.mu.Lock()
	e.outputs = append(e.outputs, job.Output)
	e.mu.Unlock()
	return os.WriteFile(job.Output, []byte("mp4"), 0o644)
}

func stubRunDeps(t *testing.T) *recordingEncoder {
	t.Helper()
	origTerm, origEnc := isTerminal, encoder
	t.Cleanup(func() { isTerminal, encoder = origTerm, origEnc })
	enc := &recordingEncoder{}
	isTerminal = func() bool { return false }
	encoder = enc
	return enc
}

func writeTone(t *testing.T, path string) {
	t.Helper()
	samples := make([]int32, 4000)
	for i := range samples {
		samples[i] = int32(6000 * math.Sin(float64(i)/5))
	}
	track, err := media.NewTrack(samples, 8000, 16, 1)
	if err != nil {
		t.Fatalf("NewTrack() error = %v", err)
	}
	if err := media.WriteWAVFile(path, track); err != nil {
		t.Fatalf("WriteWAVFile() error = %v", err)
	}
}

func smallFlags(outDir string) []string {
	return []string{"-out", outDir, "-bars", "8", "-width", "32", "-height", "18", "-log-level", "error"}
}

func TestRunUsage(t *testing.T) {
	stubRunDeps(t)
	var stderr bytes.Buffer
	if code := run(nil, &stderr); code != 2 {
		t.Fatalf("run() without inputs = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "Usage: barviz") {
		t.Fatalf("usage not printed: %q", stderr.String())
	}
	if code := run([]string{"-h"}, &stderr); code != 0 {
		t.Fatalf("run(-h) = %d, want 0", code)
	}
	if code := run([]string{"-bars", "0", "x.wav"}, &stderr); code != 2 {
		t.Fatalf("run with invalid config = %d, want 2", code)
	}
}

func TestRunMissingInput(t *testing.T) {
	stubRunDeps(t)
	var stderr bytes.Buffer
	if code := run([]string{filepath.Join(t.TempDir(), "missing.wav")}, &stderr); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
}

func TestRunRendersDirectory(t *testing.T) {
	enc := stubRunDeps(t)
	in := t.TempDir()
	out := t.TempDir()
	writeTone(t, filepath.Join(in, "B.wav"))
	writeTone(t, filepath.Join(in, "a.wav"))

	var stderr bytes.Buffer
	if code := run(append(smallFlags(out), in), &stderr); code != 0 {
		t.Fatalf("run() = %d, stderr:\n%s", code, stderr.String())
	}
	want := []string{
		filepath.Join(out, "Visualizer_a.mp4"),
		filepath.Join(out, "Visualizer_B.mp4"),
	}
	if len(enc.outputs) != 2 || enc.outputs[0] != want[0] || enc.outputs[1] != want[1] {
		t.Fatalf("outputs = %v, want %v", enc.outputs, want)
	}
}

func TestRunContinuesAfterFailure(t *testing.T) {
	enc := stubRunDeps(t)
	in := t.TempDir()
	bad := filepath.Join(in, "bad.wav")
	if err := os.WriteFile(bad, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	good := filepath.Join(in, "good.wav")
	writeTone(t, good)

	var stderr bytes.Buffer
	if code := run(append(smallFlags(t.TempDir()), bad, good), &stderr); code != 1 {
		t.Fatalf("run() = %d, want 1 when a job fails", code)
	}
	if len(enc.outputs) != 1 || filepath.Base(enc.outputs[0]) != "Visualizer_good.mp4" {
		t.Fatalf("outputs = %v, want only the good file", enc.outputs)
	}
}
