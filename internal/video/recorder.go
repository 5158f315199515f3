package video

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fogleman/gg"
	"github.com/olivier-w/barviz/internal/visualizer"
)

// Recorder accumulates rendered frames in capture order. Implementations
// never drop, reorder or deduplicate frames.
type Recorder interface {
	Capture(frame *visualizer.RenderedFrame) error
	Frames() []*visualizer.RenderedFrame
	Len() int
}

var errNoPixels = errors.New("frame has no image")

// MemoryRecorder keeps every captured frame in memory.
type MemoryRecorder struct {
	mu     sync.Mutex
	frames []*visualizer.RenderedFrame
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Capture appends frame and stamps its ordinal.
func (r *MemoryRecorder) Capture(frame *visualizer.RenderedFrame) error {
	if frame == nil || (frame.Image == nil && frame.Path == "") {
		return errNoPixels
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	frame.Index = len(r.frames)
	r.frames = append(r.frames, frame)
	return nil
}

// Frames returns the captured frames. The slice must not be modified.
func (r *MemoryRecorder) Frames() []*visualizer.RenderedFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames[:len(r.frames):len(r.frames)]
}

func (r *MemoryRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// SpoolRecorder writes each frame to a PNG in its workspace as soon as it is
// captured and drops the pixel buffer, so memory stays flat on long tracks.
type SpoolRecorder struct {
	ws     *Workspace
	mu     sync.Mutex
	frames []*visualizer.RenderedFrame
}

func NewSpoolRecorder(ws *Workspace) *SpoolRecorder {
	return &SpoolRecorder{ws: ws}
}

// Capture stamps the ordinal, saves the image and releases it.
func (r *SpoolRecorder) Capture(frame *visualizer.RenderedFrame) error {
	if frame == nil || frame.Image == nil {
		return errNoPixels
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	index := len(r.frames)
	path := r.ws.FramePath(index)
	if err := gg.SavePNG(path, frame.Image); err != nil {
		return fmt.Errorf("spooling frame %d: %w", index, err)
	}
	frame.Index = index
	frame.Path = path
	frame.Release()
	r.frames = append(r.frames, frame)
	return nil
}

func (r *SpoolRecorder) Frames() []*visualizer.RenderedFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames[:len(r.frames):len(r.frames)]
}

func (r *SpoolRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}
