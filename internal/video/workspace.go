package video

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/olivier-w/barviz/internal/media"
)

// FramePattern names captured frames by ordinal inside a workspace.
const FramePattern = "frame_%06d.png"

var (
	mkdirTemp = os.MkdirTemp
	removeDir = media.RemoveDirWithRetry
)

// Workspace is a private temporary directory holding frame images and the
// audio track while a video is assembled.
type Workspace struct {
	dir string
}

// NewWorkspace creates an empty workspace under the system temp dir.
func NewWorkspace() (*Workspace, error) {
	dir, err := mkdirTemp("", "barviz-frames-*")
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string { return w.dir }

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string { return filepath.Join(w.dir, name) }

// FramePath returns the image path of frame index.
func (w *Workspace) FramePath(index int) string {
	return w.Path(fmt.Sprintf(FramePattern, index))
}

// Pattern returns the printf-style frame path understood by ffmpeg.
func (w *Workspace) Pattern() string { return w.Path(FramePattern) }

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	if w.dir == "" {
		return nil
	}
	err := removeDir(w.dir)
	if err == nil {
		w.dir = ""
	}
	return err
}
