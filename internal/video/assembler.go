package video

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"
	"github.com/olivier-w/barviz/internal/media"
	"github.com/olivier-w/barviz/internal/visualizer"
	"golang.org/x/sync/errgroup"
)

// AssemblerOptions configures an Assembler.
type AssemblerOptions struct {
	Width   int
	Height  int
	Workers int // parallel PNG writers; defaults to runtime.NumCPU()
	Encoder Encoder
	Logger  *log.Logger
}

// Result summarizes an assembled video.
type Result struct {
	Output   string
	FPS      float64
	Frames   int
	Duration time.Duration
}

// Assembler muxes captured frames with the track audio into a video file.
type Assembler struct {
	opts AssemblerOptions
}

func NewAssembler(opts AssemblerOptions) *Assembler {
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Encoder == nil {
		opts.Encoder = FFmpegEncoder{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Assembler{opts: opts}
}

// FPS returns the frame rate that spreads frames evenly over duration.
func FPS(frames int, duration time.Duration) float64 {
	if frames == 0 || duration <= 0 {
		return 0
	}
	return float64(frames) / duration.Seconds()
}

// Assemble writes frames, in order, plus the audio of track to outputPath.
// The temporary workspace is always removed before returning.
func (a *Assembler) Assemble(ctx context.Context, frames []*visualizer.RenderedFrame, track *media.AudioTrack, outputPath string) (Result, error) {
	fail := func(err error) (Result, error) {
		return Result{}, &EncodingError{Path: outputPath, Err: err}
	}

	if len(frames) == 0 {
		return fail(ErrNoFrames)
	}
	if track.Duration() <= 0 {
		return fail(media.ErrEmptyTrack)
	}
	if err := prepareOutput(outputPath); err != nil {
		return fail(err)
	}

	ws, err := NewWorkspace()
	if err != nil {
		return fail(err)
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			a.opts.Logger.Warn("removing workspace", "dir", ws.Dir(), "err", cerr)
		}
	}()

	if err := a.writeFrames(ctx, ws, frames); err != nil {
		return fail(err)
	}

	audio := track.Path
	if audio == "" {
		audio = ws.Path("audio.wav")
		if err := media.WriteWAVFile(audio, track); err != nil {
			return fail(fmt.Errorf("writing audio: %w", err))
		}
	}

	fps := FPS(len(frames), track.Duration())
	a.opts.Logger.Debug("encoding video", "frames", len(frames), "fps", fps, "out", outputPath)

	job := EncodeJob{
		Pattern: ws.Pattern(),
		FPS:     fps,
		Audio:   audio,
		Output:  outputPath,
		Width:   a.opts.Width,
		Height:  a.opts.Height,
	}
	if err := a.opts.Encoder.Encode(ctx, job); err != nil {
		return fail(err)
	}

	return Result{
		Output:   outputPath,
		FPS:      fps,
		Frames:   len(frames),
		Duration: track.Duration(),
	}, nil
}

// writeFrames places frame i at ws.FramePath(i): in-memory images are
// encoded, spooled images are checked and linked or copied.
func (a *Assembler) writeFrames(ctx context.Context, ws *Workspace, frames []*visualizer.RenderedFrame) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, f := range frames {
		if gctx.Err() != nil {
			break
		}
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dst := ws.FramePath(i)
			switch {
			case f.Image != nil:
				if err := gg.SavePNG(dst, f.Image); err != nil {
					return fmt.Errorf("writing frame %d: %w", i, err)
				}
			case f.Path != "":
				if _, err := gg.LoadPNG(f.Path); err != nil {
					return fmt.Errorf("reading spooled frame %d: %w", i, err)
				}
				if err := linkOrCopy(f.Path, dst); err != nil {
					return fmt.Errorf("staging frame %d: %w", i, err)
				}
			default:
				return fmt.Errorf("frame %d: %w", i, errNoPixels)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func prepareOutput(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	_, statErr := os.Stat(path)
	existed := statErr == nil

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("output not writable: %w", err)
	}
	f.Close()
	if !existed {
		os.Remove(path)
	}
	return nil
}

func linkOrCopy(src, dst string) error {
	if filepath.Clean(src) == filepath.Clean(dst) {
		return nil
	}
	if err := os.Link(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
