package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/olivier-w/barviz/internal/config"
	"github.com/olivier-w/barviz/internal/media"
	"github.com/olivier-w/barviz/internal/player"
	"github.com/olivier-w/barviz/internal/util"
	"github.com/olivier-w/barviz/internal/video"
	"github.com/olivier-w/barviz/internal/visualizer"
)

// Options configures a Pipeline.
type Options struct {
	Config  config.Config
	Logger  *log.Logger
	Encoder video.Encoder // nil runs ffmpeg
	// OnStatus receives progress events from the rendering goroutines.
	OnStatus func(Status)
}

var (
	probeMedia = video.ProbeMedia
	startLive  = func(track *media.AudioTrack) (livePlayback, error) { return player.New(track) }
)

type livePlayback interface {
	player.Playback
	Close() error
}

// Pipeline renders audio files into bar visualizer videos: load, analyze,
// capture, assemble.
type Pipeline struct {
	opts Options
	log  *log.Logger

	mu      sync.Mutex
	session *video.Session
	stopped bool
}

func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Pipeline{opts: opts, log: opts.Logger}
}

// OutputPath returns the video path for input inside outDir.
func OutputPath(outDir, input string) string {
	return filepath.Join(outDir, "Visualizer_"+media.BaseName(input)+".mp4")
}

// Stop ends the current capture early; frames captured so far are still
// assembled. Later renders capture nothing.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.session != nil {
		p.session.Stop()
	}
}

// Stopped reports whether Stop has been called.
func (p *Pipeline) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// Run loads input and renders it next to the configured output directory.
func (p *Pipeline) Run(ctx context.Context, input string) (video.Result, error) {
	title := media.ReadMetadata(input).Label()
	p.emit(Status{Input: input, Title: title, Phase: PhaseLoading})

	track, err := media.Load(input)
	if err != nil {
		return video.Result{}, err
	}
	p.log.Info("loaded", "file", filepath.Base(input),
		"duration", util.FormatDuration(track.Duration()),
		"rate", track.SampleRate, "bits", track.BitDepth, "channels", track.Channels)

	return p.render(ctx, track, input, title, OutputPath(p.opts.Config.OutDir, input))
}

// Render renders an already loaded track to output.
func (p *Pipeline) Render(ctx context.Context, track *media.AudioTrack, output string) (video.Result, error) {
	input := track.Path
	title := media.BaseName(output)
	if input != "" {
		title = media.BaseName(input)
	}
	return p.render(ctx, track, input, title, output)
}

func (p *Pipeline) render(ctx context.Context, track *media.AudioTrack, input, title, output string) (video.Result, error) {
	cfg := p.opts.Config
	if err := cfg.Validate(); err != nil {
		return video.Result{}, fmt.Errorf("invalid config: %w", err)
	}
	status := func(phase Phase, done, total int) {
		p.emit(Status{Input: input, Title: title, Phase: phase, Done: done, Total: total})
	}

	buildOpts, err := cfg.BuildOptions()
	if err != nil {
		return video.Result{}, err
	}
	buildOpts.OnFrame = func(done, total int) { status(PhaseAnalyzing, done, total) }

	start := time.Now()
	seq, err := visualizer.Build(ctx, track, buildOpts)
	if err != nil {
		return video.Result{}, err
	}
	p.log.Debug("spectral frames ready", "frames", seq.Len(), "global_max", seq.GlobalMax(), "took", time.Since(start).Round(time.Millisecond))

	barOpts, err := cfg.BarOptions(seq.GlobalMax())
	if err != nil {
		return video.Result{}, err
	}
	renderer, err := visualizer.NewBarRenderer(barOpts)
	if err != nil {
		return video.Result{}, err
	}

	var recorder video.Recorder = video.NewMemoryRecorder()
	if cfg.Spool {
		ws, err := video.NewWorkspace()
		if err != nil {
			return video.Result{}, err
		}
		defer func() {
			if err := ws.Close(); err != nil {
				p.log.Warn("removing spool dir", "dir", ws.Dir(), "err", err)
			}
		}()
		recorder = video.NewSpoolRecorder(ws)
	}

	sessOpts := video.SessionOptions{
		Sequence: seq,
		Renderer: renderer,
		Recorder: recorder,
		Logger:   p.log,
	}
	total := seq.Len()
	if cfg.Live {
		live, err := startLive(track)
		if err != nil {
			return video.Result{}, fmt.Errorf("starting playback: %w", err)
		}
		defer live.Close()
		sessOpts.Clock = player.NewClock(live, cfg.RefreshPeriod, seq.Len())
		sessOpts.TickPeriod = cfg.TickPeriod()
		sessOpts.Pace = true
		total = int(math.Ceil(track.Seconds() * cfg.TickRate))
	} else {
		period := time.Duration(cfg.RefreshPeriod * float64(time.Second))
		vp := player.NewVirtualPlayback(track.Seconds(), cfg.RefreshPeriod)
		sessOpts.Clock = player.NewClock(vp, cfg.RefreshPeriod, seq.Len())
		sessOpts.Advance = vp.Advance
		sessOpts.TickPeriod = period
	}
	if cfg.Smooth {
		fps := int(math.Round(float64(time.Second) / float64(sessOpts.TickPeriod)))
		sessOpts.Smoother = visualizer.NewSpringSmoother(fps, 6, 0.6)
	}
	sessOpts.OnCapture = func(n int) { status(PhaseCapturing, n, total) }

	session, err := video.NewSession(sessOpts)
	if err != nil {
		return video.Result{}, err
	}
	p.mu.Lock()
	p.session = session
	if p.stopped {
		session.Stop()
	}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.session = nil
		p.mu.Unlock()
	}()

	if err := session.Run(ctx); err != nil {
		return video.Result{}, err
	}
	stats := session.Stats()
	p.log.Debug("capture done", "frames", recorder.Len(), "max_overrun", stats.Max(), "mean_overrun", stats.Mean())

	status(PhaseEncoding, 0, 1)
	asm := video.NewAssembler(video.AssemblerOptions{
		Width:   cfg.Width,
		Height:  cfg.Height,
		Workers: cfg.Workers,
		Encoder: p.opts.Encoder,
		Logger:  p.log,
	})
	res, err := asm.Assemble(ctx, recorder.Frames(), track, output)
	if err != nil {
		return video.Result{}, err
	}

	p.summarize(ctx, res)
	status(PhaseDone, res.Frames, res.Frames)
	return res, nil
}

func (p *Pipeline) summarize(ctx context.Context, res video.Result) {
	kv := []any{
		"out", res.Output,
		"frames", res.Frames,
		"fps", util.FormatFPS(res.FPS),
		"audio", util.FormatDuration(res.Duration),
	}
	if probe, err := probeMedia(ctx, res.Output); err != nil {
		p.log.Debug("skipping probe", "err", err)
	} else {
		kv = append(kv, "video", util.FormatDuration(probe.Duration))
	}
	p.log.Info("video written", kv...)
}

func (p *Pipeline) emit(s Status) {
	if p.opts.OnStatus != nil {
		p.opts.OnStatus(s)
	}
}
