package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/olivier-w/barviz/internal/config"
	"github.com/olivier-w/barviz/internal/media"
	"github.com/olivier-w/barviz/internal/pipeline"
	"github.com/olivier-w/barviz/internal/queue"
	"github.com/olivier-w/barviz/internal/ui"
	"github.com/olivier-w/barviz/internal/util"
	"github.com/olivier-w/barviz/internal/video"
)

var (
	isTerminal = func() bool {
		fd := os.Stdout.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	// encoder overrides the ffmpeg encoder; nil uses ffmpeg.
	encoder video.Encoder
)

func run(args []string, stderr io.Writer) int {
	cfg := config.Load()
	fs := flag.NewFlagSet("barviz", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: barviz [flags] <audio file | directory | playlist> ...\n\n")
		fmt.Fprintf(stderr, "Renders Visualizer_<name>.mp4 for each input (supported: %s).\n\nFlags:\n", media.SupportedExtsList())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	level, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.NewWithOptions(stderr, log.Options{
		Level:           level,
		Prefix:          "barviz",
		ReportTimestamp: true,
	})

	inputs, err := media.ResolveInputs(fs.Args())
	if err != nil {
		logger.Error("resolving inputs", "err", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queue.New(inputs, func(in string) string { return pipeline.OutputPath(cfg.OutDir, in) })

	if !isTerminal() {
		p := pipeline.New(pipeline.Options{Config: cfg, Logger: logger, Encoder: encoder})
		stopSignals := handleInterrupts(p.Stop, cancel)
		defer stopSignals()
		runBatch(ctx, p, q, logger, nil)
		return exitCode(ctx, q, logger)
	}

	// The TUI owns the terminal; only warnings and errors reach the log.
	logger.SetLevel(max(level, log.WarnLevel))
	statusCh := make(chan pipeline.Status, 64)
	emit := func(s pipeline.Status) {
		select {
		case statusCh <- s:
		case <-ctx.Done():
		}
	}
	p := pipeline.New(pipeline.Options{Config: cfg, Logger: logger, Encoder: encoder, OnStatus: emit})

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(statusCh)
		runBatch(ctx, p, q, logger, emit)
	}()

	program := tea.NewProgram(ui.NewProgress(q.Len(), statusCh, p.Stop, cancel))
	final, err := program.Run()
	if err != nil {
		cancel()
		logger.Error("progress UI", "err", err)
	}
	<-done
	if m, ok := final.(ui.ProgressModel); ok && m.Aborted() {
		logger.Warn("aborted", "skipped", q.Count(queue.Pending))
		return 1
	}
	return exitCode(ctx, q, logger)
}

// runBatch renders every job in order. A failed job is recorded and the
// batch moves on; Stop or cancellation leaves later jobs pending.
func runBatch(ctx context.Context, p *pipeline.Pipeline, q *queue.Queue, logger *log.Logger, emit func(pipeline.Status)) {
	for job := q.Current(); job != nil; job = q.Current() {
		if ctx.Err() != nil || p.Stopped() {
			return
		}
		q.SetState(queue.Rendering, nil)
		logger.Info("rendering", "input", job.Title, "out", job.Output)

		if _, err := p.Run(ctx, job.Input); err != nil {
			q.SetState(queue.Failed, err)
			logger.Error("render failed", "input", job.Input, "err", err)
			if emit != nil {
				emit(pipeline.Status{Input: job.Input, Title: job.Title, Phase: pipeline.PhaseDone, Err: err})
			}
		} else {
			q.SetState(queue.Done, nil)
		}
		if !q.Advance() {
			return
		}
	}
}

func exitCode(ctx context.Context, q *queue.Queue, logger *log.Logger) int {
	for _, job := range q.Jobs() {
		if job.State == queue.Failed {
			logger.Warn("not rendered", "input", job.Input, "err", job.Err)
		}
	}
	if q.Len() > 1 {
		logger.Info("batch finished",
			"rendered", util.Plural(q.Count(queue.Done), "video"),
			"failed", q.Count(queue.Failed),
			"skipped", q.Count(queue.Pending))
	}
	if ctx.Err() != nil || q.AnyFailed() {
		return 1
	}
	return 0
}

// handleInterrupts calls stop on the first interrupt and abort on the next.
func handleInterrupts(stop, abort func()) func() {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt)
	quit := make(chan struct{})
	go func() {
		stopped := false
		for {
			select {
			case <-sigCh:
				if !stopped {
					stopped = true
					stop()
					continue
				}
				abort()
				return
			case <-quit:
				return
			}
		}
	}()
	return func() {
		signal.Stop(sigCh)
		close(quit)
	}
}
