package ui

import "github.com/olivier-w/barviz/internal/pipeline"

// statusMsg wraps a pipeline Status for the Bubbletea message loop.
type statusMsg pipeline.Status

// batchDoneMsg signals the status channel was closed.
type batchDoneMsg struct{}
