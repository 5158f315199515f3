package ui

import (
	"fmt"

	"github.com/olivier-w/barviz/internal/pipeline"
)

// finishedJob is one line of the batch log.
type finishedJob struct {
	title string
	err   error
}

func renderFinished(j finishedJob) string {
	if j.err != nil {
		return errorStyle.Render("✗ "+j.title) + "  " + helpStyle.Render(j.err.Error())
	}
	return doneStyle.Render("✓ " + j.title)
}

func renderCounts(s pipeline.Status) string {
	switch s.Phase {
	case pipeline.PhaseAnalyzing:
		return fmt.Sprintf("%d/%d spectra", s.Done, s.Total)
	case pipeline.PhaseCapturing:
		return fmt.Sprintf("%d frames", s.Done)
	}
	return ""
}
