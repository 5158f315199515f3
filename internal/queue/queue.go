package queue

import "github.com/olivier-w/barviz/internal/media"

// JobState is the render state of one input.
type JobState int

const (
	Pending JobState = iota
	Rendering
	Done
	Failed
)

func (s JobState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Rendering:
		return "rendering"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Job is a single input awaiting or finished rendering.
type Job struct {
	Input  string
	Output string
	Title  string
	State  JobState
	Err    error
}

// Queue holds the batch of jobs in input order. It is only mutated from the
// batch runner goroutine.
type Queue struct {
	jobs    []Job
	current int
}

// New creates a queue with one pending job per input.
func New(inputs []string, outputFor func(string) string) *Queue {
	jobs := make([]Job, len(inputs))
	for i, in := range inputs {
		jobs[i] = Job{
			Input:  in,
			Output: outputFor(in),
			Title:  media.ReadMetadata(in).Label(),
		}
	}
	return &Queue{jobs: jobs}
}

// Current returns a pointer to the current job, or nil if the queue is
// empty or exhausted.
func (q *Queue) Current() *Job {
	if q.current < 0 || q.current >= len(q.jobs) {
		return nil
	}
	return &q.jobs[q.current]
}

// Advance moves to the next job. Returns false if already at the end.
func (q *Queue) Advance() bool {
	if q.current >= len(q.jobs) {
		return false
	}
	q.current++
	return q.current < len(q.jobs)
}

// Len returns the total number of jobs.
func (q *Queue) Len() int {
	return len(q.jobs)
}

// SetState updates the state of the current job.
func (q *Queue) SetState(state JobState, err error) {
	if j := q.Current(); j != nil {
		j.State = state
		j.Err = err
	}
}

// Jobs returns a copy of every job.
func (q *Queue) Jobs() []Job {
	out := make([]Job, len(q.jobs))
	copy(out, q.jobs)
	return out
}

// Count returns how many jobs are in state.
func (q *Queue) Count(state JobState) int {
	n := 0
	for _, j := range q.jobs {
		if j.State == state {
			n++
		}
	}
	return n
}

// AnyFailed reports whether at least one job failed.
func (q *Queue) AnyFailed() bool {
	return q.Count(Failed) > 0
}
