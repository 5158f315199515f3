package pipeline

// Phase is a stage of rendering one input.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseAnalyzing
	PhaseCapturing
	PhaseEncoding
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "Loading"
	case PhaseAnalyzing:
		return "Analyzing"
	case PhaseCapturing:
		return "Capturing"
	case PhaseEncoding:
		return "Encoding"
	case PhaseDone:
		return "Done"
	}
	return "Unknown"
}

// Status is a progress event for one input. Done and Total count spectral
// frames while analyzing and captured frames while capturing.
type Status struct {
	Input string
	Title string
	Phase Phase
	Done  int
	Total int
	Err   error
}

// Fraction returns progress within the phase in [0, 1].
func (s Status) Fraction() float64 {
	if s.Phase == PhaseDone {
		return 1
	}
	if s.Total <= 0 {
		return 0
	}
	return min(max(float64(s.Done)/float64(s.Total), 0), 1)
}
