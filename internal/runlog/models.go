package runlog

import "time"

// Status is the final state of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Run summarizes one pipeline invocation.
type Run struct {
	ID                 string
	Mode               string
	Status             Status
	StartedAt          time.Time
	FinishedAt         time.Time
	Sources            int
	Rendered           int
	Reused             int
	Uploaded           int
	RemoteHits         int
	SkippedSources     int
	SkippedDerivatives int
	Error              string
	Events             []Event
}

// Duration is the wall-clock time the run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Event records a skipped source (Width zero, Format empty) or derivative.
type Event struct {
	Source     string
	Format     string
	Width      int
	Kind       string
	Message    string
	OccurredAt time.Time
}
