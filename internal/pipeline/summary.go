package pipeline

import (
	"sync"
	"time"

	"srcset/internal/manifest"
	"srcset/internal/runlog"
)

// Summary counts what a run did.
type Summary struct {
	Sources            int
	Rendered           int
	Reused             int
	Uploaded           int
	RemoteHits         int
	SkippedSources     int
	SkippedDerivatives int
	Skips              []runlog.Event
}

// Result is returned by a completed run.
type Result struct {
	RunID    string
	Manifest manifest.Manifest
	Summary  Summary
}

type tally struct {
	mu      sync.Mutex
	summary Summary
}

func (t *tally) add(fn func(*Summary)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.summary)
}

func (t *tally) skip(ev runlog.Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	t.add(func(s *Summary) {
		if ev.Width == 0 && ev.Format == "" {
			s.SkippedSources++
		} else {
			s.SkippedDerivatives++
		}
		s.Skips = append(s.Skips, ev)
	})
}

func (t *tally) snapshot() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.summary
	out.Skips = append([]runlog.Event(nil), t.summary.Skips...)
	return out
}
