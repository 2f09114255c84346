package headless

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Phase is a step of a capture run.
type Phase int

const (
	Idle Phase = iota
	Navigating
	Capturing
	Closing
	Done
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Navigating:
		return "navigating"
	case Capturing:
		return "capturing"
	case Closing:
		return "closing"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// run tracks the phase of one capture. Phases only move forward.
type run struct {
	mu      sync.Mutex
	phase   Phase
	logger  *logrus.Entry
	onPhase func(Phase)
}

func (r *run) enter(next Phase) {
	r.mu.Lock()
	if next <= r.phase {
		r.mu.Unlock()
		return
	}
	r.phase = next
	r.mu.Unlock()

	r.logger.WithField("phase", next.String()).Debug("phase")
	if r.onPhase != nil {
		r.onPhase(next)
	}
}
