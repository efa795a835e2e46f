// Package lifecycle derives a pod's lifecycle state from its stored
// attributes and wall-clock time. Everything here is a pure function: no
// I/O, no side effects, same inputs always produce the same state. All
// consumers (preview, search, recommendation, detail, guards) go through
// this package rather than re-deriving state themselves.
package lifecycle

import (
	"time"

	"github.com/podloop/podloop/internal/model"
)

type Phase string

const (
	PhaseScheduled Phase = "scheduled"
	PhaseActive    Phase = "active"
	PhaseExpired   Phase = "expired"
)

// State combines the temporal phase with the capacity overlay. Locked is
// independent of the phase: a pod can be active and locked at once.
type State struct {
	Phase          Phase
	Locked         bool
	RemainingSlots int
}

// LaunchTimeAt returns the effective launch time of the pod as of now.
// A recorded launch timestamp wins; otherwise a countdown pod whose
// auto_launch_at has passed is treated as launched at that instant, even if
// no sweep has recorded it yet. The second return is false while the pod has
// not launched.
func LaunchTimeAt(p *model.Pod, now time.Time) (time.Time, bool) {
	if p.LaunchedAt != nil {
		return *p.LaunchedAt, true
	}
	if p.LaunchMode == model.LaunchModeCountdown && p.AutoLaunchAt != nil && !now.Before(*p.AutoLaunchAt) {
		return *p.AutoLaunchAt, true
	}
	return time.Time{}, false
}

// ExpiresAt returns when the pod's active window ends. Only meaningful once
// the pod has launched; the second return is false before that.
func ExpiresAt(p *model.Pod, now time.Time) (time.Time, bool) {
	launch, ok := LaunchTimeAt(p, now)
	if !ok {
		return time.Time{}, false
	}
	return launch.Add(time.Duration(p.DurationHours) * time.Hour), true
}

// PhaseAt derives the temporal phase of the pod at the given instant.
func PhaseAt(p *model.Pod, now time.Time) Phase {
	expiry, launched := ExpiresAt(p, now)
	if !launched {
		return PhaseScheduled
	}
	if now.Before(expiry) {
		return PhaseActive
	}
	return PhaseExpired
}

// StateAt derives the full lifecycle state, phase plus joinability overlay.
func StateAt(p *model.Pod, now time.Time) State {
	remaining := p.MaxParticipants - p.ParticipantCount
	if remaining < 0 {
		remaining = 0
	}
	return State{
		Phase:          PhaseAt(p, now),
		Locked:         remaining == 0,
		RemainingSlots: remaining,
	}
}

// Joinable reports whether a join attempt could succeed at the given
// instant: the pod must not be expired and must have a free slot.
func Joinable(p *model.Pod, now time.Time) bool {
	s := StateAt(p, now)
	return s.Phase != PhaseExpired && !s.Locked
}
