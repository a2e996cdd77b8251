package engine

import (
	"log/slog"
	"math"
	"time"

	"github.com/seatwatch/seatwatch/internal/registry"
)

// Observation is the outcome of applying one classified frame to a seat.
type Observation struct {
	// Effective is the confirmed state after the observation.
	Effective registry.State

	// Pending is the candidate state awaiting stability, nil when no
	// transition is in flight.
	Pending *registry.State

	// RemainingSeconds is how much of the stability window the pending
	// candidate still has to survive, rounded up to whole seconds and
	// floored at zero. Zero when Pending is nil.
	RemainingSeconds int
}

// Debouncer applies raw classified states to seat records, promoting a
// change only after it persists unchanged for the full stability window.
//
// Raw detector output flickers frame to frame; a single missed or ghost
// detection must not flip a seat's state. Equality with the confirmed
// state short-circuits immediately - reverting needs no debounce.
type Debouncer struct {
	window    time.Duration
	deadlines *Deadlines
	logger    *slog.Logger
}

// NewDebouncer builds a debouncer over the given stability window. The
// deadlines manager is consulted when a transition starts near reservation
// expiry and when a promotion reseeds the deadline.
func NewDebouncer(window time.Duration, deadlines *Deadlines, logger *slog.Logger) *Debouncer {
	return &Debouncer{window: window, deadlines: deadlines, logger: logger}
}

// Apply folds one inferred state into the seat record and returns the
// resulting observation. The seat is mutated in place.
//
// The branches below are evaluated in order; each is exclusive and
// terminal for the call.
func (d *Debouncer) Apply(seat *registry.Seat, inferred registry.State, now time.Time) Observation {
	// Unreserved seats are not tracked for occupancy at all.
	if !seat.Reserved {
		if seat.Confirmed != registry.StateEmpty {
			seat.Confirmed = registry.StateEmpty
			at := now
			seat.LastConfirmedAt = &at
		}
		seat.ClearCandidate()
		seat.ReleaseDeadline = nil
		seat.ReleaseRemaining = nil
		return Observation{Effective: registry.StateEmpty}
	}

	// Reality matches the confirmed state: abandon any in-flight change.
	if inferred == seat.Confirmed {
		seat.ClearCandidate()
		return Observation{Effective: seat.Confirmed}
	}

	// No candidate, or a candidate for a different state: (re)start the
	// stability clock. If the reservation is close to expiry, extend the
	// deadline so the seat cannot auto-release mid-transition.
	if seat.Candidate == nil || *seat.Candidate != inferred {
		seat.SetCandidate(inferred, now)
		d.deadlines.ExtendNearExpiry(seat, now, d.window)
		pending := inferred
		return Observation{
			Effective:        seat.Confirmed,
			Pending:          &pending,
			RemainingSeconds: wholeSeconds(d.window),
		}
	}

	elapsed, stale := elapsedSince(now, *seat.CandidateSince)
	if stale {
		warnStaleClock(d.logger, seat.ID, "candidate_since", now, *seat.CandidateSince)
	}

	// Candidate survived the full window: promote it.
	if elapsed >= d.window {
		seat.Confirmed = inferred
		at := now
		seat.LastConfirmedAt = &at
		seat.ClearCandidate()
		if inferred == registry.StateOccupied {
			seat.EverOccupied = true
		}
		d.deadlines.ReseedForState(seat, now)
		return Observation{Effective: seat.Confirmed}
	}

	// Candidate persists but has not yet earned trust.
	pending := inferred
	return Observation{
		Effective:        seat.Confirmed,
		Pending:          &pending,
		RemainingSeconds: wholeSeconds(d.window - elapsed),
	}
}

// wholeSeconds converts a duration to whole seconds, rounding up so a
// pending candidate never reports zero before the window has fully
// elapsed. Negative durations floor at zero.
func wholeSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
