package engine

import (
	"log/slog"
	"time"

	"github.com/seatwatch/seatwatch/internal/registry"
)

// Deadlines manages reservation lifecycles and release deadlines.
//
// A reservation's deadline depends on the seat's confirmed state:
//
//	Empty    -> now + EmptyRelease (short grace to claim the seat)
//	Camped   -> now + CampedRelease (longer grace; belongings are present)
//	Occupied -> no deadline (the reservation is being exercised)
//
// The remaining-seconds field observers see is always recomputed from the
// stored deadline. It is a projection, not a countdown timer driving its
// own events, so a skipped cycle cannot make it drift.
type Deadlines struct {
	emptyRelease  time.Duration
	campedRelease time.Duration
	logger        *slog.Logger
}

// NewDeadlines builds a deadline manager from the per-state release
// durations in cfg.
func NewDeadlines(cfg Config, logger *slog.Logger) *Deadlines {
	return &Deadlines{
		emptyRelease:  cfg.EmptyRelease,
		campedRelease: cfg.CampedRelease,
		logger:        logger,
	}
}

// CreateReservation activates a reservation on the seat. The ever-occupied
// flag restarts with the new reservation, and the deadline is seeded from
// the seat's current confirmed state. Deterministic given its inputs.
func (d *Deadlines) CreateReservation(seat *registry.Seat, now time.Time) {
	seat.Reserved = true
	at := now
	seat.ReservedAt = &at
	seat.EverOccupied = false
	d.ReseedForState(seat, now)
	d.RecomputeRemaining(seat, now)
}

// ClearReservation deactivates the reservation and every field that only
// has meaning while reserved.
func (d *Deadlines) ClearReservation(seat *registry.Seat) {
	seat.Reserved = false
	seat.ReservedAt = nil
	seat.EverOccupied = false
	seat.ReleaseDeadline = nil
	seat.ReleaseRemaining = nil
}

// ReseedForState recomputes the release deadline from the seat's confirmed
// state, anchored at now. Called after a promotion and on reservation
// creation. No-op for unreserved seats.
func (d *Deadlines) ReseedForState(seat *registry.Seat, now time.Time) {
	if !seat.Reserved {
		return
	}
	d.seedFrom(seat, now)
}

func (d *Deadlines) seedFrom(seat *registry.Seat, anchor time.Time) {
	switch seat.Confirmed {
	case registry.StateOccupied:
		// An exercised reservation never expires on its own.
		seat.ReleaseDeadline = nil
		seat.ReleaseRemaining = nil
	case registry.StateCamped:
		deadline := anchor.Add(d.campedRelease)
		seat.ReleaseDeadline = &deadline
	default:
		deadline := anchor.Add(d.emptyRelease)
		seat.ReleaseDeadline = &deadline
	}
}

// ExtendNearExpiry pushes the deadline out when a state transition starts
// inside the stability window of expiry. Without this, a seat could
// auto-release while a claiming occupant is still being debounced.
//
// The extension is the shortfall to the window plus one full window:
//
//	deadline += (window - remaining) + window
//
// with remaining clamped to [0, window]. The added amount is always
// strictly greater than the window, so repeated candidates can only push
// the deadline out, never pull it in.
func (d *Deadlines) ExtendNearExpiry(seat *registry.Seat, now time.Time, window time.Duration) {
	if !seat.Reserved || seat.ReleaseDeadline == nil {
		return
	}
	remaining := seat.ReleaseDeadline.Sub(now)
	if remaining >= window {
		return
	}
	if remaining < 0 {
		remaining = 0
	}
	extended := seat.ReleaseDeadline.Add((window - remaining) + window)
	seat.ReleaseDeadline = &extended
	d.logger.Debug("reservation deadline extended for in-flight transition",
		"seat", seat.ID,
		"deadline", extended,
	)
}

// RecomputeRemaining refreshes the derived remaining-seconds projection.
// It never mutates the deadline itself, with one exception: a reserved
// seat with no deadline and a non-Occupied confirmed state (for example
// state freshly restored from a snapshot) is lazily seeded once from its
// last confirmation or reservation timestamp, using the same state-based
// mapping and without re-triggering extension logic.
func (d *Deadlines) RecomputeRemaining(seat *registry.Seat, now time.Time) {
	if !seat.Reserved {
		seat.ReleaseRemaining = nil
		return
	}
	if seat.ReleaseDeadline == nil {
		if seat.Confirmed == registry.StateOccupied {
			seat.ReleaseRemaining = nil
			return
		}
		anchor := now
		switch {
		case seat.LastConfirmedAt != nil:
			anchor = *seat.LastConfirmedAt
		case seat.ReservedAt != nil:
			anchor = *seat.ReservedAt
		}
		d.seedFrom(seat, anchor)
		d.logger.Debug("reservation deadline lazily seeded",
			"seat", seat.ID,
			"deadline", *seat.ReleaseDeadline,
		)
	}
	remaining := wholeSeconds(seat.ReleaseDeadline.Sub(now))
	seat.ReleaseRemaining = &remaining
}

// CheckExpiry releases the reservation when its deadline has passed.
// Reports whether a release happened this call; the policy pass emits the
// auto-release alert and skips every other check for that seat this cycle.
func (d *Deadlines) CheckExpiry(seat *registry.Seat, now time.Time) bool {
	if !seat.Reserved || seat.ReleaseDeadline == nil {
		return false
	}
	if now.Before(*seat.ReleaseDeadline) {
		return false
	}
	d.ClearReservation(seat)
	d.logger.Info("reservation auto-released", "seat", seat.ID)
	return true
}
