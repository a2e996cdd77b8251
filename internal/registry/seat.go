package registry

import "time"

// Seat is the mutable per-seat record.
//
// One record exists per seat id. Records are created when the registry is
// built and live until process shutdown; the engine mutates them in place
// on every evaluation cycle.
//
// Field invariants:
//   - Candidate != nil ⇔ CandidateSince != nil
//   - a Candidate, at the moment it is set, always differs from Confirmed
//   - Reserved == false ⇒ ReleaseDeadline == nil and ReleaseRemaining == nil
//   - EverOccupied is monotonic while Reserved; it resets only when the
//     reservation is cleared or replaced
//   - ReleaseRemaining is a derived projection of ReleaseDeadline, never a
//     countdown of its own; it is recomputed from the deadline each cycle
//     and clamped at zero
type Seat struct {
	ID string

	// Confirmed is the authoritative, externally visible occupancy state.
	Confirmed       State
	LastConfirmedAt *time.Time

	// Candidate is a provisional state waiting out the stability window
	// before promotion to Confirmed. Nil means no transition in flight.
	Candidate      *State
	CandidateSince *time.Time

	Reserved     bool
	ReservedAt   *time.Time
	EverOccupied bool

	// Authorized reports whether the current occupant is permitted.
	// Defaults to true; an external trust source may clear it.
	Authorized bool

	// ReleaseDeadline is the instant an active reservation auto-expires if
	// not exercised. Nil while unreserved, and nil for a reserved seat whose
	// confirmed state is Occupied (an exercised reservation has no deadline).
	ReleaseDeadline *time.Time

	// ReleaseRemaining is the projected whole seconds until ReleaseDeadline,
	// clamped at zero. Nil whenever the deadline is nil.
	ReleaseRemaining *int
}

func newSeat(id string) *Seat {
	return &Seat{
		ID:         id,
		Confirmed:  StateEmpty,
		Authorized: true,
	}
}

// SetCandidate starts (or restarts) a pending transition toward s.
func (seat *Seat) SetCandidate(s State, now time.Time) {
	seat.Candidate = &s
	seat.CandidateSince = &now
}

// ClearCandidate abandons any in-flight transition.
func (seat *Seat) ClearCandidate() {
	seat.Candidate = nil
	seat.CandidateSince = nil
}
