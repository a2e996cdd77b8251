package engine

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/seatwatch/seatwatch/internal/occupancy"
	"github.com/seatwatch/seatwatch/internal/registry"
)

// SeatStatus is the externally visible projection of one seat record.
// Hosts (HTTP, CLI, harness) consume this; they never touch seat records
// directly.
type SeatStatus struct {
	SeatID string         `json:"seat_id"`
	State  registry.State `json:"state"`

	// Pending and PendingRemainingSeconds describe an in-flight debounce
	// transition, when one exists.
	Pending                 *registry.State `json:"pending,omitempty"`
	PendingRemainingSeconds int             `json:"pending_remaining_seconds,omitempty"`

	Reserved     bool       `json:"reserved"`
	ReservedAt   *time.Time `json:"reserved_at,omitempty"`
	EverOccupied bool       `json:"ever_occupied"`
	Authorized   bool       `json:"authorized"`

	// ReleaseRemainingSeconds projects the reservation deadline; nil when
	// no deadline applies.
	ReleaseRemainingSeconds *int `json:"release_remaining_seconds,omitempty"`

	LastConfirmedAt *time.Time `json:"last_confirmed_at,omitempty"`
}

// Monitor is the engine facade: it owns the registry for the duration of a
// session and exposes the operations a host layer drives it with.
//
// Thread-safety: every operation takes the monitor's lock, making each
// call one atomic evaluation step. Within a call the whole registry
// observes the single `now` the caller supplies.
type Monitor struct {
	mu sync.Mutex

	cfg        Config
	reg        *registry.Registry
	classifier *occupancy.Classifier
	debounce   *Debouncer
	deadlines  *Deadlines
	policies   *Policies
	clock      Clock
	alertIDs   AlertIDGenerator
	logger     *slog.Logger
}

// MonitorOption configures optional monitor collaborators.
type MonitorOption func(*Monitor)

// WithClock overrides the clock hosts read cycle timestamps from.
// Production uses WallClock; the harness injects a simulated clock.
func WithClock(c Clock) MonitorOption {
	return func(m *Monitor) { m.clock = c }
}

// WithAlertIDs overrides the alert id generator. Tests use
// NewFixedIDGenerator for deterministic traces.
func WithAlertIDs(g AlertIDGenerator) MonitorOption {
	return func(m *Monitor) { m.alertIDs = g }
}

// WithLogger overrides the logger. Defaults to a discarding logger so
// library use stays silent unless the host opts in.
func WithLogger(l *slog.Logger) MonitorOption {
	return func(m *Monitor) { m.logger = l }
}

// NewMonitor validates cfg and assembles the engine over the given
// registry and classifier. A zero-or-negative duration anywhere in cfg
// fails construction; the engine never starts on a bad config.
func NewMonitor(cfg Config, reg *registry.Registry, classifier *occupancy.Classifier, opts ...MonitorOption) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Monitor{
		cfg:        cfg,
		reg:        reg,
		classifier: classifier,
		clock:      WallClock{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.alertIDs == nil {
		m.alertIDs = UUIDv7Generator{}
	}
	m.deadlines = NewDeadlines(cfg, m.logger)
	m.debounce = NewDebouncer(cfg.StabilityWindow, m.deadlines, m.logger)
	m.policies = NewPolicies(cfg, m.alertIDs, m.logger)
	return m, nil
}

// Clock returns the clock hosts should stamp cycles with.
func (m *Monitor) Clock() Clock { return m.clock }

// SeatIDs returns the registered seat ids in declaration order.
func (m *Monitor) SeatIDs() []string { return m.reg.SeatIDs() }

// IngestObservation runs one classification + debounce + deadline
// recompute step for a single seat and returns its resulting status.
func (m *Monitor) IngestObservation(seatID string, labels []string, now time.Time) (SeatStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seat, ok := m.reg.Seat(seatID)
	if !ok {
		return SeatStatus{}, NewUnknownSeatError(seatID)
	}

	inferred := m.classifier.Classify(labels)
	obs := m.debounce.Apply(seat, inferred, now)
	m.deadlines.RecomputeRemaining(seat, now)

	status := m.status(seat, now)
	status.Pending = obs.Pending
	status.PendingRemainingSeconds = obs.RemainingSeconds
	return status, nil
}

// TickPolicies runs the deadline expiry check and the full policy pass
// over every seat, returning the cycle's alerts in registry order.
//
// Expiry runs first: a seat whose reservation lapses this cycle emits only
// AutoUnreserve, even if it would also qualify for no-show or camping.
func (m *Monitor) TickPolicies(now time.Time) []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	released := make(map[string]bool)
	m.reg.Each(func(seat *registry.Seat) {
		if m.deadlines.CheckExpiry(seat, now) {
			released[seat.ID] = true
			return
		}
		m.deadlines.RecomputeRemaining(seat, now)
	})

	return m.policies.Evaluate(m.reg, now, released)
}

// ManualSetState is the operator override: it bypasses debounce entirely,
// setting the confirmed state directly. The deadline is reseeded from the
// new state when the seat is reserved. The next ingested observation on an
// unreserved seat will still force it back to Empty.
func (m *Monitor) ManualSetState(seatID string, newState registry.State, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seat, ok := m.reg.Seat(seatID)
	if !ok {
		return NewUnknownSeatError(seatID)
	}
	if !newState.Valid() {
		return NewInvalidStateError(seat.ID, string(newState))
	}

	seat.Confirmed = newState
	at := now
	seat.LastConfirmedAt = &at
	seat.ClearCandidate()
	if newState == registry.StateOccupied {
		seat.EverOccupied = true
	}
	m.deadlines.ReseedForState(seat, now)
	m.deadlines.RecomputeRemaining(seat, now)

	m.logger.Info("manual state override", "seat", seat.ID, "state", newState)
	return nil
}

// CreateReservation activates a reservation on the seat.
func (m *Monitor) CreateReservation(seatID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seat, ok := m.reg.Seat(seatID)
	if !ok {
		return NewUnknownSeatError(seatID)
	}
	m.deadlines.CreateReservation(seat, now)
	m.logger.Info("reservation created", "seat", seat.ID)
	return nil
}

// ClearReservation releases a reservation without emitting an alert -
// an operator action, distinct from deadline-driven auto-release.
func (m *Monitor) ClearReservation(seatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seat, ok := m.reg.Seat(seatID)
	if !ok {
		return NewUnknownSeatError(seatID)
	}
	m.deadlines.ClearReservation(seat)
	m.logger.Info("reservation cleared", "seat", seat.ID)
	return nil
}

// SetAuthorized records the external trust source's verdict for the
// seat's current occupant.
func (m *Monitor) SetAuthorized(seatID string, authorized bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seat, ok := m.reg.Seat(seatID)
	if !ok {
		return NewUnknownSeatError(seatID)
	}
	seat.Authorized = authorized
	m.logger.Info("authorization updated", "seat", seat.ID, "authorized", authorized)
	return nil
}

// Status returns the current projection of one seat.
func (m *Monitor) Status(seatID string, now time.Time) (SeatStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seat, ok := m.reg.Seat(seatID)
	if !ok {
		return SeatStatus{}, NewUnknownSeatError(seatID)
	}
	return m.status(seat, now), nil
}

// Statuses returns the projection of every seat in registry order.
func (m *Monitor) Statuses(now time.Time) []SeatStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SeatStatus, 0, m.reg.Len())
	m.reg.Each(func(seat *registry.Seat) {
		out = append(out, m.status(seat, now))
	})
	return out
}

// status builds the projection for one seat. Callers hold the lock.
func (m *Monitor) status(seat *registry.Seat, now time.Time) SeatStatus {
	status := SeatStatus{
		SeatID:          seat.ID,
		State:           seat.Confirmed,
		Reserved:        seat.Reserved,
		ReservedAt:      copyTime(seat.ReservedAt),
		EverOccupied:    seat.EverOccupied,
		Authorized:      seat.Authorized,
		LastConfirmedAt: copyTime(seat.LastConfirmedAt),
	}
	if seat.Candidate != nil {
		pending := *seat.Candidate
		status.Pending = &pending
		elapsed, _ := elapsedSince(now, *seat.CandidateSince)
		status.PendingRemainingSeconds = wholeSeconds(m.cfg.StabilityWindow - elapsed)
	}
	if seat.ReleaseRemaining != nil {
		remaining := *seat.ReleaseRemaining
		status.ReleaseRemainingSeconds = &remaining
	}
	return status
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
