package engine

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AlertKind classifies a policy alert.
type AlertKind string

const (
	// AlertAutoUnreserve fires when a reservation deadline passes and the
	// reservation is released automatically. It takes precedence over every
	// other alert for that seat in the same cycle.
	AlertAutoUnreserve AlertKind = "auto_unreserve"

	// AlertOverstay fires when belongings have held a seat without a person
	// beyond the camping threshold.
	AlertOverstay AlertKind = "overstay"

	// AlertNoShow fires when a reservation was never exercised within the
	// no-show threshold.
	AlertNoShow AlertKind = "no_show"

	// AlertPendingReturn fires when a previously occupied, reserved seat
	// has sat empty beyond the return grace period.
	AlertPendingReturn AlertKind = "pending_return"

	// AlertUnauthorizedUse fires every cycle a seat is in use while its
	// occupant is not authorized.
	AlertUnauthorizedUse AlertKind = "unauthorized_use"
)

// Alert is one policy finding for one seat in one cycle.
type Alert struct {
	// ID is a unique correlation id for this emission.
	ID string `json:"id"`

	// SeatID names the affected seat.
	SeatID string `json:"seat_id"`

	// Kind classifies the alert.
	Kind AlertKind `json:"kind"`

	// Message is the operator-facing description.
	Message string `json:"message"`

	// At is the cycle timestamp the alert was derived at.
	At time.Time `json:"at"`
}

// AlertIDGenerator produces alert correlation ids.
// Implemented by UUIDv7Generator (production) and FixedIDGenerator (tests).
type AlertIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 alert ids.
//
// UUIDv7 embeds a timestamp in the most significant bits, so ids sort by
// emission time - convenient when alerts from many cycles land in one log.
//
// Thread-safety: stateless, safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedIDGenerator returns sequential predetermined ids for testing.
//
// Deterministic ids make alert traces comparable against golden files.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewFixedIDGenerator creates a generator emitting "<prefix>-1",
// "<prefix>-2", and so on.
func NewFixedIDGenerator(prefix string) *FixedIDGenerator {
	return &FixedIDGenerator{prefix: prefix}
}

// Generate returns the next sequential id.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.prefix + "-" + strconv.Itoa(g.n)
}
