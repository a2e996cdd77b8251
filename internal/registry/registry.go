// Package registry holds the shared per-seat record store.
//
// The registry is explicitly owned: it is constructed once at startup with
// a fixed seat set, passed into the engine, and torn down (optionally
// persisted) at shutdown. There is no hidden process-wide state.
//
// The registry itself performs no locking. The engine's monitor serializes
// all access; every evaluation cycle observes and mutates records under a
// single consistent view.
package registry

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultSeatIDs is the seat set used when a deployment names no seats.
var DefaultSeatIDs = []string{"A1", "A2", "A3", "B1", "B2", "B3"}

// Registry is the fixed-size store of seat records.
//
// Iteration order is declaration order. The order never changes after
// construction, which keeps alert emission deterministic across cycles.
type Registry struct {
	order []string
	seats map[string]*Seat
}

// New builds a registry for the given seat ids. The set is fixed for the
// registry's lifetime; seats are never created or destroyed at runtime.
//
// Ids are canonicalized to NFC before registration so that lookups match
// regardless of how the caller composed the string. Duplicate or blank ids
// are rejected.
func New(ids []string) (*Registry, error) {
	if len(ids) == 0 {
		ids = DefaultSeatIDs
	}
	r := &Registry{
		order: make([]string, 0, len(ids)),
		seats: make(map[string]*Seat, len(ids)),
	}
	for _, id := range ids {
		canon := CanonicalSeatID(id)
		if canon == "" {
			return nil, fmt.Errorf("blank seat id in seat set")
		}
		if _, dup := r.seats[canon]; dup {
			return nil, fmt.Errorf("duplicate seat id %q", canon)
		}
		r.order = append(r.order, canon)
		r.seats[canon] = newSeat(canon)
	}
	return r, nil
}

// CanonicalSeatID normalizes a seat id for lookup: NFC composition plus
// surrounding whitespace removal. Case is preserved ("a1" and "A1" are
// distinct seats).
func CanonicalSeatID(id string) string {
	return norm.NFC.String(strings.TrimSpace(id))
}

// Seat returns the record for id, or false if the id is not registered.
func (r *Registry) Seat(id string) (*Seat, bool) {
	seat, ok := r.seats[CanonicalSeatID(id)]
	return seat, ok
}

// SeatIDs returns the seat ids in declaration order.
func (r *Registry) SeatIDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered seats.
func (r *Registry) Len() int { return len(r.order) }

// Each visits every seat record in declaration order.
func (r *Registry) Each(fn func(*Seat)) {
	for _, id := range r.order {
		fn(r.seats[id])
	}
}
