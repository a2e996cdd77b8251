// Package engine implements the seat lifecycle and policy engine.
//
// The engine converts noisy per-frame occupancy classifications into a
// stable confirmed state per seat and evaluates operational policies
// (overstay, no-show, pending return, unauthorized use, auto-release)
// against that state and the seat's reservation fields.
//
// ARCHITECTURE:
//
// Single-writer evaluation cycle:
// All registry mutation happens under the Monitor's lock, one seat at a
// time. A cycle observes one consistent `now` timestamp so that window and
// deadline arithmetic stays coherent across seats. No seat's result depends
// on another's within the same pass, so evaluation order across seats does
// not affect per-seat outcomes - but iteration follows registry declaration
// order so that alert emission is deterministic.
//
// Components per cycle:
//  1. Debouncer - holds confirmed state plus an in-flight candidate and
//     promotes the candidate only after it persists unchanged for the full
//     stability window.
//  2. Deadlines - seeds, extends and expires reservation deadlines, and
//     projects the remaining seconds for observers. The projection is
//     always recomputed from the stored deadline, never decremented, so it
//     cannot drift.
//  3. Policies - a stateless pass over all seats deriving alerts from the
//     confirmed state, reservation fields and timestamps the other two
//     components maintain.
//
// Time discipline:
// Elapsed durations are computed from wall-clock timestamps stored at
// confirmation, not from cycle counts. A skipped cycle (slow or failed
// detector) therefore only delays debounce progress; policy timers keep
// accruing correctly. A `now` earlier than a stored timestamp is treated
// as zero elapsed and logged, never as negative time.
package engine
