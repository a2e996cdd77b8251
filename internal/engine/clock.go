package engine

import (
	"log/slog"
	"time"
)

// Clock supplies the single `now` a host stamps on each evaluation cycle.
//
// The engine itself never reads a clock: every operation takes an explicit
// timestamp so that the whole registry observes one consistent instant per
// cycle. Clock exists for hosts (the HTTP server, the tick loop, the
// scenario harness) that need to produce that instant.
type Clock interface {
	Now() time.Time
}

// WallClock is the production Clock, backed by time.Now.
type WallClock struct{}

// Now returns the current wall-clock time.
func (WallClock) Now() time.Time { return time.Now() }

// elapsedSince returns now minus since, floored at zero.
//
// A stale clock - `now` earlier than a stored timestamp - is an anomaly
// the host may want to resynchronize on, but it is never fatal: the engine
// treats it as zero elapsed time and logs it. The second return reports
// whether flooring occurred.
func elapsedSince(now time.Time, since time.Time) (time.Duration, bool) {
	elapsed := now.Sub(since)
	if elapsed < 0 {
		return 0, true
	}
	return elapsed, false
}

// warnStaleClock logs a stale-clock anomaly for one seat.
func warnStaleClock(logger *slog.Logger, seatID string, field string, now, stored time.Time) {
	logger.Warn("stale clock: cycle timestamp precedes stored timestamp",
		"seat", seatID,
		"field", field,
		"now", now,
		"stored", stored,
		"skew", stored.Sub(now),
	)
}
