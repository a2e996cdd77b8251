package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/seatwatch/seatwatch/internal/registry"
)

// Policies derives alerts from seat records. The evaluation pass is
// stateless: every alert is a function of the current record and the cycle
// timestamp. The one side effect in a policy tick - auto-release - is
// performed by the Deadlines manager immediately before evaluation, never
// here.
type Policies struct {
	cfg    Config
	ids    AlertIDGenerator
	logger *slog.Logger
}

// NewPolicies builds the policy evaluator.
func NewPolicies(cfg Config, ids AlertIDGenerator, logger *slog.Logger) *Policies {
	return &Policies{cfg: cfg, ids: ids, logger: logger}
}

// Evaluate scans every seat in registry order and returns the alerts due
// this cycle. released names the seats whose reservation auto-expired in
// this cycle's expiry pass; those seats emit AutoUnreserve and nothing
// else, regardless of what other checks they would satisfy.
//
// Seats are evaluated independently; a seat may emit more than one alert
// kind per cycle (for example Overstay and UnauthorizedUse together). No
// cross-seat ranking exists - order follows registry iteration order.
func (p *Policies) Evaluate(reg *registry.Registry, now time.Time, released map[string]bool) []Alert {
	var alerts []Alert
	reg.Each(func(seat *registry.Seat) {
		alerts = append(alerts, p.evaluateSeat(seat, now, released[seat.ID])...)
	})
	return alerts
}

func (p *Policies) evaluateSeat(seat *registry.Seat, now time.Time, released bool) []Alert {
	if released {
		return []Alert{p.alert(seat, now, AlertAutoUnreserve,
			fmt.Sprintf("seat %s auto-released: reservation deadline passed", seat.ID))}
	}

	var alerts []Alert

	if seat.Confirmed == registry.StateCamped && p.pastThreshold(seat, now, seat.LastConfirmedAt, "last_confirmed_at", p.cfg.CampingThreshold) {
		alerts = append(alerts, p.alert(seat, now, AlertOverstay,
			fmt.Sprintf("seat %s held by belongings for over %s", seat.ID, p.cfg.CampingThreshold)))
	}

	if seat.Reserved && seat.Confirmed == registry.StateEmpty {
		if !seat.EverOccupied {
			if p.pastThreshold(seat, now, seat.ReservedAt, "reserved_at", p.cfg.NoShowThreshold) {
				alerts = append(alerts, p.alert(seat, now, AlertNoShow,
					fmt.Sprintf("seat %s reserved but never occupied for over %s", seat.ID, p.cfg.NoShowThreshold)))
			}
		} else if p.pastThreshold(seat, now, seat.LastConfirmedAt, "last_confirmed_at", p.cfg.ReturnGrace) {
			alerts = append(alerts, p.alert(seat, now, AlertPendingReturn,
				fmt.Sprintf("seat %s empty for over %s after use", seat.ID, p.cfg.ReturnGrace)))
		}
	}

	if (seat.Confirmed == registry.StateOccupied || seat.Confirmed == registry.StateCamped) && !seat.Authorized {
		alerts = append(alerts, p.alert(seat, now, AlertUnauthorizedUse,
			fmt.Sprintf("seat %s in use without authorization", seat.ID)))
	}

	return alerts
}

// pastThreshold reports whether at least threshold has elapsed since the
// given timestamp. A nil timestamp never satisfies a threshold; a stale
// clock floors elapsed time at zero and is logged.
func (p *Policies) pastThreshold(seat *registry.Seat, now time.Time, since *time.Time, field string, threshold time.Duration) bool {
	if since == nil {
		return false
	}
	elapsed, stale := elapsedSince(now, *since)
	if stale {
		warnStaleClock(p.logger, seat.ID, field, now, *since)
	}
	return elapsed >= threshold
}

func (p *Policies) alert(seat *registry.Seat, now time.Time, kind AlertKind, message string) Alert {
	return Alert{
		ID:      p.ids.Generate(),
		SeatID:  seat.ID,
		Kind:    kind,
		Message: message,
		At:      now,
	}
}
