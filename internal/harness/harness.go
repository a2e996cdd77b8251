package harness

import (
	"fmt"
	"time"

	"github.com/seatwatch/seatwatch/internal/deploy"
	"github.com/seatwatch/seatwatch/internal/engine"
	"github.com/seatwatch/seatwatch/internal/registry"
	"github.com/seatwatch/seatwatch/internal/testutil"
)

// Epoch is the fixed start of every scenario clock. Step offsets are
// relative to it.
var Epoch = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// Result collects everything a run produced.
type Result struct {
	Scenario string              `json:"scenario"`
	Trace    []TraceEvent        `json:"trace"`
	Alerts   []engine.Alert      `json:"-"`
	Final    []engine.SeatStatus `json:"-"`
	Failures []string            `json:"-"`
}

// Passed reports whether every assertion held.
func (r *Result) Passed() bool { return len(r.Failures) == 0 }

// Run executes the scenario and evaluates its assertions. The returned
// error covers setup and step execution problems; assertion failures are
// reported through Result.Failures instead.
func Run(sc *Scenario) (*Result, error) {
	dep := deploy.Default()
	if len(sc.Seats) != 0 {
		dep.Seats = sc.Seats
	}
	applyThresholds(&dep.Config, sc.Thresholds)

	clock := testutil.NewSimClock(Epoch)
	_, mon, err := dep.Build(
		engine.WithClock(clock),
		engine.WithAlertIDs(engine.NewFixedIDGenerator("alert")),
	)
	if err != nil {
		return nil, fmt.Errorf("build monitor: %w", err)
	}

	res := &Result{Scenario: sc.Name}
	for i, step := range sc.Steps {
		off, err := step.offset()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		now := Epoch.Add(off)
		clock.Set(now)
		if err := res.execute(mon, step, now); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.At, err)
		}
	}

	final := Epoch
	if len(sc.Steps) > 0 {
		off, _ := sc.Steps[len(sc.Steps)-1].offset()
		final = Epoch.Add(off)
	}
	res.Final = mon.Statuses(final)
	res.Failures = evaluate(sc.Assertions, res)
	return res, nil
}

func (r *Result) execute(mon *engine.Monitor, step Step, now time.Time) error {
	switch {
	case step.Reserve != "":
		if err := mon.CreateReservation(step.Reserve, now); err != nil {
			return err
		}
		r.seatEvent(EventReserve, mon, step.Reserve, step.At, now)
	case step.Release != "":
		if err := mon.ClearReservation(step.Release); err != nil {
			return err
		}
		r.seatEvent(EventRelease, mon, step.Release, step.At, now)
	case step.Observe != nil:
		status, err := mon.IngestObservation(step.Observe.Seat, step.Observe.Labels, now)
		if err != nil {
			return err
		}
		ev := TraceEvent{Type: EventObserve, At: step.At, Seat: status.SeatID, State: string(status.State)}
		if status.Pending != nil {
			ev.Pending = string(*status.Pending)
		}
		r.append(ev)
	case step.SetState != nil:
		if err := mon.ManualSetState(step.SetState.Seat, registry.State(step.SetState.State), now); err != nil {
			return err
		}
		r.seatEvent(EventSetState, mon, step.SetState.Seat, step.At, now)
	case step.Authorize != nil:
		if err := mon.SetAuthorized(step.Authorize.Seat, step.Authorize.Granted); err != nil {
			return err
		}
		r.seatEvent(EventAuthorize, mon, step.Authorize.Seat, step.At, now)
	case step.Tick:
		r.append(TraceEvent{Type: EventTick, At: step.At})
		alerts := mon.TickPolicies(now)
		r.Alerts = append(r.Alerts, alerts...)
		for _, a := range alerts {
			r.append(TraceEvent{
				Type:      EventAlert,
				At:        step.At,
				Seat:      a.SeatID,
				AlertKind: string(a.Kind),
				AlertID:   a.ID,
				Message:   a.Message,
			})
		}
	}
	return nil
}

func (r *Result) seatEvent(typ string, mon *engine.Monitor, seatID, at string, now time.Time) {
	ev := TraceEvent{Type: typ, At: at, Seat: seatID}
	if status, err := mon.Status(seatID, now); err == nil {
		ev.State = string(status.State)
		if status.Pending != nil {
			ev.Pending = string(*status.Pending)
		}
	}
	r.append(ev)
}

func (r *Result) append(ev TraceEvent) {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
}

func applyThresholds(cfg *engine.Config, t *Thresholds) {
	if t == nil {
		return
	}
	if t.StabilityWindowSeconds > 0 {
		cfg.StabilityWindow = time.Duration(t.StabilityWindowSeconds) * time.Second
	}
	if t.CampingMinutes > 0 {
		cfg.CampingThreshold = time.Duration(t.CampingMinutes) * time.Minute
	}
	if t.NoShowMinutes > 0 {
		cfg.NoShowThreshold = time.Duration(t.NoShowMinutes) * time.Minute
	}
	if t.ReturnGraceMinutes > 0 {
		cfg.ReturnGrace = time.Duration(t.ReturnGraceMinutes) * time.Minute
	}
	if t.EmptyReleaseMinutes > 0 {
		cfg.EmptyRelease = time.Duration(t.EmptyReleaseMinutes) * time.Minute
	}
	if t.CampedReleaseMinutes > 0 {
		cfg.CampedRelease = time.Duration(t.CampedReleaseMinutes) * time.Minute
	}
}
