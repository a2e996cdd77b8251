package harness

import (
	"fmt"

	"github.com/seatwatch/seatwatch/internal/engine"
)

func evaluate(assertions []Assertion, res *Result) []string {
	var failures []string
	for i, a := range assertions {
		if msg := checkOne(a, res); msg != "" {
			failures = append(failures, fmt.Sprintf("assertion %d: %s", i+1, msg))
		}
	}
	return failures
}

func checkOne(a Assertion, res *Result) string {
	switch a.Type {
	case "alert":
		if countAlerts(res.Alerts, a.Seat, a.Kind) == 0 {
			return fmt.Sprintf("no %s alert%s", a.Kind, forSeat(a.Seat))
		}
	case "alert_count":
		got := countAlerts(res.Alerts, a.Seat, a.Kind)
		if got != *a.Count {
			return fmt.Sprintf("want %d alerts%s%s, got %d", *a.Count, ofKind(a.Kind), forSeat(a.Seat), got)
		}
	case "final_state":
		status, ok := finalStatus(res.Final, a.Seat)
		if !ok {
			return fmt.Sprintf("seat %s not in final state", a.Seat)
		}
		if a.State != "" && string(status.State) != a.State {
			return fmt.Sprintf("seat %s: want state %s, got %s", a.Seat, a.State, status.State)
		}
		if a.Reserved != nil && status.Reserved != *a.Reserved {
			return fmt.Sprintf("seat %s: want reserved=%t, got %t", a.Seat, *a.Reserved, status.Reserved)
		}
		if a.EverOccupied != nil && status.EverOccupied != *a.EverOccupied {
			return fmt.Sprintf("seat %s: want ever_occupied=%t, got %t", a.Seat, *a.EverOccupied, status.EverOccupied)
		}
	}
	return ""
}

func countAlerts(alerts []engine.Alert, seat, kind string) int {
	n := 0
	for _, a := range alerts {
		if seat != "" && a.SeatID != seat {
			continue
		}
		if kind != "" && string(a.Kind) != kind {
			continue
		}
		n++
	}
	return n
}

func finalStatus(statuses []engine.SeatStatus, seat string) (engine.SeatStatus, bool) {
	for _, s := range statuses {
		if s.SeatID == seat {
			return s, true
		}
	}
	return engine.SeatStatus{}, false
}

func forSeat(seat string) string {
	if seat == "" {
		return ""
	}
	return " for seat " + seat
}

func ofKind(kind string) string {
	if kind == "" {
		return ""
	}
	return " of kind " + kind
}
