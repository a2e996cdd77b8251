package harness

// TraceEvent is one entry in a run's trace. Seat-scoped events carry the
// seat's confirmed state after the step, plus the pending state when a
// debounce transition is in flight. Alert events echo the alert fields so
// a trace reads on its own without the alert list.
type TraceEvent struct {
	Seq  int    `json:"seq"`
	At   string `json:"at"`
	Type string `json:"type"`

	Seat    string `json:"seat,omitempty"`
	State   string `json:"state,omitempty"`
	Pending string `json:"pending,omitempty"`

	AlertKind string `json:"alert_kind,omitempty"`
	AlertID   string `json:"alert_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Trace event types.
const (
	EventReserve   = "reserve"
	EventRelease   = "release"
	EventObserve   = "observe"
	EventSetState  = "set_state"
	EventAuthorize = "authorize"
	EventTick      = "tick"
	EventAlert     = "alert"
)
