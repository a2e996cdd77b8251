package registry

// State is the occupancy classification of a seat.
//
// It is a classification, not a scale: no ordering between the three
// values is implied anywhere in the engine.
type State string

const (
	// StateEmpty means nothing of interest is inside the seat's region.
	StateEmpty State = "Empty"

	// StateOccupied means a person is present. Person presence overrides
	// everything else that may also be detected in the region.
	StateOccupied State = "Occupied"

	// StateCamped means belongings are present without a person - the seat
	// is being held by items (bag, laptop, book) rather than used.
	StateCamped State = "Camped"
)

// States lists every valid occupancy state in a fixed order.
var States = []State{StateEmpty, StateOccupied, StateCamped}

// Valid reports whether s is one of the three occupancy states.
func (s State) Valid() bool {
	switch s {
	case StateEmpty, StateOccupied, StateCamped:
		return true
	}
	return false
}

func (s State) String() string { return string(s) }
