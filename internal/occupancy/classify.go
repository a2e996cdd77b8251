// Package occupancy turns detector label sets into occupancy states.
//
// The classifier is a pure mapping with a fixed precedence: any person
// label wins over any belongings label, and belongings win over nothing.
// Labels outside both categories are ignored rather than rejected - an
// upstream detector emitting novel classes never fails a cycle.
package occupancy

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/seatwatch/seatwatch/internal/registry"
)

// Categories configures the label-to-state mapping.
type Categories struct {
	// Person labels classify a seat as Occupied.
	Person []string
	// Belongings labels classify a seat as Camped when no person label
	// is present.
	Belongings []string
}

// DefaultCategories matches the label set the reference detector emits for
// a reading-room deployment: COCO person plus the portable-item classes a
// seat camper typically leaves behind.
func DefaultCategories() Categories {
	return Categories{
		Person:     []string{"person"},
		Belongings: []string{"backpack", "laptop", "book", "clothes", "suitcase", "handbag"},
	}
}

// Classifier maps a set of detected labels to an occupancy state.
// It is stateless and safe for concurrent use.
type Classifier struct {
	person     map[string]struct{}
	belongings map[string]struct{}
}

// NewClassifier builds a classifier for the given categories. Labels are
// canonicalized once at construction; empty entries are dropped.
func NewClassifier(c Categories) *Classifier {
	return &Classifier{
		person:     canonSet(c.Person),
		belongings: canonSet(c.Belongings),
	}
}

// Classify returns the occupancy state implied by the label set.
//
// Precedence is fixed: person > belongings > empty. A person sitting among
// bags is Occupied, never Camped. Duplicate and unknown labels have no
// effect.
func (c *Classifier) Classify(labels []string) registry.State {
	camped := false
	for _, label := range labels {
		canon := CanonicalLabel(label)
		if _, ok := c.person[canon]; ok {
			return registry.StateOccupied
		}
		if _, ok := c.belongings[canon]; ok {
			camped = true
		}
	}
	if camped {
		return registry.StateCamped
	}
	return registry.StateEmpty
}

// CanonicalLabel normalizes a detector label for matching: NFC composition,
// lower case, surrounding whitespace removed. Detector class names vary in
// casing across model exports; matching is intentionally forgiving.
func CanonicalLabel(label string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(label)))
}

func canonSet(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		canon := CanonicalLabel(label)
		if canon == "" {
			continue
		}
		set[canon] = struct{}{}
	}
	return set
}
