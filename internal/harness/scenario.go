package harness

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/seatwatch/seatwatch/internal/registry"
)

// Scenario is a declarative script executed by Run. Steps must be listed
// in non-decreasing time order; the clock never moves backwards.
type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Seats       []string    `yaml:"seats,omitempty"`
	Thresholds  *Thresholds `yaml:"thresholds,omitempty"`
	Steps       []Step      `yaml:"steps"`
	Assertions  []Assertion `yaml:"assertions,omitempty"`
}

// Thresholds overrides a subset of the engine defaults. Zero fields keep
// the default value.
type Thresholds struct {
	StabilityWindowSeconds int `yaml:"stability_window_seconds,omitempty"`
	CampingMinutes         int `yaml:"camping_minutes,omitempty"`
	NoShowMinutes          int `yaml:"no_show_minutes,omitempty"`
	ReturnGraceMinutes     int `yaml:"return_grace_minutes,omitempty"`
	EmptyReleaseMinutes    int `yaml:"empty_release_minutes,omitempty"`
	CampedReleaseMinutes   int `yaml:"camped_release_minutes,omitempty"`
}

// Step is one timestamped action. Exactly one of the action fields must
// be set. At is a duration offset from the scenario epoch ("30s", "2h5m").
type Step struct {
	At        string         `yaml:"at"`
	Reserve   string         `yaml:"reserve,omitempty"`
	Release   string         `yaml:"release,omitempty"`
	Observe   *ObserveStep   `yaml:"observe,omitempty"`
	SetState  *SetStateStep  `yaml:"set_state,omitempty"`
	Authorize *AuthorizeStep `yaml:"authorize,omitempty"`
	Tick      bool           `yaml:"tick,omitempty"`
}

type ObserveStep struct {
	Seat   string   `yaml:"seat"`
	Labels []string `yaml:"labels"`
}

type SetStateStep struct {
	Seat  string `yaml:"seat"`
	State string `yaml:"state"`
}

type AuthorizeStep struct {
	Seat    string `yaml:"seat"`
	Granted bool   `yaml:"granted"`
}

// Assertion checks the outcome of a run. Type selects the check:
//
//	alert        at least one alert of Kind (optionally scoped to Seat)
//	alert_count  exactly Count alerts (optionally scoped to Seat and Kind)
//	final_state  the seat's confirmed state and flags after the last step
type Assertion struct {
	Type         string `yaml:"type"`
	Seat         string `yaml:"seat,omitempty"`
	Kind         string `yaml:"kind,omitempty"`
	Count        *int   `yaml:"count,omitempty"`
	State        string `yaml:"state,omitempty"`
	Reserved     *bool  `yaml:"reserved,omitempty"`
	EverOccupied *bool  `yaml:"ever_occupied,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	if sc.Name == "" {
		return fmt.Errorf("missing name")
	}
	if len(sc.Steps) == 0 {
		return fmt.Errorf("no steps")
	}
	var prev time.Duration
	for i, step := range sc.Steps {
		off, err := step.offset()
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if off < prev {
			return fmt.Errorf("step %d: time %s before previous step %s", i+1, step.At, prev)
		}
		prev = off
		if n := step.actionCount(); n != 1 {
			return fmt.Errorf("step %d: want exactly one action, got %d", i+1, n)
		}
		if step.SetState != nil && !registry.State(step.SetState.State).Valid() {
			return fmt.Errorf("step %d: unknown state %q", i+1, step.SetState.State)
		}
	}
	for i, a := range sc.Assertions {
		switch a.Type {
		case "alert":
			if a.Kind == "" {
				return fmt.Errorf("assertion %d: alert requires kind", i+1)
			}
		case "alert_count":
			if a.Count == nil {
				return fmt.Errorf("assertion %d: alert_count requires count", i+1)
			}
		case "final_state":
			if a.Seat == "" {
				return fmt.Errorf("assertion %d: final_state requires seat", i+1)
			}
			if a.State != "" && !registry.State(a.State).Valid() {
				return fmt.Errorf("assertion %d: unknown state %q", i+1, a.State)
			}
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i+1, a.Type)
		}
	}
	return nil
}

func (s *Step) offset() (time.Duration, error) {
	if s.At == "" {
		return 0, fmt.Errorf("missing at")
	}
	off, err := time.ParseDuration(s.At)
	if err != nil {
		return 0, fmt.Errorf("bad at %q: %w", s.At, err)
	}
	if off < 0 {
		return 0, fmt.Errorf("negative at %q", s.At)
	}
	return off, nil
}

func (s *Step) actionCount() int {
	n := 0
	if s.Reserve != "" {
		n++
	}
	if s.Release != "" {
		n++
	}
	if s.Observe != nil {
		n++
	}
	if s.SetState != nil {
		n++
	}
	if s.Authorize != nil {
		n++
	}
	if s.Tick {
		n++
	}
	return n
}
