// Package deploy loads and validates deployment configuration.
//
// A deployment is a CUE file naming the seat set, the detector label
// categories, and the engine thresholds. The file is unified with an
// embedded schema before decoding, so structural mistakes (unknown
// fields, wrong types, non-positive durations) surface at startup with
// CUE's position-aware messages rather than as silent misbehavior later.
package deploy

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/seatwatch/seatwatch/internal/engine"
	"github.com/seatwatch/seatwatch/internal/occupancy"
	"github.com/seatwatch/seatwatch/internal/registry"
)

//go:embed schema.cue
var schemaCUE string

// Deployment is the decoded, validated configuration.
type Deployment struct {
	// Seats lists the seat ids in declaration order.
	Seats []string

	// Categories drives the occupancy classifier.
	Categories occupancy.Categories

	// Config carries the engine thresholds.
	Config engine.Config
}

// rawDeployment mirrors the CUE schema for decoding.
type rawDeployment struct {
	Seats  []string `json:"seats"`
	Labels struct {
		Person     []string `json:"person"`
		Belongings []string `json:"belongings"`
	} `json:"labels"`
	Thresholds struct {
		StabilityWindowSeconds int `json:"stability_window_seconds"`
		CampingMinutes         int `json:"camping_minutes"`
		NoShowMinutes          int `json:"no_show_minutes"`
		ReturnGraceMinutes     int `json:"return_grace_minutes"`
		EmptyReleaseMinutes    int `json:"empty_release_minutes"`
		CampedReleaseMinutes   int `json:"camped_release_minutes"`
	} `json:"thresholds"`
}

// Default returns the deployment used when no file is given: the built-in
// seat map, the reference detector's label categories, and the documented
// default thresholds.
func Default() *Deployment {
	return &Deployment{
		Seats:      registry.DefaultSeatIDs,
		Categories: occupancy.DefaultCategories(),
		Config:     engine.DefaultConfig(),
	}
}

// Load reads, validates and decodes a deployment file.
func Load(path string) (*Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading deployment: %w", err)
	}

	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling deployment schema: %w", err)
	}
	defn := schema.LookupPath(cue.ParsePath("#Deployment"))
	if !defn.Exists() {
		return nil, fmt.Errorf("deployment schema missing #Deployment definition")
	}

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	unified := defn.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}

	var raw rawDeployment
	if err := unified.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	dep := fromRaw(raw)
	// The schema already rejects non-positive durations; this is the
	// engine's own fail-fast gate and keeps the two in agreement.
	if err := dep.Config.Validate(); err != nil {
		return nil, err
	}
	return dep, nil
}

// LoadOrDefault loads path when non-empty and falls back to Default
// otherwise.
func LoadOrDefault(path string) (*Deployment, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func fromRaw(raw rawDeployment) *Deployment {
	dep := &Deployment{
		Seats: raw.Seats,
		Categories: occupancy.Categories{
			Person:     raw.Labels.Person,
			Belongings: raw.Labels.Belongings,
		},
		Config: engine.Config{
			StabilityWindow:  time.Duration(raw.Thresholds.StabilityWindowSeconds) * time.Second,
			CampingThreshold: time.Duration(raw.Thresholds.CampingMinutes) * time.Minute,
			NoShowThreshold:  time.Duration(raw.Thresholds.NoShowMinutes) * time.Minute,
			ReturnGrace:      time.Duration(raw.Thresholds.ReturnGraceMinutes) * time.Minute,
			EmptyRelease:     time.Duration(raw.Thresholds.EmptyReleaseMinutes) * time.Minute,
			CampedRelease:    time.Duration(raw.Thresholds.CampedReleaseMinutes) * time.Minute,
		},
	}
	if len(dep.Seats) == 0 {
		dep.Seats = registry.DefaultSeatIDs
	}
	return dep
}

// Build assembles the registry, classifier and monitor for this
// deployment.
func (d *Deployment) Build(opts ...engine.MonitorOption) (*registry.Registry, *engine.Monitor, error) {
	reg, err := registry.New(d.Seats)
	if err != nil {
		return nil, nil, err
	}
	classifier := occupancy.NewClassifier(d.Categories)
	monitor, err := engine.NewMonitor(d.Config, reg, classifier, opts...)
	if err != nil {
		return nil, nil, err
	}
	return reg, monitor, nil
}
