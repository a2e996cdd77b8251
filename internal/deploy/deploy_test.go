package deploy

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwatch/seatwatch/internal/engine"
	"github.com/seatwatch/seatwatch/internal/registry"
)

func TestDefault(t *testing.T) {
	dep := Default()

	assert.Equal(t, registry.DefaultSeatIDs, dep.Seats)
	assert.Equal(t, []string{"person"}, dep.Categories.Person)
	assert.Contains(t, dep.Categories.Belongings, "backpack")
	assert.Equal(t, engine.DefaultConfig(), dep.Config)
	assert.NoError(t, dep.Config.Validate())
}

func TestLoad_ValidFile(t *testing.T) {
	dep, err := Load(filepath.Join("testdata", "reading_room.cue"))
	require.NoError(t, err)

	assert.Equal(t, []string{"A1", "A2", "A3", "B1", "B2", "B3"}, dep.Seats)
	assert.Equal(t, []string{"person"}, dep.Categories.Person)
	assert.Equal(t, []string{"backpack", "laptop", "book"}, dep.Categories.Belongings)

	// Overridden thresholds.
	assert.Equal(t, 10*time.Second, dep.Config.StabilityWindow)
	assert.Equal(t, 90*time.Minute, dep.Config.CampingThreshold)

	// Schema defaults fill the rest.
	assert.Equal(t, 20*time.Minute, dep.Config.NoShowThreshold)
	assert.Equal(t, 5*time.Minute, dep.Config.ReturnGrace)
	assert.Equal(t, 1*time.Minute, dep.Config.EmptyRelease)
	assert.Equal(t, 3*time.Minute, dep.Config.CampedRelease)
}

func TestLoad_ZeroThresholdRejected(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "zero_threshold.cue"))
	require.Error(t, err, "non-positive durations must fail at startup")
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "unknown_field.cue"))
	require.Error(t, err)
}

func TestLoad_BadTypeRejected(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "bad_type.cue"))
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "does_not_exist.cue"))
	require.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	dep, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), dep)

	dep, err = LoadOrDefault(filepath.Join("testdata", "reading_room.cue"))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, dep.Config.StabilityWindow)
}

func TestBuild(t *testing.T) {
	dep, err := Load(filepath.Join("testdata", "reading_room.cue"))
	require.NoError(t, err)

	reg, monitor, err := dep.Build()
	require.NoError(t, err)
	assert.Equal(t, dep.Seats, reg.SeatIDs())
	assert.Equal(t, dep.Seats, monitor.SeatIDs())
}

func TestBuild_DuplicateSeatsFail(t *testing.T) {
	dep := Default()
	dep.Seats = []string{"A1", "A1"}

	_, _, err := dep.Build()
	require.Error(t, err)
}
