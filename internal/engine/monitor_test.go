package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwatch/seatwatch/internal/occupancy"
	"github.com/seatwatch/seatwatch/internal/registry"
)

func newTestMonitor(t *testing.T, ids ...string) *Monitor {
	t.Helper()
	if len(ids) == 0 {
		ids = []string{"A1", "A2", "B1"}
	}
	reg, err := registry.New(ids)
	require.NoError(t, err)
	m, err := NewMonitor(DefaultConfig(), reg, occupancy.NewClassifier(occupancy.DefaultCategories()),
		WithAlertIDs(NewFixedIDGenerator("alert")),
	)
	require.NoError(t, err)
	return m
}

func TestNewMonitor_RejectsBadConfig(t *testing.T) {
	reg, err := registry.New(nil)
	require.NoError(t, err)
	classifier := occupancy.NewClassifier(occupancy.DefaultCategories())

	cfg := DefaultConfig()
	cfg.StabilityWindow = 0
	_, err = NewMonitor(cfg, reg, classifier)
	require.Error(t, err)
	assert.True(t, IsBadConfig(err))

	cfg = DefaultConfig()
	cfg.NoShowThreshold = -time.Minute
	_, err = NewMonitor(cfg, reg, classifier)
	assert.True(t, IsBadConfig(err))
}

func TestMonitor_IngestObservation_UnknownSeat(t *testing.T) {
	m := newTestMonitor(t)

	_, err := m.IngestObservation("Z9", []string{"person"}, testBase)
	require.Error(t, err)
	assert.True(t, IsUnknownSeat(err))
}

func TestMonitor_UnreservedInvariant(t *testing.T) {
	m := newTestMonitor(t)

	// Whatever the detector claims, an unreserved seat reads Empty with no
	// candidate or deadline fields set.
	for _, labels := range [][]string{{"person"}, {"backpack"}, nil} {
		status, err := m.IngestObservation("A1", labels, testBase)
		require.NoError(t, err)
		assert.Equal(t, registry.StateEmpty, status.State)
		assert.Nil(t, status.Pending)
		assert.Nil(t, status.ReleaseRemainingSeconds)
		assert.False(t, status.Reserved)
	}
}

func TestMonitor_ObservationLifecycle(t *testing.T) {
	m := newTestMonitor(t)
	cfg := DefaultConfig()

	require.NoError(t, m.CreateReservation("A1", testBase))

	// First person sighting starts a pending transition.
	status, err := m.IngestObservation("A1", []string{"person"}, testBase.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, registry.StateEmpty, status.State)
	require.NotNil(t, status.Pending)
	assert.Equal(t, registry.StateOccupied, *status.Pending)
	assert.Equal(t, 20, status.PendingRemainingSeconds)

	// Still pending halfway through the window.
	status, err = m.IngestObservation("A1", []string{"person", "backpack"}, testBase.Add(11*time.Second))
	require.NoError(t, err)
	assert.Equal(t, registry.StateEmpty, status.State)
	assert.Equal(t, 10, status.PendingRemainingSeconds)

	// Past the window: promoted, deadline gone, reservation exercised.
	status, err = m.IngestObservation("A1", []string{"person"}, testBase.Add(time.Second+cfg.StabilityWindow))
	require.NoError(t, err)
	assert.Equal(t, registry.StateOccupied, status.State)
	assert.Nil(t, status.Pending)
	assert.True(t, status.EverOccupied)
	assert.Nil(t, status.ReleaseRemainingSeconds)
	assert.True(t, status.Reserved)
}

func TestMonitor_TickPolicies_NoShowScenario(t *testing.T) {
	// A deployment that holds unclaimed seats for a long while: the
	// no-show threshold is reached before the release deadline, so the
	// no-show alert can actually surface.
	cfg := DefaultConfig()
	cfg.EmptyRelease = time.Hour

	reg, err := registry.New([]string{"A1", "A2", "A3"})
	require.NoError(t, err)
	m, err := NewMonitor(cfg, reg, occupancy.NewClassifier(occupancy.DefaultCategories()),
		WithAlertIDs(NewFixedIDGenerator("alert")),
	)
	require.NoError(t, err)

	// A1 reserved at T0 and never occupied. A2 reserved later, also never
	// occupied but still under the threshold. A3 untouched.
	require.NoError(t, m.CreateReservation("A1", testBase))
	require.NoError(t, m.CreateReservation("A2", testBase.Add(15*time.Minute)))

	alerts := m.TickPolicies(testBase.Add(cfg.NoShowThreshold))
	require.Len(t, alerts, 1, "exactly one no-show, none for seats under threshold")
	assert.Equal(t, AlertNoShow, alerts[0].Kind)
	assert.Equal(t, "A1", alerts[0].SeatID)
}

func TestMonitor_AutoReleasePrecedence(t *testing.T) {
	m := newTestMonitor(t, "A1")

	require.NoError(t, m.CreateReservation("A1", testBase))
	// Belongings confirmed manually: deadline reseeds to camped grace.
	require.NoError(t, m.ManualSetState("A1", registry.StateCamped, testBase))

	// Hours later the deadline has passed and the seat would also qualify
	// for overstay. Only auto-release is emitted this cycle.
	alerts := m.TickPolicies(testBase.Add(3 * time.Hour))
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertAutoUnreserve, alerts[0].Kind)

	// Next cycle the seat is unreserved and still Camped: overstay now
	// fires on its own.
	alerts = m.TickPolicies(testBase.Add(3*time.Hour + time.Minute))
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertOverstay, alerts[0].Kind)
}

func TestMonitor_ManualSetState(t *testing.T) {
	m := newTestMonitor(t)

	err := m.ManualSetState("A1", registry.State("Sleeping"), testBase)
	require.Error(t, err)
	assert.True(t, IsInvalidState(err))

	err = m.ManualSetState("Z9", registry.StateEmpty, testBase)
	assert.True(t, IsUnknownSeat(err))

	require.NoError(t, m.CreateReservation("A1", testBase))
	require.NoError(t, m.ManualSetState("A1", registry.StateOccupied, testBase.Add(time.Second)))

	status, err := m.Status("A1", testBase.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, registry.StateOccupied, status.State)
	assert.True(t, status.EverOccupied)
	assert.Nil(t, status.ReleaseRemainingSeconds, "occupied override drops the deadline")
}

func TestMonitor_SetAuthorized(t *testing.T) {
	m := newTestMonitor(t)
	cfg := DefaultConfig()

	require.NoError(t, m.CreateReservation("B1", testBase))
	require.NoError(t, m.ManualSetState("B1", registry.StateOccupied, testBase))
	require.NoError(t, m.SetAuthorized("B1", false))

	// Unauthorized use fires on every tick until trust is granted.
	for i := 1; i <= 3; i++ {
		alerts := m.TickPolicies(testBase.Add(time.Duration(i) * time.Second))
		require.Len(t, alerts, 1)
		assert.Equal(t, AlertUnauthorizedUse, alerts[0].Kind)
		assert.Equal(t, "B1", alerts[0].SeatID)
	}

	require.NoError(t, m.SetAuthorized("B1", true))
	assert.Empty(t, m.TickPolicies(testBase.Add(cfg.StabilityWindow)))

	assert.True(t, IsUnknownSeat(m.SetAuthorized("Z9", true)))
}

func TestMonitor_Statuses(t *testing.T) {
	m := newTestMonitor(t, "A1", "A2")

	require.NoError(t, m.CreateReservation("A2", testBase))
	statuses := m.Statuses(testBase)
	require.Len(t, statuses, 2)
	assert.Equal(t, "A1", statuses[0].SeatID)
	assert.Equal(t, "A2", statuses[1].SeatID)
	assert.False(t, statuses[0].Reserved)
	assert.True(t, statuses[1].Reserved)
	require.NotNil(t, statuses[1].ReleaseRemainingSeconds)
	assert.Equal(t, 60, *statuses[1].ReleaseRemainingSeconds)
}

func TestMonitor_DeadlineExtensionDuringClaim(t *testing.T) {
	m := newTestMonitor(t, "A1")
	cfg := DefaultConfig()

	require.NoError(t, m.CreateReservation("A1", testBase))

	// The occupant arrives 50s in - 10s before the 1 minute empty-release
	// deadline, inside the stability window. The transition must finish
	// debouncing without the seat auto-releasing underneath it.
	claimStart := testBase.Add(50 * time.Second)
	_, err := m.IngestObservation("A1", []string{"person"}, claimStart)
	require.NoError(t, err)

	// A tick between the old deadline and the promotion must not release.
	alerts := m.TickPolicies(testBase.Add(65 * time.Second))
	assert.Empty(t, alerts)

	status, err := m.IngestObservation("A1", []string{"person"}, claimStart.Add(cfg.StabilityWindow))
	require.NoError(t, err)
	assert.Equal(t, registry.StateOccupied, status.State)
	assert.True(t, status.Reserved)
}
