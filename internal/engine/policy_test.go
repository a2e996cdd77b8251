package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwatch/seatwatch/internal/registry"
)

func newTestPolicies(cfg Config) *Policies {
	return NewPolicies(cfg, NewFixedIDGenerator("alert"), discardLogger())
}

func kinds(alerts []Alert) []AlertKind {
	out := make([]AlertKind, len(alerts))
	for i, a := range alerts {
		out[i] = a.Kind
	}
	return out
}

func TestPolicies_QuietRegistry(t *testing.T) {
	reg, err := registry.New(nil)
	require.NoError(t, err)

	alerts := newTestPolicies(DefaultConfig()).Evaluate(reg, testBase, nil)
	assert.Empty(t, alerts)
}

func TestPolicies_Overstay(t *testing.T) {
	cfg := DefaultConfig()
	policies := newTestPolicies(cfg)
	reg, err := registry.New([]string{"A1", "A2"})
	require.NoError(t, err)

	seat, _ := reg.Seat("A1")
	seat.Confirmed = registry.StateCamped
	confirmedAt := testBase
	seat.LastConfirmedAt = &confirmedAt

	// One minute short of the camping threshold: nothing fires.
	alerts := policies.Evaluate(reg, testBase.Add(cfg.CampingThreshold-time.Minute), nil)
	assert.Empty(t, alerts)

	// At the threshold exactly: overstay fires for A1 only.
	alerts = policies.Evaluate(reg, testBase.Add(cfg.CampingThreshold), nil)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertOverstay, alerts[0].Kind)
	assert.Equal(t, "A1", alerts[0].SeatID)
	assert.NotEmpty(t, alerts[0].ID)
	assert.NotEmpty(t, alerts[0].Message)
}

func TestPolicies_NoShow(t *testing.T) {
	cfg := DefaultConfig()
	policies := newTestPolicies(cfg)
	reg, err := registry.New([]string{"A1", "A2"})
	require.NoError(t, err)

	// A1: reserved at base, never occupied.
	a1, _ := reg.Seat("A1")
	a1.Reserved = true
	reservedAt := testBase
	a1.ReservedAt = &reservedAt

	// A2: also reserved and never occupied, but well under the threshold.
	a2, _ := reg.Seat("A2")
	a2.Reserved = true
	laterReservation := testBase.Add(15 * time.Minute)
	a2.ReservedAt = &laterReservation

	alerts := policies.Evaluate(reg, testBase.Add(cfg.NoShowThreshold), nil)
	require.Len(t, alerts, 1, "only the seat past the threshold fires")
	assert.Equal(t, AlertNoShow, alerts[0].Kind)
	assert.Equal(t, "A1", alerts[0].SeatID)
}

func TestPolicies_NoShowRequiresNeverOccupied(t *testing.T) {
	cfg := DefaultConfig()
	policies := newTestPolicies(cfg)
	reg, err := registry.New([]string{"A1"})
	require.NoError(t, err)

	seat, _ := reg.Seat("A1")
	seat.Reserved = true
	reservedAt := testBase
	seat.ReservedAt = &reservedAt
	seat.EverOccupied = true
	confirmedAt := testBase.Add(time.Minute)
	seat.LastConfirmedAt = &confirmedAt

	// The occupant left: this is pending-return territory, never no-show.
	alerts := policies.Evaluate(reg, testBase.Add(cfg.NoShowThreshold), nil)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertPendingReturn, alerts[0].Kind)
}

func TestPolicies_PendingReturn(t *testing.T) {
	cfg := DefaultConfig()
	policies := newTestPolicies(cfg)
	reg, err := registry.New([]string{"A1"})
	require.NoError(t, err)

	seat, _ := reg.Seat("A1")
	seat.Reserved = true
	reservedAt := testBase.Add(-time.Hour)
	seat.ReservedAt = &reservedAt
	seat.EverOccupied = true
	confirmedAt := testBase
	seat.LastConfirmedAt = &confirmedAt

	alerts := policies.Evaluate(reg, testBase.Add(cfg.ReturnGrace-time.Second), nil)
	assert.Empty(t, alerts)

	alerts = policies.Evaluate(reg, testBase.Add(cfg.ReturnGrace), nil)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertPendingReturn, alerts[0].Kind)
}

func TestPolicies_UnauthorizedUse(t *testing.T) {
	policies := newTestPolicies(DefaultConfig())
	reg, err := registry.New([]string{"A1"})
	require.NoError(t, err)

	seat, _ := reg.Seat("A1")
	seat.Confirmed = registry.StateOccupied
	seat.Authorized = false

	// Fires on every cycle until the state changes or trust is granted.
	for i := 0; i < 3; i++ {
		alerts := policies.Evaluate(reg, testBase.Add(time.Duration(i)*time.Second), nil)
		require.Len(t, alerts, 1)
		assert.Equal(t, AlertUnauthorizedUse, alerts[0].Kind)
	}

	seat.Authorized = true
	assert.Empty(t, policies.Evaluate(reg, testBase.Add(time.Minute), nil))

	// Camped counts as "in use" too.
	seat.Confirmed = registry.StateCamped
	seat.Authorized = false
	alerts := policies.Evaluate(reg, testBase.Add(time.Minute), nil)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertUnauthorizedUse, alerts[0].Kind)

	// An empty seat has no occupant to be unauthorized.
	seat.Confirmed = registry.StateEmpty
	assert.Empty(t, policies.Evaluate(reg, testBase.Add(time.Minute), nil))
}

func TestPolicies_MultipleAlertsPerSeat(t *testing.T) {
	cfg := DefaultConfig()
	policies := newTestPolicies(cfg)
	reg, err := registry.New([]string{"A1"})
	require.NoError(t, err)

	seat, _ := reg.Seat("A1")
	seat.Confirmed = registry.StateCamped
	seat.Authorized = false
	confirmedAt := testBase
	seat.LastConfirmedAt = &confirmedAt

	alerts := policies.Evaluate(reg, testBase.Add(cfg.CampingThreshold), nil)
	assert.Equal(t, []AlertKind{AlertOverstay, AlertUnauthorizedUse}, kinds(alerts))
}

func TestPolicies_AutoReleasePrecedence(t *testing.T) {
	cfg := DefaultConfig()
	policies := newTestPolicies(cfg)
	reg, err := registry.New([]string{"A1", "B1"})
	require.NoError(t, err)

	// A1 would qualify for no-show and overstay - but its reservation was
	// released this cycle, so only the auto-release alert is emitted.
	a1, _ := reg.Seat("A1")
	a1.Confirmed = registry.StateCamped
	confirmedAt := testBase.Add(-3 * time.Hour)
	a1.LastConfirmedAt = &confirmedAt

	b1, _ := reg.Seat("B1")
	b1.Confirmed = registry.StateCamped
	b1.LastConfirmedAt = &confirmedAt

	alerts := policies.Evaluate(reg, testBase, map[string]bool{"A1": true})
	require.Len(t, alerts, 2)
	assert.Equal(t, AlertAutoUnreserve, alerts[0].Kind)
	assert.Equal(t, "A1", alerts[0].SeatID)
	assert.Equal(t, AlertOverstay, alerts[1].Kind)
	assert.Equal(t, "B1", alerts[1].SeatID)
}

func TestPolicies_RegistryOrderIsAlertOrder(t *testing.T) {
	cfg := DefaultConfig()
	policies := newTestPolicies(cfg)
	reg, err := registry.New([]string{"C3", "A1", "B2"})
	require.NoError(t, err)

	confirmedAt := testBase.Add(-3 * time.Hour)
	reg.Each(func(seat *registry.Seat) {
		seat.Confirmed = registry.StateCamped
		at := confirmedAt
		seat.LastConfirmedAt = &at
	})

	alerts := policies.Evaluate(reg, testBase, nil)
	require.Len(t, alerts, 3)
	assert.Equal(t, "C3", alerts[0].SeatID)
	assert.Equal(t, "A1", alerts[1].SeatID)
	assert.Equal(t, "B2", alerts[2].SeatID)
}

func TestPolicies_StaleClockNeverFires(t *testing.T) {
	cfg := DefaultConfig()
	policies := newTestPolicies(cfg)
	reg, err := registry.New([]string{"A1"})
	require.NoError(t, err)

	seat, _ := reg.Seat("A1")
	seat.Confirmed = registry.StateCamped
	confirmedAt := testBase.Add(48 * time.Hour) // stored timestamp in the "future"
	seat.LastConfirmedAt = &confirmedAt

	alerts := policies.Evaluate(reg, testBase, nil)
	assert.Empty(t, alerts, "elapsed time floors at zero under clock skew")
}
