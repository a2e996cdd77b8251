package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertGolden compares the run's trace against the golden fixture named
// after the scenario. Regenerate fixtures with `go test -update`.
func AssertGolden(t *testing.T, res *Result) {
	t.Helper()
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		t.Fatalf("marshal trace: %v", err)
	}
	data = append(data, '\n')
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, res.Scenario, data)
}
