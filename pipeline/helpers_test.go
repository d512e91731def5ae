package pipeline

import (
	"testing"

	"github.com/cwbudde/algo-smallsignal/inject"
	"github.com/cwbudde/algo-smallsignal/internal/testutil"
	"github.com/cwbudde/algo-smallsignal/result"
	"github.com/cwbudde/algo-smallsignal/system"
	"gonum.org/v1/gonum/mat"
)

// testSnapshot has two machine states and the two voltage components of
// one bus. "Load 2" hangs off a bus that is only reachable through its
// equivalence class.
func testSnapshot(t *testing.T, id string) *Snapshot {
	t.Helper()

	j := testutil.RandomJacobian(3, 2, 2)

	ix, err := system.NewIndex([]system.Variable{
		{Component: "G 1", Name: "delta", Row: 0, State: true},
		{Component: "G 1", Name: "speed", Row: 1, State: true},
		{Component: "Bus 1", Name: "ur", Row: 2},
		{Component: "Bus 1", Name: "ui", Row: 3},
	})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	loads := map[string]inject.LoadPower{
		"Load 1": {P: 10, Q: 2},
		"Load 2": {P: 5, Q: -1},
	}

	return &Snapshot{
		ID:        id,
		Jacobian:  j,
		Reference: testutil.ReferenceReduction(j, 2),
		Index:     ix,
		Topology: inject.Topology{
			LoadBus:   map[string]string{"Load 1": "Bus 1", "Load 2": "Bus 1x"},
			BusEquiv:  map[string][]string{"Bus 1x": {"Bus 9", "Bus 1"}},
			LoadPower: loads,
		},
		Generators: []string{"G 1"},
		H:          map[string]float64{"G 1": 5},
		S:          map[string]float64{"G 1": 100},
		Buses:      []string{"Bus 1", "Bus 1x"},
		OperatingPoint: &result.OperatingPoint{
			Loads:      loads,
			Generators: map[string]inject.LoadPower{"G 1____GEN_____": {P: 80, Q: 10}},
		},
		Htot:   5,
		Etot:   500,
		Mtot:   10,
		Config: []byte(`{"grid":"test"}`),
	}
}

// inconsistent returns a snapshot whose reference matrix is off by 1e-6.
func inconsistent(t *testing.T, id string) *Snapshot {
	t.Helper()

	s := testSnapshot(t, id)
	s.Reference = mat.DenseCopyOf(s.Reference)
	s.Reference.Set(0, 1, s.Reference.At(0, 1)+1e-6)

	return s
}

// fastConfig estimates 9 bins (0.1 to 0.9 Hz) from 60 s of noise.
func fastConfig() Config {
	seed := uint64(3)

	cfg := DefaultConfig()
	cfg.Inject.Loads = []string{"Load *"}
	cfg.Duration = 60
	cfg.Step = 0.05
	cfg.WindowSeconds = 10
	cfg.FMin, cfg.FMax = 0.05, 0.95
	cfg.Seed = &seed

	return cfg
}

func mustRunner(t *testing.T, cfg Config, opts ...RunnerOption) *Runner {
	t.Helper()

	r, err := NewRunner(cfg, opts...)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	return r
}
