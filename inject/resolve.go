package inject

import (
	"fmt"
	"math"
	"path"
	"slices"
	"strings"

	"github.com/cwbudde/algo-smallsignal/noise"
	"github.com/cwbudde/algo-smallsignal/system"
)

// LoadPower is the steady-state operating point of a load.
type LoadPower struct {
	P float64 `json:"P"`
	Q float64 `json:"Q"`
}

// Topology is the network data needed to place injections.
type Topology struct {
	LoadBus   map[string]string    // load name -> connected bus
	BusEquiv  map[string][]string  // bus -> electrically equivalent buses, in search order
	LoadPower map[string]LoadPower // load name -> operating point
}

// Point is one resolved injection: a noise source on one voltage component of
// one bus.
type Point struct {
	Load     string
	Bus      string // bus whose variables carry the injection
	Quantity Quantity
	AlgIndex int // row of Bus.Quantity.Variable() minus the number of states

	// ConnectedBus differs from Bus when the connected bus is not in the
	// index and an equivalent one was used instead.
	ConnectedBus string

	Nominal float64 // operating-point value of Quantity
	StdDev  float64
	Tau     float64
}

// Substituted reports whether the injection was moved to an equivalent bus.
func (p Point) Substituted() bool { return p.Bus != p.ConnectedBus }

// Name identifies the point as "load:Q".
func (p Point) Name() string { return p.Load + ":" + p.Quantity.String() }

// Process returns the zero-mean OU process driving the point, sampled every
// dt seconds.
func (p Point) Process(dt float64) noise.OU {
	return noise.OU{StdDev: p.StdDev, Tau: p.Tau, Dt: dt}
}

// AlgIndices returns the algebraic indices of points in order.
func AlgIndices(points []Point) []int {
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = p.AlgIndex
	}

	return out
}

// Resolve expands the configured loads and binds each enabled quantity to
// its bus variable. Points are ordered by load (in expansion order) and then
// P before Q.
func Resolve(cfg Config, topo Topology, ix *system.Index) ([]Point, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loads, origin, err := expand(cfg.Loads, topo.LoadBus)
	if err != nil {
		return nil, err
	}

	var points []Point

	for n, load := range loads {
		connected := topo.LoadBus[load]

		bus, err := resolveBus(connected, topo.BusEquiv, ix)
		if err != nil {
			return nil, &LoadError{Load: load, Err: err}
		}

		op, hasOp := topo.LoadPower[load]

		for _, q := range cfg.Quantities() {
			alg, err := ix.AlgebraicOffset(bus, q.Variable())
			if err != nil {
				return nil, &LoadError{Load: load, Err: err}
			}

			amp, relative, err := cfg.amplitude(q, origin[n])
			if err != nil {
				return nil, &LoadError{Load: load, Err: err}
			}

			nominal := op.P
			if q == QuantityQ {
				nominal = op.Q
			}

			std := amp
			if relative {
				if !hasOp {
					return nil, &LoadError{Load: load, Err: ErrMissingOperatingPoint}
				}

				std = amp * math.Abs(nominal)
			}

			points = append(points, Point{
				Load:         load,
				Bus:          bus,
				ConnectedBus: connected,
				Quantity:     q,
				AlgIndex:     alg,
				Nominal:      nominal,
				StdDev:       std,
				Tau:          cfg.Tau,
			})
		}
	}

	if len(points) == 0 {
		return nil, ErrNoInjectionPoints
	}

	return points, nil
}

// expand turns names and glob patterns into load names. origin[i] is the
// position in names that produced loads[i].
func expand(names []string, loadBus map[string]string) (loads []string, origin []int, err error) {
	known := make([]string, 0, len(loadBus))
	for l := range loadBus {
		known = append(known, l)
	}

	slices.Sort(known)

	seen := make(map[string]bool)
	add := func(load string, i int) error {
		if seen[load] {
			return &LoadError{Load: load, Err: ErrDuplicateLoad}
		}

		seen[load] = true
		loads = append(loads, load)
		origin = append(origin, i)

		return nil
	}

	for i, name := range names {
		if !strings.ContainsAny(name, "*?[") {
			if _, ok := loadBus[name]; !ok {
				return nil, nil, &LoadError{Load: name, Err: ErrUnknownLoad}
			}

			if err := add(name, i); err != nil {
				return nil, nil, err
			}

			continue
		}

		matched := false

		for _, l := range known {
			ok, err := path.Match(name, l)
			if err != nil {
				return nil, nil, &LoadError{Load: name, Err: fmt.Errorf("bad pattern: %w", err)}
			}

			if !ok {
				continue
			}

			matched = true

			if err := add(l, i); err != nil {
				return nil, nil, err
			}
		}

		if !matched {
			return nil, nil, &LoadError{Load: name, Err: fmt.Errorf("%w: pattern matches nothing", ErrUnknownLoad)}
		}
	}

	return loads, origin, nil
}

// resolveBus returns bus when the index has variables for it, otherwise the
// first member of its equivalence class that does.
func resolveBus(bus string, equiv map[string][]string, ix *system.Index) (string, error) {
	if ix.HasComponent(bus) {
		return bus, nil
	}

	for _, alt := range equiv[bus] {
		if ix.HasComponent(alt) {
			return alt, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnresolvableBus, bus)
}
