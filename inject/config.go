package inject

import (
	"fmt"
	"math"
)

// Quantity is the perturbed electrical quantity of a load.
type Quantity int

const (
	QuantityP Quantity = iota // active power
	QuantityQ                 // reactive power
)

func (q Quantity) String() string {
	switch q {
	case QuantityP:
		return "P"
	case QuantityQ:
		return "Q"
	default:
		return fmt.Sprintf("Quantity(%d)", int(q))
	}
}

// Variable returns the bus voltage component driven by q.
func (q Quantity) Variable() string {
	if q == QuantityQ {
		return "ui"
	}

	return "ur"
}

// Config selects the injection points and their amplitude.
//
// For each perturbed quantity exactly one of the relative list (DP, DQ:
// fraction of the nominal load value) and the absolute list (SigmaP, SigmaQ:
// standard deviation) must be non-empty. A list of length one applies to
// every entry of Loads, otherwise its length must equal len(Loads) and entry
// i applies to Loads[i] and everything it expands to.
type Config struct {
	Loads []string `json:"loads"`
	UseP  bool     `json:"use_p"`
	UseQ  bool     `json:"use_q"`

	DP     []float64 `json:"dP,omitempty"`
	SigmaP []float64 `json:"sigmaP,omitempty"`
	DQ     []float64 `json:"dQ,omitempty"`
	SigmaQ []float64 `json:"sigmaQ,omitempty"`

	Tau float64 `json:"tau"` // OU correlation time in seconds
}

// Quantities returns the enabled quantities, P first.
func (c Config) Quantities() []Quantity {
	var out []Quantity
	if c.UseP {
		out = append(out, QuantityP)
	}

	if c.UseQ {
		out = append(out, QuantityQ)
	}

	return out
}

// Validate checks everything that does not need the system data.
func (c Config) Validate() error {
	if !c.UseP && !c.UseQ {
		return ErrNoQuantity
	}

	if len(c.Loads) == 0 {
		return ErrNoLoads
	}

	if !(c.Tau > 0) || math.IsInf(c.Tau, 0) {
		return fmt.Errorf("%w: %g", ErrInvalidTau, c.Tau)
	}

	for _, q := range c.Quantities() {
		if _, _, err := c.amplitude(q, 0); err != nil {
			return err
		}
	}

	return nil
}

// amplitude returns the amplitude that applies to Loads[i] and whether it is
// relative to the nominal value.
func (c Config) amplitude(q Quantity, i int) (value float64, relative bool, err error) {
	rel, abs := c.DP, c.SigmaP
	relName, absName := "dP", "sigmaP"

	if q == QuantityQ {
		rel, abs = c.DQ, c.SigmaQ
		relName, absName = "dQ", "sigmaQ"
	}

	switch {
	case len(rel) > 0 && len(abs) > 0:
		return 0, false, fmt.Errorf("%w: %s and %s", ErrAmbiguousAmplitude, relName, absName)
	case len(rel) == 0 && len(abs) == 0:
		return 0, false, fmt.Errorf("%w: %s or %s", ErrMissingAmplitude, relName, absName)
	}

	list, name := rel, relName
	if len(abs) > 0 {
		list, name = abs, absName
	}

	v, err := pick(list, i, len(c.Loads), name)
	if err != nil {
		return 0, false, err
	}

	return v, len(rel) > 0, nil
}

func pick(list []float64, i, n int, name string) (float64, error) {
	var v float64

	switch len(list) {
	case 1:
		v = list[0]
	case n:
		v = list[i]
	default:
		return 0, fmt.Errorf("%w: %s has %d entries for %d loads", ErrAmplitudeLength, name, len(list), n)
	}

	for _, x := range list {
		if !(x >= 0) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("%w: %s = %g", ErrInvalidAmplitude, name, x)
		}
	}

	return v, nil
}
