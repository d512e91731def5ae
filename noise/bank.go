package noise

import (
	"fmt"
	"math/rand/v2"
)

// Bank generates one independent OU trace per injection point.
//
// Every trace draws from its own PCG stream derived from the bank seed and
// the trace position, so results do not depend on generation order and two
// banks never share generator state.
type Bank struct {
	seed     uint64
	seeded   bool
	duration float64
}

// BankOption configures a Bank.
type BankOption func(*Bank)

// WithSeed makes generation reproducible.
func WithSeed(seed uint64) BankOption {
	return func(b *Bank) {
		b.seed = seed
		b.seeded = true
	}
}

// WithDuration sets the simulated time span in seconds (default 450 s).
func WithDuration(seconds float64) BankOption {
	return func(b *Bank) {
		if seconds > 0 {
			b.duration = seconds
		}
	}
}

// NewBank returns a Bank. Without WithSeed the seed is drawn from system
// entropy and runs are not reproducible.
func NewBank(opts ...BankOption) *Bank {
	b := &Bank{duration: 450}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	if !b.seeded {
		b.seed = rand.Uint64()
	}

	return b
}

// Seed returns the effective seed, useful for logging unseeded runs.
func (b *Bank) Seed() uint64 { return b.seed }

// Source returns the generator stream for trace k.
func (b *Bank) Source(k int) rand.Source {
	return rand.NewPCG(b.seed, uint64(k)+1)
}

// Generate returns one trace per process, each round(duration/dt) samples.
func (b *Bank) Generate(procs []OU) ([][]float64, error) {
	out := make([][]float64, len(procs))

	for k, p := range procs {
		n, err := p.Samples(b.duration)
		if err != nil {
			return nil, fmt.Errorf("noise: trace %d: %w", k, err)
		}

		out[k], err = p.Generate(n, b.Source(k))
		if err != nil {
			return nil, fmt.Errorf("noise: trace %d: %w", k, err)
		}
	}

	return out, nil
}
