package noise

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	timestats "github.com/cwbudde/algo-smallsignal/stats/time"
)

func TestOUStationarity(t *testing.T) {
	p := OU{Mean: 0, StdDev: 1, Tau: 0.02, Dt: 0.005}

	x, err := p.Generate(200000, rand.NewPCG(1, 2))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	s := timestats.Calculate(x)
	if math.Abs(s.Mean) > 0.05 {
		t.Fatalf("mean = %v, want within 0.05 of 0", s.Mean)
	}
	if math.Abs(s.StdDev-1) > 0.1 {
		t.Fatalf("stddev = %v, want within 10%% of 1", s.StdDev)
	}

	r, err := timestats.Autocorrelation(x, 2)
	if err != nil {
		t.Fatalf("Autocorrelation: %v", err)
	}

	for lag := 1; lag <= 2; lag++ {
		want := math.Exp(-float64(lag) * p.Dt / p.Tau)
		if math.Abs(r[lag]-want) > 0.15*want {
			t.Fatalf("r[%d] = %v, want within 15%% of %v", lag, r[lag], want)
		}
	}
}

func TestOUNonZeroMean(t *testing.T) {
	p := OU{Mean: 5, StdDev: 0.5, Tau: 0.05, Dt: 0.01}

	x, err := p.Generate(100000, rand.NewPCG(9, 9))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if x[0] != 5 {
		t.Fatalf("x[0] = %v, want mean", x[0])
	}

	s := timestats.Calculate(x)
	if math.Abs(s.Mean-5) > 0.05*5 {
		t.Fatalf("mean = %v, want ~5", s.Mean)
	}
	if math.Abs(s.StdDev-0.5) > 0.05 {
		t.Fatalf("stddev = %v, want ~0.5", s.StdDev)
	}
}

func TestOUReproducibleWithSeed(t *testing.T) {
	p := OU{StdDev: 1, Tau: 0.02, Dt: 0.005}

	a, _ := p.Generate(1000, rand.NewPCG(42, 7))
	b, _ := p.Generate(1000, rand.NewPCG(42, 7))
	c, _ := p.Generate(1000, rand.NewPCG(43, 7))

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed differs at %d", i)
		}
	}

	differs := false
	for i := range a {
		if a[i] != c[i] {
			differs = true
			break
		}
	}
	if !differs {
		t.Fatal("different seeds produced identical traces")
	}
}

func TestOUCoefficients(t *testing.T) {
	p := OU{StdDev: 2, Tau: 0.02, Dt: 0.005}
	mu, coeff := p.Coefficients()

	wantMu := math.Exp(-0.25)
	if math.Abs(mu-wantMu) > 1e-15 {
		t.Fatalf("mu = %v, want %v", mu, wantMu)
	}

	// Both written forms of the coefficient agree.
	alt := math.Sqrt(p.StdDev * p.StdDev / p.Tau * p.Tau * (1 - mu*mu))
	if math.Abs(coeff-alt) > 1e-12 {
		t.Fatalf("coeff = %v, want %v", coeff, alt)
	}
}

func TestOUValidate(t *testing.T) {
	tests := []struct {
		name string
		p    OU
		want error
	}{
		{"tau", OU{StdDev: 1, Tau: 0, Dt: 1}, ErrInvalidTau},
		{"dt", OU{StdDev: 1, Tau: 1, Dt: -1}, ErrInvalidStep},
		{"stddev", OU{StdDev: -1, Tau: 1, Dt: 1}, ErrInvalidStdDev},
		{"nan", OU{StdDev: math.NaN(), Tau: 1, Dt: 1}, ErrInvalidStdDev},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := (OU{StdDev: 1, Tau: 1, Dt: 1}).Generate(0, nil); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("err = %v, want ErrInvalidLength", err)
	}
}

func TestOUTheoreticalSpectrum(t *testing.T) {
	p := OU{StdDev: 0.3, Tau: 0.02, Dt: 0.005}

	// DC level is 4*sigma^2*tau.
	if got, want := p.PSD(0), 4*0.09*0.02; math.Abs(got-want) > 1e-15 {
		t.Fatalf("PSD(0) = %v, want %v", got, want)
	}

	// Corner frequency 1/(2*pi*tau) halves the density.
	fc := 1 / (2 * math.Pi * p.Tau)
	if got := p.PSD(fc) / p.PSD(0); math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("PSD(fc)/PSD(0) = %v, want 0.5", got)
	}

	if got, want := p.Amplitude(3), math.Sqrt(p.PSD(3)/2); got != want {
		t.Fatalf("Amplitude = %v, want %v", got, want)
	}

	// The variance is the integral of the one-sided density.
	sum, df := 0.0, 0.01
	for f := df / 2; f < 20000; f += df {
		sum += p.PSD(f) * df
	}
	if math.Abs(sum-0.09)/0.09 > 1e-3 {
		t.Fatalf("integrated PSD = %v, want 0.09", sum)
	}
}

func TestSamples(t *testing.T) {
	p := OU{Dt: 0.005}

	n, err := p.Samples(450)
	if err != nil || n != 90000 {
		t.Fatalf("Samples = %d, %v; want 90000", n, err)
	}

	if _, err := p.Samples(0.001); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("err = %v, want ErrInvalidDuration", err)
	}
}
