package freqresp

import (
	"fmt"
	"strings"
)

// Mode is the propagation law applied to each injection.
type Mode int

const (
	// ModeTransfer propagates complex amplitudes linearly.
	ModeTransfer Mode = iota
	// ModePSD propagates power spectral densities through squared
	// magnitudes.
	ModePSD
)

func (m Mode) String() string {
	switch m {
	case ModeTransfer:
		return "transfer"
	case ModePSD:
		return "psd"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "transfer" (or "tf") and "psd".
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "transfer", "tf":
		return ModeTransfer, nil
	case "psd":
		return ModePSD, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}
