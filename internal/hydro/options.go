package hydro

import (
	"fmt"
	"strings"
)

// Mode selects the recession law integrated over each segment.
type Mode int

const (
	// ModeExponential integrates dh/dt = -b (h - c).
	ModeExponential Mode = iota
	// ModeLinear integrates dh/dt = b; c is not used.
	ModeLinear
)

func (m Mode) String() string {
	switch m {
	case ModeExponential:
		return "exponential"
	case ModeLinear:
		return "linear"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "exponential" or "linear" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exponential", "exp":
		return ModeExponential, nil
	case "linear", "lin":
		return ModeLinear, nil
	}
	return 0, inputErrorf("parse mode", "unknown recession mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Norm is the residual measure the fitter minimises.
type Norm int

const (
	NormRMSE Norm = iota
	NormMAE
	// NormAbsME is the absolute value of the mean error.
	NormAbsME
)

func (n Norm) String() string {
	switch n {
	case NormRMSE:
		return "rmse"
	case NormMAE:
		return "mae"
	case NormAbsME:
		return "absme"
	default:
		return fmt.Sprintf("Norm(%d)", int(n))
	}
}

// ParseNorm accepts "rmse", "mae" or "absme" in any case.
func ParseNorm(s string) (Norm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rmse":
		return NormRMSE, nil
	case "mae":
		return NormMAE, nil
	case "absme", "abs_me", "me":
		return NormAbsME, nil
	}
	return 0, inputErrorf("parse norm", "unknown residual norm %q", s)
}

func (n Norm) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Norm) UnmarshalText(b []byte) error {
	v, err := ParseNorm(string(b))
	if err != nil {
		return err
	}
	*n = v
	return nil
}

// FitOptions configures a Fitter.
type FitOptions struct {
	Mode Mode
	Norm Norm

	// MaxOuterIterations caps the passes over b.
	MaxOuterIterations int
	// MaxInnerIterations caps the steps over c within one pass over b.
	MaxInnerIterations int
}

// DefaultFitOptions returns an exponential, mean-absolute-error fit with generous caps.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		Mode:               ModeExponential,
		Norm:               NormMAE,
		MaxOuterIterations: 10000,
		MaxInnerIterations: 100000,
	}
}
