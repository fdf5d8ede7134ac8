// Package hydro is the numerical engine behind well hydrograph recession analysis.
// It detects alternating local extrema at a chosen scale and fits a master
// recession curve over user-selected maximum to minimum segments.
//
// Water levels are expressed as depth below ground surface, so a recession is a
// segment along which the value increases.
package hydro

import (
	"math"
)

// Series is a water level record: Time[i] (strictly increasing, usually days)
// paired with Level[i] (depth below ground).
type Series struct {
	Time  []float64 `json:"time"`
	Level []float64 `json:"level"`
}

// Len returns the number of samples.
func (s Series) Len() int {
	return len(s.Level)
}

// Validate checks the invariants every operation of this package relies on.
func (s Series) Validate() error {
	const op = "series"
	if len(s.Time) != len(s.Level) {
		return inputErrorf(op, "time has %d samples but level has %d", len(s.Time), len(s.Level))
	}
	if len(s.Level) < 2 {
		return inputErrorf(op, "need at least 2 samples, got %d", len(s.Level))
	}
	if err := checkFinite(op, s.Level); err != nil {
		return err
	}
	if err := checkFinite(op, s.Time); err != nil {
		return err
	}
	for i := 1; i < len(s.Time); i++ {
		if s.Time[i] <= s.Time[i-1] {
			return inputErrorf(op, "time is not strictly increasing at sample %d", i)
		}
	}
	return nil
}

func checkFinite(op string, x []float64) error {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return inputErrorf(op, "non-finite value at sample %d", i)
		}
	}
	return nil
}
