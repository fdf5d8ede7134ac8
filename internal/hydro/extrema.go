package hydro

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Kind tells a local maximum from a local minimum.
type Kind int8

const (
	Minimum Kind = -1
	Maximum Kind = 1
)

func (k Kind) String() string {
	switch k {
	case Maximum:
		return "max"
	case Minimum:
		return "min"
	default:
		return fmt.Sprintf("Kind(%d)", int8(k))
	}
}

// MarshalText encodes the kind as "max" or "min".
func (k Kind) MarshalText() ([]byte, error) {
	if k != Maximum && k != Minimum {
		return nil, fmt.Errorf("unknown extremum kind %d", int8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText accepts "max" or "min".
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "max":
		*k = Maximum
	case "min":
		*k = Minimum
	default:
		return fmt.Errorf("unknown extremum kind %q", string(b))
	}
	return nil
}

// Extremum is one entry of a scale partition.
type Extremum struct {
	Index int  `json:"index"`
	Kind  Kind `json:"kind"`
}

// Signed returns the historical encoding: +Index for a maximum, -Index for a
// minimum. A minimum at index 0 encodes as 0 and cannot be told apart from a
// maximum there; use Kind when that matters.
func (e Extremum) Signed() int {
	return int(e.Kind) * e.Index
}

// FindExtrema partitions h into alternating local maxima and minima at scale
// deltan, following the iterative scheme of Vamos and Craciun (Automatic Trend
// Estimation, Springer 2012, appendix E).
//
// A candidate is accepted only if it is still the extreme value once its plateau
// is widened by deltan samples on each side. When two extrema of the same kind
// would follow each other, the extreme value between them is inserted to keep
// the alternation; the ordinal positions of those inserted points are returned
// in added. Ties always go to the lowest index.
//
// The result is not trimmed: it may start or end with either kind.
func FindExtrema(ctx context.Context, h []float64, deltan int) (extrema []Extremum, added []int, err error) {
	const op = "find extrema"

	n := len(h)
	if deltan < 1 {
		return nil, nil, inputErrorf(op, "scale must be a positive number of samples, got %d", deltan)
	}
	if n < 2 {
		return nil, nil, inputErrorf(op, "need at least 2 samples, got %d", n)
	}
	if err := checkFinite(op, h); err != nil {
		return nil, nil, err
	}

	pm := BuildPlateauMap(h)
	last := n - 1

	record := func(i int, k Kind, synthetic bool) {
		extrema = append(extrema, Extremum{Index: pm.Midpoint(i), Kind: k})
		if synthetic {
			added = append(added, len(extrema)-1)
		}
	}

	// The same-kind branches below may leave the cursor where it is for one
	// pass, so the scan count is bounded rather than assumed.
	maxScans := 4*n + 8

	nc := 0
	for scans := 0; nc < last; scans++ {
		if scans >= maxScans {
			return nil, nil, &ConvergenceError{Op: op, Loop: "scan", Iterations: scans}
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, &CancelledError{Op: op, Err: err}
		}

		nlim := min(nc+deltan, last)
		nmin := nc + floats.MinIdx(h[nc:nlim+1])
		nmax := nc + floats.MaxIdx(h[nc:nlim+1])

		isMin := dominates(h, pm, nmin, deltan, floats.MinIdx)
		isMax := dominates(h, pm, nmax, deltan, floats.MaxIdx)

		// Only the candidate closest to the cursor is kept.
		if isMin && isMax {
			if nmin < nmax {
				isMax = false
			} else {
				isMin = false
			}
		}

		if len(extrema) == 0 {
			switch {
			case isMax:
				nc = pm.N1[nmax] + 1
				record(nmax, Maximum, false)
			case isMin:
				nc = pm.N1[nmin] + 1
				record(nmin, Minimum, false)
			default:
				nc += deltan
			}
			continue
		}

		prev := extrema[len(extrema)-1]
		prevLevel := h[prev.Index]

		switch prev.Kind {
		case Minimum:
			switch {
			case isMax && prevLevel < h[nmax]:
				nc = pm.N1[nmax] + 1
				record(nmax, Maximum, false)
			case isMax:
				// The rebound does not clear the previous minimum.
				k := extremeBetween(h, prev.Index, nmax, floats.MaxIdx)
				nc = pm.N1[k] + 1
				record(k, Maximum, true)
			case isMin:
				nc = pm.N1[nmin]
				k := extremeBetween(h, prev.Index, nc, floats.MaxIdx)
				record(k, Maximum, true)
			default:
				nc += deltan
			}

		case Maximum:
			switch {
			case isMin && prevLevel > h[nmin]:
				nc = pm.N1[nmin] + 1
				record(nmin, Minimum, false)
			case isMin:
				k := extremeBetween(h, prev.Index, nmin, floats.MinIdx)
				nc = pm.N1[k] + 1
				record(k, Minimum, true)
			case isMax:
				nc = pm.N1[nmax]
				k := extremeBetween(h, prev.Index, nc, floats.MinIdx)
				record(k, Minimum, true)
			default:
				nc += deltan
			}
		}
	}

	return extrema, added, nil
}

// dominates reports whether i is still the first extreme sample of h once its
// plateau is widened by deltan on each side.
func dominates(h []float64, pm PlateauMap, i, deltan int, pick func([]float64) int) bool {
	lo := max(pm.N1[i]-deltan, 0)
	hi := min(pm.N2[i]+deltan, len(h)-1)
	return lo+pick(h[lo:hi+1]) == i
}

// extremeBetween returns the index of the first extreme sample of h[a..b].
func extremeBetween(h []float64, a, b int, pick func([]float64) int) int {
	if b < a {
		a, b = b, a
	}
	return a + pick(h[a:b+1])
}
