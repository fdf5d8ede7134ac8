package hydro

import (
	"slices"
	"sort"
)

// Period is a recession window given in time units, start and end in any order.
type Period struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// NearestIndex returns the index of the sample of t closest to x. Ties go to the
// earlier sample; x before t[0] or after the last sample snaps to the ends.
// t must be strictly increasing and non-empty.
func NearestIndex(t []float64, x float64) int {
	j := sort.SearchFloat64s(t, x)
	switch {
	case j == 0:
		return 0
	case j == len(t):
		return len(t) - 1
	}
	if x-t[j-1] <= t[j]-x {
		return j - 1
	}
	return j
}

// PeaksFromPeriods converts time windows into a peak selection for Fit: each
// boundary snaps to its nearest sample and windows spanning fewer than two time
// steps are skipped. Overlapping windows are rejected.
func PeaksFromPeriods(t []float64, periods []Period) ([]int, error) {
	const op = "periods"

	if len(t) == 0 {
		return nil, inputErrorf(op, "empty time axis")
	}

	segs := make([]Segment, 0, len(periods))
	for _, p := range periods {
		i0 := NearestIndex(t, p.Start)
		i1 := NearestIndex(t, p.End)
		if i1 < i0 {
			i0, i1 = i1, i0
		}
		if i1-i0 < 2 {
			continue
		}
		segs = append(segs, Segment{Start: i0, End: i1})
	}
	if len(segs) == 0 {
		return nil, inputErrorf(op, "no period spans at least two time steps")
	}

	slices.SortFunc(segs, func(a, b Segment) int { return a.Start - b.Start })

	peaks := make([]int, 0, 2*len(segs))
	for i, s := range segs {
		if i > 0 && s.Start <= segs[i-1].End {
			return nil, inputErrorf(op, "periods overlap around sample %d", s.Start)
		}
		peaks = append(peaks, s.Start, s.End)
	}
	return peaks, nil
}
