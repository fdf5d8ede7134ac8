package hydro

import (
	"slices"
)

// Segment is one recession limb, from the sample that starts it (the water
// level maximum, shallowest depth) to the sample that ends it.
type Segment struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Segments sorts a copy of peaks and pairs them: even ordinal positions start a
// segment, odd ones end it. A trailing unmatched start is dropped.
//
// Every segment must be a recession in the depth-below-ground convention, that
// is h[Start] <= h[End].
func Segments(h []float64, peaks []int) ([]Segment, error) {
	const op = "segments"

	if len(peaks) == 0 {
		return nil, inputErrorf(op, "no extremum selected")
	}

	sorted := slices.Clone(peaks)
	slices.Sort(sorted)

	for i, p := range sorted {
		if p < 0 || p >= len(h) {
			return nil, inputErrorf(op, "peak index %d outside [0, %d]", p, len(h)-1)
		}
		if i > 0 && p == sorted[i-1] {
			return nil, inputErrorf(op, "peak index %d selected twice", p)
		}
	}

	segs := make([]Segment, 0, len(sorted)/2)
	for i := 0; i+1 < len(sorted); i += 2 {
		s := Segment{Start: sorted[i], End: sorted[i+1]}
		if h[s.Start]-h[s.End] > 0 {
			return nil, inputErrorf(op, "segment %d-%d is not a recession: level goes from %g to %g",
				s.Start, s.End, h[s.Start], h[s.End])
		}
		segs = append(segs, s)
	}
	if len(segs) == 0 {
		return nil, inputErrorf(op, "need at least one maximum/minimum pair, got %d index", len(sorted))
	}
	return segs, nil
}

// Len returns the number of samples the segment covers.
func (s Segment) Len() int {
	return s.End - s.Start + 1
}
