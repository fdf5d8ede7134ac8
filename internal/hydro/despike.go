package hydro

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Despike returns h passed through a running median of the given odd window.
// Near the ends the window shrinks symmetrically instead of padding, so the
// first and last samples are kept as they are. A window of 0 or 1 returns a
// copy of h.
//
// Logger spikes of one or two samples create false extrema at small scales;
// detect on the despiked copy and fit on the raw series.
func Despike(h []float64, window int) ([]float64, error) {
	const op = "despike"

	if window < 0 || (window > 1 && window%2 == 0) {
		return nil, inputErrorf(op, "window must be 0 or a positive odd number of samples, got %d", window)
	}
	if err := checkFinite(op, h); err != nil {
		return nil, err
	}

	out := slices.Clone(h)
	if window <= 1 {
		return out, nil
	}

	half := window / 2
	buf := make([]float64, 0, window)
	for i := range h {
		r := min(half, i, len(h)-1-i)
		buf = append(buf[:0], h[i-r:i+r+1]...)
		slices.Sort(buf)
		out[i] = stat.Quantile(0.5, stat.Empirical, buf, nil)
	}
	return out, nil
}
