package hydro

// PlateauMap records, for each sample, the first (N1) and last (N2) index of the
// run of equal values it belongs to. Samples outside a run have N1[i] == N2[i] == i.
//
// Example with a plateau between indices 5 and 8:
//
//	h  = [1, 2, 3, 4, 5, 6, 6, 6, 6, 7, 8,  9, 10, 11, 12]
//	N1 = [0, 1, 2, 3, 4, 5, 5, 5, 5, 9, 10, 11, 12, 13, 14]
//	N2 = [0, 1, 2, 3, 4, 8, 8, 8, 8, 9, 10, 11, 12, 13, 14]
type PlateauMap struct {
	N1 []int
	N2 []int
}

// BuildPlateauMap groups runs of consecutive, exactly-equal samples.
// No tolerance is applied: 6.0 and 6.0000001 are different plateaus.
func BuildPlateauMap(h []float64) PlateauMap {
	n := len(h)
	pm := PlateauMap{
		N1: make([]int, n),
		N2: make([]int, n),
	}
	for i := 0; i < n; i++ {
		pm.N1[i] = i
		pm.N2[i] = i
	}

	for i := 1; i < n; i++ {
		if h[i] == h[i-1] {
			pm.N1[i] = pm.N1[i-1]
		}
	}
	for i := n - 2; i >= 0; i-- {
		if h[i] == h[i+1] {
			pm.N2[i] = pm.N2[i+1]
		}
	}
	return pm
}

// Midpoint returns the floor of the middle of the run containing i.
func (pm PlateauMap) Midpoint(i int) int {
	return (pm.N1[i] + pm.N2[i]) / 2
}
