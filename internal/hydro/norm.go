package hydro

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// residualNorm reduces the residuals h - hp with the given norm. r is
// overwritten.
func residualNorm(norm Norm, r []float64) float64 {
	switch norm {
	case NormRMSE:
		for i, v := range r {
			r[i] = v * v
		}
		return math.Sqrt(stat.Mean(r, nil))
	case NormAbsME:
		return math.Abs(stat.Mean(r, nil))
	default:
		for i, v := range r {
			r[i] = math.Abs(v)
		}
		return stat.Mean(r, nil)
	}
}
