package restserver

import (
	"github.com/chrissnell/wellmrc/internal/hydro"
	"github.com/chrissnell/wellmrc/pkg/responseformat"
)

// transformExtrema converts detector output to its API form
func transformExtrema(extrema []hydro.Extremum) []ExtremumJSON {
	out := make([]ExtremumJSON, len(extrema))
	for i, e := range extrema {
		out[i] = ExtremumJSON{Index: e.Index, Kind: e.Kind, Signed: e.Signed()}
	}
	return out
}

// transformModel converts a fitted model and the selection it was fitted on
func transformModel(m *hydro.RecessionModel, peaks []int) FitResponse {
	return FitResponse{
		Mode:            m.Mode,
		Norm:            m.Norm,
		B:               m.B,
		C:               m.C,
		RMSE:            m.RMSE,
		Objective:       m.Objective,
		Segments:        m.Segments,
		Peaks:           nonNil(peaks),
		OuterIterations: m.OuterIterations,
		InnerIterations: m.InnerIterations,
		Predicted:       responseformat.Curve(m.Predicted),
	}
}

func nonNil(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}
