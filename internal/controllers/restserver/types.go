package restserver

import (
	"github.com/chrissnell/wellmrc/internal/hydro"
	"github.com/chrissnell/wellmrc/internal/selection"
	"github.com/chrissnell/wellmrc/internal/session"
	"github.com/chrissnell/wellmrc/internal/store"
	"github.com/chrissnell/wellmrc/pkg/responseformat"
)

// ExtremaRequest asks for the scale partition of a level series
type ExtremaRequest struct {
	Level []float64 `json:"level"`
	// Deltan falls back to the configured scale when zero
	Deltan int `json:"deltan,omitempty"`
	// Despike is an odd running median window applied before detection
	Despike int `json:"despike,omitempty"`
}

// ExtremumJSON is one extremum as returned by the API
type ExtremumJSON struct {
	Index  int        `json:"index"`
	Kind   hydro.Kind `json:"kind"`
	Signed int        `json:"signed"`
}

// ExtremaResponse is the detector output
type ExtremaResponse struct {
	Extrema []ExtremumJSON `json:"extrema"`
	Added   []int          `json:"added"`
}

// FitRequest fits a recession curve to a series. Exactly one of Peaks and
// Periods selects the recession segments.
type FitRequest struct {
	Time    []float64      `json:"time"`
	Level   []float64      `json:"level"`
	Peaks   []int          `json:"peaks,omitempty"`
	Periods []hydro.Period `json:"periods,omitempty"`
	Mode    string         `json:"mode,omitempty"`
	Norm    string         `json:"norm,omitempty"`
}

// FitResponse is a fitted recession model
type FitResponse struct {
	ID              string               `json:"id,omitempty"`
	Well            string               `json:"well,omitempty"`
	Mode            hydro.Mode           `json:"mode"`
	Norm            hydro.Norm           `json:"norm"`
	B               float64              `json:"b"`
	C               float64              `json:"c"`
	RMSE            float64              `json:"rmse"`
	Objective       float64              `json:"objective"`
	Segments        []hydro.Segment      `json:"segments"`
	Peaks           []int                `json:"peaks"`
	OuterIterations int                  `json:"outer_iterations"`
	InnerIterations int                  `json:"inner_iterations"`
	Predicted       responseformat.Curve `json:"predicted"`
}

// CreateSessionRequest opens a selection session over a series
type CreateSessionRequest struct {
	Well  string    `json:"well"`
	Time  []float64 `json:"time"`
	Level []float64 `json:"level"`
}

// DetectRequest seeds a session from the detector
type DetectRequest struct {
	Deltan  int `json:"deltan,omitempty"`
	Despike int `json:"despike,omitempty"`
}

// DetectResponse carries the detector output and the seeded session
type DetectResponse struct {
	Session session.Snapshot `json:"session"`
	Extrema []ExtremumJSON   `json:"extrema"`
	Added   []int            `json:"added"`
}

// ModeRequest toggles an editing mode
type ModeRequest struct {
	Mode selection.Mode `json:"mode"`
}

// PressRequest is a pointer press on the plot. Axes is required for deletes.
type PressRequest struct {
	X     float64         `json:"x"`
	Y     float64         `json:"y"`
	DataX float64         `json:"data_x"`
	Axes  *selection.Axes `json:"axes,omitempty"`
}

// EditResponse is returned by every selection mutation
type EditResponse struct {
	Session session.Snapshot `json:"session"`
	Changed bool             `json:"changed"`
}

// SessionFitRequest overrides the configured fit mode and norm
type SessionFitRequest struct {
	Mode string `json:"mode,omitempty"`
	Norm string `json:"norm,omitempty"`
}

// StoredFitResponse is a stored fit with its predicted curve
type StoredFitResponse struct {
	*store.FitRecord
	Predicted responseformat.Curve `json:"predicted"`
}
