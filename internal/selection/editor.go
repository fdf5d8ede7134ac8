// Package selection keeps the user-curated list of recession boundaries that
// feeds the recession fitter, with single-step undo.
package selection

import (
	"math"
	"slices"

	"github.com/chrissnell/wellmrc/internal/hydro"
)

// DefaultDeleteRadius is how close, in pixels, a press must land to a selected
// point to delete it.
const DefaultDeleteRadius = 15.0

// Press is a pointer press on the hydrograph: screen position in pixels and
// the time coordinate under the pointer.
type Press struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	DataX float64 `json:"data_x"`
}

// Editor is the peak selection state machine. It is not safe for concurrent
// use; callers sharing an Editor must serialize access.
type Editor struct {
	time   []float64
	level  []float64
	mode   Mode
	radius float64

	peaks   []int
	history [][]int
}

// NewEditor starts an empty selection over a series. The slices are read, never
// modified.
func NewEditor(time, level []float64) *Editor {
	return &Editor{
		time:   time,
		level:  level,
		radius: DefaultDeleteRadius,
		peaks:  []int{},
	}
}

// SetDeleteRadius changes the delete radius; non-positive values are ignored.
func (e *Editor) SetDeleteRadius(px float64) {
	if px > 0 {
		e.radius = px
	}
}

// Mode returns the active mode.
func (e *Editor) Mode() Mode {
	return e.mode
}

// Toggle behaves like a toolbar button: selecting the active mode returns to
// idle, selecting another mode deactivates the current one.
func (e *Editor) Toggle(m Mode) Mode {
	if m == e.mode {
		e.mode = ModeIdle
	} else {
		e.mode = m
	}
	return e.mode
}

// SetMode activates m unconditionally.
func (e *Editor) SetMode(m Mode) {
	e.mode = m
}

// Peaks returns a copy of the selection in insertion order.
func (e *Editor) Peaks() []int {
	return slices.Clone(e.peaks)
}

// CanUndo reports whether Undo would change the selection.
func (e *Editor) CanUndo() bool {
	return len(e.history) > 0
}

// HistoryLen is the number of undoable mutations.
func (e *Editor) HistoryLen() int {
	return len(e.history)
}

// Press dispatches a pointer press according to the active mode and reports
// whether the selection changed. Idle and pan presses are ignored.
func (e *Editor) Press(p Press, proj Projector) bool {
	switch e.mode {
	case ModeEditAdd:
		return e.Add(p.DataX)
	case ModeEditDelete:
		return e.DeleteNear(p.X, p.Y, proj)
	}
	return false
}

// Add selects the sample nearest in time to x, ties going to the earlier
// sample. Selecting an already selected sample is a no-op.
func (e *Editor) Add(x float64) bool {
	if len(e.time) == 0 || math.IsNaN(x) {
		return false
	}
	i := hydro.NearestIndex(e.time, x)
	if slices.Contains(e.peaks, i) {
		return false
	}
	e.push()
	e.peaks = append(e.peaks, i)
	return true
}

// DeleteNear removes the selected point whose projection is closest to (x, y),
// provided it lies strictly within the delete radius.
func (e *Editor) DeleteNear(x, y float64, proj Projector) bool {
	if len(e.peaks) == 0 || proj == nil {
		return false
	}

	best, bestDist := -1, math.Inf(1)
	for k, i := range e.peaks {
		px, py := proj.Project(e.time[i], e.level[i])
		if d := math.Hypot(px-x, py-y); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best < 0 || bestDist >= e.radius {
		return false
	}

	e.push()
	e.peaks = slices.Delete(e.peaks, best, best+1)
	return true
}

// Clear empties the selection as one undoable step.
func (e *Editor) Clear() bool {
	if len(e.peaks) == 0 {
		return false
	}
	e.push()
	e.peaks = []int{}
	return true
}

// Seed replaces the selection with detected extrema, trimmed with
// TrimToRecessions, as one undoable step.
func (e *Editor) Seed(extrema []hydro.Extremum) {
	e.push()
	e.peaks = TrimToRecessions(extrema)
}

// Undo restores the selection as it was before the last mutation. It is a
// no-op once only the initial state remains.
func (e *Editor) Undo() bool {
	if len(e.history) == 0 {
		return false
	}
	last := len(e.history) - 1
	e.peaks = e.history[last]
	e.history = e.history[:last]
	return true
}

func (e *Editor) push() {
	e.history = append(e.history, slices.Clone(e.peaks))
}

// TrimToRecessions turns a detector output over depth-below-ground levels into
// a peak selection whose sorted pairs are recessions: a leading depth maximum
// and a trailing depth minimum are dropped so the list starts at the top of a
// recession (shallowest level) and ends at its bottom.
func TrimToRecessions(extrema []hydro.Extremum) []int {
	if len(extrema) > 0 && extrema[0].Kind == hydro.Maximum {
		extrema = extrema[1:]
	}
	if len(extrema) > 0 && extrema[len(extrema)-1].Kind == hydro.Minimum {
		extrema = extrema[:len(extrema)-1]
	}
	peaks := make([]int, len(extrema))
	for i, x := range extrema {
		peaks[i] = x.Index
	}
	return peaks
}
