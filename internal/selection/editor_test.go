package selection

import (
	"slices"
	"testing"

	"github.com/chrissnell/wellmrc/internal/hydro"
)

// Samples every day, levels drawn on a 100x100 px area with one pixel per
// day and 10 px per metre.
var (
	testTime  = []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	testLevel = []float64{1, 2, 3, 4, 5, 4, 3, 2, 3, 4}
	testAxes  = Axes{XMin: 0, XMax: 100, YMin: 0, YMax: 10, Width: 100, Height: 100}
)

func TestToggle(t *testing.T) {
	e := NewEditor(testTime, testLevel)

	steps := []struct {
		toggle Mode
		want   Mode
	}{
		{ModeEditAdd, ModeEditAdd},
		{ModeEditDelete, ModeEditDelete},
		{ModeEditDelete, ModeIdle},
		{ModePan, ModePan},
		{ModeEditAdd, ModeEditAdd},
		{ModeEditAdd, ModeIdle},
	}
	for i, s := range steps {
		if got := e.Toggle(s.toggle); got != s.want || e.Mode() != s.want {
			t.Errorf("step %d: Toggle(%v) = %v, expected %v", i, s.toggle, got, s.want)
		}
	}
}

func TestAddSnapsToNearestSample(t *testing.T) {
	tests := []struct {
		name string
		x    float64
		want int
	}{
		{"exact sample", 3, 3},
		{"closer to left", 3.3, 3},
		{"closer to right", 3.7, 4},
		{"tie goes to earlier sample", 3.5, 3},
		{"before first sample", -2, 0},
		{"after last sample", 42, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEditor(testTime, testLevel)
			if !e.Add(tt.x) {
				t.Fatal("expected the selection to change")
			}
			if got := e.Peaks(); !slices.Equal(got, []int{tt.want}) {
				t.Errorf("peaks = %v, expected [%d]", got, tt.want)
			}
		})
	}
}

func TestAddDuplicateIsNoop(t *testing.T) {
	e := NewEditor(testTime, testLevel)
	e.Add(2)
	if e.Add(2.2) {
		t.Error("adding an already selected sample should not change the selection")
	}
	if e.HistoryLen() != 1 {
		t.Errorf("history has %d entries, expected 1", e.HistoryLen())
	}
}

func TestPressDispatchesOnMode(t *testing.T) {
	e := NewEditor(testTime, testLevel)
	press := Press{X: 4, Y: 50, DataX: 4}

	if e.Press(press, testAxes) {
		t.Error("idle press should be ignored")
	}
	e.SetMode(ModePan)
	if e.Press(press, testAxes) {
		t.Error("pan press should be ignored")
	}

	e.SetMode(ModeEditAdd)
	if !e.Press(press, testAxes) {
		t.Fatal("add press should select a sample")
	}
	if got := e.Peaks(); !slices.Equal(got, []int{4}) {
		t.Fatalf("peaks = %v, expected [4]", got)
	}

	// sample 4 projects to (4, 50)
	e.SetMode(ModeEditDelete)
	if !e.Press(Press{X: 10, Y: 55}, testAxes) {
		t.Fatal("delete press within the radius should remove the sample")
	}
	if got := e.Peaks(); len(got) != 0 {
		t.Errorf("peaks = %v, expected none", got)
	}
}

func TestDeleteNear(t *testing.T) {
	tests := []struct {
		name   string
		x, y   float64
		want   []int
		change bool
	}{
		// projections: 2 -> (2, 30), 4 -> (4, 50), 7 -> (7, 20)
		{"nearest of several", 6, 22, []int{2, 4}, true},
		{"outside the radius", 60, 60, []int{2, 4, 7}, false},
		{"exactly on the radius", 4, 65, []int{2, 4, 7}, false},
		{"just inside the radius", 4, 64.9, []int{2, 7}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEditor(testTime, testLevel)
			for _, x := range []float64{2, 4, 7} {
				e.Add(x)
			}
			if got := e.DeleteNear(tt.x, tt.y, testAxes); got != tt.change {
				t.Errorf("DeleteNear changed = %v, expected %v", got, tt.change)
			}
			if got := e.Peaks(); !slices.Equal(got, tt.want) {
				t.Errorf("peaks = %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestDeleteRadius(t *testing.T) {
	e := NewEditor(testTime, testLevel)
	e.Add(4)
	e.SetDeleteRadius(40)
	if !e.DeleteNear(4, 85, testAxes) {
		t.Error("a 35 px press should delete with a 40 px radius")
	}
}

func TestUndoExhaustion(t *testing.T) {
	e := NewEditor(testTime, testLevel)
	e.Add(1)
	e.Add(5)
	e.Add(8)
	e.DeleteNear(5, 40, testAxes)
	e.Clear()
	e.Seed([]hydro.Extremum{{Index: 4, Kind: hydro.Maximum}, {Index: 6, Kind: hydro.Minimum}, {Index: 9, Kind: hydro.Maximum}})

	const k = 6
	if e.HistoryLen() != k {
		t.Fatalf("history has %d entries, expected %d", e.HistoryLen(), k)
	}

	wantAfter := [][]int{
		{},
		{1, 8},
		{1, 5, 8},
		{1, 5},
		{1},
		{},
	}
	for i := 0; i < k; i++ {
		if !e.Undo() {
			t.Fatalf("undo %d should have changed the selection", i+1)
		}
		if got := e.Peaks(); !slices.Equal(got, wantAfter[i]) {
			t.Errorf("after undo %d peaks = %v, expected %v", i+1, got, wantAfter[i])
		}
	}

	if e.Undo() {
		t.Error("undo past the initial state should be a no-op")
	}
	if e.CanUndo() {
		t.Error("CanUndo should be false once the history is exhausted")
	}
	if got := e.Peaks(); len(got) != 0 {
		t.Errorf("peaks = %v, expected the initial empty selection", got)
	}
}

func TestClearEmptyIsNoop(t *testing.T) {
	e := NewEditor(testTime, testLevel)
	if e.Clear() {
		t.Error("clearing an empty selection should not change it")
	}
	if e.CanUndo() {
		t.Error("nothing to undo")
	}
}

func TestTrimToRecessions(t *testing.T) {
	mx := func(i int) hydro.Extremum { return hydro.Extremum{Index: i, Kind: hydro.Maximum} }
	mn := func(i int) hydro.Extremum { return hydro.Extremum{Index: i, Kind: hydro.Minimum} }

	tests := []struct {
		name    string
		extrema []hydro.Extremum
		want    []int
	}{
		{"already trimmed", []hydro.Extremum{mn(1), mx(4), mn(6), mx(9)}, []int{1, 4, 6, 9}},
		{"leading maximum", []hydro.Extremum{mx(0), mn(2), mx(5)}, []int{2, 5}},
		{"trailing minimum", []hydro.Extremum{mn(2), mx(5), mn(8)}, []int{2, 5}},
		{"both ends", []hydro.Extremum{mx(0), mn(2), mx(5), mn(8)}, []int{2, 5}},
		{"single maximum", []hydro.Extremum{mx(3)}, []int{}},
		{"empty", nil, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimToRecessions(tt.extrema); !slices.Equal(got, tt.want) {
				t.Errorf("got %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestAxesProject(t *testing.T) {
	a := Axes{XMin: 10, XMax: 20, YMin: 0, YMax: 4, Width: 200, Height: 80}
	if x, y := a.Project(15, 1); x != 100 || y != 20 {
		t.Errorf("Project = (%g, %g), expected (100, 20)", x, y)
	}
	a.InvertY = true
	if x, y := a.Project(15, 1); x != 100 || y != 60 {
		t.Errorf("inverted Project = (%g, %g), expected (100, 60)", x, y)
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeIdle, ModeEditAdd, ModeEditDelete, ModePan} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("zoom"); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}
