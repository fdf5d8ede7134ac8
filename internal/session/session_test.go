package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/chrissnell/wellmrc/internal/hydro"
	"github.com/chrissnell/wellmrc/internal/selection"
)

// recessionSeries is 100 daily depths relaxing from 1 towards 3 at rate 0.05.
func recessionSeries() hydro.Series {
	s := hydro.Series{Time: make([]float64, 100), Level: make([]float64, 100)}
	for i := range s.Time {
		s.Time[i] = float64(i)
		s.Level[i] = 3 - 2*math.Exp(-0.05*float64(i))
	}
	return s
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(0)

	s, err := m.Create("W-1", recessionSeries())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, expected 1", m.Len())
	}

	got, err := m.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get returned %v, %v", got, err)
	}

	if err := m.Delete(s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: expected ErrNotFound, got %v", err)
	}
	if err := m.Delete(s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: expected ErrNotFound, got %v", err)
	}
}

func TestManagerCreateRejectsInvalidSeries(t *testing.T) {
	m := NewManager(0)
	bad := hydro.Series{Time: []float64{0, 1, 1}, Level: []float64{1, 2, 3}}
	if _, err := m.Create("W-1", bad); !hydro.IsInputError(err) {
		t.Fatalf("expected an input error, got %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("invalid series left a session behind")
	}
}

func TestManagerCopiesSeries(t *testing.T) {
	series := recessionSeries()
	s, err := NewManager(0).Create("W-1", series)
	if err != nil {
		t.Fatal(err)
	}
	series.Level[0] = 99
	if s.Series().Level[0] == 99 {
		t.Error("session shares the caller's slice")
	}
}

func TestSessionDetectAndFit(t *testing.T) {
	s, err := NewManager(0).Create("W-1", recessionSeries())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	extrema, added, snap, err := s.Detect(ctx, 200, 0)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(extrema) != 2 || len(added) != 0 {
		t.Fatalf("extrema = %v, added = %v", extrema, added)
	}
	if len(snap.Peaks) != 2 || snap.Peaks[0] != 0 || snap.Peaks[1] != 99 {
		t.Fatalf("seeded peaks = %v, expected [0 99]", snap.Peaks)
	}
	if !snap.CanUndo {
		t.Error("seeding should be undoable")
	}

	model, peaks, err := s.Fit(ctx, hydro.NewFitter(hydro.DefaultFitOptions(), nil))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if len(peaks) != 2 {
		t.Errorf("fitted peaks = %v", peaks)
	}
	if math.Abs(model.B-0.05)/0.05 > 0.05 || math.Abs(model.C-3) > 0.01 {
		t.Errorf("fit = (b %.5f, c %.5f), expected (0.05, 3)", model.B, model.C)
	}
	if after := s.Snapshot(); after.HistoryLen != snap.HistoryLen {
		t.Error("fitting changed the selection history")
	}
}

func TestSessionDetectDespiked(t *testing.T) {
	series := recessionSeries()
	series.Level[50] = 0.2
	s, err := NewManager(0).Create("W-1", series)
	if err != nil {
		t.Fatal(err)
	}

	_, _, raw, err := s.Detect(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	_, _, filtered, err := s.Detect(context.Background(), 10, 3)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(filtered.Peaks) != 2 {
		t.Errorf("despiked peaks = %v, expected one recession", filtered.Peaks)
	}
	if len(raw.Peaks) <= len(filtered.Peaks) {
		t.Errorf("the spike should split the raw detection: raw %v, despiked %v", raw.Peaks, filtered.Peaks)
	}
	if _, _, _, err := s.Detect(context.Background(), 10, 4); !hydro.IsInputError(err) {
		t.Errorf("even window: expected an input error, got %v", err)
	}
}

func TestSessionFitEmptySelection(t *testing.T) {
	s, err := NewManager(0).Create("W-1", recessionSeries())
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = s.Fit(context.Background(), hydro.NewFitter(hydro.DefaultFitOptions(), nil))
	if !hydro.IsInputError(err) {
		t.Fatalf("expected an input error, got %v", err)
	}
}

func TestSessionEditing(t *testing.T) {
	s, err := NewManager(20).Create("W-1", recessionSeries())
	if err != nil {
		t.Fatal(err)
	}
	axes := selection.Axes{XMin: 0, XMax: 99, YMin: 0, YMax: 3, Width: 990, Height: 300}

	if snap := s.Toggle(selection.ModeEditAdd); snap.Mode != selection.ModeEditAdd {
		t.Fatalf("mode = %v", snap.Mode)
	}
	snap, changed := s.Press(selection.Press{DataX: 10.2}, axes)
	if !changed || len(snap.Peaks) != 1 || snap.Peaks[0] != 10 {
		t.Fatalf("add press: changed=%v peaks=%v", changed, snap.Peaks)
	}

	// Point 10 projects to x=100; a press 18px away is inside the 20px radius.
	s.Toggle(selection.ModeEditDelete)
	x, y := axes.Project(10, s.Series().Level[10])
	snap, changed = s.Press(selection.Press{X: x + 18, Y: y}, axes)
	if !changed || len(snap.Peaks) != 0 {
		t.Fatalf("delete press: changed=%v peaks=%v", changed, snap.Peaks)
	}

	snap, ok := s.Undo()
	if !ok || len(snap.Peaks) != 1 {
		t.Fatalf("undo: ok=%v peaks=%v", ok, snap.Peaks)
	}
	snap, ok = s.Clear()
	if !ok || len(snap.Peaks) != 0 {
		t.Fatalf("clear: ok=%v peaks=%v", ok, snap.Peaks)
	}
	if _, ok := s.Clear(); ok {
		t.Error("clearing an empty selection should be a no-op")
	}

	if snap := s.Toggle(selection.ModeEditDelete); snap.Mode != selection.ModeIdle {
		t.Errorf("toggling the active mode should return to idle, got %v", snap.Mode)
	}
}

func TestSessionConcurrentPresses(t *testing.T) {
	s, err := NewManager(0).Create("W-1", recessionSeries())
	if err != nil {
		t.Fatal(err)
	}
	s.Toggle(selection.ModeEditAdd)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Press(selection.Press{DataX: float64(i)}, nil)
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	if len(snap.Peaks) != 50 {
		t.Errorf("got %d peaks, expected 50", len(snap.Peaks))
	}
	if snap.HistoryLen != 50 {
		t.Errorf("history length = %d, expected 50", snap.HistoryLen)
	}
}
