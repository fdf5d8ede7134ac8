// Package session keeps interactive peak selection sessions, one per loaded
// hydrograph, for the REST API.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chrissnell/wellmrc/internal/hydro"
	"github.com/chrissnell/wellmrc/internal/selection"
)

// ErrNotFound is returned for unknown session IDs
var ErrNotFound = errors.New("session not found")

// Session is one hydrograph under edit. The series is fixed at creation; the
// selection is guarded by mu so that edits from concurrent requests apply one
// at a time.
type Session struct {
	ID        string
	Well      string
	CreatedAt time.Time

	series hydro.Series

	mu     sync.Mutex
	editor *selection.Editor
}

// Snapshot is the externally visible state of a session
type Snapshot struct {
	ID         string         `json:"id"`
	Well       string         `json:"well"`
	CreatedAt  time.Time      `json:"created_at"`
	Samples    int            `json:"samples"`
	Mode       selection.Mode `json:"mode"`
	Peaks      []int          `json:"peaks"`
	CanUndo    bool           `json:"can_undo"`
	HistoryLen int            `json:"history_len"`
}

// Series returns the session's hydrograph. Callers must not modify it.
func (s *Session) Series() hydro.Series {
	return s.series
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:         s.ID,
		Well:       s.Well,
		CreatedAt:  s.CreatedAt,
		Samples:    s.series.Len(),
		Mode:       s.editor.Mode(),
		Peaks:      s.editor.Peaks(),
		CanUndo:    s.editor.CanUndo(),
		HistoryLen: s.editor.HistoryLen(),
	}
}

// Toggle activates an editing mode, or returns to idle if it is already active
func (s *Session) Toggle(m selection.Mode) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.Toggle(m)
	return s.snapshotLocked()
}

// SetDeleteRadius sets the delete hit radius in pixels
func (s *Session) SetDeleteRadius(px float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.SetDeleteRadius(px)
}

// Press applies a pointer press in the current mode. changed reports whether
// the selection was mutated.
func (s *Session) Press(p selection.Press, proj selection.Projector) (snap Snapshot, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed = s.editor.Press(p, proj)
	return s.snapshotLocked(), changed
}

// Undo restores the selection before the last mutation
func (s *Session) Undo() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.editor.Undo()
	return s.snapshotLocked(), ok
}

// Clear empties the selection
func (s *Session) Clear() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.editor.Clear()
	return s.snapshotLocked(), ok
}

// Detect finds the extrema of the series at scale deltan and seeds the
// selection with them. A despike window above 1 runs detection on a running
// median of the levels. The detection runs without holding the selection lock.
func (s *Session) Detect(ctx context.Context, deltan, despike int) ([]hydro.Extremum, []int, Snapshot, error) {
	level, err := hydro.Despike(s.series.Level, despike)
	if err != nil {
		return nil, nil, Snapshot{}, err
	}
	extrema, added, err := hydro.FindExtrema(ctx, level, deltan)
	if err != nil {
		return nil, nil, Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.Seed(extrema)
	return extrema, added, s.snapshotLocked(), nil
}

// Fit fits the master recession curve to the current selection. The selection
// is copied first and is not changed by the fit.
func (s *Session) Fit(ctx context.Context, fitter *hydro.Fitter) (*hydro.RecessionModel, []int, error) {
	peaks := s.Snapshot().Peaks
	model, err := fitter.Fit(ctx, s.series.Time, s.series.Level, peaks)
	if err != nil {
		return nil, peaks, err
	}
	return model, peaks, nil
}

// Manager holds the open sessions
type Manager struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	deleteRadius float64
}

// NewManager creates an empty manager. Sessions it creates use deleteRadius
// pixels as the delete hit radius; zero keeps the selection default.
func NewManager(deleteRadius float64) *Manager {
	return &Manager{
		sessions:     make(map[string]*Session),
		deleteRadius: deleteRadius,
	}
}

// Create validates the series and opens a session over it. The series slices
// are copied.
func (m *Manager) Create(well string, series hydro.Series) (*Session, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}

	owned := hydro.Series{
		Time:  append([]float64(nil), series.Time...),
		Level: append([]float64(nil), series.Level...),
	}
	s := &Session{
		ID:        uuid.NewString(),
		Well:      well,
		CreatedAt: time.Now().UTC(),
		series:    owned,
		editor:    selection.NewEditor(owned.Time, owned.Level),
	}
	if m.deleteRadius > 0 {
		s.editor.SetDeleteRadius(m.deleteRadius)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns the session with the given ID
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete closes a session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of open sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
