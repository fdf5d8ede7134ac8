package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/chrissnell/wellmrc/internal/hydro"
)

// FitRecord is one stored recession fit
type FitRecord struct {
	ID        string     `json:"id"`
	Well      string     `json:"well"`
	CreatedAt time.Time  `json:"created_at"`
	Mode      hydro.Mode `json:"mode"`
	Norm      hydro.Norm `json:"norm"`
	B         float64    `json:"b"`
	C         float64    `json:"c"`
	RMSE      float64    `json:"rmse"`
	Objective float64    `json:"objective"`
	Peaks     []int      `json:"peaks"`
	// Predicted holds NaN outside the fitted segments
	Predicted []float64 `json:"-"`
}

// NewFitRecord builds a record from a fitted model and the selection it was
// fitted on
func NewFitRecord(well string, peaks []int, m *hydro.RecessionModel) *FitRecord {
	return &FitRecord{
		Well:      well,
		Mode:      m.Mode,
		Norm:      m.Norm,
		B:         m.B,
		C:         m.C,
		RMSE:      m.RMSE,
		Objective: m.Objective,
		Peaks:     append([]int(nil), peaks...),
		Predicted: m.Predicted,
	}
}

const fitColumns = `id, well, created_at, mode, norm, b, c, rmse, objective, peaks, predicted`

// SaveFit inserts a record. An empty ID is filled with a new UUID and a zero
// CreatedAt with the current time.
func (s *Store) SaveFit(ctx context.Context, rec *FitRecord) error {
	if rec.Well == "" {
		return fmt.Errorf("fit record has no well")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	peaks, err := msgpack.Marshal(rec.Peaks)
	if err != nil {
		return fmt.Errorf("failed to encode peaks: %w", err)
	}
	predicted, err := msgpack.Marshal(rec.Predicted)
	if err != nil {
		return fmt.Errorf("failed to encode predicted curve: %w", err)
	}

	query := s.rebind(`INSERT INTO mrc_fits (` + fitColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.Well, rec.CreatedAt.UnixMilli(), rec.Mode.String(), rec.Norm.String(),
		rec.B, rec.C, rec.RMSE, rec.Objective, peaks, predicted)
	if err != nil {
		return fmt.Errorf("failed to insert fit %s: %w", rec.ID, err)
	}

	s.logger.Debugw("stored fit", "id", rec.ID, "well", rec.Well, "b", rec.B, "c", rec.C)
	return nil
}

// GetFit returns one record including its predicted curve
func (s *Store) GetFit(ctx context.Context, id string) (*FitRecord, error) {
	query := s.rebind(`SELECT ` + fitColumns + ` FROM mrc_fits WHERE id = ?`)
	rec, err := scanFit(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fit %s: %w", id, err)
	}
	return rec, nil
}

// ListFits returns the records of one well, newest first
func (s *Store) ListFits(ctx context.Context, well string) ([]*FitRecord, error) {
	query := s.rebind(`SELECT ` + fitColumns + ` FROM mrc_fits WHERE well = ? ORDER BY created_at DESC, id`)
	rows, err := s.db.QueryContext(ctx, query, well)
	if err != nil {
		return nil, fmt.Errorf("failed to query fits for %s: %w", well, err)
	}
	defer rows.Close()

	var fits []*FitRecord
	for rows.Next() {
		rec, err := scanFit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fit: %w", err)
		}
		fits = append(fits, rec)
	}
	return fits, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFit(row scanner) (*FitRecord, error) {
	var (
		rec              FitRecord
		createdAt        int64
		mode, norm       string
		peaks, predicted []byte
	)
	if err := row.Scan(&rec.ID, &rec.Well, &createdAt, &mode, &norm,
		&rec.B, &rec.C, &rec.RMSE, &rec.Objective, &peaks, &predicted); err != nil {
		return nil, err
	}

	rec.CreatedAt = time.UnixMilli(createdAt).UTC()

	var err error
	if rec.Mode, err = hydro.ParseMode(mode); err != nil {
		return nil, err
	}
	if rec.Norm, err = hydro.ParseNorm(norm); err != nil {
		return nil, err
	}
	if err := msgpack.Unmarshal(peaks, &rec.Peaks); err != nil {
		return nil, fmt.Errorf("failed to decode peaks: %w", err)
	}
	if err := msgpack.Unmarshal(predicted, &rec.Predicted); err != nil {
		return nil, fmt.Errorf("failed to decode predicted curve: %w", err)
	}
	return &rec, nil
}
