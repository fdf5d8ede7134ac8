package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/wellmrc/internal/hydro"
)

// timeLayouts are tried in order when the time column is not a plain number
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

const secondsPerDay = 24 * 60 * 60

// parseTime reads a time cell as fractional days. Numbers are taken as days
// already; dates become days since the Unix epoch.
func parseTime(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if v, err := strconv.ParseFloat(cell, 64); err == nil {
		return v, nil
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, cell); err == nil {
			return float64(ts.Unix()) / secondsPerDay, nil
		}
	}
	return 0, fmt.Errorf("unrecognised time %q", cell)
}

// readSeries reads time,level rows. A first row whose level cell is not a
// number is taken as a header. Rows with an empty level are skipped.
func readSeries(r io.Reader) (hydro.Series, error) {
	var s hydro.Series

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return s, err
		}
		if len(record) < 2 {
			return s, fmt.Errorf("row %d: expected time and level columns, got %d", row, len(record))
		}

		levelCell := strings.TrimSpace(record[1])
		if levelCell == "" {
			continue
		}
		level, err := strconv.ParseFloat(levelCell, 64)
		if err != nil {
			if row == 1 {
				continue
			}
			return s, fmt.Errorf("row %d: bad level %q", row, record[1])
		}
		t, err := parseTime(record[0])
		if err != nil {
			return s, fmt.Errorf("row %d: %w", row, err)
		}

		s.Time = append(s.Time, t)
		s.Level = append(s.Level, level)
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// loadSeries reads a CSV file. The well is named after the file.
func loadSeries(path string) (string, hydro.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", hydro.Series{}, err
	}
	defer f.Close()

	well := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := readSeries(f)
	if err != nil {
		return well, s, fmt.Errorf("%s: %w", path, err)
	}
	return well, s, nil
}

// writeCurve exports time, level and the fitted curve. Samples outside the
// fitted segments have an empty predicted cell.
func writeCurve(w io.Writer, s hydro.Series, predicted []float64) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"time", "level", "predicted"}); err != nil {
		return err
	}
	for i := range s.Time {
		p := ""
		if i < len(predicted) && !math.IsNaN(predicted[i]) {
			p = strconv.FormatFloat(predicted[i], 'f', -1, 64)
		}
		row := []string{
			strconv.FormatFloat(s.Time[i], 'f', -1, 64),
			strconv.FormatFloat(s.Level[i], 'f', -1, 64),
			p,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
