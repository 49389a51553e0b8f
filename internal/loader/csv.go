// Package loader reads the three CSV input files and the JSON disruption
// event list described in spec.md §6, converting them into the domain
// types in internal/models. Malformed input is surfaced as
// models.DataValidationError; the pipeline aborts on any such error.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// calcuttaOffset is the fixed Asia/Calcutta (IST, UTC+05:30) offset used to
// interpret naive timestamps per spec.md §6. time.LoadLocation is avoided so
// loading never depends on the host's tzdata installation.
var calcuttaOffset = time.FixedZone("Asia/Calcutta", 5*3600+30*60)

// header indexes CSV column positions by name so readers never depend on
// column order, grounded on the teacher pack's airport-CSV loader.
type header struct {
	idx map[string]int
}

func newHeader(cols []string) header {
	h := header{idx: make(map[string]int, len(cols))}
	for i, c := range cols {
		h.idx[strings.TrimSpace(c)] = i
	}
	return h
}

func (h header) col(record []string, name string) (string, error) {
	i, ok := h.idx[name]
	if !ok {
		return "", fmt.Errorf("missing column %q", name)
	}
	if i >= len(record) {
		return "", fmt.Errorf("record too short for column %q", name)
	}
	return strings.TrimSpace(record[i]), nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return cr
}

// parseFloat parses a required float field (range checks are left to
// Validate), wrapping
// failures as validation errors identifying the field and row.
func parseFloat(field, value string, row int) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("row %d: field %s: %q is not a number: %w", row, field, value, err)
	}
	return f, nil
}

// parseTimestamp parses an ISO 8601 timestamp. Naive timestamps (no zone
// offset) are interpreted as Asia/Calcutta per spec.md §6.
func parseTimestamp(field, value string, row int) (time.Time, error) {
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}
	for i, layout := range layouts {
		var t time.Time
		var err error
		if i == 0 {
			t, err = time.Parse(layout, value)
			if err == nil {
				return t, nil
			}
			continue
		}
		t, err = time.ParseInLocation(layout, value, calcuttaOffset)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("row %d: field %s: %q is not a parseable ISO 8601 timestamp", row, field, value)
}

// parseBool accepts spec.md §6's boolean vocabulary.
func parseBool(field, value string, row int) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n", "":
		return false, nil
	default:
		return false, fmt.Errorf("row %d: field %s: %q is not a recognized boolean", row, field, value)
	}
}

func readAll(r *csv.Reader) (header, [][]string, error) {
	headerRow, err := r.Read()
	if err != nil {
		return header{}, nil, fmt.Errorf("reading header row: %w", err)
	}
	h := newHeader(headerRow)

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return header{}, nil, fmt.Errorf("reading row: %w", err)
		}
		rows = append(rows, rec)
	}
	return h, rows, nil
}
