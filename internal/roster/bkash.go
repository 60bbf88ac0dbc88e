package roster

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// NormalizeBkash keeps only the digits of a bKash number and restores the
// leading zero spreadsheets strip from 11-digit numbers. Values with no
// digits are returned trimmed.
func NormalizeBkash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, value)
	if digits == "" {
		return value
	}
	if len(digits) == 10 {
		return "0" + digits
	}
	return digits
}

// BkashReport counts the rows FixBkashCSV looked at and rewrote.
type BkashReport struct {
	Column  string
	Total   int
	Changed int
}

// FixBkashCSV normalizes the first column whose header contains "bkash"
// (any case) and returns the rewritten CSV.
func FixBkashCSV(r io.Reader) ([]byte, BkashReport, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, BkashReport{}, err
	}
	idx := -1
	for i, name := range t.header {
		if strings.Contains(strings.ToLower(name), "bkash") {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, BkashReport{}, errors.New("no column containing 'bkash' found")
	}

	report := BkashReport{Column: t.header[idx]}
	for i, row := range t.rows {
		report.Total++
		for len(row) <= idx {
			row = append(row, "")
		}
		old := row[idx]
		fixed := NormalizeBkash(old)
		if fixed != old {
			row[idx] = fixed
			report.Changed++
		}
		t.rows[i] = row
	}

	data, err := encodeCSV(t.header, t.rows)
	if err != nil {
		return nil, report, fmt.Errorf("encode csv: %w", err)
	}
	return data, report, nil
}
