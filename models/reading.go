package models

import (
	"math"
	"time"
)

// TimestampLayout is the canonical layout used when a Reading's timestamp
// is written back out (CSV export, figure metadata).
const TimestampLayout = "2006-01-02 15:04:05"

// Reading is one row of a raw measurement file: the raw index value and one
// value per roster column. Missing cells are NaN, never absent.
type Reading struct {
	Raw    string    `json:"raw"`            // index value exactly as read
	Time   time.Time `json:"time,omitempty"` // zero until normalised
	Values []float64 `json:"values"`         // aligned with the roster

	Source string `json:"source,omitempty"` // file the row came from
	Line   int    `json:"line,omitempty"`   // 1-based line in Source
}

// NewReading returns a Reading with every value set to NaN.
func NewReading(raw string, width int) Reading {
	vals := make([]float64, width)
	for i := range vals {
		vals[i] = math.NaN()
	}
	return Reading{Raw: raw, Values: vals}
}

// Clone returns a deep copy whose Values can be changed freely.
func (r Reading) Clone() Reading {
	r.Values = append([]float64(nil), r.Values...)
	return r
}

// CSVRow serialises the reading as timestamp followed by every value.
// Unnormalised readings fall back to the raw index.
func (r *Reading) CSVRow() []string {
	row := make([]string, 0, len(r.Values)+1)
	if r.Time.IsZero() {
		row = append(row, r.Raw)
	} else {
		row = append(row, r.Time.Format(TimestampLayout))
	}
	for _, v := range r.Values {
		row = append(row, ftoa(v, 4))
	}
	return row
}
