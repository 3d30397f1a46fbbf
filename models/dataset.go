package models

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Dataset is an ordered table of Readings over a fixed roster. Stages never
// modify a Dataset in place: every transformation returns a new one, so a
// dataset handed to the view layer can be shared freely.
type Dataset struct {
	roster   *Roster
	columns  []string
	colIndex map[string]int
	rows     []Reading
}

// NewDataset wraps readings over the full roster. Every reading must carry
// exactly one value per roster column.
func NewDataset(roster *Roster, rows []Reading) (*Dataset, error) {
	return newDataset(roster, roster.Names(), rows)
}

func newDataset(roster *Roster, columns []string, rows []Reading) (*Dataset, error) {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		idx[c] = i
	}
	for i := range rows {
		if len(rows[i].Values) != len(columns) {
			return nil, fmt.Errorf("dataset: row %d has %d values, want %d", i, len(rows[i].Values), len(columns))
		}
	}
	return &Dataset{roster: roster, columns: columns, colIndex: idx, rows: rows}, nil
}

// Concat folds per-file tables into one, preserving their order. The inputs
// are not modified.
func Concat(roster *Roster, parts ...*Dataset) (*Dataset, error) {
	total := 0
	for _, p := range parts {
		total += p.Len()
	}
	rows := make([]Reading, 0, total)
	for _, p := range parts {
		if len(p.columns) != roster.Len() {
			return nil, fmt.Errorf("dataset: cannot concat a %d-column selection", len(p.columns))
		}
		for _, r := range p.rows {
			rows = append(rows, r.Clone())
		}
	}
	return NewDataset(roster, rows)
}

// Roster returns the roster the dataset was built from.
func (d *Dataset) Roster() *Roster { return d.roster }

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Columns returns a copy of the column names carried by this dataset.
func (d *Dataset) Columns() []string { return append([]string(nil), d.columns...) }

// HasColumn reports whether the dataset carries the column.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.colIndex[name]
	return ok
}

// Row returns a copy of row i.
func (d *Dataset) Row(i int) Reading { return d.rows[i].Clone() }

// Rows returns a deep copy of every row.
func (d *Dataset) Rows() []Reading {
	out := make([]Reading, len(d.rows))
	for i, r := range d.rows {
		out[i] = r.Clone()
	}
	return out
}

// Value returns the value of column name in row i.
func (d *Dataset) Value(i int, name string) (float64, bool) {
	c, ok := d.colIndex[name]
	if !ok {
		return math.NaN(), false
	}
	return d.rows[i].Values[c], true
}

// Column returns a copy of one column's values.
func (d *Dataset) Column(name string) ([]float64, error) {
	c, ok := d.colIndex[name]
	if !ok {
		return nil, fmt.Errorf("dataset: unknown column %q", name)
	}
	out := make([]float64, len(d.rows))
	for i, r := range d.rows {
		out[i] = r.Values[c]
	}
	return out, nil
}

// RawIndex returns the raw index values.
func (d *Dataset) RawIndex() []string {
	out := make([]string, len(d.rows))
	for i, r := range d.rows {
		out[i] = r.Raw
	}
	return out
}

// Normalized reports whether every row carries a parsed timestamp.
// An empty dataset counts as normalised.
func (d *Dataset) Normalized() bool {
	for _, r := range d.rows {
		if r.Time.IsZero() {
			return false
		}
	}
	return true
}

// Times returns the parsed time index.
func (d *Dataset) Times() []time.Time {
	out := make([]time.Time, len(d.rows))
	for i, r := range d.rows {
		out[i] = r.Time
	}
	return out
}

// MinTime returns the earliest timestamp; ok is false for an empty dataset.
func (d *Dataset) MinTime() (t time.Time, ok bool) {
	for i, r := range d.rows {
		if i == 0 || r.Time.Before(t) {
			t = r.Time
		}
	}
	return t, len(d.rows) > 0
}

// MaxTime returns the latest timestamp; ok is false for an empty dataset.
func (d *Dataset) MaxTime() (t time.Time, ok bool) {
	for i, r := range d.rows {
		if i == 0 || r.Time.After(t) {
			t = r.Time
		}
	}
	return t, len(d.rows) > 0
}

// WithRows returns a dataset over the same columns holding rows.
func (d *Dataset) WithRows(rows []Reading) (*Dataset, error) {
	return newDataset(d.roster, d.columns, rows)
}

// Select returns a dataset restricted to the named columns, in the order
// given.
func (d *Dataset) Select(cols ...string) (*Dataset, error) {
	pos := make([]int, len(cols))
	for i, c := range cols {
		p, ok := d.colIndex[c]
		if !ok {
			return nil, fmt.Errorf("dataset: unknown column %q", c)
		}
		pos[i] = p
	}
	rows := make([]Reading, len(d.rows))
	for i, r := range d.rows {
		vals := make([]float64, len(pos))
		for j, p := range pos {
			vals[j] = r.Values[p]
		}
		rows[i] = Reading{Raw: r.Raw, Time: r.Time, Values: vals, Source: r.Source, Line: r.Line}
	}
	return newDataset(d.roster, append([]string(nil), cols...), rows)
}

// Filter keeps the rows for which keep returns true.
func (d *Dataset) Filter(keep func(Reading) bool) *Dataset {
	rows := make([]Reading, 0, len(d.rows))
	for _, r := range d.rows {
		if keep(r) {
			rows = append(rows, r.Clone())
		}
	}
	return &Dataset{roster: d.roster, columns: d.columns, colIndex: d.colIndex, rows: rows}
}

// Window keeps rows with from <= t <= to.
func (d *Dataset) Window(from, to time.Time) *Dataset {
	return d.Filter(func(r Reading) bool {
		return !r.Time.Before(from) && !r.Time.After(to)
	})
}

// SortedByTime returns a copy ordered by timestamp. Equal timestamps keep
// their concatenation order.
func (d *Dataset) SortedByTime() *Dataset {
	rows := d.Rows()
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })
	return &Dataset{roster: d.roster, columns: d.columns, colIndex: d.colIndex, rows: rows}
}

// At returns the last row whose timestamp is at or before t. The dataset
// must be sorted by time.
func (d *Dataset) At(t time.Time) (Reading, bool) {
	i := sort.Search(len(d.rows), func(i int) bool { return d.rows[i].Time.After(t) })
	if i == 0 {
		return Reading{}, false
	}
	return d.rows[i-1].Clone(), true
}

// Equal reports whether both datasets carry the same columns and rows.
// NaN values compare equal to each other.
func (d *Dataset) Equal(o *Dataset) bool {
	if d.Len() != o.Len() || len(d.columns) != len(o.columns) {
		return false
	}
	for i, c := range d.columns {
		if o.columns[i] != c {
			return false
		}
	}
	for i := range d.rows {
		a, b := d.rows[i], o.rows[i]
		if a.Raw != b.Raw || !a.Time.Equal(b.Time) {
			return false
		}
		for j := range a.Values {
			x, y := a.Values[j], b.Values[j]
			if math.IsNaN(x) && math.IsNaN(y) {
				continue
			}
			if math.Float64bits(x) != math.Float64bits(y) {
				return false
			}
		}
	}
	return true
}

// CSVHeader implements CSVRowWriter.
func (d *Dataset) CSVHeader() []string {
	return append([]string{"timestamp"}, d.columns...)
}

// CSVRows implements CSVRowWriter.
func (d *Dataset) CSVRows() [][]string {
	out := make([][]string, len(d.rows))
	for i := range d.rows {
		out[i] = d.rows[i].CSVRow()
	}
	return out
}
