package models

import (
	"errors"
	"math"
	"testing"
	"time"
)

func testRoster(t *testing.T) *Roster {
	t.Helper()
	r, err := NewRoster([]string{"U1"}, []string{"X1"}, []string{"MS1"}, []string{"power"},
		[]SensorPair{{Moisture: "MS1", Reference: "U1"}})
	if err != nil {
		t.Fatalf("NewRoster: %v", err)
	}
	return r
}

func reading(ts time.Time, vals ...float64) Reading {
	return Reading{Raw: ts.Format(TimestampLayout), Time: ts, Values: vals}
}

func TestDataset_ConcatKeepsOrderAndCount(t *testing.T) {
	r := testRoster(t)
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	a, _ := NewDataset(r, []Reading{reading(t0.Add(time.Hour), 1, 2, 3, 4)})
	b, _ := NewDataset(r, []Reading{reading(t0, 5, 6, 7, 8), reading(t0.Add(2*time.Hour), 9, 10, 11, 12)})

	got, err := Concat(r, a, b)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", got.Len())
	}
	if v, _ := got.Value(1, "U1"); v != 5 {
		t.Errorf("row 1 U1 = %v, want 5 (concat must not sort)", v)
	}

	sorted := got.SortedByTime()
	if v, _ := sorted.Value(0, "U1"); v != 5 {
		t.Errorf("sorted row 0 U1 = %v, want 5", v)
	}
	if v, _ := got.Value(0, "U1"); v != 1 {
		t.Error("SortedByTime modified its receiver")
	}
}

func TestDataset_RejectsWrongWidth(t *testing.T) {
	_, err := NewDataset(testRoster(t), []Reading{{Raw: "x", Values: []float64{1}}})
	if err == nil {
		t.Fatal("expected width error")
	}
}

func TestDataset_WindowIsInclusive(t *testing.T) {
	r := testRoster(t)
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var rows []Reading
	for h := 0; h < 5; h++ {
		rows = append(rows, reading(t0.Add(time.Duration(h)*time.Hour), float64(h), 0, 0, 0))
	}
	ds, _ := NewDataset(r, rows)
	w := ds.Window(t0.Add(time.Hour), t0.Add(3*time.Hour))
	if w.Len() != 3 {
		t.Fatalf("Window len = %d, want 3", w.Len())
	}
}

func TestDataset_SelectAndColumn(t *testing.T) {
	r := testRoster(t)
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ds, _ := NewDataset(r, []Reading{reading(t0, 1, 2, 3, 4)})

	sel, err := ds.Select("power", "U1")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if cols := sel.Columns(); cols[0] != "power" || cols[1] != "U1" {
		t.Errorf("Columns() = %v", cols)
	}
	col, _ := sel.Column("power")
	if col[0] != 4 {
		t.Errorf("power = %v, want 4", col[0])
	}
	if _, err := ds.Select("nope"); err == nil {
		t.Error("Select(nope) should fail")
	}
}

func TestDataset_AtFindsLastRowNotAfter(t *testing.T) {
	r := testRoster(t)
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ds, _ := NewDataset(r, []Reading{
		reading(t0, 1, 0, 0, 0),
		reading(t0.Add(time.Hour), 2, 0, 0, 0),
	})
	if _, ok := ds.At(t0.Add(-time.Minute)); ok {
		t.Error("At before first row should miss")
	}
	row, ok := ds.At(t0.Add(30 * time.Minute))
	if !ok || row.Values[0] != 1 {
		t.Errorf("At(+30m) = %v, %v", row.Values, ok)
	}
}

func TestDataset_EqualTreatsNaNAsEqual(t *testing.T) {
	r := testRoster(t)
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	a, _ := NewDataset(r, []Reading{reading(t0, math.NaN(), 1, 2, 3)})
	b, _ := NewDataset(r, []Reading{reading(t0, math.NaN(), 1, 2, 3)})
	c, _ := NewDataset(r, []Reading{reading(t0, 0, 1, 2, 3)})
	if !a.Equal(b) {
		t.Error("a should equal b")
	}
	if a.Equal(c) {
		t.Error("a should not equal c")
	}
}

func TestStageOf(t *testing.T) {
	err := error(&CorrectionError{Sensor: "U1", Row: -1, Err: ErrUnknownSensor})
	wrapped := errors.Join(errors.New("context"), err)
	if got := StageOf(wrapped); got != StageCorrect {
		t.Errorf("StageOf = %q, want %q", got, StageCorrect)
	}
	if !errors.Is(wrapped, ErrUnknownSensor) {
		t.Error("errors.Is should reach ErrUnknownSensor")
	}
	if got := StageOf(errors.New("plain")); got != "" {
		t.Errorf("StageOf(plain) = %q", got)
	}
}
