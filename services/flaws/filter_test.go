package flaws

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"sample-monitor/models"
)

type staticSource map[string][]Rule

func (s staticSource) Rules(_ context.Context, sample string) ([]Rule, error) {
	return s[sample], nil
}

type failingSource struct{}

func (failingSource) Rules(context.Context, string) ([]Rule, error) {
	return nil, errors.New("database unreachable")
}

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func hourly(t *testing.T, n int, normalized bool) *models.Dataset {
	t.Helper()
	r, err := models.NewRoster([]string{"U1"}, nil, []string{"MS1"}, []string{"power"},
		[]models.SensorPair{{Moisture: "MS1", Reference: "U1"}})
	if err != nil {
		t.Fatal(err)
	}
	rows := make([]models.Reading, n)
	for i := range rows {
		ts := t0.Add(time.Duration(i) * time.Hour)
		rows[i] = models.Reading{Raw: ts.Format(models.TimestampLayout), Values: []float64{20 + float64(i), 0.3, 50}}
		if normalized {
			rows[i].Time = ts
		}
	}
	// rows 3 and 4 carry the heater faults when the frame is long enough
	if n > 4 {
		rows[3].Values[2] = 2 // heater off
		rows[4].Values[2] = math.NaN()
	}
	ds, err := models.NewDataset(r, rows)
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func ptr(v float64) *float64 { return &v }

func TestFilter_RemovesMatchingRows(t *testing.T) {
	src := staticSource{"SN2": {
		Interval(t0.Add(6*time.Hour), t0.Add(8*time.Hour), "probe swap"),
		ColumnRange("power", ptr(10), nil, "heater off"),
		Interval(time.Time{}, t0, "installation"),
	}}
	in := hourly(t, 12, true)
	out, err := NewFilter(src).Apply(context.Background(), "SN2", in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// rows 0 (open start, closed end), 3 (power), 6, 7, 8 (closed interval)
	if out.Len() != 7 {
		t.Fatalf("Len() = %d, want 7", out.Len())
	}
	want := []int{1, 2, 4, 5, 9, 10, 11}
	for i, h := range want {
		if got := out.Times()[i]; !got.Equal(t0.Add(time.Duration(h) * time.Hour)) {
			t.Errorf("row %d at %v, want hour %d", i, got, h)
		}
	}
	if in.Len() != 12 {
		t.Error("Apply modified its input")
	}
}

func TestFilter_IdempotentAndMonotone(t *testing.T) {
	src := staticSource{"SN2": {
		Interval(t0.Add(2*time.Hour), t0.Add(5*time.Hour), "outage"),
		ColumnRange("U1", nil, ptr(28), "overheat"),
	}}
	f := NewFilter(src)
	in := hourly(t, 12, true)
	once, err := f.Apply(context.Background(), "SN2", in)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := f.Apply(context.Background(), "SN2", once)
	if err != nil {
		t.Fatal(err)
	}
	if !once.Equal(twice) {
		t.Error("second pass removed more rows")
	}
	if once.Len() > in.Len() {
		t.Error("filter added rows")
	}
}

func TestFilter_UnknownSampleIsNoop(t *testing.T) {
	in := hourly(t, 5, false)
	out, err := NewFilter(staticSource{}).Apply(context.Background(), "SN9", in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !out.Equal(in) {
		t.Error("no-op filter changed the dataset")
	}
}

func TestFilter_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewFilter(staticSource{"SN2": {Interval(t0, t0.Add(time.Hour), "x")}}).Apply(ctx, "SN2", hourly(t, 3, false))
	if !errors.Is(err, models.ErrNotNormalized) {
		t.Errorf("unnormalised: err = %v", err)
	}

	_, err = NewFilter(failingSource{}).Apply(ctx, "SN2", hourly(t, 3, true))
	var fe *models.FilterError
	if !errors.As(err, &fe) || fe.Sample != "SN2" {
		t.Errorf("source failure: err = %v", err)
	}

	_, err = NewFilter(staticSource{"SN2": {ColumnRange("MS7", ptr(0), nil, "x")}}).Apply(ctx, "SN2", hourly(t, 3, true))
	if models.StageOf(err) != models.StageFilter {
		t.Errorf("unknown column: err = %v", err)
	}
}

func TestRule_Validate(t *testing.T) {
	bad := []Rule{
		Interval(time.Time{}, time.Time{}, "everything"),
		Interval(t0.Add(time.Hour), t0, "reversed"),
		ColumnRange("", ptr(1), nil, "no column"),
		ColumnRange("U1", nil, nil, "no bounds"),
		ColumnRange("U1", ptr(5), ptr(1), "inverted"),
		{Kind: "mask", Reason: "unknown"},
	}
	for _, r := range bad {
		if err := r.Validate(); err == nil {
			t.Errorf("%s: expected error", r.Reason)
		}
	}
}

func TestFilter_ShortFrame(t *testing.T) {
	in := hourly(t, 3, true)
	src := staticSource{"SN2": {ColumnRange("power", ptr(10), nil, "heater off")}}
	out, err := NewFilter(src).Apply(context.Background(), "SN2", in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if out.Len() != 3 {
		t.Errorf("Len() = %d, want 3 (no faults before row 3)", out.Len())
	}
}
