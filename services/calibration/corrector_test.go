package calibration

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"sample-monitor/models"
)

// plusOne adds one degree to U1 and records the reference value every
// moisture correction was handed.
type plusOne struct {
	seenRef []float64
}

func (p *plusOne) CorrectTemperature(sensor string, raw float64) (float64, error) {
	if sensor == "U1" {
		return raw + 1, nil
	}
	return raw, nil
}

func (p *plusOne) CorrectMoisture(_, _ string, correctedRef, rawMoisture float64) (float64, error) {
	p.seenRef = append(p.seenRef, correctedRef)
	return rawMoisture + correctedRef/100, nil
}

func smallDataset(t *testing.T) *models.Dataset {
	t.Helper()
	r, err := models.NewRoster([]string{"U1", "U2"}, []string{"X1"}, []string{"MS1"}, []string{"power"},
		[]models.SensorPair{{Moisture: "MS1", Reference: "U1"}})
	if err != nil {
		t.Fatal(err)
	}
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.Reading{
		{Raw: "a", Time: t0, Values: []float64{20, 18, 15.25, 0.30, 12.5}},
		{Raw: "b", Time: t0.Add(time.Minute), Values: []float64{22, math.NaN(), 15.5, 0.31, 12.75}},
	}
	ds, err := models.NewDataset(r, rows)
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestCorrector_MoistureSeesCorrectedReference(t *testing.T) {
	cal := &plusOne{}
	in := smallDataset(t)
	out, err := NewCorrector(cal).Apply(context.Background(), in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if v, _ := out.Value(0, "U1"); v != 21 {
		t.Errorf("U1 = %v, want 21", v)
	}
	if len(cal.seenRef) != 2 || cal.seenRef[0] != 21 || cal.seenRef[1] != 23 {
		t.Fatalf("moisture correction saw references %v, want [21 23]", cal.seenRef)
	}
	if v, _ := out.Value(0, "MS1"); math.Abs(v-0.51) > 1e-12 {
		t.Errorf("MS1 = %v, want 0.51", v)
	}
	if v, _ := in.Value(0, "U1"); v != 20 {
		t.Error("Apply modified its input")
	}
}

func TestCorrector_IdentityKeepsEveryBit(t *testing.T) {
	in := smallDataset(t)
	out, err := NewCorrector(Identity{}).Apply(context.Background(), in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !out.Equal(in) {
		t.Error("identity calibration changed the dataset")
	}
	if out.Len() != in.Len() || len(out.Columns()) != len(in.Columns()) {
		t.Error("shape changed")
	}
}

func TestCorrector_PowerPassesThrough(t *testing.T) {
	in := smallDataset(t)
	out, err := NewCorrector(&plusOne{}).Apply(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := in.Column("power")
	b, _ := out.Column("power")
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			t.Errorf("power row %d: %v -> %v", i, a[i], b[i])
		}
	}
}

func TestCorrector_UnknownSensor(t *testing.T) {
	store, err := NewStore(t.TempDir(), File{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewCorrector(store).Apply(context.Background(), smallDataset(t))
	var ce *models.CorrectionError
	if !errors.As(err, &ce) || !errors.Is(err, models.ErrUnknownSensor) {
		t.Fatalf("err = %v, want CorrectionError wrapping ErrUnknownSensor", err)
	}
	if ce.Sensor != "U1" || ce.Row != 0 {
		t.Errorf("error = %+v", ce)
	}
	if models.StageOf(err) != models.StageCorrect {
		t.Errorf("StageOf = %q", models.StageOf(err))
	}
}

func TestCorrector_PairingMismatch(t *testing.T) {
	var f File
	f.Temperature.Fallback = &TemperatureSpec{Model: "identity"}
	f.Moisture.Sensors = map[string]MoistureSpec{"MS1": {Reference: "R1", Model: "identity"}}
	store, err := NewStore(t.TempDir(), f)
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewCorrector(store).Apply(context.Background(), smallDataset(t))
	if !errors.Is(err, models.ErrPairingMismatch) {
		t.Fatalf("err = %v, want ErrPairingMismatch", err)
	}
}
