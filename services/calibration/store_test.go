package calibration

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sample-monitor/models"
)

const calibrationYAML = `
temperature:
  fallback: {model: identity}
  sensors:
    U1: {model: polynomial, coefficients: [-0.3, 1.02]}
    U2: {model: fit, points: U2.csv}
    U3: {model: fit, points: U3.csv, degree: 2}
moisture:
  sensors:
    MS1: {reference: U1, coefficients: [0.01, 0.9, 0.002, -0.001]}
    MS2: {reference: U2, points: MS2.csv}
`

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func writeCalibrationDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(FileName, calibrationYAML)

	var lin, quad, surf strings.Builder
	lin.WriteString("raw,reference\n")
	quad.WriteString("raw,reference\n")
	surf.WriteString("temperature,raw,reference\n")
	for i := 0; i < 8; i++ {
		x := 10 + 2.5*float64(i)
		fmt.Fprintf(&lin, "%g,%g\n", x, 0.5+0.98*x)
		fmt.Fprintf(&quad, "%g,%g\n", x, 1+0.5*x+0.01*x*x)
	}
	want := MoistureSurface{0.02, 1.1, -0.003, 0.0005}
	for _, temp := range []float64{10, 20, 30} {
		for _, m := range []float64{0.1, 0.2, 0.3, 0.4} {
			fmt.Fprintf(&surf, "%g,%g,%.12f\n", temp, m, want.Eval(m, temp))
		}
	}
	write("U2.csv", lin.String())
	write("U3.csv", quad.String())
	write("MS2.csv", surf.String())
	return dir
}

func TestLoadStore(t *testing.T) {
	s, err := LoadStore(writeCalibrationDir(t))
	if err != nil {
		t.Fatalf("LoadStore: %v", err)
	}

	cases := []struct {
		sensor    string
		raw, want float64
	}{
		{"U1", 20, -0.3 + 1.02*20},
		{"U2", 20, 0.5 + 0.98*20},
		{"U3", 20, 1 + 0.5*20 + 0.01*400},
		{"K3", 17.25, 17.25}, // fallback
	}
	for _, tc := range cases {
		got, err := s.CorrectTemperature(tc.sensor, tc.raw)
		if err != nil {
			t.Errorf("%s: %v", tc.sensor, err)
			continue
		}
		if !near(got, tc.want) {
			t.Errorf("%s(%v) = %v, want %v", tc.sensor, tc.raw, got, tc.want)
		}
	}

	got, err := s.CorrectMoisture("U1", "MS1", 20, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if want := (MoistureSurface{0.01, 0.9, 0.002, -0.001}).Eval(0.3, 20); !near(got, want) {
		t.Errorf("MS1 = %v, want %v", got, want)
	}

	got, err = s.CorrectMoisture("U2", "MS2", 25, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	if want := (MoistureSurface{0.02, 1.1, -0.003, 0.0005}).Eval(0.25, 25); !near(got, want) {
		t.Errorf("MS2 = %v, want %v", got, want)
	}

	if _, err := s.CorrectMoisture("U3", "MS3", 20, 0.3); !errors.Is(err, models.ErrUnknownSensor) {
		t.Errorf("MS3 err = %v, want ErrUnknownSensor", err)
	}
	if _, err := s.CorrectMoisture("R1", "MS1", 20, 0.3); !errors.Is(err, models.ErrPairingMismatch) {
		t.Errorf("MS1/R1 err = %v, want ErrPairingMismatch", err)
	}
}

func TestLoadStore_Errors(t *testing.T) {
	if _, err := LoadStore(t.TempDir()); err == nil {
		t.Error("expected error for missing calibration.yaml")
	}

	bad := []File{}
	var f File
	f.Temperature.Sensors = map[string]TemperatureSpec{"U1": {Model: "spline"}}
	bad = append(bad, f)
	f = File{}
	f.Temperature.Sensors = map[string]TemperatureSpec{"U1": {Model: "polynomial"}}
	bad = append(bad, f)
	f = File{}
	f.Moisture.Sensors = map[string]MoistureSpec{"MS1": {Model: "surface", Coefficients: []float64{1, 2}}}
	bad = append(bad, f)
	f = File{}
	f.Temperature.Sensors = map[string]TemperatureSpec{"U1": {Model: "fit", Points: "missing.csv"}}
	bad = append(bad, f)

	for i, f := range bad {
		if _, err := NewStore(t.TempDir(), f); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}
