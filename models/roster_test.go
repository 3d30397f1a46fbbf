package models

import (
	"strings"
	"testing"
)

func TestDefaultRoster_Layout(t *testing.T) {
	r := DefaultRoster()
	if r.Len() != 37 {
		t.Fatalf("Len() = %d, want 37", r.Len())
	}
	names := r.Names()
	if names[0] != "U1" || names[17] != "D6" || names[18] != "X1" || names[24] != "MS1" || names[36] != "power" {
		t.Errorf("unexpected column order: %v", names)
	}
	if got := len(r.Temperatures()); got != 24 {
		t.Errorf("Temperatures() = %d columns, want 24", got)
	}
	if got := len(r.Moistures()); got != 12 {
		t.Errorf("Moistures() = %d columns, want 12", got)
	}
	if fam, ok := r.FamilyOf("K2"); !ok || fam != FamilyTemperatureExternal {
		t.Errorf("FamilyOf(K2) = %v, %v", fam, ok)
	}
}

// The probes are wired U1-U4, R1-R4, D1-D4 to MS1-MS12 in that order, so
// MS2 sits with U2 and MS5 opens the R line. A U/R/D round robin
// (MS2 with R1) would correct every moisture value against the wrong probe.
func TestDefaultRoster_PairingFollowsProbeWiringOrder(t *testing.T) {
	r := DefaultRoster()
	tests := []struct {
		moisture string
		want     string
	}{
		{"MS1", "U1"},
		{"MS2", "U2"},
		{"MS3", "U3"},
		{"MS4", "U4"},
		{"MS5", "R1"},
		{"MS8", "R4"},
		{"MS9", "D1"},
		{"MS12", "D4"},
	}
	for _, tt := range tests {
		got, ok := r.ReferenceFor(tt.moisture)
		if !ok || got != tt.want {
			t.Errorf("ReferenceFor(%s) = %q, %v; want %q", tt.moisture, got, ok, tt.want)
		}
	}
	if _, ok := r.ReferenceFor("power"); ok {
		t.Error("power must not have a reference")
	}
}

func TestRoster_LineGroups(t *testing.T) {
	r := DefaultRoster()
	if got := strings.Join(r.LineTemperatures("R"), ","); got != "R1,R2,R3,R4,R5,R6" {
		t.Errorf("LineTemperatures(R) = %s", got)
	}
	if got := strings.Join(r.LineMoistures("D"), ","); got != "MS9,MS10,MS11,MS12" {
		t.Errorf("LineMoistures(D) = %s", got)
	}
}

func TestNewRoster_Validation(t *testing.T) {
	tests := []struct {
		name  string
		main  []string
		moist []string
		pairs []SensorPair
		want  string
	}{
		{
			name:  "duplicate column",
			main:  []string{"U1", "U1"},
			moist: []string{"MS1"},
			want:  "duplicate",
		},
		{
			name:  "pair references unknown temperature",
			main:  []string{"U1"},
			moist: []string{"MS1"},
			pairs: []SensorPair{{Moisture: "MS1", Reference: "U9"}},
			want:  "not a temperature column",
		},
		{
			name:  "pair names non-moisture column",
			main:  []string{"U1", "U2"},
			moist: []string{"MS1"},
			pairs: []SensorPair{{Moisture: "U2", Reference: "U1"}},
			want:  "not a moisture column",
		},
		{
			name:  "moisture paired twice",
			main:  []string{"U1", "U2"},
			moist: []string{"MS1"},
			pairs: []SensorPair{{Moisture: "MS1", Reference: "U1"}, {Moisture: "MS1", Reference: "U2"}},
			want:  "paired twice",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRoster(tt.main, nil, tt.moist, []string{"power"}, tt.pairs)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("NewRoster() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}
