package models

import (
	"fmt"
	"strings"
)

// Family groups roster columns by the physical quantity they carry.
type Family int

const (
	FamilyTemperatureMain Family = iota
	FamilyTemperatureExternal
	FamilyMoisture
	FamilyPower
)

var familyNames = map[Family]string{
	FamilyTemperatureMain:     "temperature_main",
	FamilyTemperatureExternal: "temperature_external",
	FamilyMoisture:            "moisture",
	FamilyPower:               "power",
}

func (f Family) String() string {
	if n, ok := familyNames[f]; ok {
		return n
	}
	return "unknown"
}

// IsTemperature reports whether the family is calibrated with the
// temperature model.
func (f Family) IsTemperature() bool {
	return f == FamilyTemperatureMain || f == FamilyTemperatureExternal
}

// ─── Default column roster ──────────────────────────────────────────────
//
// The raw files carry no header, so this ordering is the single source of
// truth for mapping file fields onto sensor names.

var (
	TemperatureMain = []string{
		"U1", "U2", "U3", "U4", "U5", "U6",
		"R1", "R2", "R3", "R4", "R5", "R6",
		"D1", "D2", "D3", "D4", "D5", "D6",
	}
	TemperatureExternal = []string{"X1", "X2", "X3", "K1", "K2", "K3"}
	Moisture            = []string{
		"MS1", "MS2", "MS3", "MS4", "MS5", "MS6",
		"MS7", "MS8", "MS9", "MS10", "MS11", "MS12",
	}
	Power = []string{"power"}
)

// ProbeLines are the three radial measurement lines of the sample cell.
var ProbeLines = []string{"U", "R", "D"}

// SensorPair ties a moisture sensor to the temperature sensor sitting in the
// same physical probe. The moisture correction reads that temperature.
type SensorPair struct {
	Moisture  string `yaml:"moisture"`
	Reference string `yaml:"reference"`
}

// MoisturePairing is the fixed probe pairing. Any change to the roster must
// update this table in the same change.
var MoisturePairing = []SensorPair{
	{Moisture: "MS1", Reference: "U1"},
	{Moisture: "MS2", Reference: "U2"},
	{Moisture: "MS3", Reference: "U3"},
	{Moisture: "MS4", Reference: "U4"},
	{Moisture: "MS5", Reference: "R1"},
	{Moisture: "MS6", Reference: "R2"},
	{Moisture: "MS7", Reference: "R3"},
	{Moisture: "MS8", Reference: "R4"},
	{Moisture: "MS9", Reference: "D1"},
	{Moisture: "MS10", Reference: "D2"},
	{Moisture: "MS11", Reference: "D3"},
	{Moisture: "MS12", Reference: "D4"},
}

// Roster is an ordered, immutable list of named columns with their family.
type Roster struct {
	names    []string
	families []Family
	index    map[string]int
	pairs    []SensorPair
}

// DefaultRoster returns the 37-column roster used by the large test cell.
func DefaultRoster() *Roster {
	r, err := NewRoster(TemperatureMain, TemperatureExternal, Moisture, Power, MoisturePairing)
	if err != nil {
		panic(err)
	}
	return r
}

// NewRoster builds a roster from its four families (in that column order)
// and validates the pairing table against it.
func NewRoster(main, external, moisture, power []string, pairs []SensorPair) (*Roster, error) {
	r := &Roster{index: make(map[string]int)}
	add := func(names []string, fam Family) error {
		for _, n := range names {
			n = strings.TrimSpace(n)
			if n == "" {
				return fmt.Errorf("roster: empty column name in %s", fam)
			}
			if _, dup := r.index[n]; dup {
				return fmt.Errorf("roster: duplicate column %q", n)
			}
			r.index[n] = len(r.names)
			r.names = append(r.names, n)
			r.families = append(r.families, fam)
		}
		return nil
	}
	for _, g := range []struct {
		names []string
		fam   Family
	}{
		{main, FamilyTemperatureMain},
		{external, FamilyTemperatureExternal},
		{moisture, FamilyMoisture},
		{power, FamilyPower},
	} {
		if err := add(g.names, g.fam); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		mi, ok := r.index[p.Moisture]
		if !ok || r.families[mi] != FamilyMoisture {
			return nil, fmt.Errorf("roster: pairing names %q which is not a moisture column", p.Moisture)
		}
		ti, ok := r.index[p.Reference]
		if !ok || !r.families[ti].IsTemperature() {
			return nil, fmt.Errorf("roster: pairing reference %q is not a temperature column", p.Reference)
		}
		if seen[p.Moisture] {
			return nil, fmt.Errorf("roster: moisture column %q paired twice", p.Moisture)
		}
		seen[p.Moisture] = true
	}
	r.pairs = append([]SensorPair(nil), pairs...)
	return r, nil
}

// Len returns the number of value columns (the index is not counted).
func (r *Roster) Len() int { return len(r.names) }

// Names returns a copy of the column names in file order.
func (r *Roster) Names() []string { return append([]string(nil), r.names...) }

// Index returns the position of a column, or -1.
func (r *Roster) Index(name string) int {
	if i, ok := r.index[name]; ok {
		return i
	}
	return -1
}

// FamilyOf returns the family of a declared column.
func (r *Roster) FamilyOf(name string) (Family, bool) {
	i, ok := r.index[name]
	if !ok {
		return 0, false
	}
	return r.families[i], true
}

// ByFamily returns the columns of the given families, in roster order.
func (r *Roster) ByFamily(fams ...Family) []string {
	var out []string
	for i, n := range r.names {
		for _, f := range fams {
			if r.families[i] == f {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// Temperatures returns every temperature column (main then external).
func (r *Roster) Temperatures() []string {
	return r.ByFamily(FamilyTemperatureMain, FamilyTemperatureExternal)
}

// Moistures returns every moisture column.
func (r *Roster) Moistures() []string { return r.ByFamily(FamilyMoisture) }

// Pairs returns a copy of the validated moisture pairing table.
func (r *Roster) Pairs() []SensorPair { return append([]SensorPair(nil), r.pairs...) }

// ReferenceFor returns the temperature sensor paired with a moisture sensor.
func (r *Roster) ReferenceFor(moisture string) (string, bool) {
	for _, p := range r.pairs {
		if p.Moisture == moisture {
			return p.Reference, true
		}
	}
	return "", false
}

// LineTemperatures returns the main temperature sensors of one probe line
// (e.g. "U" → U1..U6) in position order.
func (r *Roster) LineTemperatures(line string) []string {
	var out []string
	for _, n := range r.ByFamily(FamilyTemperatureMain) {
		if strings.HasPrefix(n, line) {
			out = append(out, n)
		}
	}
	return out
}

// LineMoistures returns the moisture sensors whose paired reference sits on
// the given probe line, ordered like the pairing table.
func (r *Roster) LineMoistures(line string) []string {
	var out []string
	for _, p := range r.pairs {
		if strings.HasPrefix(p.Reference, line) {
			out = append(out, p.Moisture)
		}
	}
	return out
}
