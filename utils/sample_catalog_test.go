package utils

import (
	"path/filepath"
	"testing"
	"time"
)

const catalogYAML = `
root: /data/large_test
samples:
  "3":
    timestamps: ["2024-03-01 12:00:00", "2024-03-02 00:00:00"]
    sample_props: {porosity: 0.42, ks: 3.1, rhos: 2650, w_grav: 0.12}
  "7":
    root: /data/small_test
    roster:
      temperature_external: [X1]
`

func TestSampleCatalog_Select(t *testing.T) {
	p := writeFile(t, t.TempDir(), "samples.yaml", catalogYAML)
	cat, err := LoadSampleCatalog(p, nil)
	if err != nil {
		t.Fatalf("LoadSampleCatalog: %v", err)
	}
	if names := cat.Names(); len(names) != 2 || names[0] != "3" || names[1] != "7" {
		t.Fatalf("Names() = %v", names)
	}

	plan, err := cat.Select("3")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if plan.Root != "/data/large_test" || plan.Roster.Len() != 37 {
		t.Errorf("plan = %+v (roster %d columns)", plan, plan.Roster.Len())
	}
	if len(plan.Timestamps) != 2 || !plan.Timestamps[0].Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamps = %v", plan.Timestamps)
	}
	if plan.Props.Porosity != 0.42 || plan.Props.WGrav != 0.12 {
		t.Errorf("props = %+v", plan.Props)
	}
	want := filepath.Join("/data/large_test", "02_measurement_figures", "Sample_3")
	if got := plan.Paths().Figures; got != want {
		t.Errorf("Figures = %q, want %q", got, want)
	}

	small, err := cat.Select("7")
	if err != nil {
		t.Fatalf("Select(7): %v", err)
	}
	if small.Root != "/data/small_test" || small.Roster.Len() != 32 {
		t.Errorf("override not applied: root %q, %d columns", small.Root, small.Roster.Len())
	}
}

func TestSampleCatalog_Errors(t *testing.T) {
	dir := t.TempDir()
	cat, err := LoadSampleCatalog(writeFile(t, dir, "s.yaml", catalogYAML), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cat.Select("99"); err == nil {
		t.Error("expected error for unknown sample")
	}

	bad := writeFile(t, dir, "bad.yaml", "root: /x\nsamples:\n  a:\n    timestamps: [yesterday]\n")
	cat, err = LoadSampleCatalog(bad, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cat.Select("a"); err == nil {
		t.Error("expected timestamp parse error")
	}

	if _, err := LoadSampleCatalog(writeFile(t, dir, "empty.yaml", "root: /x\n"), nil); err == nil {
		t.Error("expected error for catalogue without samples")
	}
}
