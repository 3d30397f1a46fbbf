package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sample-monitor/models"
)

func TestNormalize_ParsesWithoutSorting(t *testing.T) {
	dir := t.TempDir()
	late := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	writeRaw(t, dir, "a.csv", late, 2, 37)
	writeRaw(t, dir, "b.csv", late.Add(-time.Hour), 2, 37)

	raw, err := newTestLoader().Load(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	ds, err := Normalize(raw, nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !ds.Normalized() {
		t.Fatal("dataset not normalised")
	}
	times := ds.Times()
	if !times[0].Equal(late) || !times[2].Equal(late.Add(-time.Hour)) {
		t.Errorf("times = %v, order must be kept", times)
	}
	if raw.Normalized() {
		t.Error("Normalize modified its input")
	}
}

func TestNormalize_OneBadRowFailsAll(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, "a.csv", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 3, 37)
	bad := "yesterday noon"
	for i := 0; i < 37; i++ {
		bad += ",1"
	}
	if err := os.WriteFile(filepath.Join(dir, "b.csv"), []byte(bad+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	raw, err := newTestLoader().Load(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}

	_, err = Normalize(raw, nil)
	var te *models.TimestampParseError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TimestampParseError", err)
	}
	if te.Row != 3 || te.Value != "yesterday noon" || filepath.Base(te.Source) != "b.csv" || te.Line != 1 {
		t.Errorf("error = %+v", te)
	}
}
