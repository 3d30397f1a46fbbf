package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"sample-monitor/models"
	"sample-monitor/utils"
)

// LoaderConfig controls how raw measurement files are recognised and split.
type LoaderConfig struct {
	Suffix    string // file name suffix, e.g. "csv"
	Delimiter string // single field separator
	Workers   int    // files parsed concurrently; <= 0 means 1
}

// Loader reads every raw measurement file of a sample directory into one
// dataset. Files are headerless: field 0 is the raw index, the remaining
// fields map onto the roster in order.
type Loader struct {
	roster    *models.Roster
	suffix    string
	delimiter rune
	workers   int

	sample  string
	metrics *utils.Metrics

	files uint64
	rows  uint64
}

func NewLoader(roster *models.Roster, cfg LoaderConfig) *Loader {
	delim := ','
	if r := []rune(cfg.Delimiter); len(r) == 1 {
		delim = r[0]
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Loader{
		roster:    roster,
		suffix:    cfg.Suffix,
		delimiter: delim,
		workers:   workers,
	}
}

// WithMetrics attaches a metrics sink; sample labels the recorded series.
func (l *Loader) WithMetrics(m *utils.Metrics, sample string) *Loader {
	l.metrics = m
	l.sample = sample
	return l
}

// Load reads the matching files of dir in directory-listing order and
// concatenates them. Rows are neither sorted nor deduplicated.
func (l *Loader) Load(ctx context.Context, dir string) (*models.Dataset, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &models.IngestError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &models.IngestError{Path: dir, Err: errors.New("not a directory")}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &models.IngestError{Path: dir, Err: err}
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), l.suffix) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}

	parts := make([]*models.Dataset, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, p := range paths {
		g.Go(func() error {
			ds, err := l.readFile(gctx, p)
			if err != nil {
				return err
			}
			parts[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out, err := models.Concat(l.roster, parts...)
	if err != nil {
		return nil, &models.IngestError{Path: dir, Err: err}
	}
	utils.L().Info("ingest: %d files, %d rows from %s (skipped %d entries)",
		len(paths), out.Len(), dir, len(entries)-len(paths))
	return out, nil
}

// Stats returns the files and rows read by this loader so far.
func (l *Loader) Stats() (files, rows uint64) {
	return atomic.LoadUint64(&l.files), atomic.LoadUint64(&l.rows)
}

func (l *Loader) readFile(ctx context.Context, path string) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.IngestError{Path: path, Err: err}
	}
	defer f.Close()

	names := l.roster.Names()
	r := csv.NewReader(f)
	r.Comma = l.delimiter
	r.FieldsPerRecord = 1 + len(names)
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	var rows []models.Reading
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &models.IngestError{Path: path, Line: pe.Line, Err: pe.Err}
			}
			return nil, &models.IngestError{Path: path, Err: err}
		}
		line, _ := r.FieldPos(0)

		rd := models.NewReading(strings.TrimSpace(rec[0]), len(names))
		rd.Source = path
		rd.Line = line
		for j, cell := range rec[1:] {
			v, err := parseCell(cell)
			if err != nil {
				return nil, &models.IngestError{Path: path, Line: line, Err: fmt.Errorf("column %s: %w", names[j], err)}
			}
			rd.Values[j] = v
		}
		rows = append(rows, rd)
	}

	ds, err := models.NewDataset(l.roster, rows)
	if err != nil {
		return nil, &models.IngestError{Path: path, Err: err}
	}
	atomic.AddUint64(&l.files, 1)
	atomic.AddUint64(&l.rows, uint64(len(rows)))
	l.metrics.FileLoaded(l.sample, len(rows))
	utils.L().Debug("ingest: %s → %d rows", filepath.Base(path), len(rows))
	return ds, nil
}

// parseCell maps blank and NaN cells to NaN.
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
