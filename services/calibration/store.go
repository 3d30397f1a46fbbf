package calibration

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"sample-monitor/models"
	"sample-monitor/utils"
)

// FileName is the calibration index expected in a sample's calibration
// directory.
const FileName = "calibration.yaml"

// ─── calibration.yaml ───────────────────────────────────────────────────

// TemperatureSpec selects one temperature sensor's model.
//
//	model: identity | polynomial | fit
type TemperatureSpec struct {
	Model        string    `yaml:"model"`
	Coefficients []float64 `yaml:"coefficients"` // polynomial
	Points       string    `yaml:"points"`       // fit: CSV raw,reference
	Degree       int       `yaml:"degree"`       // fit; default 1
}

// MoistureSpec selects one moisture sensor's model.
//
//	model: identity | surface | fit
type MoistureSpec struct {
	Reference    string    `yaml:"reference"`    // optional pairing cross-check
	Model        string    `yaml:"model"`        // inferred when empty
	Coefficients []float64 `yaml:"coefficients"` // surface: c0, c1, c2, c3
	Points       string    `yaml:"points"`       // fit: CSV temperature,raw,reference
}

// File is the top-level structure of calibration.yaml. A fallback applies
// to every sensor of its family without an entry; without one, unknown
// sensors are an error.
type File struct {
	Temperature struct {
		Fallback *TemperatureSpec          `yaml:"fallback"`
		Sensors  map[string]TemperatureSpec `yaml:"sensors"`
	} `yaml:"temperature"`
	Moisture struct {
		Fallback *MoistureSpec          `yaml:"fallback"`
		Sensors  map[string]MoistureSpec `yaml:"sensors"`
	} `yaml:"moisture"`
}

// ─── Store ──────────────────────────────────────────────────────────────

type moistureModel struct {
	reference string
	identity  bool
	surface   MoistureSurface
}

// Store is a Calibrator built from a sample's calibration directory.
type Store struct {
	temps     map[string]Polynomial
	tempFall  Polynomial
	moist     map[string]moistureModel
	moistFall *moistureModel
}

// LoadStore reads <dir>/calibration.yaml and fits every points file it
// references. Point file paths are relative to dir.
func LoadStore(dir string) (*Store, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("read calibration: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse calibration: %w", err)
	}
	return NewStore(dir, f)
}

// NewStore builds a Store from an already parsed calibration file.
func NewStore(dir string, f File) (*Store, error) {
	s := &Store{
		temps: make(map[string]Polynomial, len(f.Temperature.Sensors)),
		moist: make(map[string]moistureModel, len(f.Moisture.Sensors)),
	}
	for name, spec := range f.Temperature.Sensors {
		p, err := buildTemperature(dir, name, spec)
		if err != nil {
			return nil, err
		}
		s.temps[name] = p
	}
	if f.Temperature.Fallback != nil {
		p, err := buildTemperature(dir, "fallback", *f.Temperature.Fallback)
		if err != nil {
			return nil, err
		}
		s.tempFall = p
	}
	for name, spec := range f.Moisture.Sensors {
		m, err := buildMoisture(dir, name, spec)
		if err != nil {
			return nil, err
		}
		s.moist[name] = m
	}
	if f.Moisture.Fallback != nil {
		m, err := buildMoisture(dir, "fallback", *f.Moisture.Fallback)
		if err != nil {
			return nil, err
		}
		s.moistFall = &m
	}
	utils.L().Info("calibration: %d temperature and %d moisture models from %s",
		len(s.temps), len(s.moist), dir)
	return s, nil
}

func (s *Store) CorrectTemperature(sensor string, raw float64) (float64, error) {
	p, ok := s.temps[sensor]
	if !ok {
		if s.tempFall == nil {
			return raw, models.ErrUnknownSensor
		}
		p = s.tempFall
	}
	return p.Eval(raw), nil
}

func (s *Store) CorrectMoisture(reference, moisture string, correctedRef, rawMoisture float64) (float64, error) {
	m, ok := s.moist[moisture]
	if !ok {
		if s.moistFall == nil {
			return rawMoisture, models.ErrUnknownSensor
		}
		m = *s.moistFall
	}
	if m.reference != "" && m.reference != reference {
		return rawMoisture, fmt.Errorf("%w: calibrated against %s", models.ErrPairingMismatch, m.reference)
	}
	if m.identity {
		return rawMoisture, nil
	}
	return m.surface.Eval(rawMoisture, correctedRef), nil
}

func buildTemperature(dir, name string, spec TemperatureSpec) (Polynomial, error) {
	switch strings.ToLower(spec.Model) {
	case "", "identity":
		return Polynomial{0, 1}, nil
	case "polynomial":
		if len(spec.Coefficients) == 0 {
			return nil, fmt.Errorf("calibration: %s: polynomial without coefficients", name)
		}
		return Polynomial(append([]float64(nil), spec.Coefficients...)), nil
	case "fit":
		cols, err := readPoints(filepath.Join(dir, spec.Points), 2)
		if err != nil {
			return nil, fmt.Errorf("calibration: %s: %w", name, err)
		}
		deg := spec.Degree
		if deg == 0 {
			deg = 1
		}
		p, st, err := FitPolynomial(cols[0], cols[1], deg)
		if err != nil {
			return nil, fmt.Errorf("calibration: %s: %w", name, err)
		}
		utils.L().Debug("calibration: %s degree %d fit on %d points: R²=%.5f RMSE=%.4f",
			name, deg, st.N, st.RSquared, st.RMSE)
		return p, nil
	default:
		return nil, fmt.Errorf("calibration: %s: unknown temperature model %q", name, spec.Model)
	}
}

func buildMoisture(dir, name string, spec MoistureSpec) (moistureModel, error) {
	model := strings.ToLower(spec.Model)
	if model == "" {
		switch {
		case spec.Points != "":
			model = "fit"
		case len(spec.Coefficients) > 0:
			model = "surface"
		default:
			model = "identity"
		}
	}
	m := moistureModel{reference: spec.Reference}
	switch model {
	case "identity":
		m.identity = true
	case "surface":
		if len(spec.Coefficients) != 4 {
			return m, fmt.Errorf("calibration: %s: surface needs 4 coefficients, got %d", name, len(spec.Coefficients))
		}
		copy(m.surface[:], spec.Coefficients)
	case "fit":
		cols, err := readPoints(filepath.Join(dir, spec.Points), 3)
		if err != nil {
			return m, fmt.Errorf("calibration: %s: %w", name, err)
		}
		surf, st, err := FitMoistureSurface(cols[0], cols[1], cols[2])
		if err != nil {
			return m, fmt.Errorf("calibration: %s: %w", name, err)
		}
		utils.L().Debug("calibration: %s surface fit on %d points: R²=%.5f RMSE=%.4f",
			name, st.N, st.RSquared, st.RMSE)
		m.surface = surf
	default:
		return m, fmt.Errorf("calibration: %s: unknown moisture model %q", name, spec.Model)
	}
	return m, nil
}

// readPoints reads a calibration points CSV with a header row and width
// numeric columns, returned column-major.
func readPoints(path string, width int) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read points: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = width
	r.TrimLeadingSpace = true
	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("read points header %s: %w", path, err)
	}
	cols := make([][]float64, width)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read points %s: %w", path, err)
		}
		for j, cell := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				line, _ := r.FieldPos(j)
				return nil, fmt.Errorf("points %s:%d: %w", path, line, err)
			}
			cols[j] = append(cols[j], v)
		}
	}
	return cols, nil
}
