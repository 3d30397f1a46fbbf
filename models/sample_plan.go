package models

import (
	"path/filepath"
	"time"
)

// Directory names of the per-sample measurement tree.
const (
	MeasurementRootDir = "01_measurement_data"
	FiguresRootDir     = "02_measurement_figures"

	RawDataDir     = "02_measurement_data"
	ModelDataDir   = "03_comsol_model"
	CalibrationDir = "04_calib_data"
)

// SampleProps holds the physical properties consumed by the conductivity
// and heat-transfer models. The pipeline carries them without reading them.
type SampleProps struct {
	Porosity float64 `yaml:"porosity" json:"porosity"`
	Ks       float64 `yaml:"ks" json:"ks"`         // solid-phase thermal conductivity, W/(m·K)
	Rhos     float64 `yaml:"rhos" json:"rhos"`     // grain density, kg/m³
	WGrav    float64 `yaml:"w_grav" json:"w_grav"` // gravimetric water content
}

// SamplePaths are the resolved locations of one sample's data.
type SamplePaths struct {
	MeasurementData string // raw measurement files
	CalibrationData string
	ModelData       string
	Figures         string
}

// SamplePlan identifies a sample and everything the pipeline needs to
// process it.
type SamplePlan struct {
	Name       string
	Root       string      // the test campaign root, e.g. /data/large_test
	Roster     *Roster     // column layout of the raw files
	Timestamps []time.Time // profile instants for the gradient views
	Props      SampleProps
}

// SampleDir returns the directory name used for the sample under both the
// measurement and the figure trees.
func (p SamplePlan) SampleDir() string { return "Sample_" + p.Name }

// Paths derives the sample's directory layout from its root.
func (p SamplePlan) Paths() SamplePaths {
	data := filepath.Join(p.Root, MeasurementRootDir, p.SampleDir())
	return SamplePaths{
		MeasurementData: filepath.Join(data, RawDataDir),
		CalibrationData: filepath.Join(data, CalibrationDir),
		ModelData:       filepath.Join(data, ModelDataDir),
		Figures:         filepath.Join(p.Root, FiguresRootDir, p.SampleDir()),
	}
}
