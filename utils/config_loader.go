package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ─── Pipeline-level configs ─────────────────────────────────────────────

type StagesConfig struct {
	SamplesFile      string   `yaml:"samples_file" env:"SAMPLE_MONITOR_SAMPLES_FILE"`
	DataSuffix       string   `yaml:"data_suffix" env:"SAMPLE_MONITOR_DATA_SUFFIX"`
	Delimiter        string   `yaml:"delimiter" env:"SAMPLE_MONITOR_DELIMITER"`
	TimestampLayouts []string `yaml:"timestamp_layouts" env:"SAMPLE_MONITOR_TIMESTAMP_LAYOUTS" envSeparator:"|"`
	ApplyCalibration bool     `yaml:"apply_calibration" env:"SAMPLE_MONITOR_APPLY_CALIBRATION"`
	ApplyFlawFilter  bool     `yaml:"apply_flaw_filter" env:"SAMPLE_MONITOR_APPLY_FLAW_FILTER"`
	ReadWorkers      int      `yaml:"read_workers" env:"SAMPLE_MONITOR_READ_WORKERS"`
}

type FlawSourceConfig struct {
	Driver string `yaml:"driver" env:"SAMPLE_MONITOR_FLAWS_DRIVER"` // yaml | sqlite | postgres
	Path   string `yaml:"path" env:"SAMPLE_MONITOR_FLAWS_PATH"`     // yaml file or sqlite database
	DSN    string `yaml:"dsn" env:"SAMPLE_MONITOR_FLAWS_DSN"`       // postgres connection string
}

type ViewsConfig struct {
	Operation string  `yaml:"operation" env:"SAMPLE_MONITOR_VIEW"`
	ScaleMin  float64 `yaml:"scale_min" env:"SAMPLE_MONITOR_SCALE_MIN"`
	ScaleMax  float64 `yaml:"scale_max" env:"SAMPLE_MONITOR_SCALE_MAX"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket" env:"SAMPLE_MONITOR_S3_BUCKET"`
	Region    string `yaml:"region" env:"SAMPLE_MONITOR_S3_REGION"`
	Endpoint  string `yaml:"endpoint" env:"SAMPLE_MONITOR_S3_ENDPOINT"`
	PathStyle bool   `yaml:"path_style" env:"SAMPLE_MONITOR_S3_PATH_STYLE"`
}

type OutputConfig struct {
	Driver         string   `yaml:"driver" env:"SAMPLE_MONITOR_OUTPUT_DRIVER"` // fs | s3 | memory
	FSRoot         string   `yaml:"fs_root" env:"SAMPLE_MONITOR_OUTPUT_ROOT"`  // empty: each sample's figure dir
	S3             S3Config `yaml:"s3"`
	ExportCleanCSV bool     `yaml:"export_clean_csv" env:"SAMPLE_MONITOR_EXPORT_CSV"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"SAMPLE_MONITOR_LOG_LEVEL"`
	Format string `yaml:"format" env:"SAMPLE_MONITOR_LOG_FORMAT"`
	File   string `yaml:"file" env:"SAMPLE_MONITOR_LOG_FILE"`
}

type TelemetryConfig struct {
	ServiceName     string `yaml:"service_name" env:"SAMPLE_MONITOR_SERVICE_NAME"`
	OTelEndpoint    string `yaml:"otel_endpoint" env:"SAMPLE_MONITOR_OTEL_ENDPOINT"`
	MetricsTextfile string `yaml:"metrics_textfile" env:"SAMPLE_MONITOR_METRICS_TEXTFILE"`
}

// PipelineConfig is the top-level structure for pipeline.yaml.
type PipelineConfig struct {
	Pipeline  StagesConfig     `yaml:"pipeline"`
	Flaws     FlawSourceConfig `yaml:"flaw_rules"`
	Views     ViewsConfig      `yaml:"views"`
	Output    OutputConfig     `yaml:"output"`
	Logging   LoggingConfig    `yaml:"logging"`
	Telemetry TelemetryConfig  `yaml:"telemetry"`
}

// DefaultPipelineConfig returns the settings used for keys absent from
// pipeline.yaml. Calibration is off and flaw deletion on, matching how the
// measurement campaign has been processed so far.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Pipeline: StagesConfig{
			SamplesFile:     "config/samples.yaml",
			DataSuffix:      "csv",
			Delimiter:       ",",
			ApplyFlawFilter: true,
		},
		Flaws:     FlawSourceConfig{Driver: "yaml", Path: "config/flaws.yaml"},
		Views:     ViewsConfig{Operation: "plot_everything"},
		Output:    OutputConfig{Driver: "fs"},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Telemetry: TelemetryConfig{ServiceName: "sample-monitor"},
	}
}

// ─── Loaders ────────────────────────────────────────────────────────────

// LoadPipelineConfig reads pipeline.yaml, applies SAMPLE_MONITOR_*
// environment overrides and validates the result. An empty path skips the
// file and uses defaults plus environment.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cfg := DefaultPipelineConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read pipeline config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse pipeline config: %w", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration is usable and reports every
// problem at once.
func (c *PipelineConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Pipeline.SamplesFile) == "" {
		errs = append(errs, errors.New("pipeline.samples_file is required"))
	}
	if strings.TrimSpace(c.Pipeline.DataSuffix) == "" {
		errs = append(errs, errors.New("pipeline.data_suffix must not be empty"))
	}
	if c.Pipeline.ReadWorkers < 0 {
		errs = append(errs, fmt.Errorf("pipeline.read_workers must not be negative, got %d", c.Pipeline.ReadWorkers))
	}
	if len([]rune(c.Pipeline.Delimiter)) != 1 {
		errs = append(errs, fmt.Errorf("pipeline.delimiter must be a single character, got %q", c.Pipeline.Delimiter))
	}

	switch c.Flaws.Driver {
	case "yaml", "sqlite":
		if c.Pipeline.ApplyFlawFilter && c.Flaws.Path == "" {
			errs = append(errs, fmt.Errorf("flaw_rules.path is required for driver %s", c.Flaws.Driver))
		}
	case "postgres":
		if c.Pipeline.ApplyFlawFilter && c.Flaws.DSN == "" {
			errs = append(errs, errors.New("flaw_rules.dsn is required for driver postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("flaw_rules.driver %q is not one of yaml, sqlite, postgres", c.Flaws.Driver))
	}

	switch c.Output.Driver {
	case "fs", "memory":
	case "s3":
		if c.Output.S3.Bucket == "" {
			errs = append(errs, errors.New("output.s3.bucket is required for driver s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("output.driver %q is not one of fs, s3, memory", c.Output.Driver))
	}

	if c.Views.ScaleMax != 0 && c.Views.ScaleMax <= c.Views.ScaleMin {
		errs = append(errs, fmt.Errorf("views.scale_max (%g) must exceed views.scale_min (%g)", c.Views.ScaleMax, c.Views.ScaleMin))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format))
	}
	return errors.Join(errs...)
}

// Layouts returns the configured timestamp layouts, or the defaults.
func (c *PipelineConfig) Layouts() []string {
	if len(c.Pipeline.TimestampLayouts) > 0 {
		return c.Pipeline.TimestampLayouts
	}
	return DefaultTimestampLayouts
}
