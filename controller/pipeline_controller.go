package controller

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sample-monitor/models"
	"sample-monitor/services/calibration"
	"sample-monitor/services/flaws"
	"sample-monitor/services/ingest"
	"sample-monitor/utils"
)

// PipelineOptions selects the optional stages and how raw files are read.
type PipelineOptions struct {
	Loader           ingest.LoaderConfig
	Layouts          []string
	ApplyCalibration bool
	ApplyFlawFilter  bool
}

// PipelineOptionsFromConfig maps pipeline.yaml onto PipelineOptions.
func PipelineOptionsFromConfig(cfg *utils.PipelineConfig) PipelineOptions {
	return PipelineOptions{
		Loader: ingest.LoaderConfig{
			Suffix:    cfg.Pipeline.DataSuffix,
			Delimiter: cfg.Pipeline.Delimiter,
			Workers:   cfg.Pipeline.ReadWorkers,
		},
		Layouts:          cfg.Layouts(),
		ApplyCalibration: cfg.Pipeline.ApplyCalibration,
		ApplyFlawFilter:  cfg.Pipeline.ApplyFlawFilter,
	}
}

// PipelineController turns a sample's raw files into its clean dataset:
//
//	load ─► normalise ─► correct (optional) ─► sort ─► filter (optional)
//
// Stages run strictly in sequence and each returns a new dataset. The first
// failing stage aborts the sample.
type PipelineController struct {
	opts       PipelineOptions
	rules      flaws.RuleSource
	calibrator calibration.Calibrator
	metrics    *utils.Metrics

	files uint64
	rows  uint64
}

// NewPipelineController builds the stage sequence. rules may be nil when
// the flaw filter is disabled.
func NewPipelineController(opts PipelineOptions, rules flaws.RuleSource) *PipelineController {
	return &PipelineController{opts: opts, rules: rules}
}

// WithCalibrator fixes the calibrator instead of loading one from each
// sample's calibration directory.
func (pc *PipelineController) WithCalibrator(c calibration.Calibrator) *PipelineController {
	pc.calibrator = c
	return pc
}

func (pc *PipelineController) WithMetrics(m *utils.Metrics) *PipelineController {
	pc.metrics = m
	return pc
}

// Run processes one sample and returns its clean dataset.
func (pc *PipelineController) Run(ctx context.Context, plan models.SamplePlan) (*models.Dataset, error) {
	ctx, span := utils.Tracer().Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("sample", plan.Name)))
	var err error
	defer func() { utils.EndSpan(span, err) }()
	log := utils.L().With("sample", plan.Name)

	var ds *models.Dataset
	err = pc.stage(ctx, plan.Name, models.StageIngest, func(ctx context.Context) (err error) {
		loader := ingest.NewLoader(plan.Roster, pc.opts.Loader).WithMetrics(pc.metrics, plan.Name)
		ds, err = loader.Load(ctx, plan.Paths().MeasurementData)
		files, rows := loader.Stats()
		pc.files += files
		pc.rows += rows
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.Int64("files", int64(files)),
			attribute.Int64("rows", int64(rows)),
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = pc.stage(ctx, plan.Name, models.StageTimestamp, func(context.Context) (err error) {
		ds, err = ingest.Normalize(ds, pc.opts.Layouts)
		return err
	})
	if err != nil {
		return nil, err
	}

	if pc.opts.ApplyCalibration {
		err = pc.stage(ctx, plan.Name, models.StageCorrect, func(ctx context.Context) error {
			cal, err := pc.calibratorFor(plan)
			if err != nil {
				return &models.CorrectionError{Row: -1, Err: err}
			}
			ds, err = calibration.NewCorrector(cal).Apply(ctx, ds)
			return err
		})
		if err != nil {
			return nil, err
		}
	} else {
		log.Debug("pipeline: %s: calibration disabled", plan.Name)
	}

	ds = ds.SortedByTime()

	if pc.opts.ApplyFlawFilter {
		err = pc.stage(ctx, plan.Name, models.StageFilter, func(ctx context.Context) error {
			if pc.rules == nil {
				return &models.FilterError{Sample: plan.Name, Err: errors.New("no flaw rule source configured")}
			}
			out, err := flaws.NewFilter(pc.rules).WithMetrics(pc.metrics).Apply(ctx, plan.Name, ds)
			if err != nil {
				return err
			}
			ds = out
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		log.Debug("pipeline: %s: flaw filter disabled", plan.Name)
	}

	log.Info("pipeline: %s: clean dataset has %d rows", plan.Name, ds.Len())
	return ds, nil
}

// Loaded returns the raw files and rows read across every Run so far.
func (pc *PipelineController) Loaded() (files, rows uint64) { return pc.files, pc.rows }

func (pc *PipelineController) calibratorFor(plan models.SamplePlan) (calibration.Calibrator, error) {
	if pc.calibrator != nil {
		return pc.calibrator, nil
	}
	return calibration.LoadStore(plan.Paths().CalibrationData)
}

// stage wraps fn in a span and records its duration. A failing stage is
// counted under its own name.
func (pc *PipelineController) stage(ctx context.Context, sample string, name models.Stage, fn func(context.Context) error) error {
	ctx, span := utils.Tracer().Start(ctx, "pipeline."+string(name),
		trace.WithAttributes(attribute.String("sample", sample)))
	start := time.Now()
	err := fn(ctx)
	pc.metrics.ObserveStage(string(name), time.Since(start))
	utils.EndSpan(span, err)
	if err != nil {
		pc.metrics.SampleFailed(string(name))
		return err
	}
	utils.L().Debug("pipeline: %s: %s done in %s", sample, name, time.Since(start).Round(time.Millisecond))
	return nil
}
