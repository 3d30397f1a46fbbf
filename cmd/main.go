package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"sample-monitor/controller"
	"sample-monitor/models"
	"sample-monitor/services/flaws"
	"sample-monitor/storage"
	"sample-monitor/utils"
	"sample-monitor/views"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ────────────────────────────────────────────────────
	configPath := flag.String("config", "config/pipeline.yaml", "path to pipeline.yaml")
	samples := flag.String("sample", "", "comma-separated sample names (default: every sample in the catalogue)")
	view := flag.String("view", "", "view operation, one of: "+strings.Join(controller.Operations(), ", "))
	scaleMin := flag.Float64("scale-min", 0, "gradient value-axis minimum")
	scaleMax := flag.Float64("scale-max", 0, "gradient value-axis maximum (0: automatic)")
	logFile := flag.String("log", "", "optional log file path (stdout is always included)")
	flag.Parse()

	// ── Load config ──────────────────────────────────────────────────
	cfg, err := utils.LoadPipelineConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load pipeline config: %v\n", err)
		return 2
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "view":
			cfg.Views.Operation = *view
		case "scale-min":
			cfg.Views.ScaleMin = *scaleMin
		case "scale-max":
			cfg.Views.ScaleMax = *scaleMax
		case "log":
			cfg.Logging.File = *logFile
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		return 2
	}

	// ── Logger ───────────────────────────────────────────────────────
	logger := utils.InitLogger(utils.LogOptions{
		Level:  utils.ParseLogLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	defer logger.Close()

	utils.L().Info("═══════════════════════════════════════════════════")
	utils.L().Info("  Sample-Monitor  ·  %s", utils.RunName("run", time.Now()))
	utils.L().Info("  GOMAXPROCS=%d  ·  PID=%d", runtime.GOMAXPROCS(0), os.Getpid())
	utils.L().Info("═══════════════════════════════════════════════════")

	// ── Context with OS signal cancellation ──────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := utils.SetupTracing(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTelEndpoint)
	if err != nil {
		utils.L().Error("tracing disabled: %v", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			utils.L().Warn("tracing shutdown: %v", err)
		}
	}()
	metrics := utils.NewMetrics()

	catalog, err := utils.LoadSampleCatalog(cfg.Pipeline.SamplesFile, cfg.Layouts())
	if err != nil {
		utils.L().Error("%v", err)
		return 2
	}

	var rules flaws.RuleSource
	if cfg.Pipeline.ApplyFlawFilter {
		src, closeRules, err := openRuleSource(ctx, cfg)
		if err != nil {
			utils.L().Error("flaw rules: %v", err)
			return 2
		}
		defer closeRules()
		rules = src
	}

	pipeline := controller.NewPipelineController(controller.PipelineOptionsFromConfig(cfg), rules).
		WithMetrics(metrics)

	names := catalog.Names()
	if *samples != "" {
		names = splitList(*samples)
	}

	// ── Per-sample loop ──────────────────────────────────────────────
	//
	//  raw files ─► PipelineController ─► clean dataset ─► ViewController ─► ChartRenderer ─► store
	//                                                   └─► ExportController (optional)
	failed := 0
	for i, name := range names {
		if ctx.Err() != nil {
			utils.L().Warn("interrupted; %d samples not processed", len(names)-i)
			failed += len(names) - i
			break
		}
		start := time.Now()
		if err := processSample(ctx, cfg, catalog, pipeline, metrics, name); err != nil {
			utils.L().Error("sample %s failed: %v", name, err)
			failed++
			continue
		}
		utils.L().Info("sample %s done in %s", name, time.Since(start).Round(time.Millisecond))
	}

	files, rows := pipeline.Loaded()
	utils.L().Info("ingested %d files, %d rows", files, rows)

	if err := metrics.WriteTextfile(cfg.Telemetry.MetricsTextfile); err != nil {
		utils.L().Warn("write metrics: %v", err)
	}

	if failed > 0 {
		utils.L().Error("%d of %d samples failed", failed, len(names))
		return 1
	}
	fmt.Printf("\n✓ Sample-Monitor finished: %d samples\n", len(names))
	return 0
}

func processSample(ctx context.Context, cfg *utils.PipelineConfig, catalog *utils.SampleCatalog,
	pipeline *controller.PipelineController, metrics *utils.Metrics, name string) error {
	plan, err := catalog.Select(name)
	if err != nil {
		return err
	}
	ds, err := pipeline.Run(ctx, plan)
	if err != nil {
		return err
	}

	store, err := storage.OpenForSample(ctx, cfg.Output, plan)
	if err != nil {
		return err
	}
	var runID string
	newRenderer := func(staging storage.Store) views.Renderer {
		r := views.NewChartRenderer(staging).WithMetrics(metrics)
		runID = r.RunID()
		return r
	}
	scale := views.Scale{Min: cfg.Views.ScaleMin, Max: cfg.Views.ScaleMax}
	n, err := controller.RenderStaged(ctx, store, newRenderer, scale, cfg.Views.Operation, plan, ds)
	if err != nil {
		metrics.SampleFailed(string(models.StageRender))
		return err
	}
	utils.L().Info("sample %s: %d figures written to %s store (run %s)", name, n, store.Driver(), runID)

	if cfg.Output.ExportCleanCSV {
		if _, err := controller.NewExportController(store).Export(ctx, plan, ds); err != nil {
			return err
		}
	}
	return nil
}

// openRuleSource opens the configured flaw rule source. The returned
// close func is always safe to call.
func openRuleSource(ctx context.Context, cfg *utils.PipelineConfig) (flaws.RuleSource, func(), error) {
	noop := func() {}
	switch cfg.Flaws.Driver {
	case "yaml":
		src, err := flaws.LoadYAMLSource(cfg.Flaws.Path, cfg.Layouts())
		return src, noop, err
	case "sqlite", "postgres":
		dsn := cfg.Flaws.DSN
		if cfg.Flaws.Driver == "sqlite" {
			dsn = cfg.Flaws.Path
		}
		src, err := flaws.OpenSQLSource(ctx, cfg.Flaws.Driver, dsn, cfg.Layouts())
		if err != nil {
			return nil, noop, err
		}
		return src, func() { _ = src.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown driver %q", cfg.Flaws.Driver)
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
