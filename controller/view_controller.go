package controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sample-monitor/models"
	"sample-monitor/storage"
	"sample-monitor/utils"
	"sample-monitor/views"
)

// Operation names of the view catalogue, in plot_everything order.
const (
	OpAllCombined                 = "all_combined_plot"
	OpTemperatureSeriesSeparate   = "temperature_series_separate"
	OpTemperatureGradientSeparate = "temperature_gradient_separate"
	OpMoistureSeriesSeparate      = "moisture_series_separate"
	OpMoistureGradientSeparate    = "moisture_gradient_separate"
	OpTemperatureSeriesCombined   = "temperature_series_combined"
	OpTemperatureGradientCombined = "temperature_gradient_combined"
	OpMoistureSeriesCombined      = "moisture_series_combined"
	OpMoistureGradientCombined    = "moisture_gradient_combined"
	OpLast24h                     = "last_24h_plots"
	OpPlotEverything              = "plot_everything"
)

// Figure folders under a sample's figure root.
const (
	FolderCombined            = "01_combined_plots"
	FolderTemperatureSeries   = "02_time_series_temperature"
	FolderMoistureSeries      = "03_time_series_moisture"
	FolderTemperatureGradient = "04_gradient_temperature"
	FolderMoistureGradient    = "05_gradient_moisture"
	FolderLast24h             = "06_last_24_hours"
)

const lastDay = 24 * time.Hour

// quantity picks the temperature or moisture columns of a probe line.
type quantity int

const (
	temperature quantity = iota
	moisture
)

func (q quantity) String() string {
	if q == moisture {
		return "Moisture"
	}
	return "Temperature"
}

// viewRun is the state shared by every view of one dispatch: the clean
// dataset, the elapsed-axis origin and the sample's profile instants.
type viewRun struct {
	plan   models.SamplePlan
	ds     *models.Dataset
	origin time.Time
	scale  views.Scale
}

type viewOp func(ctx context.Context, vc *ViewController, run *viewRun) error

// ViewController dispatches named view operations over a clean dataset.
// Operations never modify the dataset; each builds render requests and
// hands them to the renderer.
type ViewController struct {
	renderer views.Renderer
	scale    views.Scale
	ops      map[string]viewOp
}

// NewViewController binds the catalogue to a renderer. scale is the
// value-axis range of the gradient views; the zero Scale means automatic.
func NewViewController(r views.Renderer, scale views.Scale) *ViewController {
	vc := &ViewController{renderer: r, scale: scale}
	vc.ops = map[string]viewOp{
		OpAllCombined:                 allCombined,
		OpTemperatureSeriesSeparate:   seriesSeparate(temperature, FolderTemperatureSeries),
		OpTemperatureGradientSeparate: gradientSeparate(temperature, FolderTemperatureGradient),
		OpMoistureSeriesSeparate:      seriesSeparate(moisture, FolderMoistureSeries),
		OpMoistureGradientSeparate:    gradientSeparate(moisture, FolderMoistureGradient),
		OpTemperatureSeriesCombined:   seriesCombined(temperature),
		OpTemperatureGradientCombined: gradientCombined(temperature),
		OpMoistureSeriesCombined:      seriesCombined(moisture),
		OpMoistureGradientCombined:    gradientCombined(moisture),
		OpLast24h:                     last24h,
	}
	return vc
}

// Operations lists the catalogue in plot_everything order, followed by
// plot_everything itself.
func Operations() []string {
	return []string{
		OpAllCombined,
		OpTemperatureSeriesSeparate,
		OpTemperatureGradientSeparate,
		OpMoistureSeriesSeparate,
		OpMoistureGradientSeparate,
		OpTemperatureSeriesCombined,
		OpTemperatureGradientCombined,
		OpMoistureSeriesCombined,
		OpMoistureGradientCombined,
		OpLast24h,
		OpPlotEverything,
	}
}

// Run executes one named operation for a sample. The first render error
// aborts the operation.
func (vc *ViewController) Run(ctx context.Context, name string, plan models.SamplePlan, ds *models.Dataset) error {
	run := &viewRun{plan: plan, ds: ds, scale: vc.scale}
	if t, ok := ds.MinTime(); ok {
		run.origin = t
	}

	if name == OpPlotEverything {
		return vc.plotEverything(ctx, run)
	}
	op, ok := vc.ops[name]
	if !ok {
		return fmt.Errorf("views: unknown operation %q (known: %s)", name, strings.Join(Operations(), ", "))
	}
	return vc.exec(ctx, name, op, run)
}

// PlotEverything runs every operation in catalogue order with one shared
// origin and scale.
func (vc *ViewController) PlotEverything(ctx context.Context, plan models.SamplePlan, ds *models.Dataset) error {
	return vc.Run(ctx, OpPlotEverything, plan, ds)
}

// RenderStaged runs op with a renderer bound to an in-memory staging store
// and copies the figures to dst only after every view succeeded. A sample
// whose rendering fails leaves none of its figures in dst.
func RenderStaged(ctx context.Context, dst storage.Store, newRenderer func(storage.Store) views.Renderer,
	scale views.Scale, op string, plan models.SamplePlan, ds *models.Dataset) (int, error) {
	staging := storage.NewMemoryStore()
	if err := NewViewController(newRenderer(staging), scale).Run(ctx, op, plan, ds); err != nil {
		return 0, err
	}
	keys, err := storage.Copy(ctx, staging, dst)
	if err != nil {
		return 0, fmt.Errorf("%s: publish: %w", models.StageRender, err)
	}
	return len(keys), nil
}

func (vc *ViewController) plotEverything(ctx context.Context, run *viewRun) error {
	for _, name := range Operations() {
		if name == OpPlotEverything {
			continue
		}
		if err := vc.exec(ctx, name, vc.ops[name], run); err != nil {
			return err
		}
	}
	return nil
}

func (vc *ViewController) exec(ctx context.Context, name string, op viewOp, run *viewRun) error {
	ctx, span := utils.Tracer().Start(ctx, "views."+name,
		trace.WithAttributes(attribute.String("sample", run.plan.Name)))
	err := op(ctx, vc, run)
	utils.EndSpan(span, err)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", models.StageRender, name, err)
	}
	utils.L().Debug("views: %s: %s done", run.plan.Name, name)
	return nil
}

// ─── request building ───────────────────────────────────────────────────

func (run *viewRun) columns(q quantity, line string) []string {
	if q == moisture {
		return run.ds.Roster().LineMoistures(line)
	}
	return run.ds.Roster().LineTemperatures(line)
}

func (run *viewRun) seriesPanel(q quantity, line string) views.Panel {
	return views.Panel{Title: fmt.Sprintf("%s %s", q, line), Kind: views.PanelSeries, Columns: run.columns(q, line)}
}

func (run *viewRun) gradientPanel(q quantity, line string) views.Panel {
	return views.Panel{Title: fmt.Sprintf("%s gradient %s", q, line), Kind: views.PanelGradient, Columns: run.columns(q, line)}
}

// frame restricts ds to the columns the panels draw.
func frame(ds *models.Dataset, panels []views.Panel) (*models.Dataset, error) {
	var cols []string
	seen := make(map[string]bool)
	for _, p := range panels {
		for _, c := range p.Columns {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	return ds.Select(cols...)
}

// lastDayWindow returns the rows within 24 hours of the latest reading,
// both bounds inclusive. An empty dataset yields an empty frame.
func lastDayWindow(ds *models.Dataset) *models.Dataset {
	end, ok := ds.MaxTime()
	if !ok {
		return ds
	}
	return ds.Window(end.Add(-lastDay), end)
}

func (vc *ViewController) render(ctx context.Context, run *viewRun, src *models.Dataset, req views.RenderRequest, profile string) error {
	p, err := views.LookupProfile(profile)
	if err != nil {
		return err
	}
	fr, err := frame(src, req.Panels)
	if err != nil {
		return err
	}
	req.Sample = run.plan.Name
	req.Profile = p
	req.Origin = run.origin
	req.Instants = run.plan.Timestamps
	req.Scale = run.scale
	req.Frame = fr
	return vc.renderer.Render(ctx, req)
}

// seriesAxes renders one request per x-axis mode: elapsed (no suffix) and
// datetime.
func (vc *ViewController) seriesAxes(ctx context.Context, run *viewRun, req views.RenderRequest, variant, profile string) error {
	for _, axis := range []views.Axis{views.AxisElapsed, views.AxisDatetime} {
		r := req
		r.Axis = axis
		r.Variant = variant
		if axis == views.AxisDatetime {
			r.Variant = joinVariant(variant, string(views.AxisDatetime))
		}
		if err := vc.render(ctx, run, run.ds, r, profile); err != nil {
			return err
		}
	}
	return nil
}

func joinVariant(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "_")
}

// ─── catalogue ──────────────────────────────────────────────────────────

// allCombined draws the 4x3 overview: temperature series, moisture series,
// temperature gradients and moisture gradients, one column per probe line.
func allCombined(ctx context.Context, vc *ViewController, run *viewRun) error {
	var panels []views.Panel
	for _, q := range []quantity{temperature, moisture} {
		for _, line := range models.ProbeLines {
			panels = append(panels, run.seriesPanel(q, line))
		}
	}
	for _, q := range []quantity{temperature, moisture} {
		for _, line := range models.ProbeLines {
			panels = append(panels, run.gradientPanel(q, line))
		}
	}
	req := views.RenderRequest{View: OpAllCombined, Folder: FolderCombined, Axis: views.AxisElapsed, Panels: panels}
	return vc.render(ctx, run, run.ds, req, views.PaperFull4x3)
}

func seriesSeparate(q quantity, folder string) viewOp {
	view := strings.ToLower(q.String()) + "_series"
	return func(ctx context.Context, vc *ViewController, run *viewRun) error {
		for _, line := range models.ProbeLines {
			req := views.RenderRequest{View: view, Folder: folder, Panels: []views.Panel{run.seriesPanel(q, line)}}
			if err := vc.seriesAxes(ctx, run, req, line, views.PaperFull1x1); err != nil {
				return err
			}
		}
		return nil
	}
}

func gradientSeparate(q quantity, folder string) viewOp {
	view := strings.ToLower(q.String()) + "_gradient"
	return func(ctx context.Context, vc *ViewController, run *viewRun) error {
		for _, line := range models.ProbeLines {
			req := views.RenderRequest{
				View: view, Variant: line, Folder: folder, Axis: views.AxisProfile,
				Panels: []views.Panel{run.gradientPanel(q, line)},
			}
			if err := vc.render(ctx, run, run.ds, req, views.PaperPartial1x1); err != nil {
				return err
			}
		}
		return nil
	}
}

func seriesCombined(q quantity) viewOp {
	view := "all_" + strings.ToLower(q.String()) + "_series"
	return func(ctx context.Context, vc *ViewController, run *viewRun) error {
		req := views.RenderRequest{View: view, Folder: FolderCombined, Panels: linePanels(run, q, false)}
		return vc.seriesAxes(ctx, run, req, "", views.PaperFull3x1)
	}
}

func gradientCombined(q quantity) viewOp {
	view := "all_" + strings.ToLower(q.String()) + "_gradients"
	return func(ctx context.Context, vc *ViewController, run *viewRun) error {
		req := views.RenderRequest{View: view, Folder: FolderCombined, Axis: views.AxisProfile, Panels: linePanels(run, q, true)}
		return vc.render(ctx, run, run.ds, req, views.PaperPartial3x1)
	}
}

func linePanels(run *viewRun, q quantity, gradient bool) []views.Panel {
	out := make([]views.Panel, 0, len(models.ProbeLines))
	for _, line := range models.ProbeLines {
		if gradient {
			out = append(out, run.gradientPanel(q, line))
		} else {
			out = append(out, run.seriesPanel(q, line))
		}
	}
	return out
}

// last24h draws the separate and combined series of both quantities over
// the final day, on a datetime axis.
func last24h(ctx context.Context, vc *ViewController, run *viewRun) error {
	window := lastDayWindow(run.ds)
	for _, q := range []quantity{temperature, moisture} {
		name := strings.ToLower(q.String())
		for _, line := range models.ProbeLines {
			req := views.RenderRequest{
				View: name + "_series", Variant: joinVariant(line, "last_24h"),
				Folder: FolderLast24h, Axis: views.AxisDatetime,
				Panels: []views.Panel{run.seriesPanel(q, line)},
			}
			if err := vc.render(ctx, run, window, req, views.PaperFull1x1); err != nil {
				return err
			}
		}
	}
	for _, q := range []quantity{temperature, moisture} {
		req := views.RenderRequest{
			View: "all_" + strings.ToLower(q.String()) + "_series", Variant: "last_24h",
			Folder: FolderLast24h, Axis: views.AxisDatetime,
			Panels: linePanels(run, q, false),
		}
		if err := vc.render(ctx, run, window, req, views.PaperFull3x1); err != nil {
			return err
		}
	}
	return nil
}
