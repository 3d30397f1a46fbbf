package views

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"sample-monitor/models"
	"sample-monitor/storage"
	"sample-monitor/utils"
)

// palette cycles through line colours; the three probe lines of a combined
// figure get the same colours in the same order.
var palette = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("8c564b"),
	drawing.ColorFromHex("e377c2"),
	drawing.ColorFromHex("7f7f7f"),
	drawing.ColorFromHex("bcbd22"),
	drawing.ColorFromHex("17becf"),
}

const datetimeFormat = "01-02 15:04"

// ChartRenderer draws figures with go-chart, tiles the panels into the
// profile grid and stores one PNG per request.
type ChartRenderer struct {
	store   storage.Store
	runID   string
	metrics *utils.Metrics
	now     func() time.Time
}

func NewChartRenderer(store storage.Store) *ChartRenderer {
	return &ChartRenderer{store: store, runID: uuid.NewString(), now: time.Now}
}

func (r *ChartRenderer) WithMetrics(m *utils.Metrics) *ChartRenderer {
	r.metrics = m
	return r
}

// RunID identifies every figure written by this renderer.
func (r *ChartRenderer) RunID() string { return r.runID }

// Render draws req and stores it under req.Key(). Requests with an empty
// frame are skipped.
func (r *ChartRenderer) Render(ctx context.Context, req RenderRequest) error {
	key := req.Key()
	if req.Empty() {
		utils.L().Debug("render: skip %s (empty frame)", key)
		return nil
	}
	if len(req.Panels) > req.Profile.Panels() {
		return fmt.Errorf("render %s: %d panels do not fit profile %s", key, len(req.Panels), req.Profile.Name)
	}

	tw, th := req.Profile.TileSize()
	canvas := image.NewRGBA(image.Rect(0, 0, req.Profile.Width, req.Profile.Height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	for i, p := range req.Panels {
		if err := ctx.Err(); err != nil {
			return err
		}
		tile, err := r.renderPanel(req, p, tw, th)
		if err != nil {
			return fmt.Errorf("render %s panel %q: %w", key, p.Title, err)
		}
		if tile == nil {
			continue
		}
		at := image.Pt((i%req.Profile.Cols)*tw, (i/req.Profile.Cols)*th)
		draw.Draw(canvas, image.Rectangle{Min: at, Max: at.Add(tile.Bounds().Size())}, tile, tile.Bounds().Min, draw.Over)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return fmt.Errorf("render %s: encode: %w", key, err)
	}
	info, err := r.store.Put(ctx, key, bytes.NewReader(buf.Bytes()), storage.PutOptions{
		ContentType: "image/png",
		Metadata: map[string]string{
			"run-id":       r.runID,
			"sample":       req.Sample,
			"view":         req.View,
			"variant":      req.Variant,
			"profile":      req.Profile.Name,
			"rows":         strconv.Itoa(req.Frame.Len()),
			"generated-at": r.now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("render %s: store: %w", key, err)
	}
	r.metrics.FigureRendered(req.View)
	utils.L().Info("render: %s (%d bytes, %d rows)", key, info.Size, req.Frame.Len())
	return nil
}

// renderPanel returns nil when the panel has nothing to draw.
func (r *ChartRenderer) renderPanel(req RenderRequest, p Panel, w, h int) (image.Image, error) {
	var (
		series []chart.Series
		xr, yr span
		xAxis  chart.XAxis
		yAxis  chart.YAxis
	)
	q := QuantityTemperature
	if len(p.Columns) > 0 {
		q = ColumnQuantity(req.Frame.Roster(), p.Columns[0])
	}

	switch p.Kind {
	case PanelGradient:
		series, xr, yr = gradientSeries(req, p)
		if req.Scale.IsSet() {
			xr = span{min: req.Scale.Min, max: req.Scale.Max, ok: true}
		}
		ticks := make([]chart.Tick, len(p.Columns))
		for j, c := range p.Columns {
			ticks[j] = chart.Tick{Value: float64(j + 1), Label: c}
		}
		xAxis = chart.XAxis{Name: q.AxisLabel()}
		yAxis = chart.YAxis{Name: "Position", Ticks: ticks}
		yr = span{min: 0.5, max: float64(len(p.Columns)) + 0.5, ok: true}
	default:
		series, xr, yr = timeSeries(req, p)
		xAxis = chart.XAxis{Name: "Elapsed time [h]"}
		if req.Axis == AxisDatetime {
			xAxis = chart.XAxis{Name: "Time", ValueFormatter: chart.TimeValueFormatterWithFormat(datetimeFormat)}
		}
		yAxis = chart.YAxis{Name: q.AxisLabel()}
	}
	if len(series) == 0 {
		return nil, nil
	}
	xr.pad()
	yr.pad()
	xAxis.Range = &chart.ContinuousRange{Min: xr.min, Max: xr.max}
	yAxis.Range = &chart.ContinuousRange{Min: yr.min, Max: yr.max}

	ch := chart.Chart{
		Title:      p.Title,
		Width:      w,
		Height:     h,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      xAxis,
		YAxis:      yAxis,
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

// span is a running min/max.
type span struct {
	min, max float64
	ok       bool
}

func (s *span) add(v float64) {
	if !s.ok {
		s.min, s.max, s.ok = v, v, true
		return
	}
	s.min = math.Min(s.min, v)
	s.max = math.Max(s.max, v)
}

// pad widens a degenerate range so the axis has a non-zero extent.
func (s *span) pad() {
	if s.max > s.min {
		return
	}
	d := math.Max(math.Abs(s.min)*0.01, 0.5)
	s.min, s.max = s.min-d, s.max+d
}

func lineStyle(i int, points int) chart.Style {
	st := chart.Style{StrokeColor: palette[i%len(palette)], StrokeWidth: 1.5}
	if points == 1 {
		st.DotColor = st.StrokeColor
		st.DotWidth = 3
	}
	return st
}

// timeSeries builds one line per column. NaN cells are left out, so a gap
// in the data is drawn as a gap in the markers rather than as zero.
func timeSeries(req RenderRequest, p Panel) ([]chart.Series, span, span) {
	var out []chart.Series
	var xr, yr span
	times := req.Frame.Times()
	elapsed := utils.ElapsedHours(req.Origin, times)
	for i, col := range p.Columns {
		vals, err := req.Frame.Column(col)
		if err != nil {
			continue
		}
		var ts []time.Time
		var xs, ys []float64
		for j, v := range vals {
			if math.IsNaN(v) {
				continue
			}
			var x float64
			if req.Axis == AxisDatetime {
				ts = append(ts, times[j])
				x = chart.TimeToFloat64(times[j])
			} else {
				x = elapsed[j]
				xs = append(xs, x)
			}
			ys = append(ys, v)
			xr.add(x)
			yr.add(v)
		}
		n := len(ys)
		if n == 0 {
			continue
		}
		// go-chart needs two points per line
		if n == 1 {
			ys = append(ys, ys[0])
			if ts != nil {
				ts = append(ts, ts[0])
			} else {
				xs = append(xs, xs[0])
			}
		}
		if req.Axis == AxisDatetime {
			out = append(out, chart.TimeSeries{Name: col, XValues: ts, YValues: ys, Style: lineStyle(i, n)})
		} else {
			out = append(out, chart.ContinuousSeries{Name: col, XValues: xs, YValues: ys, Style: lineStyle(i, n)})
		}
	}
	return out, xr, yr
}

// gradientSeries builds one line per profile instant: x is the value at
// each position, y the position index (1 = first column).
func gradientSeries(req RenderRequest, p Panel) ([]chart.Series, span, span) {
	var out []chart.Series
	var xr, yr span
	for i, at := range req.Instants {
		row, ok := req.Frame.At(at)
		if !ok {
			continue
		}
		var xs, ys []float64
		for j, col := range p.Columns {
			v, ok := rowValue(req.Frame, row, col)
			if !ok || math.IsNaN(v) {
				continue
			}
			xs = append(xs, v)
			ys = append(ys, float64(j+1))
			xr.add(v)
			yr.add(float64(j + 1))
		}
		n := len(xs)
		if n == 0 {
			continue
		}
		if n == 1 {
			xs, ys = append(xs, xs[0]), append(ys, ys[0])
		}
		out = append(out, chart.ContinuousSeries{
			Name:    utils.FormatTimestamp(row.Time),
			XValues: xs,
			YValues: ys,
			Style:   lineStyle(i, n),
		})
	}
	return out, xr, yr
}

func rowValue(ds *models.Dataset, row models.Reading, col string) (float64, bool) {
	for i, c := range ds.Columns() {
		if c == col {
			return row.Values[i], true
		}
	}
	return math.NaN(), false
}
