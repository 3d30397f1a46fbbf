package views

import (
	"context"
	"path"
	"time"

	"sample-monitor/models"
)

// Axis selects the x axis of series panels.
type Axis string

const (
	AxisElapsed  Axis = "elapsed"  // hours since the run origin
	AxisDatetime Axis = "datetime" // calendar time
	AxisProfile  Axis = "profile"  // gradient panels: value along probe positions
)

// PanelKind selects how a panel turns the frame into lines.
type PanelKind int

const (
	// PanelSeries draws one line per column over time.
	PanelSeries PanelKind = iota
	// PanelGradient draws one line per profile instant across the columns,
	// which are ordered by probe position.
	PanelGradient
)

// Panel is one cell of a figure grid.
type Panel struct {
	Title   string
	Kind    PanelKind
	Columns []string
}

// Scale is a value-axis range shared by the views of one run. The zero
// value means automatic.
type Scale struct {
	Min float64
	Max float64
}

func (s Scale) IsSet() bool { return s.Max > s.Min }

// RenderRequest is everything a renderer needs to draw and store one
// figure. Frame is already windowed and must not be modified.
type RenderRequest struct {
	View     string
	Variant  string
	Sample   string
	Folder   string
	Profile  Profile
	Axis     Axis
	Origin   time.Time // elapsed axis origin
	Instants []time.Time
	Scale    Scale
	Frame    *models.Dataset
	Panels   []Panel
}

// Key returns the storage key of the figure:
//
//	<folder>/<sample>_<view>[_<variant>].png
func (r RenderRequest) Key() string {
	name := r.Sample + "_" + r.View
	if r.Variant != "" {
		name += "_" + r.Variant
	}
	return path.Join(r.Folder, name+".png")
}

// Empty reports whether the request has no rows to draw.
func (r RenderRequest) Empty() bool { return r.Frame == nil || r.Frame.Len() == 0 }

// Renderer draws and persists figures.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) error
}
