package views

import (
	"fmt"
	"sort"
)

// Profile is a named figure layout: a rows × cols panel grid on a canvas of
// Width × Height pixels.
type Profile struct {
	Name   string
	Rows   int
	Cols   int
	Width  int
	Height int
}

// Panels returns the number of grid cells.
func (p Profile) Panels() int { return p.Rows * p.Cols }

// TileSize returns the pixel size of one grid cell.
func (p Profile) TileSize() (w, h int) { return p.Width / p.Cols, p.Height / p.Rows }

const (
	PaperFull1x1    = "std_paper_1x1_full_width"
	PaperPartial1x1 = "std_paper_1x1_partial_width"
	PaperFull3x1    = "std_paper_3x1_full_width"
	PaperPartial3x1 = "std_paper_3x1_partial_width"
	PaperFull4x3    = "std_paper_4x3_full_width"
)

// Full-width figures span a paper column pair; partial-width ones are
// sized for a profile next to text.
var profiles = map[string]Profile{
	PaperFull1x1:    {Name: PaperFull1x1, Rows: 1, Cols: 1, Width: 1600, Height: 900},
	PaperPartial1x1: {Name: PaperPartial1x1, Rows: 1, Cols: 1, Width: 900, Height: 900},
	PaperFull3x1:    {Name: PaperFull3x1, Rows: 3, Cols: 1, Width: 1600, Height: 1800},
	PaperPartial3x1: {Name: PaperPartial3x1, Rows: 3, Cols: 1, Width: 900, Height: 1800},
	PaperFull4x3:    {Name: PaperFull4x3, Rows: 4, Cols: 3, Width: 2400, Height: 2400},
}

// LookupProfile returns a named formatting profile.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("views: unknown formatting profile %q", name)
	}
	return p, nil
}

// ProfileNames lists the known profiles in sorted order.
func ProfileNames() []string {
	out := make([]string, 0, len(profiles))
	for n := range profiles {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
