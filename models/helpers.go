package models

import (
	"math"
	"strconv"
)

// ─── shared formatting helpers (package-private) ────────────────────────

func ftoa(v float64, prec int) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// CSVRowWriter is the interface every exportable table must satisfy.
type CSVRowWriter interface {
	CSVHeader() []string
	CSVRows() [][]string
}
