package views

import "sample-monitor/models"

// Quantity labels and units per column family. This file is the single
// source of truth for how columns are named on axes and in exports.

// Quantity identifies what a column measures.
type Quantity int

const (
	QuantityTemperature Quantity = iota
	QuantityMoisture
	QuantityPower
)

var quantityLabels = map[Quantity]string{
	QuantityTemperature: "Temperature",
	QuantityMoisture:    "Volumetric water content",
	QuantityPower:       "Heater power",
}

var quantityUnits = map[Quantity]string{
	QuantityTemperature: "°C",
	QuantityMoisture:    "m³/m³",
	QuantityPower:       "W",
}

func (q Quantity) String() string { return quantityLabels[q] }

// Unit returns the physical unit of the quantity.
func (q Quantity) Unit() string { return quantityUnits[q] }

// AxisLabel returns "<label> [<unit>]".
func (q Quantity) AxisLabel() string { return q.String() + " [" + q.Unit() + "]" }

// QuantityOf maps a roster family onto its quantity.
func QuantityOf(f models.Family) Quantity {
	switch f {
	case models.FamilyMoisture:
		return QuantityMoisture
	case models.FamilyPower:
		return QuantityPower
	default:
		return QuantityTemperature
	}
}

// ColumnQuantity returns the quantity of a named column of roster.
func ColumnQuantity(roster *models.Roster, column string) Quantity {
	f, _ := roster.FamilyOf(column)
	return QuantityOf(f)
}

// ExportHeader returns the clean-data CSV header: the timestamp followed by
// every column of ds annotated with its unit, e.g. "U1 [°C]".
func ExportHeader(ds *models.Dataset) []string {
	cols := ds.Columns()
	out := make([]string, 0, len(cols)+1)
	out = append(out, "timestamp")
	for _, c := range cols {
		out = append(out, c+" ["+ColumnQuantity(ds.Roster(), c).Unit()+"]")
	}
	return out
}
