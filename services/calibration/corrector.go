package calibration

import (
	"context"
	"errors"

	"sample-monitor/models"
	"sample-monitor/utils"
)

// Corrector applies a Calibrator to a dataset in two phases: every
// temperature column first, then every paired moisture column against the
// already corrected reference temperature.
type Corrector struct {
	cal Calibrator
}

func NewCorrector(cal Calibrator) *Corrector {
	return &Corrector{cal: cal}
}

// Apply returns a corrected copy of ds. Columns outside the temperature and
// moisture families pass through unchanged; the column set and row count
// never change.
func (c *Corrector) Apply(ctx context.Context, ds *models.Dataset) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pos := make(map[string]int)
	for i, name := range ds.Columns() {
		pos[name] = i
	}

	rows, err := c.correctTemperatures(ds.Roster(), pos, ds.Rows())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err = c.correctMoistures(ds.Roster(), pos, rows)
	if err != nil {
		return nil, err
	}
	return ds.WithRows(rows)
}

func (c *Corrector) correctTemperatures(roster *models.Roster, pos map[string]int, rows []models.Reading) ([]models.Reading, error) {
	n := 0
	for _, sensor := range roster.Temperatures() {
		col, ok := pos[sensor]
		if !ok {
			continue
		}
		for i := range rows {
			v, err := c.cal.CorrectTemperature(sensor, rows[i].Values[col])
			if err != nil {
				return nil, &models.CorrectionError{Sensor: sensor, Row: i, Err: err}
			}
			rows[i].Values[col] = v
		}
		n++
	}
	utils.L().Debug("calibration: corrected %d temperature columns over %d rows", n, len(rows))
	return rows, nil
}

// correctMoistures reads reference temperatures from rows, which must
// already hold the phase-one output.
func (c *Corrector) correctMoistures(roster *models.Roster, pos map[string]int, rows []models.Reading) ([]models.Reading, error) {
	n := 0
	for _, p := range roster.Pairs() {
		mcol, ok := pos[p.Moisture]
		if !ok {
			continue
		}
		rcol, ok := pos[p.Reference]
		if !ok {
			return nil, &models.CorrectionError{
				Sensor: p.Moisture, Reference: p.Reference, Row: -1,
				Err: errors.New("reference column not in dataset"),
			}
		}
		for i := range rows {
			v, err := c.cal.CorrectMoisture(p.Reference, p.Moisture, rows[i].Values[rcol], rows[i].Values[mcol])
			if err != nil {
				return nil, &models.CorrectionError{Sensor: p.Moisture, Reference: p.Reference, Row: i, Err: err}
			}
			rows[i].Values[mcol] = v
		}
		n++
	}
	utils.L().Debug("calibration: corrected %d moisture columns over %d rows", n, len(rows))
	return rows, nil
}
