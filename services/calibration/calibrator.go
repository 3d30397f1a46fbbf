package calibration

// Calibrator maps raw sensor values to calibrated ones. Implementations are
// read-only for the duration of a correction pass.
type Calibrator interface {
	// CorrectTemperature returns the calibrated value of one temperature
	// reading.
	CorrectTemperature(sensor string, raw float64) (float64, error)

	// CorrectMoisture returns the calibrated value of one moisture reading.
	// correctedRef is the already-calibrated temperature of the paired
	// reference sensor in the same row.
	CorrectMoisture(reference, moisture string, correctedRef, rawMoisture float64) (float64, error)
}

// Identity returns every value unchanged.
type Identity struct{}

func (Identity) CorrectTemperature(_ string, raw float64) (float64, error) { return raw, nil }

func (Identity) CorrectMoisture(_, _ string, _, rawMoisture float64) (float64, error) {
	return rawMoisture, nil
}
