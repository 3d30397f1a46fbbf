package models

import (
	"errors"
	"fmt"
)

// Stage names a pipeline step in error messages, logs and metrics.
type Stage string

const (
	StageIngest    Stage = "ingest"
	StageTimestamp Stage = "timestamp"
	StageCorrect   Stage = "correct"
	StageFilter    Stage = "filter"
	StageRender    Stage = "render"
)

var (
	// ErrUnknownSensor is wrapped by CorrectionError when the calibration
	// data has no entry for a sensor.
	ErrUnknownSensor = errors.New("no calibration entry for sensor")
	// ErrPairingMismatch is wrapped by CorrectionError when calibration data
	// pairs a moisture sensor with a different reference than the roster.
	ErrPairingMismatch = errors.New("moisture pairing mismatch")
	// ErrNotNormalized is wrapped by FilterError when time rules are applied
	// to a dataset whose index was never parsed.
	ErrNotNormalized = errors.New("dataset index is not normalised")
)

// IngestError reports a missing directory or an unreadable / malformed file.
type IngestError struct {
	Path string
	Line int // 0 when the error is not tied to a line
	Err  error
}

func (e *IngestError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s:%d: %v", StageIngest, e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", StageIngest, e.Path, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// TimestampParseError reports an index value that no layout accepts.
type TimestampParseError struct {
	Row    int // 0-based row in the concatenated dataset
	Source string
	Line   int
	Value  string
	Err    error
}

func (e *TimestampParseError) Error() string {
	return fmt.Sprintf("%s: row %d (%s:%d): cannot parse %q: %v",
		StageTimestamp, e.Row, e.Source, e.Line, e.Value, e.Err)
}

func (e *TimestampParseError) Unwrap() error { return e.Err }

// CorrectionError reports a calibration lookup failure.
type CorrectionError struct {
	Sensor    string
	Reference string // set for moisture corrections
	Row       int    // -1 when raised before any row is touched
	Err       error
}

func (e *CorrectionError) Error() string {
	if e.Sensor == "" {
		return fmt.Sprintf("%s: %v", StageCorrect, e.Err)
	}
	sensor := e.Sensor
	if e.Reference != "" {
		sensor = e.Sensor + "/" + e.Reference
	}
	if e.Row >= 0 {
		return fmt.Sprintf("%s: sensor %s row %d: %v", StageCorrect, sensor, e.Row, e.Err)
	}
	return fmt.Sprintf("%s: sensor %s: %v", StageCorrect, sensor, e.Err)
}

func (e *CorrectionError) Unwrap() error { return e.Err }

// FilterError reports a flaw rule source failure or an unusable dataset.
type FilterError struct {
	Sample string
	Err    error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("%s: sample %s: %v", StageFilter, e.Sample, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }

// StageOf returns the pipeline stage an error belongs to, or "" when the
// error is not one of the typed pipeline errors.
func StageOf(err error) Stage {
	var (
		ie *IngestError
		te *TimestampParseError
		ce *CorrectionError
		fe *FilterError
	)
	switch {
	case errors.As(err, &ie):
		return StageIngest
	case errors.As(err, &te):
		return StageTimestamp
	case errors.As(err, &ce):
		return StageCorrect
	case errors.As(err, &fe):
		return StageFilter
	}
	return ""
}
