package flaws

import (
	"fmt"
	"math"
	"time"

	"sample-monitor/models"
)

// Kind distinguishes the two rule shapes.
type Kind string

const (
	// KindInterval deletes every row inside a closed time interval.
	KindInterval Kind = "interval"
	// KindRange deletes rows whose column value leaves a valid band,
	// optionally only inside a time interval.
	KindRange Kind = "range"
)

// Rule declares one class of known-bad rows for a sample. A zero From or To
// leaves that side of the interval open.
type Rule struct {
	Kind   Kind
	From   time.Time
	To     time.Time
	Column string   // range rules
	Min    *float64 // valid band, inclusive; nil = unbounded
	Max    *float64
	Reason string
}

// Interval returns a time-interval rule.
func Interval(from, to time.Time, reason string) Rule {
	return Rule{Kind: KindInterval, From: from, To: to, Reason: reason}
}

// ColumnRange returns a rule deleting rows where column lies outside
// [min, max].
func ColumnRange(column string, min, max *float64, reason string) Rule {
	return Rule{Kind: KindRange, Column: column, Min: min, Max: max, Reason: reason}
}

func (r Rule) Validate() error {
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return fmt.Errorf("rule %q: interval ends before it starts", r.Reason)
	}
	switch r.Kind {
	case KindInterval:
		if r.From.IsZero() && r.To.IsZero() {
			return fmt.Errorf("rule %q: interval with both bounds open deletes everything", r.Reason)
		}
	case KindRange:
		if r.Column == "" {
			return fmt.Errorf("rule %q: range rule without column", r.Reason)
		}
		if r.Min == nil && r.Max == nil {
			return fmt.Errorf("rule %q: range rule without bounds", r.Reason)
		}
		if r.Min != nil && r.Max != nil && *r.Max < *r.Min {
			return fmt.Errorf("rule %q: max below min", r.Reason)
		}
	default:
		return fmt.Errorf("rule %q: unknown kind %q", r.Reason, r.Kind)
	}
	return nil
}

func (r Rule) inInterval(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// matches reports whether row must be deleted. col is the position of
// r.Column in the row (range rules only). NaN never leaves a band.
func (r Rule) matches(row models.Reading, col int) bool {
	if !r.inInterval(row.Time) {
		return false
	}
	if r.Kind == KindInterval {
		return true
	}
	v := row.Values[col]
	if math.IsNaN(v) {
		return false
	}
	return (r.Min != nil && v < *r.Min) || (r.Max != nil && v > *r.Max)
}

func (r Rule) String() string {
	bound := func(t time.Time) string {
		if t.IsZero() {
			return "…"
		}
		return t.Format(models.TimestampLayout)
	}
	if r.Kind == KindRange {
		return fmt.Sprintf("%s outside band [%s, %s] (%s)", r.Column, fbound(r.Min, "-inf"), fbound(r.Max, "+inf"), r.Reason)
	}
	return fmt.Sprintf("[%s, %s] (%s)", bound(r.From), bound(r.To), r.Reason)
}

func fbound(v *float64, open string) string {
	if v == nil {
		return open
	}
	return fmt.Sprintf("%g", *v)
}
