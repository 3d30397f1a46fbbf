package flaws

import (
	"context"
	"fmt"

	"sample-monitor/models"
	"sample-monitor/utils"
)

// RuleSource supplies the flaw rules declared for a sample. A sample with
// no rules yields an empty slice and no error.
type RuleSource interface {
	Rules(ctx context.Context, sample string) ([]Rule, error)
}

// Filter deletes the rows matching a sample's flaw rules.
type Filter struct {
	src     RuleSource
	metrics *utils.Metrics
}

func NewFilter(src RuleSource) *Filter {
	return &Filter{src: src}
}

func (f *Filter) WithMetrics(m *utils.Metrics) *Filter {
	f.metrics = m
	return f
}

// Apply returns ds without the rows any of the sample's rules match. Rows
// are removed, never masked, and the remaining rows keep their order.
// Filtering an already filtered dataset removes nothing.
func (f *Filter) Apply(ctx context.Context, sample string, ds *models.Dataset) (*models.Dataset, error) {
	rules, err := f.src.Rules(ctx, sample)
	if err != nil {
		return nil, &models.FilterError{Sample: sample, Err: err}
	}
	if len(rules) == 0 {
		utils.L().Debug("flaws: no rules for sample %s", sample)
		return ds, nil
	}
	if !ds.Normalized() {
		return nil, &models.FilterError{Sample: sample, Err: models.ErrNotNormalized}
	}

	pos := make(map[string]int)
	for i, c := range ds.Columns() {
		pos[c] = i
	}
	cols := make([]int, len(rules))
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, &models.FilterError{Sample: sample, Err: err}
		}
		if r.Kind == KindRange {
			p, ok := pos[r.Column]
			if !ok {
				return nil, &models.FilterError{Sample: sample, Err: fmt.Errorf("rule %q: unknown column %q", r.Reason, r.Column)}
			}
			cols[i] = p
		}
	}

	hits := make([]int, len(rules))
	out := ds.Filter(func(row models.Reading) bool {
		for i, r := range rules {
			if r.matches(row, cols[i]) {
				hits[i]++
				return false
			}
		}
		return true
	})

	for i, r := range rules {
		if hits[i] > 0 {
			utils.L().Debug("flaws: %s removed %d rows", r, hits[i])
		}
	}
	removed := ds.Len() - out.Len()
	f.metrics.RowsRemoved(sample, removed)
	utils.L().Info("flaws: sample %s: %d rules removed %d of %d rows", sample, len(rules), removed, ds.Len())
	return out, nil
}
