package flaws

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"sample-monitor/utils"
)

// ruleSpec is one entry of flaws.yaml. Entries with a column are range
// rules, the rest intervals.
type ruleSpec struct {
	From   string   `yaml:"from"`
	To     string   `yaml:"to"`
	Column string   `yaml:"column"`
	Min    *float64 `yaml:"min"`
	Max    *float64 `yaml:"max"`
	Reason string   `yaml:"reason"`
}

// flawsFile is the top-level structure for flaws.yaml.
type flawsFile struct {
	Samples map[string][]ruleSpec `yaml:"samples"`
}

// YAMLSource serves rules parsed from a flaws.yaml file.
type YAMLSource struct {
	rules map[string][]Rule
}

// LoadYAMLSource reads flaws.yaml. Every rule is parsed and validated up
// front so a typo fails the run before any sample is processed.
func LoadYAMLSource(path string, layouts []string) (*YAMLSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flaw rules: %w", err)
	}
	var f flawsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse flaw rules: %w", err)
	}

	src := &YAMLSource{rules: make(map[string][]Rule, len(f.Samples))}
	total := 0
	for sample, specs := range f.Samples {
		for i, s := range specs {
			r, err := s.rule(layouts)
			if err != nil {
				return nil, fmt.Errorf("flaw rules: sample %s entry %d: %w", sample, i, err)
			}
			src.rules[sample] = append(src.rules[sample], r)
		}
		total += len(specs)
	}
	utils.L().Info("flaws: %d rules for %d samples from %s", total, len(src.rules), path)
	return src, nil
}

func (s *YAMLSource) Rules(_ context.Context, sample string) ([]Rule, error) {
	return append([]Rule(nil), s.rules[sample]...), nil
}

func (s ruleSpec) rule(layouts []string) (Rule, error) {
	from, err := optionalTime(s.From, layouts)
	if err != nil {
		return Rule{}, fmt.Errorf("from: %w", err)
	}
	to, err := optionalTime(s.To, layouts)
	if err != nil {
		return Rule{}, fmt.Errorf("to: %w", err)
	}
	r := Interval(from, to, s.Reason)
	if s.Column != "" {
		r = ColumnRange(s.Column, s.Min, s.Max, s.Reason)
		r.From, r.To = from, to
	}
	return r, r.Validate()
}

func optionalTime(v string, layouts []string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return utils.ParseTimestamp(v, layouts)
}
