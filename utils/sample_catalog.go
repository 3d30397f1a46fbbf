package utils

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"sample-monitor/models"
)

// RosterConfig overrides the default column roster for a sample whose logger
// was wired differently. Omitted families keep their default.
type RosterConfig struct {
	TemperatureMain     []string            `yaml:"temperature_main"`
	TemperatureExternal []string            `yaml:"temperature_external"`
	Moisture            []string            `yaml:"moisture"`
	Power               []string            `yaml:"power"`
	Pairing             []models.SensorPair `yaml:"pairing"`
}

// SampleEntry is one sample in samples.yaml.
type SampleEntry struct {
	Root       string             `yaml:"root"`
	Timestamps []string           `yaml:"timestamps"`
	Props      models.SampleProps `yaml:"sample_props"`
	Roster     *RosterConfig      `yaml:"roster"`
}

// SampleCatalog is the top-level structure for samples.yaml.
type SampleCatalog struct {
	Root    string                 `yaml:"root"`
	Samples map[string]SampleEntry `yaml:"samples"`

	layouts []string
}

// LoadSampleCatalog reads and parses samples.yaml.
func LoadSampleCatalog(path string, layouts []string) (*SampleCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sample catalog: %w", err)
	}
	var cat SampleCatalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse sample catalog: %w", err)
	}
	if len(cat.Samples) == 0 {
		return nil, fmt.Errorf("sample catalog %s declares no samples", path)
	}
	cat.layouts = layouts
	return &cat, nil
}

// Names returns the declared sample names in sorted order.
func (c *SampleCatalog) Names() []string {
	out := make([]string, 0, len(c.Samples))
	for n := range c.Samples {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Select resolves a sample by name into a typed plan.
func (c *SampleCatalog) Select(name string) (models.SamplePlan, error) {
	e, ok := c.Samples[name]
	if !ok {
		return models.SamplePlan{}, fmt.Errorf("sample %q not in catalog", name)
	}
	root := e.Root
	if root == "" {
		root = c.Root
	}
	if root == "" {
		return models.SamplePlan{}, fmt.Errorf("sample %q: no root path", name)
	}

	roster, err := e.Roster.build()
	if err != nil {
		return models.SamplePlan{}, fmt.Errorf("sample %q: %w", name, err)
	}

	plan := models.SamplePlan{Name: name, Root: root, Roster: roster, Props: e.Props}
	for _, raw := range e.Timestamps {
		ts, err := ParseTimestamp(raw, c.layouts)
		if err != nil {
			return models.SamplePlan{}, fmt.Errorf("sample %q: profile timestamp: %w", name, err)
		}
		plan.Timestamps = append(plan.Timestamps, ts)
	}
	return plan, nil
}

func (rc *RosterConfig) build() (*models.Roster, error) {
	if rc == nil {
		return models.DefaultRoster(), nil
	}
	pick := func(v, def []string) []string {
		if len(v) > 0 {
			return v
		}
		return def
	}
	pairs := rc.Pairing
	if len(pairs) == 0 {
		pairs = models.MoisturePairing
	}
	return models.NewRoster(
		pick(rc.TemperatureMain, models.TemperatureMain),
		pick(rc.TemperatureExternal, models.TemperatureExternal),
		pick(rc.Moisture, models.Moisture),
		pick(rc.Power, models.Power),
		pairs,
	)
}
