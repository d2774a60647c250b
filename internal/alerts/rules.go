package alerts

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses human-friendly values like "5m" from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse window %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type RuleSet struct {
	Rules []RuleConfig `yaml:"rules"`
}

type RuleConfig struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Severity    string    `yaml:"severity"`
	Window      Duration  `yaml:"window"`
	Threshold   int       `yaml:"threshold"`
	Match       RuleMatch `yaml:"match"`
}

type RuleMatch struct {
	Action string `yaml:"action"`
}

func LoadRules(path string) ([]RuleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, err
	}
	for i := range rs.Rules {
		if rs.Rules[i].Window == 0 {
			rs.Rules[i].Window = Duration(5 * time.Minute)
		}
		if rs.Rules[i].Threshold <= 0 {
			rs.Rules[i].Threshold = 5
		}
	}
	return rs.Rules, nil
}
