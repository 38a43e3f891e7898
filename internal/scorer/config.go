// Package scorer assigns a severity level and a priority score to
// enforcement records. Scoring is a pure function of the record and the
// rule table; the rule table itself is configuration.
package scorer

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/lanternhealth/enforcement-cli/internal/config"
)

// DefaultScorerConfig returns the built-in rule table. Action and violation
// keywords are matched case-insensitively as substrings.
func DefaultScorerConfig() config.ScorerConfig {
	return config.ScorerConfig{
		ActionWeights: []config.KeywordWeight{
			{Keyword: "revocation", Points: 40},
			{Keyword: "revoke", Points: 40},
			{Keyword: "suspension", Points: 40},
			{Keyword: "cease", Points: 30},
			{Keyword: "curtailment", Points: 20},
			{Keyword: "penalty", Points: 15},
		},
		ViolationWeights: []config.KeywordWeight{
			{Keyword: "life safety", Points: 50},
			{Keyword: "immediate jeopardy", Points: 50},
			{Keyword: "patient harm", Points: 40},
			{Keyword: "abuse", Points: 35},
			{Keyword: "neglect", Points: 35},
			{Keyword: "fire", Points: 25},
			{Keyword: "infection control", Points: 20},
			{Keyword: "medication", Points: 15},
			{Keyword: "staffing", Points: 10},
			{Keyword: "record keeping", Points: 5},
			{Keyword: "reporting", Points: 5},
		},
		PenaltyBands: []config.PenaltyBand{
			{Min: 50_000, Points: 30},
			{Min: 10_000, Points: 25},
			{Min: 1_000, Points: 15},
		},
		CountBonuses: []config.CountBonus{
			{Min: 5, Points: 15},
			{Min: 3, Points: 10},
			{Min: 1, Points: 5},
		},
		RecencyBonuses: []config.RecencyBonus{
			{MaxAgeDays: 1, Points: 10},
			{MaxAgeDays: 7, Points: 5},
		},
		MediumThreshold: 30,
		HighThreshold:   70,
	}
}

// Resolve returns the effective rule table: the built-in defaults, the
// in-config table when any rule list is set, or the RulesFile contents when
// one is named. The result is validated before use.
func Resolve(cfg config.ScorerConfig) (config.ScorerConfig, error) {
	effective := cfg
	if isEmpty(effective) {
		effective = DefaultScorerConfig()
	}

	if cfg.RulesFile != "" {
		loaded, err := LoadRules(cfg.RulesFile)
		if err != nil {
			return config.ScorerConfig{}, err
		}
		effective = loaded
	}

	if err := ValidateConfig(effective); err != nil {
		return config.ScorerConfig{}, err
	}
	return effective, nil
}

// LoadRules reads a complete rule table from a YAML file.
func LoadRules(path string) (config.ScorerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config.ScorerConfig{}, eris.Wrapf(err, "scorer: read rules file %s", path)
	}

	var cfg config.ScorerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return config.ScorerConfig{}, eris.Wrapf(err, "scorer: parse rules file %s", path)
	}
	return cfg, nil
}

// isEmpty reports whether no rule list has been configured at all.
func isEmpty(c config.ScorerConfig) bool {
	return len(c.ActionWeights) == 0 &&
		len(c.ViolationWeights) == 0 &&
		len(c.PenaltyBands) == 0 &&
		len(c.CountBonuses) == 0 &&
		len(c.RecencyBonuses) == 0
}

// ValidateConfig checks that a rule table is internally consistent.
func ValidateConfig(c config.ScorerConfig) error {
	var errs []string

	for _, kw := range c.ActionWeights {
		if kw.Keyword == "" {
			errs = append(errs, "action keyword must be non-empty")
		}
		if kw.Points < 0 {
			errs = append(errs, fmt.Sprintf("action keyword %q points must be >= 0", kw.Keyword))
		}
	}
	for _, kw := range c.ViolationWeights {
		if kw.Keyword == "" {
			errs = append(errs, "violation keyword must be non-empty")
		}
		if kw.Points < 0 {
			errs = append(errs, fmt.Sprintf("violation keyword %q points must be >= 0", kw.Keyword))
		}
	}
	for _, b := range c.PenaltyBands {
		if b.Min < 0 {
			errs = append(errs, "penalty band min must be >= 0")
		}
		if b.Points < 0 {
			errs = append(errs, "penalty band points must be >= 0")
		}
	}
	for _, b := range c.CountBonuses {
		if b.Min < 0 {
			errs = append(errs, "count bonus min must be >= 0")
		}
		if b.Points < 0 {
			errs = append(errs, "count bonus points must be >= 0")
		}
	}
	for _, b := range c.RecencyBonuses {
		if b.MaxAgeDays < 0 {
			errs = append(errs, "recency bonus max_age_days must be >= 0")
		}
		if b.Points < 0 {
			errs = append(errs, "recency bonus points must be >= 0")
		}
	}

	// Severity cut points must be monotonic so a higher score can never map
	// to a lower severity.
	if c.MediumThreshold < 0 || c.MediumThreshold > 100 {
		errs = append(errs, "medium_threshold must be between 0 and 100")
	}
	if c.HighThreshold < 0 || c.HighThreshold > 100 {
		errs = append(errs, "high_threshold must be between 0 and 100")
	}
	if c.HighThreshold < c.MediumThreshold {
		errs = append(errs, "high_threshold must be >= medium_threshold")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
