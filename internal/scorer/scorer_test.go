package scorer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanternhealth/enforcement-cli/internal/config"
	"github.com/lanternhealth/enforcement-cli/internal/model"
)

func floatPtr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestScoreEmptyRecord(t *testing.T) {
	cfg := DefaultScorerConfig()
	res := Score(model.EnforcementRecord{}, cfg, time.Now())
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, model.SeverityLow, res.Severity)
}

func TestScoreLifeSafetyWithPenalty(t *testing.T) {
	cfg := DefaultScorerConfig()
	rec := model.EnforcementRecord{
		ViolationSummary: "Survey identified a life safety violation in the east wing.",
		KeyViolations:    []string{"life safety violation"},
		PenaltyAmount:    "$5,000",
		PenaltyValue:     floatPtr(5000),
	}

	res := Score(rec, cfg, time.Now())
	assert.GreaterOrEqual(t, res.Score, 70)
	assert.Equal(t, model.SeverityHigh, res.Severity)
}

func TestScoreClampedAt100(t *testing.T) {
	cfg := DefaultScorerConfig()
	now := time.Now()
	rec := model.EnforcementRecord{
		ActionType:       "License Revocation",
		ViolationSummary: "Immediate jeopardy: life safety and fire code violations.",
		KeyViolations: []string{
			"life safety", "fire", "abuse", "neglect", "infection control",
		},
		PenaltyValue:    floatPtr(250_000),
		EnforcementDate: timePtr(now),
	}

	res := Score(rec, cfg, now)
	assert.Equal(t, 100, res.Score)
	assert.Equal(t, model.SeverityHigh, res.Severity)
}

func TestScoreDeterministic(t *testing.T) {
	cfg := DefaultScorerConfig()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := model.EnforcementRecord{
		ActionType:      "Suspension of Admissions",
		KeyViolations:   []string{"staffing", "medication"},
		PenaltyValue:    floatPtr(12_000),
		EnforcementDate: timePtr(now.AddDate(0, 0, -3)),
	}

	first := Score(rec, cfg, now)
	second := Score(rec, cfg, now)
	assert.Equal(t, first, second)
}

func TestSeverityMonotonic(t *testing.T) {
	cfg := DefaultScorerConfig()
	prev := model.SeverityLow
	for score := 0; score <= 100; score++ {
		sev := severityFor(score, cfg)
		assert.GreaterOrEqual(t, sev.Rank(), prev.Rank(), "score %d", score)
		prev = sev
	}
}

func TestScorePenaltyBands(t *testing.T) {
	bands := DefaultScorerConfig().PenaltyBands

	tests := []struct {
		name  string
		value *float64
		want  int
	}{
		{"nil amount", nil, 0},
		{"below all bands", floatPtr(500), 0},
		{"low band", floatPtr(5_000), 15},
		{"mid band", floatPtr(10_000), 25},
		{"top band", floatPtr(75_000), 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scorePenalty(tt.value, bands))
		})
	}
}

func TestScoreRecency(t *testing.T) {
	bonuses := DefaultScorerConfig().RecencyBonuses
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		date *time.Time
		want int
	}{
		{"no date", nil, 0},
		{"same day", timePtr(now), 10},
		{"five days old", timePtr(now.AddDate(0, 0, -5)), 5},
		{"a month old", timePtr(now.AddDate(0, -1, 0)), 0},
		{"future dated", timePtr(now.AddDate(0, 0, 2)), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreRecency(tt.date, bonuses, now))
		})
	}
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(DefaultScorerConfig()))

	bad := DefaultScorerConfig()
	bad.ActionWeights[0].Points = -5
	assert.Error(t, ValidateConfig(bad))

	inverted := DefaultScorerConfig()
	inverted.MediumThreshold = 80
	inverted.HighThreshold = 40
	assert.Error(t, ValidateConfig(inverted))

	outOfRange := DefaultScorerConfig()
	outOfRange.HighThreshold = 140
	assert.Error(t, ValidateConfig(outOfRange))
}

func TestResolveDefaultsWhenEmpty(t *testing.T) {
	got, err := Resolve(config.ScorerConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultScorerConfig(), got)
}

func TestResolveRulesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	rules := `
action_weights:
  - keyword: revocation
    points: 60
violation_weights:
  - keyword: abuse
    points: 45
medium_threshold: 20
high_threshold: 55
`
	require.NoError(t, os.WriteFile(path, []byte(rules), 0o600))

	got, err := Resolve(config.ScorerConfig{RulesFile: path})
	require.NoError(t, err)
	assert.Equal(t, 60, got.ActionWeights[0].Points)
	assert.Equal(t, 55, got.HighThreshold)

	_, err = Resolve(config.ScorerConfig{RulesFile: filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)
}
