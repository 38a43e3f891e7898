package scorer

import (
	"strings"
	"time"

	"github.com/lanternhealth/enforcement-cli/internal/config"
	"github.com/lanternhealth/enforcement-cli/internal/model"
)

// Result holds the scoring outcome for a single record, with per-signal
// component scores kept for transparency.
type Result struct {
	Score      int            `json:"score"`
	Severity   model.Severity `json:"severity"`
	Components map[string]int `json:"components"`
}

// Score computes the priority score and severity for a record at the given
// time. It reads only the record and the rule table, so scoring the same
// record twice always yields the same result.
func Score(rec model.EnforcementRecord, cfg config.ScorerConfig, now time.Time) Result {
	components := map[string]int{
		"action":    scoreAction(rec.ActionType, cfg.ActionWeights),
		"violation": scoreViolations(rec, cfg.ViolationWeights),
		"penalty":   scorePenalty(rec.PenaltyValue, cfg.PenaltyBands),
		"count":     scoreCount(len(rec.KeyViolations), cfg.CountBonuses),
		"recency":   scoreRecency(rec.EnforcementDate, cfg.RecencyBonuses, now),
	}

	total := 0
	for _, v := range components {
		total += v
	}
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	return Result{
		Score:      total,
		Severity:   severityFor(total, cfg),
		Components: components,
	}
}

// severityFor maps a score to a severity level. The thresholds are validated
// monotonic, so a higher score never yields a lower severity.
func severityFor(score int, cfg config.ScorerConfig) model.Severity {
	switch {
	case score >= cfg.HighThreshold:
		return model.SeverityHigh
	case score >= cfg.MediumThreshold:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// scoreAction returns the highest weight among action keywords matching the
// action type.
func scoreAction(actionType string, weights []config.KeywordWeight) int {
	return bestKeyword(actionType, weights)
}

// scoreViolations returns the highest weight among violation keywords found
// in the violation summary or any key violation. One dominant violation sets
// the signal; volume is rewarded separately by the count bonus.
func scoreViolations(rec model.EnforcementRecord, weights []config.KeywordWeight) int {
	best := bestKeyword(rec.ViolationSummary, weights)
	for _, v := range rec.KeyViolations {
		if pts := bestKeyword(v, weights); pts > best {
			best = pts
		}
	}
	return best
}

// scorePenalty returns the points of the highest band the parsed penalty
// amount reaches. A missing or unparsed amount contributes nothing.
func scorePenalty(value *float64, bands []config.PenaltyBand) int {
	if value == nil {
		return 0
	}
	best := 0
	for _, b := range bands {
		if *value >= b.Min && b.Points > best {
			best = b.Points
		}
	}
	return best
}

// scoreCount returns the points of the highest bonus the key-violation count
// reaches.
func scoreCount(count int, bonuses []config.CountBonus) int {
	best := 0
	for _, b := range bonuses {
		if count >= b.Min && b.Points > best {
			best = b.Points
		}
	}
	return best
}

// scoreRecency returns the points of the tightest recency window the
// enforcement date falls inside at scoring time. Future-dated records count
// as age zero.
func scoreRecency(date *time.Time, bonuses []config.RecencyBonus, now time.Time) int {
	if date == nil {
		return 0
	}
	age := now.Sub(*date)
	if age < 0 {
		age = 0
	}
	ageDays := int(age.Hours() / 24)

	best := 0
	for _, b := range bonuses {
		if ageDays <= b.MaxAgeDays && b.Points > best {
			best = b.Points
		}
	}
	return best
}

// bestKeyword returns the highest weight among keywords contained
// (case-insensitive) in the given text.
func bestKeyword(text string, weights []config.KeywordWeight) int {
	if text == "" {
		return 0
	}
	lowered := strings.ToLower(text)
	best := 0
	for _, kw := range weights {
		if kw.Points > best && strings.Contains(lowered, strings.ToLower(kw.Keyword)) {
			best = kw.Points
		}
	}
	return best
}
