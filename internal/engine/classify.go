package engine

import (
	"strings"

	"github.com/normanking/switchyard/internal/policy"
)

// ═══════════════════════════════════════════════════════════════════════════════
// TASK-TYPE CLASSIFICATION
// ═══════════════════════════════════════════════════════════════════════════════

// ClassifyTaskType scores the prompt against every declared task type and
// returns the best match with its score. Each keyword found as a substring
// of the normalized prompt adds the keyword weight; each matching pattern
// adds the pattern weight. On a tie the earliest declared task type wins,
// and a prompt that triggers nothing classifies as general.
func ClassifyTaskType(f Features, p *policy.Policy) (string, int) {
	best := policy.GeneralTaskType
	bestScore := 0

	for _, rule := range p.TaskTypes {
		score := scoreIndicator(f, rule.Indicator, p.Weights)
		if score > bestScore {
			best = rule.Name
			bestScore = score
		}
	}
	return best, bestScore
}

// ═══════════════════════════════════════════════════════════════════════════════
// COMPLEXITY CLASSIFICATION
// ═══════════════════════════════════════════════════════════════════════════════

// ClassifyComplexity scores the prompt against every declared complexity
// tier. Scoring mirrors the task-type classifier, with one addition: a tier
// whose token window contains the prompt's token estimate earns the range
// bonus. Ties go to the earliest declared tier; a prompt that triggers
// nothing classifies as medium.
func ClassifyComplexity(f Features, p *policy.Policy) (policy.Tier, int) {
	best := policy.TierMedium
	bestScore := 0

	for _, rule := range p.TierRules {
		score := scoreIndicator(f, rule.Indicator, p.Weights)
		if rule.TokenRange != nil && f.TokenEstimate > 0 && rule.TokenRange.Contains(f.TokenEstimate) {
			score += p.Weights.TokenRange
		}
		if score > bestScore {
			best = rule.Tier
			bestScore = score
		}
	}
	return best, bestScore
}

// scoreIndicator computes the weighted signal count for one indicator set.
// Keywords count once each regardless of repetition; patterns were compiled
// at policy load time, so malformed ones have already been dropped and
// contribute nothing here.
func scoreIndicator(f Features, ind policy.Indicator, w policy.Weights) int {
	if f.Normalized == "" {
		return 0
	}
	score := 0
	for _, kw := range ind.Keywords {
		if kw != "" && strings.Contains(f.Normalized, strings.ToLower(kw)) {
			score += w.Keyword
		}
	}
	for _, re := range ind.Compiled {
		if re.MatchString(f.Raw) {
			score += w.Pattern
		}
	}
	return score
}
