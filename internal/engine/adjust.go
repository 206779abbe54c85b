package engine

import (
	"fmt"
	"strings"

	"github.com/normanking/switchyard/internal/policy"
)

// ═══════════════════════════════════════════════════════════════════════════════
// CONTEXT-AWARE COMPLEXITY ADJUSTMENT
// ═══════════════════════════════════════════════════════════════════════════════

// AdjustComplexity refines the base tier with three ordered passes, each
// shifting by at most one step on the canonical tier order and never past
// its ends:
//
//  1. Plan detection — a prompt that already carries an explicit multi-step
//     plan has its remaining work constrained, so the tier drops one step.
//  2. Subtask detection — a prompt phrased as one step of a larger plan
//     drops one more step, unless the tier is already at the minimum.
//  3. Context size — a small session context narrows scope (drop one), a
//     large one widens it (raise one). Runs last so a genuinely huge
//     context can pull a plan-reduced tier back up.
//
// Every pass that changes the tier appends a trace line to adjustments.
func AdjustComplexity(base policy.Tier, prompt string, sessionContextTokens int, rules policy.ContextRules) (policy.Tier, []string) {
	tier := base
	if !tier.Valid() {
		tier = policy.TierMedium
	}
	var adjustments []string

	// Pass 1: plan detection.
	if len(rules.PlanIndicators) > 0 && rules.MinStepsForReduction > 0 {
		hits := countPlanMarkers(prompt, rules.PlanIndicators)
		if hits >= rules.MinStepsForReduction {
			if lowered := policy.TierAt(tier.Rank() - 1); lowered != tier {
				adjustments = append(adjustments, fmt.Sprintf(
					"plan detected (%d markers >= %d): %s -> %s", hits, rules.MinStepsForReduction, tier, lowered))
				tier = lowered
			}
		}
	}

	// Pass 2: subtask detection.
	if tier.Rank() > 0 && containsAny(prompt, rules.SubtaskIndicators) {
		lowered := policy.TierAt(tier.Rank() - 1)
		adjustments = append(adjustments, fmt.Sprintf("subtask phrasing: %s -> %s", tier, lowered))
		tier = lowered
	}

	// Pass 3: context size. Zero context tokens means the caller supplied no
	// counter, so the pass is skipped rather than treated as "tiny context".
	if sessionContextTokens > 0 {
		switch {
		case rules.SmallContextTokens > 0 && sessionContextTokens < rules.SmallContextTokens:
			if lowered := policy.TierAt(tier.Rank() - 1); lowered != tier {
				adjustments = append(adjustments, fmt.Sprintf(
					"small context (%d < %d tokens): %s -> %s", sessionContextTokens, rules.SmallContextTokens, tier, lowered))
				tier = lowered
			}
		case rules.LargeContextTokens > 0 && sessionContextTokens > rules.LargeContextTokens:
			if raised := policy.TierAt(tier.Rank() + 1); raised != tier {
				adjustments = append(adjustments, fmt.Sprintf(
					"large context (%d > %d tokens): %s -> %s", sessionContextTokens, rules.LargeContextTokens, tier, raised))
				tier = raised
			}
		}
	}

	return tier, adjustments
}

// countPlanMarkers sums non-overlapping occurrences of every plan indicator
// across the prompt, case-insensitively.
func countPlanMarkers(prompt string, indicators []string) int {
	if prompt == "" {
		return 0
	}
	lower := strings.ToLower(prompt)
	total := 0
	for _, marker := range indicators {
		if marker == "" {
			continue
		}
		total += strings.Count(lower, strings.ToLower(marker))
	}
	return total
}

func containsAny(prompt string, literals []string) bool {
	if prompt == "" {
		return false
	}
	lower := strings.ToLower(prompt)
	for _, lit := range literals {
		if lit != "" && strings.Contains(lower, strings.ToLower(lit)) {
			return true
		}
	}
	return false
}
