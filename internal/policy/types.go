// Package policy defines the routing policy model: the Strategy × TaskType ×
// ComplexityTier matrix, the indicator tables the classifiers score against,
// context-adjustment rules, and file-pattern overrides. A Policy is built once
// (from a declarative document or the built-in default), validated, and frozen;
// live replacement goes through Store, which swaps whole snapshots atomically.
package policy

import (
	"fmt"
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════════
// COMPLEXITY TIERS
// ═══════════════════════════════════════════════════════════════════════════════

// Tier is one bucket of the ordered complexity scale.
type Tier string

const (
	TierSimple   Tier = "simple"
	TierMedium   Tier = "medium"
	TierComplex  Tier = "complex"
	TierAdvanced Tier = "advanced"
)

// TierOrder is the canonical ordering, lowest first. The context adjuster's
// raise/lower-by-one operations are defined against this slice.
var TierOrder = []Tier{TierSimple, TierMedium, TierComplex, TierAdvanced}

// Rank returns the position of t in the canonical order, or -1 if t is not
// a canonical tier.
func (t Tier) Rank() int {
	for i, name := range TierOrder {
		if name == t {
			return i
		}
	}
	return -1
}

// Valid reports whether t belongs to the canonical tier set.
func (t Tier) Valid() bool { return t.Rank() >= 0 }

// String returns the tier name for display.
func (t Tier) String() string { return string(t) }

// TierAt returns the tier at the given rank, clamped to the canonical range.
func TierAt(rank int) Tier {
	if rank < 0 {
		rank = 0
	}
	if rank >= len(TierOrder) {
		rank = len(TierOrder) - 1
	}
	return TierOrder[rank]
}

// ═══════════════════════════════════════════════════════════════════════════════
// MODEL SELECTIONS
// ═══════════════════════════════════════════════════════════════════════════════

// Selection is an ordered, non-empty list of model identifiers in
// "provider/model" shape. Index 0 is the primary; the rest are fallbacks.
type Selection []string

// Primary returns the first identifier, or "" for an empty selection.
func (s Selection) Primary() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// ═══════════════════════════════════════════════════════════════════════════════
// INDICATORS
// ═══════════════════════════════════════════════════════════════════════════════

// Indicator holds the lexical signals for one task type or complexity tier:
// literal keywords matched as case-insensitive substrings, and regular
// expressions matched case-insensitively against the whole prompt.
type Indicator struct {
	Keywords []string
	Patterns []string

	// Compiled holds the successfully compiled patterns. Populated by
	// compile(); malformed patterns are dropped rather than kept as errors
	// so a bad pattern in a policy document can never break classification.
	Compiled []*regexp.Regexp `yaml:"-"`
}

// compile builds Compiled from Patterns, skipping anything that fails to
// parse. Patterns are wrapped with (?i) so matching is case-insensitive.
func (ind *Indicator) compile() {
	ind.Compiled = ind.Compiled[:0]
	for _, p := range ind.Patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			continue
		}
		ind.Compiled = append(ind.Compiled, re)
	}
}

// TokenRange is an inclusive token-count window used by the complexity
// classifier's range bonus.
type TokenRange struct {
	Min int
	Max int
}

// Contains reports whether n falls inside the inclusive range.
func (r TokenRange) Contains(n int) bool { return n >= r.Min && n <= r.Max }

// TaskTypeRule names a task type and its indicators. Rules keep their
// declared order: the classifier's tie-break picks the earliest declared
// rule, so order is part of the policy's meaning.
type TaskTypeRule struct {
	Name string
	Indicator
}

// TierRule names a complexity tier, its indicators, and an optional token
// window. Like task types, declared order decides ties.
type TierRule struct {
	Tier Tier
	Indicator
	TokenRange *TokenRange
}

// ═══════════════════════════════════════════════════════════════════════════════
// CONTEXT RULES
// ═══════════════════════════════════════════════════════════════════════════════

// ContextRules configures the complexity adjustment passes that run after
// base classification.
type ContextRules struct {
	// PlanIndicators are literals counted across the prompt; when the total
	// reaches MinStepsForReduction the prompt is treated as carrying an
	// explicit plan and the tier drops one step.
	PlanIndicators       []string
	MinStepsForReduction int

	// SubtaskIndicators are literals whose presence marks the prompt as one
	// step of a larger piece of work.
	SubtaskIndicators []string

	// SmallContextTokens and LargeContextTokens bound the session-context
	// window. Below small lowers the tier, above large raises it. A zero
	// threshold disables that side of the check.
	SmallContextTokens int
	LargeContextTokens int
}

// ═══════════════════════════════════════════════════════════════════════════════
// OVERRIDES
// ═══════════════════════════════════════════════════════════════════════════════

// Override re-routes work that touches matching file paths. Exactly one of
// Model or TaskTypeOverride should be set: Model replaces the resolved
// selection outright, TaskTypeOverride re-resolves under a different task
// type. Overrides are consulted in declared order and only the first match
// applies.
type Override struct {
	Pattern          string
	Model            string
	TaskTypeOverride string
	Reason           string
}

// ═══════════════════════════════════════════════════════════════════════════════
// WEIGHTS
// ═══════════════════════════════════════════════════════════════════════════════

// Weights holds the scoring constants. The defaults are empirical, not
// derived; they are kept configurable so operators can tune them without a
// rebuild, but any fixed set of values yields reproducible classifications.
type Weights struct {
	Keyword       int // per keyword found as a substring
	Pattern       int // per regex pattern that matches
	TokenRange    int // bonus when the token estimate falls in a tier's range
	CharsPerToken int // divisor for the character-to-token estimate
}

// DefaultWeights returns the stock scoring constants.
func DefaultWeights() Weights {
	return Weights{Keyword: 10, Pattern: 15, TokenRange: 20, CharsPerToken: 4}
}

// normalize replaces negative score weights with defaults and guarantees a
// positive token divisor. A zero score weight is legal: it switches that
// signal off.
func (w *Weights) normalize() {
	d := DefaultWeights()
	if w.Keyword < 0 {
		w.Keyword = d.Keyword
	}
	if w.Pattern < 0 {
		w.Pattern = d.Pattern
	}
	if w.TokenRange < 0 {
		w.TokenRange = d.TokenRange
	}
	if w.CharsPerToken <= 0 {
		w.CharsPerToken = d.CharsPerToken
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// POLICY
// ═══════════════════════════════════════════════════════════════════════════════

// GeneralTaskType is the universal fallback category. Every policy must
// declare it, and every strategy reachable from an agent mapping must carry
// matrix entries for it.
const GeneralTaskType = "general"

// Policy is the immutable routing policy snapshot. Matrix is keyed
// strategy → task type → tier; missing cells resolve through the general
// task type and finally DefaultModel.
type Policy struct {
	// Strategies lists the declared strategy names in order.
	Strategies []string

	// DefaultStrategy is used when a request names no strategy or an
	// unknown one.
	DefaultStrategy string

	// DefaultModel is the terminal fallback when no matrix cell resolves.
	DefaultModel string

	TaskTypes []TaskTypeRule
	TierRules []TierRule

	Matrix map[string]map[string]map[Tier]Selection

	Context   ContextRules
	Overrides []Override

	// Agents maps agent names to strategies so hosts can route per persona.
	Agents map[string]string

	Weights Weights
}

// Finalize compiles every indicator's patterns and normalizes weights.
// Must be called once after a Policy is materialized and before it is used
// for classification.
func (p *Policy) Finalize() {
	p.Weights.normalize()
	for i := range p.TaskTypes {
		p.TaskTypes[i].compile()
	}
	for i := range p.TierRules {
		p.TierRules[i].compile()
	}
}

// HasStrategy reports whether name is a declared strategy.
func (p *Policy) HasStrategy(name string) bool {
	for _, s := range p.Strategies {
		if s == name {
			return true
		}
	}
	return false
}

// ResolveStrategy maps a requested strategy name to a declared one, falling
// back to DefaultStrategy for empty or unknown names.
func (p *Policy) ResolveStrategy(name string) string {
	if name != "" && p.HasStrategy(name) {
		return name
	}
	return p.DefaultStrategy
}

// StrategyForAgent returns the strategy mapped to the given agent, or the
// default strategy when the agent is unknown.
func (p *Policy) StrategyForAgent(agent string) string {
	if s, ok := p.Agents[strings.ToLower(agent)]; ok {
		return p.ResolveStrategy(s)
	}
	return p.DefaultStrategy
}

// Validate checks the structural invariants that must hold before a policy
// may become the active snapshot. A policy that fails validation is rejected
// wholesale; the previous snapshot stays in force.
func (p *Policy) Validate() error {
	if len(p.Strategies) == 0 {
		return fmt.Errorf("policy declares no strategies")
	}
	if p.DefaultStrategy == "" {
		return fmt.Errorf("default_strategy is required")
	}
	if !p.HasStrategy(p.DefaultStrategy) {
		return fmt.Errorf("default_strategy %q is not a declared strategy", p.DefaultStrategy)
	}
	if p.DefaultModel == "" {
		return fmt.Errorf("default_model is required")
	}

	hasGeneral := false
	seenTypes := map[string]bool{}
	for _, tt := range p.TaskTypes {
		if tt.Name == "" {
			return fmt.Errorf("task type with empty name")
		}
		if seenTypes[tt.Name] {
			return fmt.Errorf("duplicate task type %q", tt.Name)
		}
		seenTypes[tt.Name] = true
		if tt.Name == GeneralTaskType {
			hasGeneral = true
		}
	}
	if !hasGeneral {
		return fmt.Errorf("task type %q must be declared", GeneralTaskType)
	}

	seenTiers := map[Tier]bool{}
	for _, tr := range p.TierRules {
		if !tr.Tier.Valid() {
			return fmt.Errorf("complexity tier %q is not in the canonical set", tr.Tier)
		}
		if seenTiers[tr.Tier] {
			return fmt.Errorf("duplicate complexity tier %q", tr.Tier)
		}
		seenTiers[tr.Tier] = true
	}

	for strategy, byType := range p.Matrix {
		if !p.HasStrategy(strategy) {
			return fmt.Errorf("matrix references undeclared strategy %q", strategy)
		}
		for taskType, byTier := range byType {
			if !seenTypes[taskType] {
				return fmt.Errorf("matrix[%s] references undeclared task type %q", strategy, taskType)
			}
			for tier, sel := range byTier {
				if !tier.Valid() {
					return fmt.Errorf("matrix[%s][%s] references tier %q outside the canonical set", strategy, taskType, tier)
				}
				if len(sel) == 0 {
					return fmt.Errorf("matrix[%s][%s][%s] has an empty model selection", strategy, taskType, tier)
				}
				for _, id := range sel {
					if strings.TrimSpace(id) == "" {
						return fmt.Errorf("matrix[%s][%s][%s] contains a blank model identifier", strategy, taskType, tier)
					}
				}
			}
		}
	}

	// Any strategy an agent can reach must be able to fall back through the
	// general task type or the default model; the general declaration above
	// plus DefaultModel guarantees resolution terminates, but the mapped
	// strategy itself must exist.
	for agent, strategy := range p.Agents {
		if !p.HasStrategy(strategy) {
			return fmt.Errorf("agent %q maps to undeclared strategy %q", agent, strategy)
		}
	}

	for i, ov := range p.Overrides {
		if ov.Pattern == "" {
			return fmt.Errorf("override %d has an empty pattern", i)
		}
		if ov.Model == "" && ov.TaskTypeOverride == "" {
			return fmt.Errorf("override %q sets neither model nor task type", ov.Pattern)
		}
		if ov.TaskTypeOverride != "" && !seenTypes[ov.TaskTypeOverride] {
			return fmt.Errorf("override %q references undeclared task type %q", ov.Pattern, ov.TaskTypeOverride)
		}
	}

	if p.Context.MinStepsForReduction <= 0 && len(p.Context.PlanIndicators) > 0 {
		return fmt.Errorf("context.min_steps_for_reduction must be positive when plan indicators are set")
	}
	if p.Context.SmallContextTokens > 0 && p.Context.LargeContextTokens > 0 &&
		p.Context.SmallContextTokens >= p.Context.LargeContextTokens {
		return fmt.Errorf("context.small_context_tokens must be below large_context_tokens")
	}

	return nil
}

// Cell returns the selection at matrix[strategy][taskType][tier], if present.
func (p *Policy) Cell(strategy, taskType string, tier Tier) (Selection, bool) {
	byType, ok := p.Matrix[strategy]
	if !ok {
		return nil, false
	}
	byTier, ok := byType[taskType]
	if !ok {
		return nil, false
	}
	sel, ok := byTier[tier]
	return sel, ok
}
