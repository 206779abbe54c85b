package policy

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ═══════════════════════════════════════════════════════════════════════════════
// VERSIONED DOCUMENT SCHEMAS
// ═══════════════════════════════════════════════════════════════════════════════
//
// Routing policies are authored as YAML documents. The on-disk schema has
// evolved (version 1 carried flat single-model cells, version 2 added
// list-valued cells, overrides, agents and context rules), so each version is
// an adapter that normalizes into the one internal Policy model. Version
// branching ends here; the classifiers never see it.

// docHeader is decoded first to pick the schema adapter.
type docHeader struct {
	Version int `yaml:"version"`
}

// Parse decodes a policy document, normalizes it into a Policy, finalizes
// indicator compilation, and validates it. A document that fails any of
// those steps yields an error and no policy.
func Parse(data []byte) (*Policy, error) {
	var hdr docHeader
	if err := yaml.Unmarshal(data, &hdr); err != nil {
		return nil, fmt.Errorf("failed to parse policy document: %w", err)
	}

	var (
		p   *Policy
		err error
	)
	switch hdr.Version {
	case 0, 1:
		p, err = parseV1(data)
	case 2:
		p, err = parseV2(data)
	default:
		return nil, fmt.Errorf("unsupported policy schema version %d", hdr.Version)
	}
	if err != nil {
		return nil, err
	}

	p.Finalize()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	return p, nil
}

// ParseFile reads and parses a policy document from disk.
func ParseFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return Parse(data)
}

// ═══════════════════════════════════════════════════════════════════════════════
// SHARED DOCUMENT FRAGMENTS
// ═══════════════════════════════════════════════════════════════════════════════

// docSelection accepts either a scalar model identifier or a sequence.
type docSelection []string

func (s *docSelection) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var one string
		if err := node.Decode(&one); err != nil {
			return err
		}
		*s = docSelection{one}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		*s = docSelection(many)
		return nil
	default:
		return fmt.Errorf("model selection must be a string or a list, got %s", node.Tag)
	}
}

type docIndicator struct {
	Keywords []string `yaml:"keywords"`
	Patterns []string `yaml:"patterns"`
}

type docTokenRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type docTaskType struct {
	Name         string `yaml:"name"`
	docIndicator `yaml:",inline"`
}

type docTierRule struct {
	Name         string         `yaml:"name"`
	docIndicator `yaml:",inline"`
	TokenRange   *docTokenRange `yaml:"tokenRange"`
}

type docContext struct {
	PlanIndicators       []string `yaml:"planIndicators"`
	MinStepsForReduction int      `yaml:"minStepsForReduction"`
	SubtaskIndicators    []string `yaml:"subtaskIndicators"`
	SmallContextTokens   int      `yaml:"smallContextTokens"`
	LargeContextTokens   int      `yaml:"largeContextTokens"`
}

type docOverride struct {
	Pattern          string `yaml:"pattern"`
	Model            string `yaml:"model"`
	TaskTypeOverride string `yaml:"taskTypeOverride"`
	Reason           string `yaml:"reason"`
}

// docWeights uses pointers so an absent field and an explicit zero are
// distinguishable: absent keeps the default, zero disables that signal.
type docWeights struct {
	Keyword       *int `yaml:"keyword"`
	Pattern       *int `yaml:"pattern"`
	TokenRange    *int `yaml:"tokenRange"`
	CharsPerToken *int `yaml:"charsPerToken"`
}

func (d *docWeights) merge(w *Weights) {
	if d == nil {
		return
	}
	if d.Keyword != nil {
		w.Keyword = *d.Keyword
	}
	if d.Pattern != nil {
		w.Pattern = *d.Pattern
	}
	if d.TokenRange != nil {
		w.TokenRange = *d.TokenRange
	}
	if d.CharsPerToken != nil {
		w.CharsPerToken = *d.CharsPerToken
	}
}

func convertIndicator(d docIndicator) Indicator {
	return Indicator{Keywords: d.Keywords, Patterns: d.Patterns}
}

func convertTaskTypes(in []docTaskType) []TaskTypeRule {
	out := make([]TaskTypeRule, 0, len(in))
	for _, tt := range in {
		out = append(out, TaskTypeRule{Name: tt.Name, Indicator: convertIndicator(tt.docIndicator)})
	}
	return out
}

func convertTierRules(in []docTierRule) []TierRule {
	out := make([]TierRule, 0, len(in))
	for _, tr := range in {
		rule := TierRule{Tier: Tier(tr.Name), Indicator: convertIndicator(tr.docIndicator)}
		if tr.TokenRange != nil {
			rule.TokenRange = &TokenRange{Min: tr.TokenRange.Min, Max: tr.TokenRange.Max}
		}
		out = append(out, rule)
	}
	return out
}

// ═══════════════════════════════════════════════════════════════════════════════
// VERSION 2 (CURRENT)
// ═══════════════════════════════════════════════════════════════════════════════

type docV2 struct {
	Version         int               `yaml:"version"`
	DefaultStrategy string            `yaml:"defaultStrategy"`
	DefaultModel    string            `yaml:"defaultModel"`
	Weights         *docWeights       `yaml:"weights"`
	TaskTypes       []docTaskType     `yaml:"taskTypes"`
	Complexity      []docTierRule     `yaml:"complexity"`
	Context         docContext        `yaml:"context"`
	Strategies      []docStrategy     `yaml:"strategies"`
	Overrides       []docOverride     `yaml:"overrides"`
	Agents          map[string]string `yaml:"agents"`
}

type docStrategy struct {
	Name   string                             `yaml:"name"`
	Models map[string]map[string]docSelection `yaml:"models"` // taskType -> tier -> selection
}

func parseV2(data []byte) (*Policy, error) {
	var doc docV2
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse v2 policy: %w", err)
	}

	p := &Policy{
		DefaultStrategy: doc.DefaultStrategy,
		DefaultModel:    doc.DefaultModel,
		TaskTypes:       convertTaskTypes(doc.TaskTypes),
		TierRules:       convertTierRules(doc.Complexity),
		Context: ContextRules{
			PlanIndicators:       doc.Context.PlanIndicators,
			MinStepsForReduction: doc.Context.MinStepsForReduction,
			SubtaskIndicators:    doc.Context.SubtaskIndicators,
			SmallContextTokens:   doc.Context.SmallContextTokens,
			LargeContextTokens:   doc.Context.LargeContextTokens,
		},
		Matrix:  make(map[string]map[string]map[Tier]Selection),
		Agents:  make(map[string]string),
		Weights: DefaultWeights(),
	}

	doc.Weights.merge(&p.Weights)

	for _, st := range doc.Strategies {
		p.Strategies = append(p.Strategies, st.Name)
		byType := make(map[string]map[Tier]Selection)
		for taskType, byTierDoc := range st.Models {
			byTier := make(map[Tier]Selection)
			for tier, sel := range byTierDoc {
				byTier[Tier(tier)] = Selection(sel)
			}
			byType[taskType] = byTier
		}
		p.Matrix[st.Name] = byType
	}

	for agent, strategy := range doc.Agents {
		p.Agents[strings.ToLower(agent)] = strategy
	}

	for _, ov := range doc.Overrides {
		p.Overrides = append(p.Overrides, Override{
			Pattern:          ov.Pattern,
			Model:            ov.Model,
			TaskTypeOverride: ov.TaskTypeOverride,
			Reason:           ov.Reason,
		})
	}

	return p, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// VERSION 1 (LEGACY)
// ═══════════════════════════════════════════════════════════════════════════════

// Version 1 documents predate overrides, agents and fallback lists: each
// matrix cell is a single model string and strategies are a nested mapping.
// Documents without an explicit version field are treated as v1.
type docV1 struct {
	Version         int                                     `yaml:"version"`
	DefaultStrategy string                                  `yaml:"defaultStrategy"`
	DefaultModel    string                                  `yaml:"defaultModel"`
	TaskTypes       []docTaskType                           `yaml:"taskTypes"`
	Complexity      []docTierRule                           `yaml:"complexity"`
	Context         docContext                              `yaml:"context"`
	Strategies      map[string]map[string]map[string]string `yaml:"strategies"`
	StrategyOrder   []string                                `yaml:"strategyOrder"`
}

func parseV1(data []byte) (*Policy, error) {
	var doc docV1
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse v1 policy: %w", err)
	}

	p := &Policy{
		DefaultStrategy: doc.DefaultStrategy,
		DefaultModel:    doc.DefaultModel,
		TaskTypes:       convertTaskTypes(doc.TaskTypes),
		TierRules:       convertTierRules(doc.Complexity),
		Context: ContextRules{
			PlanIndicators:       doc.Context.PlanIndicators,
			MinStepsForReduction: doc.Context.MinStepsForReduction,
			SubtaskIndicators:    doc.Context.SubtaskIndicators,
			SmallContextTokens:   doc.Context.SmallContextTokens,
			LargeContextTokens:   doc.Context.LargeContextTokens,
		},
		Matrix:  make(map[string]map[string]map[Tier]Selection),
		Agents:  make(map[string]string),
		Weights: DefaultWeights(),
	}

	// v1 strategy mappings carry no order; honor an optional strategyOrder
	// list and fall back to sorted-by-name determinism via the order keys
	// appear after normalization.
	ordered := doc.StrategyOrder
	if len(ordered) == 0 {
		for name := range doc.Strategies {
			ordered = append(ordered, name)
		}
		sort.Strings(ordered)
	}

	for _, name := range ordered {
		byTypeDoc, ok := doc.Strategies[name]
		if !ok {
			return nil, fmt.Errorf("strategyOrder references unknown strategy %q", name)
		}
		p.Strategies = append(p.Strategies, name)
		byType := make(map[string]map[Tier]Selection)
		for taskType, byTierDoc := range byTypeDoc {
			byTier := make(map[Tier]Selection)
			for tier, model := range byTierDoc {
				byTier[Tier(tier)] = Selection{model}
			}
			byType[taskType] = byTier
		}
		p.Matrix[name] = byType
	}

	return p, nil
}
