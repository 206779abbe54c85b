package engine

import (
	"strings"
	"testing"

	"github.com/normanking/switchyard/internal/policy"
)

// testPolicy builds a small, fully controlled policy so scoring assertions
// do not depend on the built-in defaults.
func testPolicy(t *testing.T) *policy.Policy {
	t.Helper()

	p := &policy.Policy{
		Strategies:      []string{"cost-optimized", "balanced"},
		DefaultStrategy: "balanced",
		DefaultModel:    "fallback/default-model",
		TaskTypes: []policy.TaskTypeRule{
			{Name: "coding", Indicator: policy.Indicator{
				Keywords: []string{"fix", "bug"},
				Patterns: []string{`\berror\b`},
			}},
			{Name: "docs", Indicator: policy.Indicator{
				Keywords: []string{"readme", "docs"},
			}},
			{Name: "tied-a", Indicator: policy.Indicator{Keywords: []string{"ambivalent"}}},
			{Name: "tied-b", Indicator: policy.Indicator{Keywords: []string{"ambivalent"}}},
			{Name: "general"},
		},
		TierRules: []policy.TierRule{
			{Tier: policy.TierSimple, Indicator: policy.Indicator{
				Keywords: []string{"quick"},
			}, TokenRange: &policy.TokenRange{Min: 0, Max: 10}},
			{Tier: policy.TierMedium, Indicator: policy.Indicator{
				Keywords: []string{"update"},
			}, TokenRange: &policy.TokenRange{Min: 11, Max: 100}},
			{Tier: policy.TierComplex, Indicator: policy.Indicator{
				Keywords: []string{"refactor"},
			}, TokenRange: &policy.TokenRange{Min: 101, Max: 2000}},
			{Tier: policy.TierAdvanced, Indicator: policy.Indicator{
				Keywords: []string{"rewrite everything"},
			}},
		},
		Context: policy.ContextRules{
			PlanIndicators:       []string{"step 1", "step 2", "step 3"},
			MinStepsForReduction: 3,
			SubtaskIndicators:    []string{"from the plan", "subtask"},
			SmallContextTokens:   1000,
			LargeContextTokens:   100000,
		},
		Matrix: map[string]map[string]map[policy.Tier]policy.Selection{
			"cost-optimized": {
				"coding": {
					policy.TierSimple: {"cheap/coder-small"},
					policy.TierMedium: {"cheap/coder-medium", "cheap/coder-backup"},
				},
				"general": {
					policy.TierSimple: {"cheap/general-small"},
					policy.TierMedium: {"cheap/general-medium"},
				},
			},
			"balanced": {
				"coding": {
					policy.TierSimple:  {"mid/coder-small"},
					policy.TierMedium:  {"mid/coder-medium"},
					policy.TierComplex: {"big/coder-large", "mid/coder-medium"},
				},
				"docs": {
					policy.TierSimple: {"cheap/writer"},
					policy.TierMedium: {"cheap/writer"},
				},
				"general": {
					policy.TierMedium:  {"mid/general"},
					policy.TierComplex: {"big/general"},
				},
			},
		},
		Overrides: []policy.Override{
			{Pattern: "**/security/**", Model: "big/security-model", Reason: "security paths"},
			{Pattern: "**/*.md", TaskTypeOverride: "docs", Reason: "markdown is documentation"},
		},
		Weights: policy.DefaultWeights(),
	}

	p.Finalize()
	if err := p.Validate(); err != nil {
		t.Fatalf("test policy invalid: %v", err)
	}
	return p
}

func TestClassifyTaskType(t *testing.T) {
	p := testPolicy(t)

	tests := []struct {
		name      string
		prompt    string
		wantType  string
		wantScore int
	}{
		{
			name:      "keyword and pattern stack",
			prompt:    "fix the bug causing this error",
			wantType:  "coding",
			wantScore: 35, // fix + bug keywords, error pattern
		},
		{
			name:      "single keyword",
			prompt:    "polish the readme",
			wantType:  "docs",
			wantScore: 10,
		},
		{
			name:      "no signal falls back to general",
			prompt:    "hello there",
			wantType:  "general",
			wantScore: 0,
		},
		{
			name:      "empty prompt is general",
			prompt:    "",
			wantType:  "general",
			wantScore: 0,
		},
		{
			name:      "tie goes to earlier declared type",
			prompt:    "something ambivalent",
			wantType:  "tied-a",
			wantScore: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ExtractFeatures(tt.prompt, p.Weights.CharsPerToken)
			gotType, gotScore := ClassifyTaskType(f, p)
			if gotType != tt.wantType {
				t.Errorf("ClassifyTaskType() = %q, want %q", gotType, tt.wantType)
			}
			if gotScore != tt.wantScore {
				t.Errorf("score = %d, want %d", gotScore, tt.wantScore)
			}
		})
	}
}

func TestClassifyTaskType_Deterministic(t *testing.T) {
	p := testPolicy(t)
	f := ExtractFeatures("something ambivalent", 4)

	first, _ := ClassifyTaskType(f, p)
	for i := 0; i < 50; i++ {
		got, _ := ClassifyTaskType(f, p)
		if got != first {
			t.Fatalf("run %d: ClassifyTaskType() = %q, want stable %q", i, got, first)
		}
	}
}

func TestClassifyComplexity(t *testing.T) {
	p := testPolicy(t)

	tests := []struct {
		name     string
		prompt   string
		wantTier policy.Tier
	}{
		{
			// "quick question" = 14 chars -> 4 tokens, inside simple's range:
			// keyword 10 + range bonus 20.
			name:     "keyword plus token range",
			prompt:   "quick question",
			wantTier: policy.TierSimple,
		},
		{
			name: "keyword plus matching range picks complex",
			prompt: "refactor the session handling layer so retries share one backoff path, " +
				"then split the connection pool out of the transport package, move the " +
				"credential refresh loop behind an interface, and update every call site " +
				"in the gateway, the scheduler, and the batch importer to use it. The " +
				"change has to preserve the existing retry budget semantics and keep the " +
				"per-tenant rate limits intact, so walk through each caller and adjust " +
				"the tests that pin the old behavior before switching the default over.",
			wantTier: policy.TierComplex,
		},
		{
			name:     "short refactor prompt stays medium on range bonus",
			prompt:   "refactor the session handling layer so retries share one backoff path",
			wantTier: policy.TierMedium,
		},
		{
			// No keywords, but 1 estimated token sits in simple's 0-10
			// range, so the range bonus alone decides the tier.
			name:     "range bonus alone picks simple",
			prompt:   "zzz",
			wantTier: policy.TierSimple,
		},
		{
			// ~2125 estimated tokens fall outside every declared range
			// and no keyword matches, so nothing scores at all.
			name:     "no signal defaults to medium",
			prompt:   strings.Repeat("zzzz ", 1700),
			wantTier: policy.TierMedium,
		},
		{
			name:     "empty prompt defaults to medium",
			prompt:   "",
			wantTier: policy.TierMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ExtractFeatures(tt.prompt, p.Weights.CharsPerToken)
			got, _ := ClassifyComplexity(f, p)
			if got != tt.wantTier {
				t.Errorf("ClassifyComplexity() = %q, want %q", got, tt.wantTier)
			}
		})
	}
}

func TestClassifyComplexity_MalformedPatternIsSkipped(t *testing.T) {
	p := testPolicy(t)
	// A pattern that fails to compile must contribute zero score, never panic.
	p.TierRules[0].Patterns = append(p.TierRules[0].Patterns, `([unclosed`)
	p.Finalize()

	f := ExtractFeatures("quick question", p.Weights.CharsPerToken)
	got, score := ClassifyComplexity(f, p)
	if got != policy.TierSimple {
		t.Errorf("ClassifyComplexity() = %q, want %q", got, policy.TierSimple)
	}
	if score != 30 {
		t.Errorf("score = %d, want 30 (bad pattern must add nothing)", score)
	}
}
