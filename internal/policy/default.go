package policy

// Default returns the built-in routing policy used when no policy document
// exists. It covers the stock strategies (cost-optimized, balanced,
// performance-optimized) over the standard task types, so a host can start
// routing without writing any configuration.
func Default() *Policy {
	p := &Policy{
		Strategies:      []string{"cost-optimized", "balanced", "performance-optimized"},
		DefaultStrategy: "balanced",
		DefaultModel:    "anthropic/claude-sonnet-4-20250514",

		TaskTypes: []TaskTypeRule{
			{Name: "coding-simple", Indicator: Indicator{
				Keywords: []string{"typo", "rename", "comment", "formatting", "lint", "small fix", "one-line", "tweak"},
				Patterns: []string{`\bfix(es|ed)?\s+(a\s+)?typo\b`, `\b(add|update|remove)\s+(a\s+)?comment`, `\bbump\s+version\b`},
			}},
			{Name: "coding-complex", Indicator: Indicator{
				Keywords: []string{"implement", "refactor", "feature", "algorithm", "concurrency", "migration", "api", "database"},
				Patterns: []string{`\b(implement|build|create)\s+.{0,40}(feature|module|service|endpoint)`, `\brefactor\b`, `\brace\s+condition\b`},
			}},
			{Name: "planning", Indicator: Indicator{
				Keywords: []string{"plan", "design", "architecture", "roadmap", "approach", "strategy", "trade-off"},
				Patterns: []string{`\bhow\s+should\s+(i|we)\b`, `\b(best|right)\s+(approach|way)\b`, `\bpros\s+and\s+cons\b`},
			}},
			{Name: "debugging", Indicator: Indicator{
				Keywords: []string{"debug", "bug", "error", "crash", "broken", "failing", "stack trace", "exception"},
				Patterns: []string{`\bnot\s+working\b`, `\bwhy\s+(is|does|doesn't|won't)\b`, `\bfailed\s+(to|with)\b`},
			}},
			{Name: "review", Indicator: Indicator{
				Keywords: []string{"review", "audit", "feedback", "critique", "check my"},
				Patterns: []string{`\b(code|pr|pull\s+request)\s+review\b`, `\bwhat\s+do\s+you\s+think\s+(of|about)\b`},
			}},
			{Name: "documentation", Indicator: Indicator{
				Keywords: []string{"readme", "docs", "documentation", "changelog", "docstring", "comment the"},
				Patterns: []string{`\bwrite\s+.{0,20}(docs|documentation|readme)`, `\bdocument\s+(the|this)\b`},
			}},
			{Name: GeneralTaskType, Indicator: Indicator{}},
		},

		TierRules: []TierRule{
			{Tier: TierSimple, Indicator: Indicator{
				Keywords: []string{"typo", "rename", "quick", "small", "trivial", "one line", "minor"},
			}, TokenRange: &TokenRange{Min: 0, Max: 60}},
			{Tier: TierMedium, Indicator: Indicator{
				Keywords: []string{"add", "update", "modify", "fix", "write", "change"},
			}, TokenRange: &TokenRange{Min: 61, Max: 400}},
			{Tier: TierComplex, Indicator: Indicator{
				Keywords: []string{"refactor", "implement", "design", "migrate", "integrate", "optimize"},
				Patterns: []string{`\bacross\s+(multiple|several)\b`, `\bend[-\s]to[-\s]end\b`},
			}, TokenRange: &TokenRange{Min: 401, Max: 1500}},
			{Tier: TierAdvanced, Indicator: Indicator{
				Keywords: []string{"architecture", "rewrite", "distributed", "security audit", "from scratch", "overhaul"},
				Patterns: []string{`\bre(write|build)\s+.{0,30}(system|service|application)\b`},
			}, TokenRange: &TokenRange{Min: 1501, Max: 1 << 30}},
		},

		Context: ContextRules{
			PlanIndicators:       []string{"step 1", "step 2", "step 3", "step 4", "1.", "2.", "3.", "- [ ]"},
			MinStepsForReduction: 3,
			SubtaskIndicators:    []string{"from the plan", "subtask", "this step", "next step", "as planned"},
			SmallContextTokens:   4000,
			LargeContextTokens:   100000,
		},

		Matrix: map[string]map[string]map[Tier]Selection{
			"cost-optimized": {
				"coding-simple": {
					TierSimple: {"anthropic/claude-3-5-haiku-20241022"},
					TierMedium: {"anthropic/claude-3-5-haiku-20241022", "openai/gpt-4o-mini"},
				},
				"coding-complex": {
					TierMedium:   {"openai/gpt-4o-mini", "anthropic/claude-sonnet-4-20250514"},
					TierComplex:  {"anthropic/claude-sonnet-4-20250514"},
					TierAdvanced: {"anthropic/claude-sonnet-4-20250514", "anthropic/claude-opus-4-20250514"},
				},
				"documentation": {
					TierSimple: {"anthropic/claude-3-5-haiku-20241022"},
					TierMedium: {"openai/gpt-4o-mini"},
				},
				GeneralTaskType: {
					TierSimple:   {"anthropic/claude-3-5-haiku-20241022"},
					TierMedium:   {"openai/gpt-4o-mini"},
					TierComplex:  {"anthropic/claude-sonnet-4-20250514"},
					TierAdvanced: {"anthropic/claude-sonnet-4-20250514"},
				},
			},
			"balanced": {
				"coding-simple": {
					TierSimple: {"anthropic/claude-3-5-haiku-20241022"},
					TierMedium: {"anthropic/claude-sonnet-4-20250514"},
				},
				"coding-complex": {
					TierMedium:   {"anthropic/claude-sonnet-4-20250514"},
					TierComplex:  {"anthropic/claude-sonnet-4-20250514", "openai/gpt-4o"},
					TierAdvanced: {"anthropic/claude-opus-4-20250514", "anthropic/claude-sonnet-4-20250514"},
				},
				"planning": {
					TierMedium:   {"anthropic/claude-sonnet-4-20250514"},
					TierComplex:  {"anthropic/claude-opus-4-20250514"},
					TierAdvanced: {"anthropic/claude-opus-4-20250514"},
				},
				"debugging": {
					TierMedium:  {"anthropic/claude-sonnet-4-20250514"},
					TierComplex: {"anthropic/claude-sonnet-4-20250514", "openai/gpt-4o"},
				},
				GeneralTaskType: {
					TierSimple:   {"anthropic/claude-3-5-haiku-20241022"},
					TierMedium:   {"anthropic/claude-sonnet-4-20250514"},
					TierComplex:  {"anthropic/claude-sonnet-4-20250514"},
					TierAdvanced: {"anthropic/claude-opus-4-20250514"},
				},
			},
			"performance-optimized": {
				"coding-complex": {
					TierMedium:   {"anthropic/claude-opus-4-20250514"},
					TierComplex:  {"anthropic/claude-opus-4-20250514"},
					TierAdvanced: {"anthropic/claude-opus-4-20250514"},
				},
				"review": {
					TierMedium:  {"anthropic/claude-opus-4-20250514"},
					TierComplex: {"anthropic/claude-opus-4-20250514"},
				},
				GeneralTaskType: {
					TierSimple:   {"anthropic/claude-sonnet-4-20250514"},
					TierMedium:   {"anthropic/claude-opus-4-20250514"},
					TierComplex:  {"anthropic/claude-opus-4-20250514"},
					TierAdvanced: {"anthropic/claude-opus-4-20250514"},
				},
			},
		},

		Overrides: []Override{
			{
				Pattern: "**/security/**",
				Model:   "anthropic/claude-opus-4-20250514",
				Reason:  "security code always gets the strongest model",
			},
			{
				Pattern: "**/migrations/**",
				Model:   "anthropic/claude-opus-4-20250514",
				Reason:  "schema migrations are high-blast-radius",
			},
			{
				Pattern:          "**/*.md",
				TaskTypeOverride: "documentation",
				Reason:           "markdown edits route as documentation work",
			},
		},

		Agents: map[string]string{
			"reviewer":  "performance-optimized",
			"janitor":   "cost-optimized",
			"architect": "performance-optimized",
		},

		Weights: DefaultWeights(),
	}

	p.Finalize()
	return p
}
