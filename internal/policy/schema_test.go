package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const v2Doc = `
version: 2
defaultStrategy: balanced
defaultModel: anthropic/claude-sonnet-4-20250514
weights:
  keyword: 5
taskTypes:
  - name: coding
    keywords: [fix, bug]
    patterns: ['\berror\b']
  - name: general
complexity:
  - name: simple
    keywords: [quick]
    tokenRange: {min: 0, max: 50}
  - name: medium
    keywords: [update]
context:
  planIndicators: ["step 1", "step 2", "step 3"]
  minStepsForReduction: 3
  subtaskIndicators: ["from the plan"]
  smallContextTokens: 4000
  largeContextTokens: 100000
strategies:
  - name: balanced
    models:
      coding:
        simple: mid/coder
        medium: [mid/coder, big/coder]
      general:
        medium: mid/general
  - name: cost-optimized
    models:
      general:
        medium: cheap/general
overrides:
  - pattern: '**/security/**'
    model: big/security
    reason: security paths
agents:
  Reviewer: balanced
`

func TestParseV2(t *testing.T) {
	p, err := Parse([]byte(v2Doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"balanced", "cost-optimized"}, p.Strategies)
	assert.Equal(t, "balanced", p.DefaultStrategy)

	// Scalar and sequence cells both normalize to selections.
	sel, ok := p.Cell("balanced", "coding", TierSimple)
	require.True(t, ok)
	assert.Equal(t, Selection{"mid/coder"}, sel)

	sel, ok = p.Cell("balanced", "coding", TierMedium)
	require.True(t, ok)
	assert.Equal(t, Selection{"mid/coder", "big/coder"}, sel)

	// Partial weights merge over the defaults.
	assert.Equal(t, Weights{Keyword: 5, Pattern: 15, TokenRange: 20, CharsPerToken: 4}, p.Weights)

	// Indicators come back compiled.
	require.Len(t, p.TaskTypes[0].Compiled, 1)
	assert.True(t, p.TaskTypes[0].Compiled[0].MatchString("an ERROR here"))

	// Agent keys are normalized to lower case.
	assert.Equal(t, "balanced", p.StrategyForAgent("reviewer"))

	require.Len(t, p.Overrides, 1)
	assert.Equal(t, "big/security", p.Overrides[0].Model)
}

func TestParseV2_ZeroWeightDisablesSignal(t *testing.T) {
	doc := `
version: 2
defaultStrategy: balanced
defaultModel: fallback/model
weights:
  keyword: 0
  tokenRange: 0
taskTypes:
  - name: general
complexity:
  - name: medium
strategies:
  - name: balanced
    models:
      general:
        medium: mid/model
`
	p, err := Parse([]byte(doc))
	require.NoError(t, err)

	// Explicit zeros stick; unspecified fields keep the defaults.
	assert.Equal(t, Weights{Keyword: 0, Pattern: 15, TokenRange: 0, CharsPerToken: 4}, p.Weights)
}

const v1Doc = `
defaultStrategy: thrifty
defaultModel: fallback/model
taskTypes:
  - name: general
complexity:
  - name: medium
strategies:
  thrifty:
    general:
      medium: cheap/model
  lavish:
    general:
      medium: big/model
`

func TestParseV1(t *testing.T) {
	p, err := Parse([]byte(v1Doc))
	require.NoError(t, err)

	// No strategyOrder: names are sorted for determinism.
	assert.Equal(t, []string{"lavish", "thrifty"}, p.Strategies)

	sel, ok := p.Cell("thrifty", "general", TierMedium)
	require.True(t, ok)
	assert.Equal(t, Selection{"cheap/model"}, sel)

	// v1 carries no weights block; defaults apply.
	assert.Equal(t, DefaultWeights(), p.Weights)
}

func TestParseV1_StrategyOrder(t *testing.T) {
	doc := v1Doc + "strategyOrder: [thrifty, lavish]\n"
	p, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"thrifty", "lavish"}, p.Strategies)
}

func TestParseV1_StrategyOrderUnknownName(t *testing.T) {
	doc := v1Doc + "strategyOrder: [thrifty, phantom]\n"
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy")
}

func TestParseUnsupportedVersion(t *testing.T) {
	_, err := Parse([]byte("version: 9\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported policy schema version 9")
}

func TestParseRejectsInvalidPolicy(t *testing.T) {
	doc := `
version: 2
defaultStrategy: missing
defaultModel: a/b
taskTypes:
  - name: general
strategies:
  - name: balanced
    models: {}
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid policy")
}

func TestParseRejectsMalformedSelection(t *testing.T) {
	doc := `
version: 2
defaultStrategy: balanced
defaultModel: a/b
taskTypes:
  - name: general
strategies:
  - name: balanced
    models:
      general:
        medium: {oops: true}
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a string or a list")
}
