package engine

import (
	"fmt"

	"github.com/normanking/switchyard/internal/policy"
)

// Engine selects models against the policy store's active snapshot.
type Engine struct {
	store *policy.Store
}

// New creates an engine bound to a policy store.
func New(store *policy.Store) *Engine {
	return &Engine{store: store}
}

// Policy returns the active policy snapshot the next call will classify
// against.
func (e *Engine) Policy() *policy.Policy {
	return e.store.Active()
}

// SelectModel classifies the request and resolves it to a model chain.
// It is total: every input, including empty prompts and unknown strategies,
// produces a decision with a non-empty chain. All anomalies degrade to the
// documented defaults and show up only in the reasoning trace.
func (e *Engine) SelectModel(req Request) Decision {
	p := e.store.Active()
	var reasoning []string

	strategy := p.ResolveStrategy(req.Strategy)
	if strategy != req.Strategy {
		if req.Strategy == "" {
			reasoning = append(reasoning, fmt.Sprintf("no strategy requested, using default %q", strategy))
		} else {
			reasoning = append(reasoning, fmt.Sprintf("unknown strategy %q, using default %q", req.Strategy, strategy))
		}
	}

	f := ExtractFeatures(req.Prompt, p.Weights.CharsPerToken)
	if f.Normalized == "" {
		reasoning = append(reasoning, "empty prompt, classifying with defaults")
	}

	taskType, typeScore := ClassifyTaskType(f, p)
	reasoning = append(reasoning, fmt.Sprintf("task type %s (score %d)", taskType, typeScore))

	base, tierScore := ClassifyComplexity(f, p)
	reasoning = append(reasoning, fmt.Sprintf(
		"base complexity %s (score %d, ~%d tokens)", base, tierScore, f.TokenEstimate))

	final, adjustments := AdjustComplexity(base, req.Prompt, req.SessionContextTokens, p.Context)

	selection, resolveTrace := Resolve(strategy, taskType, final, req.TouchedFiles, p)
	reasoning = append(reasoning, resolveTrace...)

	chain := BuildChain(selection)

	return Decision{
		TaskType:        taskType,
		BaseComplexity:  base,
		FinalComplexity: final,
		Strategy:        strategy,
		PrimaryModel:    chain[0],
		FallbackModels:  chain[1:],
		Reasoning:       reasoning,
		Adjustments:     adjustments,
	}
}
