// Package engine implements the model-selection engine: lexical feature
// extraction, task-type and complexity classification, context-aware
// complexity adjustment, and resolution against the routing policy's
// Strategy × TaskType × ComplexityTier matrix.
//
// The engine is total and pure: SelectModel never fails, performs no I/O,
// and reads only from an immutable policy snapshot, so it is safe to call
// concurrently without locks.
package engine

import (
	"strings"

	"github.com/normanking/switchyard/internal/policy"
)

// ═══════════════════════════════════════════════════════════════════════════════
// REQUEST / DECISION
// ═══════════════════════════════════════════════════════════════════════════════

// Request carries one classification call's inputs.
type Request struct {
	// Prompt is the task description to classify.
	Prompt string

	// Strategy names the routing strategy to resolve against. Empty or
	// unknown names fall back to the policy's default strategy.
	Strategy string

	// SessionContextTokens is the caller-maintained estimate of accumulated
	// conversation context, in tokens. Zero means "no context information"
	// and disables the context-size adjustment pass.
	SessionContextTokens int

	// TouchedFiles are paths the task is expected to modify; they drive the
	// file-pattern override pass.
	TouchedFiles []string
}

// Decision is the engine's output: the resolved model chain plus the full
// trace of how the classification got there.
type Decision struct {
	TaskType        string      `json:"task_type"`
	BaseComplexity  policy.Tier `json:"base_complexity"`
	FinalComplexity policy.Tier `json:"final_complexity"`
	Strategy        string      `json:"strategy"`
	PrimaryModel    ModelRef    `json:"primary_model"`
	FallbackModels  []ModelRef  `json:"fallback_models"`
	Reasoning       []string    `json:"reasoning"`
	Adjustments     []string    `json:"adjustments"`
}

// Chain returns the full ordered candidate list, primary first.
func (d Decision) Chain() []ModelRef {
	out := make([]ModelRef, 0, 1+len(d.FallbackModels))
	out = append(out, d.PrimaryModel)
	out = append(out, d.FallbackModels...)
	return out
}

// ═══════════════════════════════════════════════════════════════════════════════
// MODEL IDENTIFIERS
// ═══════════════════════════════════════════════════════════════════════════════

// ModelRef is an opaque model identifier in "provider/model" shape. The
// engine never interprets provider semantics; it only splits on the first
// separator when handing the identifier back to the host.
type ModelRef string

// Provider returns the part before the first "/", or "" when the identifier
// carries no provider prefix.
func (m ModelRef) Provider() string {
	if i := strings.Index(string(m), "/"); i >= 0 {
		return string(m)[:i]
	}
	return ""
}

// Name returns the part after the first "/", or the whole identifier when
// there is no provider prefix.
func (m ModelRef) Name() string {
	if i := strings.Index(string(m), "/"); i >= 0 {
		return string(m)[i+1:]
	}
	return string(m)
}

// String returns the full identifier.
func (m ModelRef) String() string { return string(m) }

func toRefs(ids []string) []ModelRef {
	out := make([]ModelRef, len(ids))
	for i, id := range ids {
		out[i] = ModelRef(id)
	}
	return out
}
