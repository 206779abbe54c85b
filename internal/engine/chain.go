package engine

import "github.com/normanking/switchyard/internal/policy"

// BuildChain normalizes a resolved selection into the ordered candidate
// list handed back to the host. Upstream resolution already guarantees
// order and non-emptiness; this exists as a seam so callers can later
// layer retry or availability probing over the chain without touching
// classification.
func BuildChain(sel policy.Selection) []ModelRef {
	return toRefs([]string(sel))
}
