package engine

import "strings"

// Features are the primitive lexical signals both classifiers score against.
type Features struct {
	// Raw is the prompt as supplied; regex patterns match against it.
	Raw string

	// Normalized is the lower-cased prompt used for keyword substring checks.
	Normalized string

	// TokenEstimate approximates the prompt's token count as
	// ceil(len/charsPerToken). It is a deterministic heuristic, not a real
	// tokenizer count; it only needs to be reproducible, not accurate.
	TokenEstimate int
}

// ExtractFeatures derives lexical features from a prompt. An empty prompt
// yields a neutral feature set (empty strings, zero tokens) so downstream
// classifiers degrade to their defaults instead of erroring.
func ExtractFeatures(prompt string, charsPerToken int) Features {
	if charsPerToken <= 0 {
		charsPerToken = 4
	}
	if prompt == "" {
		return Features{}
	}
	return Features{
		Raw:           prompt,
		Normalized:    strings.ToLower(prompt),
		TokenEstimate: (len(prompt) + charsPerToken - 1) / charsPerToken,
	}
}
