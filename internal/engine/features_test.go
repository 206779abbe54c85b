package engine

import "testing"

func TestExtractFeatures(t *testing.T) {
	tests := []struct {
		name          string
		prompt        string
		charsPerToken int
		wantNorm      string
		wantTokens    int
	}{
		{
			name:          "lowercases and estimates",
			prompt:        "Fix The Bug",
			charsPerToken: 4,
			wantNorm:      "fix the bug",
			wantTokens:    3, // ceil(11/4)
		},
		{
			name:          "exact multiple",
			prompt:        "abcdefgh",
			charsPerToken: 4,
			wantNorm:      "abcdefgh",
			wantTokens:    2,
		},
		{
			name:          "empty prompt is neutral",
			prompt:        "",
			charsPerToken: 4,
			wantNorm:      "",
			wantTokens:    0,
		},
		{
			name:          "zero divisor falls back to 4",
			prompt:        "abcd",
			charsPerToken: 0,
			wantNorm:      "abcd",
			wantTokens:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ExtractFeatures(tt.prompt, tt.charsPerToken)
			if f.Normalized != tt.wantNorm {
				t.Errorf("Normalized = %q, want %q", f.Normalized, tt.wantNorm)
			}
			if f.TokenEstimate != tt.wantTokens {
				t.Errorf("TokenEstimate = %d, want %d", f.TokenEstimate, tt.wantTokens)
			}
		})
	}
}

func TestModelRef(t *testing.T) {
	tests := []struct {
		ref          ModelRef
		wantProvider string
		wantName     string
	}{
		{"anthropic/claude-sonnet-4-20250514", "anthropic", "claude-sonnet-4-20250514"},
		{"ollama/qwen2.5-coder:7b", "ollama", "qwen2.5-coder:7b"},
		{"bare-model", "", "bare-model"},
		{"a/b/c", "a", "b/c"},
	}

	for _, tt := range tests {
		t.Run(string(tt.ref), func(t *testing.T) {
			if got := tt.ref.Provider(); got != tt.wantProvider {
				t.Errorf("Provider() = %q, want %q", got, tt.wantProvider)
			}
			if got := tt.ref.Name(); got != tt.wantName {
				t.Errorf("Name() = %q, want %q", got, tt.wantName)
			}
		})
	}
}
