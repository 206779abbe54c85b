package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/normanking/switchyard/internal/policy"
)

// ═══════════════════════════════════════════════════════════════════════════════
// STRATEGY RESOLUTION
// ═══════════════════════════════════════════════════════════════════════════════

// Resolve performs the final matrix lookup and override pass. Resolution
// order, first hit wins:
//
//	1. matrix[strategy][taskType][tier]
//	2. matrix[strategy][general][tier]
//	3. policy defaultModel
//
// When touchedFiles is non-empty the declared overrides are consulted in
// order; the first whose pattern matches any path applies. A hard model
// override replaces the whole selection regardless of what strategy and
// complexity produced. A task-type override re-runs steps 1-3 under the
// override task type with the same strategy and tier.
func Resolve(strategy, taskType string, tier policy.Tier, touchedFiles []string, p *policy.Policy) (policy.Selection, []string) {
	selection, reasoning := resolveCell(strategy, taskType, tier, p)

	if len(touchedFiles) == 0 {
		return selection, reasoning
	}

	for _, ov := range p.Overrides {
		path, matched := firstMatch(ov.Pattern, touchedFiles)
		if !matched {
			continue
		}
		switch {
		case ov.Model != "":
			reasoning = append(reasoning, fmt.Sprintf(
				"override %q matched %s: forcing %s (%s)", ov.Pattern, path, ov.Model, ov.Reason))
			selection = policy.Selection{ov.Model}
		case ov.TaskTypeOverride != "":
			reasoning = append(reasoning, fmt.Sprintf(
				"override %q matched %s: re-resolving as %s (%s)", ov.Pattern, path, ov.TaskTypeOverride, ov.Reason))
			var sub []string
			selection, sub = resolveCell(strategy, ov.TaskTypeOverride, tier, p)
			reasoning = append(reasoning, sub...)
		}
		// Only the first matching override applies.
		break
	}

	return selection, reasoning
}

func resolveCell(strategy, taskType string, tier policy.Tier, p *policy.Policy) (policy.Selection, []string) {
	if sel, ok := p.Cell(strategy, taskType, tier); ok {
		return sel, []string{fmt.Sprintf("matrix[%s][%s][%s] -> %s", strategy, taskType, tier, sel.Primary())}
	}
	if sel, ok := p.Cell(strategy, policy.GeneralTaskType, tier); ok {
		return sel, []string{fmt.Sprintf(
			"matrix[%s][%s][%s] empty, general fallback -> %s", strategy, taskType, tier, sel.Primary())}
	}
	return policy.Selection{p.DefaultModel}, []string{fmt.Sprintf(
		"no matrix cell for [%s][%s][%s], default model -> %s", strategy, taskType, tier, p.DefaultModel)}
}

// ═══════════════════════════════════════════════════════════════════════════════
// PATTERN MATCHING
// ═══════════════════════════════════════════════════════════════════════════════

// firstMatch returns the first path the pattern matches. Patterns support a
// deliberately small glob dialect: "**" crosses directory separators, "*"
// matches within a segment, and a wildcard-free pattern matches as a plain
// substring. Full glob-engine semantics are out of scope.
func firstMatch(pattern string, paths []string) (string, bool) {
	for _, path := range paths {
		if matchPattern(pattern, path) {
			return path, true
		}
	}
	return "", false
}

func matchPattern(pattern, path string) bool {
	if pattern == "" || path == "" {
		return false
	}
	if !strings.Contains(pattern, "*") {
		return strings.Contains(path, pattern)
	}
	re, err := globRegexp(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

// globRegexp translates the glob-lite pattern into an anchored regexp.
// A leading "**/" also matches paths with no directory prefix, so
// "**/security/**" matches "security/login.ts".
func globRegexp(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")
	if strings.HasPrefix(pattern, "**/") {
		sb.WriteString("(.*/)?")
		pattern = strings.TrimPrefix(pattern, "**/")
	}
	for i := 0; i < len(pattern); i++ {
		switch {
		case strings.HasPrefix(pattern[i:], "**"):
			sb.WriteString(".*")
			i++
		case pattern[i] == '*':
			sb.WriteString("[^/]*")
		default:
			sb.WriteString(regexp.QuoteMeta(string(pattern[i])))
		}
	}
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}
