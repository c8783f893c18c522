// Package reconciliation resolves the ambiguous positions claimed by model
// draft patches into exact (section, entity, bullet index) targets, or
// discards patches that cannot be placed.
package reconciliation

import "strings"

// Default similarity thresholds for the resolution cascade.
const (
	// DefaultFuzzyThreshold gates rank-sibling and context matches.
	DefaultFuzzyThreshold = 0.45
	// DefaultStrictThreshold gates store-backed matches. Stricter because the
	// store is the final authority on bullet positions.
	DefaultStrictThreshold = 0.70
)

// NormalizeText lowercases, strips punctuation except '%', and collapses
// whitespace. Normalized text is the basis for all similarity comparisons
// and duplicate detection.
func NormalizeText(text string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '%':
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// Jaccard computes token-set Jaccard similarity of two texts after
// normalization: |intersection| / |union|. Returns 0 when either side has no
// tokens.
func Jaccard(a, b string) float64 {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range tokensA {
		if tokensB[tok] {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(NormalizeText(text)) {
		set[foldPlural(tok)] = true
	}
	return set
}

// foldPlural trims a trailing plural 's' so singular/plural token pairs
// ("dashboard"/"dashboards") compare equal. Double-s endings are left alone.
func foldPlural(tok string) string {
	if len(tok) > 3 && strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") {
		return tok[:len(tok)-1]
	}
	return tok
}

// MatchKey reduces text to a canonical form for exact-equality comparison:
// normalized, tokenized, and plural-folded.
func MatchKey(text string) string {
	toks := strings.Fields(NormalizeText(text))
	for i, tok := range toks {
		toks[i] = foldPlural(tok)
	}
	return strings.Join(toks, " ")
}
