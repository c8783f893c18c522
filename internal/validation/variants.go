// Package validation enforces resume-voice rules on generated bullet
// variants, cleaning model artifacts and rejecting text that does not read
// like a resume bullet.
package validation

import (
	"log"
	"regexp"
	"strings"
	"unicode"

	"github.com/jonathan/resume-tailor/internal/types"
)

// MinVariantChars is the minimum length of a cleaned variant.
const MinVariantChars = 15

// MinVariantWords is the minimum word count of a cleaned variant.
const MinVariantWords = 3

// bannedBuzzwords never belong in a resume bullet.
var bannedBuzzwords = []string{
	"synergy", "synergize", "rockstar", "ninja", "guru", "wizard",
	"go-getter", "outside the box", "results-driven", "detail-oriented",
	"team player", "hard worker", "passionate about",
}

// jobSeekingPhrases are cover-letter voice, not resume voice.
var jobSeekingPhrases = []string{
	"looking for", "seeking a", "seeking an", "open to opportunities",
	"excited to apply", "eager to join", "hope to", "would love to",
}

// metaTokens are residue of the model talking about its own output.
var metaTokens = []string{
	"```", "->", "→", "[rewritten", "[original", "option 1", "option 2",
	"variant 1", "variant 2", "here is", "here's", "note:", "n/a",
	"{", "}", "<", ">", "todo", "placeholder",
}

var (
	firstPersonPattern  = regexp.MustCompile(`(?i)\b(i|i'm|i've|i'd|me|my|mine|myself|we|we're|our|ours)\b`)
	leadingQuotePattern = regexp.MustCompile("^[\"'`“‘]+|[\"'`”’]+$")
	leadingJunkPattern  = regexp.MustCompile(`(?i)^(here is|here's|rewritten( version)?|option \d+|variant \d+)\s*[:\-–]\s*`)
	leadingSeekPattern  = regexp.MustCompile(`(?i)^(i am|i'm|looking for|seeking)\s+`)
	repeatedPunct       = regexp.MustCompile(`[.!?]{2,}$`)
)

// Rule is one declarative rejection check. Reject returns true when the
// cleaned variant must be discarded.
type Rule struct {
	Reason string
	Reject func(variant string) bool
}

// Rules returns the ordered rejection rules applied to every cleaned
// variant. Exposed as data so tests can enumerate them directly.
func Rules() []Rule {
	return []Rule{
		{
			Reason: "too short",
			Reject: func(v string) bool { return len(v) < MinVariantChars },
		},
		{
			Reason: "first-person language",
			Reject: func(v string) bool { return firstPersonPattern.MatchString(v) },
		},
		{
			Reason: "job-seeking phrasing",
			Reject: func(v string) bool { return containsAny(strings.ToLower(v), jobSeekingPhrases) },
		},
		{
			Reason: "banned buzzword",
			Reject: func(v string) bool { return containsAny(strings.ToLower(v), bannedBuzzwords) },
		},
		{
			Reason: "meta or placeholder token",
			Reject: func(v string) bool { return containsAny(strings.ToLower(v), metaTokens) },
		},
		{
			Reason: "lowercase start",
			Reject: func(v string) bool {
				first := firstRune(v)
				return unicode.IsLetter(first) && unicode.IsLower(first)
			},
		},
		{
			Reason: "double space",
			Reject: func(v string) bool { return strings.Contains(v, "  ") },
		},
		{
			Reason: "repeated terminal punctuation",
			Reject: func(v string) bool { return repeatedPunct.MatchString(v) },
		},
		{
			Reason: "too few words",
			Reject: func(v string) bool { return len(strings.Fields(v)) < MinVariantWords },
		},
		{
			Reason: "does not start with uppercase letter or digit",
			Reject: func(v string) bool {
				first := firstRune(v)
				return !unicode.IsUpper(first) && !unicode.IsDigit(first)
			},
		},
	}
}

// CleanVariant strips quote wrapping, meta-commentary prefixes, code-fence
// residue, and leading job-seeking phrasing. It never re-capitalizes: a
// variant left starting lowercase is rejected, not repaired.
func CleanVariant(variant string) string {
	v := strings.TrimSpace(variant)
	v = leadingQuotePattern.ReplaceAllString(v, "")
	v = strings.TrimSpace(v)
	v = leadingJunkPattern.ReplaceAllString(v, "")
	v = leadingSeekPattern.ReplaceAllString(v, "")
	v = strings.ReplaceAll(v, "```", "")
	return strings.TrimSpace(v)
}

// Validate cleans a variant and runs it through every rule. Returns the
// cleaned text and the list of rejection reasons (empty means accepted).
func Validate(variant string) (string, []string) {
	cleaned := CleanVariant(variant)
	var reasons []string
	for _, rule := range Rules() {
		if rule.Reject(cleaned) {
			reasons = append(reasons, rule.Reason)
		}
	}
	return cleaned, reasons
}

// FilterPatchVariants cleans and filters a patch's variants in place.
// Returns false when no variant survives, which means the patch itself must
// be dropped upstream.
func FilterPatchVariants(patch *types.BulletPatch) bool {
	var kept []string
	for _, variant := range patch.Variants {
		cleaned, reasons := Validate(variant)
		if len(reasons) > 0 {
			log.Printf("[validation] rejecting variant %q: %s", clip(cleaned), strings.Join(reasons, ", "))
			continue
		}
		kept = append(kept, cleaned)
	}
	patch.Variants = kept
	return len(kept) > 0
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func clip(text string) string {
	if len(text) > 60 {
		return text[:57] + "..."
	}
	return text
}
