package keywords

import (
	"strings"

	"github.com/jonathan/resume-tailor/internal/types"
)

// RecomputePatchKeywords replaces every patch's KeywordsAdded with the subset
// of target keywords literally present (case-insensitive substring) in its
// variants. Model-claimed keyword additions are discarded entirely.
func RecomputePatchKeywords(patches []types.BulletPatch, targetKeywords []string) {
	for i := range patches {
		patches[i].KeywordsAdded = presentIn(strings.Join(patches[i].Variants, "\n"), targetKeywords)
	}
}

// GlobalKeywordStatus recomputes the plan-level keyword lists from final
// accepted text. A keyword counts as "to add" when some patch variant carries
// it but the current resume text does not; "missing" when neither does.
func GlobalKeywordStatus(patches []types.BulletPatch, resumeText string, targetKeywords []string) (toAdd, missing []string) {
	var variantText strings.Builder
	for _, p := range patches {
		for _, v := range p.Variants {
			variantText.WriteString(v)
			variantText.WriteString("\n")
		}
	}

	resumeLower := strings.ToLower(resumeText)
	variantsLower := strings.ToLower(variantText.String())

	for _, kw := range targetKeywords {
		kwLower := strings.ToLower(kw)
		if kwLower == "" {
			continue
		}
		inResume := strings.Contains(resumeLower, kwLower)
		inVariants := strings.Contains(variantsLower, kwLower)
		switch {
		case inResume:
			// already covered
		case inVariants:
			toAdd = append(toAdd, kw)
		default:
			missing = append(missing, kw)
		}
	}
	return toAdd, missing
}

// presentIn returns the keywords appearing as case-insensitive substrings of
// text, preserving target order.
func presentIn(text string, kws []string) []string {
	lower := strings.ToLower(text)
	var present []string
	for _, kw := range kws {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			present = append(present, kw)
		}
	}
	return present
}
