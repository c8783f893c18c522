// Package dedup collapses tailoring patches that target the same source
// text or the same structured position.
package dedup

import (
	"github.com/jonathan/resume-tailor/internal/reconciliation"
	"github.com/jonathan/resume-tailor/internal/types"
)

// Patches runs both dedup passes in order: first merge patches sharing the
// same (section, normalized original text), then collapse patches sharing
// the same target position. Relative order of survivors is preserved.
func Patches(patches []types.BulletPatch) []types.BulletPatch {
	return byPosition(byOriginal(patches))
}

// byOriginal merges patches whose section and normalized original text
// match, unioning their variants and keyword claims into the first
// occurrence.
func byOriginal(patches []types.BulletPatch) []types.BulletPatch {
	var merged []types.BulletPatch
	index := make(map[string]int)

	for _, patch := range patches {
		key := string(patch.Section) + "\x00" + reconciliation.MatchKey(patch.OriginalText)
		if at, seen := index[key]; seen {
			merged[at].Variants = unionStrings(merged[at].Variants, patch.Variants)
			merged[at].KeywordsAdded = unionStrings(merged[at].KeywordsAdded, patch.KeywordsAdded)
			continue
		}
		index[key] = len(merged)
		merged = append(merged, patch)
	}
	return merged
}

// byPosition collapses patches sharing (section, entity, bullet index),
// keeping whichever has more variants. On a tie the earlier patch wins.
func byPosition(patches []types.BulletPatch) []types.BulletPatch {
	var kept []types.BulletPatch
	for _, patch := range patches {
		collided := false
		for i := range kept {
			if kept[i].SamePosition(patch) {
				if len(patch.Variants) > len(kept[i].Variants) {
					kept[i] = patch
				}
				collided = true
				break
			}
		}
		if !collided {
			kept = append(kept, patch)
		}
	}
	return kept
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
