// Package augmentation fills sparse tailoring plans by generating additional
// single-item patches from unused, high-value context lines.
package augmentation

import (
	"context"
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/jonathan/resume-tailor/internal/generation"
	"github.com/jonathan/resume-tailor/internal/keywords"
	"github.com/jonathan/resume-tailor/internal/llm"
	"github.com/jonathan/resume-tailor/internal/reconciliation"
	"github.com/jonathan/resume-tailor/internal/types"
	"github.com/jonathan/resume-tailor/internal/validation"
)

// DefaultMinPatches is the minimum number of patches a plan should carry
// before augmentation stops.
const DefaultMinPatches = 3

// Augmenter generates extra patches one candidate at a time, sequentially,
// until the plan reaches MinPatches or candidates run out.
type Augmenter struct {
	Client     llm.Client
	Reconciler *reconciliation.Reconciler
	MinPatches int
	GenOpts    generation.Options
}

func (a *Augmenter) min() int {
	if a.MinPatches > 0 {
		return a.MinPatches
	}
	return DefaultMinPatches
}

// Fill returns the patch list topped up with synthesized single-item
// patches. Each synthesized patch passes the same reconciliation and
// validation as batch patches and is rejected on duplicate position or
// duplicate original text. Generation failures skip the candidate; running
// out of candidates short of the minimum is not an error.
func (a *Augmenter) Fill(ctx context.Context, resumeID uuid.UUID, patches []types.BulletPatch, lines []types.ContextLine, jobText string, kws []string) []types.BulletPatch {
	if len(patches) >= a.min() {
		return patches
	}

	for _, candidate := range SelectCandidates(lines, patches, kws) {
		if len(patches) >= a.min() {
			break
		}

		draft, err := generation.GenerateSinglePatch(ctx, a.Client, jobText, kws, candidate, a.GenOpts)
		if err != nil {
			log.Printf("[augmentation] single-patch call failed for rank %d: %v", candidate.Rank, err)
			continue
		}
		if draft == nil {
			continue
		}

		patch := a.Reconciler.Resolve(ctx, resumeID, *draft, lines)
		if patch == nil {
			continue
		}
		if !validation.FilterPatchVariants(patch) {
			continue
		}
		if isDuplicate(*patch, patches) {
			log.Printf("[augmentation] rejecting duplicate synthesized patch %q", patch.OriginalText)
			continue
		}

		patches = append(patches, *patch)
	}
	return patches
}

// SelectCandidates picks unused, rewritable context lines in priority
// order: bullet-like content first, then higher keyword overlap, then
// retrieval rank. When the plan has no PROJECT patch yet and project content
// is available, the best project candidate is forced to the front so at
// least one project rewrite is attempted.
func SelectCandidates(lines []types.ContextLine, patches []types.BulletPatch, kws []string) []types.ContextLine {
	var candidates []types.ContextLine
	for _, line := range lines {
		if line.IsHeader() {
			continue
		}
		if !types.IsRewritable(line.Section, line.RefType) {
			continue
		}
		if usedBy(line, patches) {
			continue
		}
		candidates = append(candidates, line)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		iBullet, jBullet := candidates[i].IsBulletLike(), candidates[j].IsBulletLike()
		if iBullet != jBullet {
			return iBullet
		}
		iMatches := keywords.CountMatches(candidates[i].Content, kws)
		jMatches := keywords.CountMatches(candidates[j].Content, kws)
		if iMatches != jMatches {
			return iMatches > jMatches
		}
		return candidates[i].Rank < candidates[j].Rank
	})

	if !hasSection(patches, types.SectionProject) {
		promoteFirstProject(candidates)
	}
	return candidates
}

// usedBy reports whether a context line is already covered by an existing
// patch, either by target position or by source text.
func usedBy(line types.ContextLine, patches []types.BulletPatch) bool {
	lineKey := reconciliation.MatchKey(line.Content)
	for _, patch := range patches {
		if patch.Section == line.Section && patch.EntityID == line.RefID &&
			sameIndex(patch.BulletIndex, line.BulletIndex) {
			return true
		}
		if reconciliation.MatchKey(patch.OriginalText) == lineKey {
			return true
		}
	}
	return false
}

func isDuplicate(candidate types.BulletPatch, patches []types.BulletPatch) bool {
	key := reconciliation.MatchKey(candidate.OriginalText)
	for _, patch := range patches {
		if candidate.SamePosition(patch) {
			return true
		}
		if reconciliation.MatchKey(patch.OriginalText) == key {
			return true
		}
	}
	return false
}

func sameIndex(a, b *int) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func hasSection(patches []types.BulletPatch, section types.Section) bool {
	for _, patch := range patches {
		if patch.Section == section {
			return true
		}
	}
	return false
}

func promoteFirstProject(candidates []types.ContextLine) {
	for i, candidate := range candidates {
		if candidate.Section == types.SectionProject {
			project := candidates[i]
			copy(candidates[1:i+1], candidates[:i])
			candidates[0] = project
			return
		}
	}
}
