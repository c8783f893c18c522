package reconciliation

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/jonathan/resume-tailor/internal/types"
)

// BulletRow is one stored experience bullet with its true position.
type BulletRow struct {
	PartOrder int
	Content   string
}

// BulletStore looks up the real, ordered bullet rows behind an experience
// entity. It is the final authority in the resolution cascade.
type BulletStore interface {
	FindBulletsForEntity(ctx context.Context, resumeID, entityID uuid.UUID) ([]BulletRow, error)
	MaxBulletOrder(ctx context.Context, resumeID, entityID uuid.UUID) (int, error)
}

// Options holds the similarity thresholds for the cascade. Zero values fall
// back to the defaults.
type Options struct {
	FuzzyThreshold  float64
	StrictThreshold float64
}

func (o Options) fuzzy() float64 {
	if o.FuzzyThreshold > 0 {
		return o.FuzzyThreshold
	}
	return DefaultFuzzyThreshold
}

func (o Options) strict() float64 {
	if o.StrictThreshold > 0 {
		return o.StrictThreshold
	}
	return DefaultStrictThreshold
}

// Reconciler resolves draft patches against retrieval context and the chunk
// store.
type Reconciler struct {
	Store BulletStore
	Opts  Options
}

// resolution is the cascade's working state: the best known target position
// and the content type it came from.
type resolution struct {
	section     types.Section
	entityID    uuid.UUID
	bulletIndex *int
	refType     string
}

// resolverFunc is one stage of the cascade. It returns true when it produced
// a usable resolution, short-circuiting later stages.
type resolverFunc func(draft types.DraftPatch, lines []types.ContextLine, section types.Section) (resolution, bool)

// Resolve maps one draft patch to a concrete position, or returns nil when
// the patch must be dropped. A dropped patch is logged, never an error. The returned patch carries the resolved
// position with the draft's text content; its keyword claims are copied
// as-is and must still pass the truth checker downstream.
func (r *Reconciler) Resolve(ctx context.Context, resumeID uuid.UUID, draft types.DraftPatch, lines []types.ContextLine) *types.BulletPatch {
	section := r.resolveSection(draft, lines)

	resolvers := []resolverFunc{
		r.resolveByRank,
		r.resolveByContext,
	}

	var res resolution
	resolved := false
	for _, resolve := range resolvers {
		if candidate, ok := resolve(draft, lines, section); ok {
			res = candidate
			resolved = true
			break
		}
	}
	if !resolved {
		res = resolution{section: section, entityID: parseEntityID(draft.EntityID), bulletIndex: draft.BulletIndex}
	}

	// Headers and disallowed content types are never rewriting targets, no
	// matter how well they matched.
	if res.refType != "" && !types.IsRewritable(res.section, res.refType) {
		log.Printf("[reconciliation] dropping patch %q: %s/%s is not rewritable", clip(draft.Original), res.section, res.refType)
		return nil
	}

	// Store-backed refinement: the chunk store's bullet rows are the final
	// authority on EXPERIENCE positions and override any earlier guess.
	if res.section == types.SectionExperience && res.entityID != uuid.Nil {
		if idx, ok := r.resolveFromStore(ctx, resumeID, res.entityID, draft.Original); ok {
			res.bulletIndex = types.IntPtr(idx)
		} else if res.bulletIndex == nil {
			// Unplaceable but entity-anchored: append after the last bullet.
			if next, ok := r.nextFreeIndex(ctx, resumeID, res.entityID); ok {
				res.bulletIndex = types.IntPtr(next)
			}
		}
	}

	if res.entityID == uuid.Nil {
		log.Printf("[reconciliation] dropping patch %q: no entity resolved", clip(draft.Original))
		return nil
	}

	if res.section != types.SectionExperience {
		// Bullet indexes are only meaningful for experience content.
		res.bulletIndex = nil
	}

	return &types.BulletPatch{
		Section:       res.section,
		EntityID:      res.entityID,
		BulletIndex:   res.bulletIndex,
		OriginalText:  draft.Original,
		Variants:      draft.Variants,
		KeywordsAdded: draft.KeywordsAdded,
	}
}

// resolveSection normalizes the draft's self-reported section. Unknown or
// missing sections are inferred from the best unrestricted context match,
// defaulting to EXPERIENCE when nothing matches at all.
func (r *Reconciler) resolveSection(draft types.DraftPatch, lines []types.ContextLine) types.Section {
	if section, ok := types.NormalizeSection(draft.Section); ok {
		return section
	}

	best, score := bestMatch(draft.Original, lines, func(types.ContextLine) bool { return true })
	if best != nil && score >= r.Opts.fuzzy() {
		return best.Section
	}
	return types.SectionExperience
}

// resolveByRank uses the model's claimed source ranks. A rank pointing
// straight at a bullet-like line resolves immediately; a rank pointing at a
// non-bullet line that shares an entity triggers a sibling search among that
// entity's bullet-like lines.
func (r *Reconciler) resolveByRank(draft types.DraftPatch, lines []types.ContextLine, section types.Section) (resolution, bool) {
	for _, rank := range draft.SourceRanks {
		line := lineByRank(lines, rank)
		if line == nil {
			continue
		}

		if line.IsBulletLike() && line.BulletIndex != nil {
			return resolution{
				section:     line.Section,
				entityID:    line.RefID,
				bulletIndex: line.BulletIndex,
				refType:     line.RefType,
			}, true
		}

		if line.RefID == uuid.Nil {
			continue
		}
		sibling, score := bestMatch(draft.Original, lines, func(l types.ContextLine) bool {
			return l.RefID == line.RefID && l.IsBulletLike()
		})
		if sibling != nil && score >= r.Opts.fuzzy() {
			return resolution{
				section:     sibling.Section,
				entityID:    sibling.RefID,
				bulletIndex: sibling.BulletIndex,
				refType:     sibling.RefType,
			}, true
		}
	}
	return resolution{}, false
}

// resolveByContext fuzzy-matches the draft's original text against every
// context line in the patch's section, independent of claimed ranks. A best
// match that turns out to be a header is a hard drop signal; returning it
// with its header refType lets the caller's allow-list check reject it.
func (r *Reconciler) resolveByContext(draft types.DraftPatch, lines []types.ContextLine, section types.Section) (resolution, bool) {
	best, score := bestMatch(draft.Original, lines, func(l types.ContextLine) bool {
		return l.Section == section
	})
	if best == nil || score < r.Opts.fuzzy() {
		return resolution{}, false
	}
	return resolution{
		section:     best.Section,
		entityID:    best.RefID,
		bulletIndex: best.BulletIndex,
		refType:     best.RefType,
	}, true
}

// resolveFromStore fetches the entity's true bullet rows and looks for an
// exact normalized match first, then the best fuzzy match against the strict
// threshold. Store errors skip this stage rather than failing the patch.
func (r *Reconciler) resolveFromStore(ctx context.Context, resumeID, entityID uuid.UUID, original string) (int, bool) {
	if r.Store == nil {
		return 0, false
	}
	rows, err := r.Store.FindBulletsForEntity(ctx, resumeID, entityID)
	if err != nil {
		log.Printf("[reconciliation] bullet lookup failed for entity %s: %v", entityID, err)
		return 0, false
	}

	key := MatchKey(original)
	for _, row := range rows {
		if MatchKey(row.Content) == key {
			return row.PartOrder, true
		}
	}

	bestIdx, bestScore := -1, 0.0
	for _, row := range rows {
		if score := Jaccard(original, row.Content); score > bestScore {
			bestIdx, bestScore = row.PartOrder, score
		}
	}
	if bestIdx >= 0 && bestScore >= r.Opts.strict() {
		return bestIdx, true
	}
	return 0, false
}

func (r *Reconciler) nextFreeIndex(ctx context.Context, resumeID, entityID uuid.UUID) (int, bool) {
	if r.Store == nil {
		return 0, false
	}
	maxOrder, err := r.Store.MaxBulletOrder(ctx, resumeID, entityID)
	if err != nil {
		log.Printf("[reconciliation] max bullet order lookup failed for entity %s: %v", entityID, err)
		return 0, false
	}
	return maxOrder + 1, true
}

// bestMatch returns the context line with the highest Jaccard similarity to
// text among lines passing the filter, with its score.
func bestMatch(text string, lines []types.ContextLine, filter func(types.ContextLine) bool) (*types.ContextLine, float64) {
	var best *types.ContextLine
	bestScore := 0.0
	for i := range lines {
		if !filter(lines[i]) {
			continue
		}
		if score := Jaccard(text, lines[i].Content); score > bestScore {
			best, bestScore = &lines[i], score
		}
	}
	return best, bestScore
}

func lineByRank(lines []types.ContextLine, rank int) *types.ContextLine {
	for i := range lines {
		if lines[i].Rank == rank {
			return &lines[i]
		}
	}
	return nil
}

func parseEntityID(raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func clip(text string) string {
	if len(text) > 60 {
		return text[:57] + "..."
	}
	return text
}
