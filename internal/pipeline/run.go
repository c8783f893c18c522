// Package pipeline provides the high-level orchestration for resume
// indexing and tailoring-plan generation.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-tailor/internal/augmentation"
	"github.com/jonathan/resume-tailor/internal/chunking"
	"github.com/jonathan/resume-tailor/internal/dedup"
	"github.com/jonathan/resume-tailor/internal/generation"
	"github.com/jonathan/resume-tailor/internal/keywords"
	"github.com/jonathan/resume-tailor/internal/llm"
	"github.com/jonathan/resume-tailor/internal/observability"
	"github.com/jonathan/resume-tailor/internal/plancache"
	"github.com/jonathan/resume-tailor/internal/reconciliation"
	"github.com/jonathan/resume-tailor/internal/retrieval"
	"github.com/jonathan/resume-tailor/internal/scoring"
	"github.com/jonathan/resume-tailor/internal/types"
	"github.com/jonathan/resume-tailor/internal/validation"
)

// embedConcurrency bounds parallel embedding calls during reindexing.
const embedConcurrency = 4

// Store is the persistence surface the pipeline needs: chunk replacement
// for reindexing, vector lookup for retrieval, and bullet lookups for
// reconciliation. *db.DB satisfies it.
type Store interface {
	ReplaceChunks(ctx context.Context, resumeID uuid.UUID, chunks []types.Chunk, vectors [][]float32) error
	TopK(ctx context.Context, vector []float32, k int) ([]types.ChunkHit, error)
	FindBulletsForEntity(ctx context.Context, resumeID, entityID uuid.UUID) ([]reconciliation.BulletRow, error)
	MaxBulletOrder(ctx context.Context, resumeID, entityID uuid.UUID) (int, error)
}

// Deps bundles the shared services a pipeline run needs.
type Deps struct {
	Client  llm.Client
	Store   Store
	Cache   *plancache.Cache
	Printer *observability.Printer
	Scorer  *scoring.Scorer
}

// TailorOptions holds per-request tuning for Tailor. Zero threshold values
// fall back to the reconciliation defaults.
type TailorOptions struct {
	TopK            int
	MaxKeywords     int
	MinPatches      int
	JobClampChars   int
	FuzzyThreshold  float64
	StrictThreshold float64
	ModelOverride   string
	Verbose         bool
}

func (d Deps) scorer() *scoring.Scorer {
	if d.Scorer != nil {
		return d.Scorer
	}
	return scoring.NewScorer(scoring.DefaultWeights())
}

// Reindex chunks a resume, embeds every chunk, and atomically replaces the
// resume's rows in the vector index. Cached plans for the resume are
// invalidated afterward. Returns the number of chunks indexed.
func Reindex(ctx context.Context, deps Deps, resume *types.Resume, chunkClamp int, verbose bool) (int, error) {
	chunker := chunking.Chunker{ClampChars: chunkClamp}
	chunks := chunker.ChunkResume(resume)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("resume %s produced no indexable chunks", resume.ID)
	}

	vectors := make([][]float32, len(chunks))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			vector, err := deps.Client.Embed(gCtx, chunk.Content)
			if err != nil {
				return fmt.Errorf("embedding chunk %d failed: %w", i, err)
			}
			vectors[i] = vector
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := deps.Store.ReplaceChunks(ctx, resume.ID, chunks, vectors); err != nil {
		return 0, fmt.Errorf("replacing indexed chunks failed: %w", err)
	}

	if deps.Cache != nil {
		if dropped := deps.Cache.Invalidate(resume.ID); dropped > 0 && verbose {
			fmt.Printf("[VERBOSE] Invalidated %d cached plans for resume %s\n", dropped, resume.ID)
		}
	}
	if verbose && deps.Printer != nil {
		deps.Printer.PrintChunkSummary(chunks)
	}
	return len(chunks), nil
}

// Tailor runs the full tailoring pipeline for one resume against one job
// description and returns the validated plan plus a cache token for
// re-fetching it. Every model claim in the result has been reconciled,
// validated, and recomputed from accepted text.
func Tailor(ctx context.Context, deps Deps, resume *types.Resume, jobText string, opts TailorOptions) (*types.TailorPlan, uuid.UUID, error) {
	fmt.Printf("Step 1/6: Retrieving relevant resume chunks...\n")
	result, err := retrieval.Retrieve(ctx, deps.Client, deps.Store, jobText, opts.TopK, opts.MaxKeywords)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("retrieval failed: %w", err)
	}
	if opts.Verbose && deps.Printer != nil {
		deps.Printer.PrintKeywords(result.Keywords)
		deps.Printer.PrintContextLines(result.Lines)
	}

	fmt.Printf("Step 2/6: Generating draft plan...\n")
	genOpts := generation.Options{JobClampChars: opts.JobClampChars, ModelOverride: opts.ModelOverride}
	draft, provenance, err := generation.GeneratePlan(ctx, deps.Client, jobText, result.Keywords, result.Lines, genOpts)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("plan generation failed: %w", err)
	}

	fmt.Printf("Step 3/6: Reconciling %d draft patches...\n", len(draft.Patches))
	reconciler := &reconciliation.Reconciler{
		Store: deps.Store,
		Opts: reconciliation.Options{
			FuzzyThreshold:  opts.FuzzyThreshold,
			StrictThreshold: opts.StrictThreshold,
		},
	}
	var patches []types.BulletPatch
	for _, draftPatch := range draft.Patches {
		patch := reconciler.Resolve(ctx, resume.ID, draftPatch, result.Lines)
		if patch == nil {
			continue
		}
		if !validation.FilterPatchVariants(patch) {
			continue
		}
		patches = append(patches, *patch)
	}

	fmt.Printf("Step 4/6: Augmenting sparse plan (%d patches so far)...\n", len(patches))
	augmenter := &augmentation.Augmenter{
		Client:     deps.Client,
		Reconciler: reconciler,
		MinPatches: opts.MinPatches,
		GenOpts:    genOpts,
	}
	patches = augmenter.Fill(ctx, resume.ID, patches, result.Lines, jobText, result.Keywords)
	patches = dedup.Patches(patches)

	fmt.Printf("Step 5/6: Recomputing keyword claims and ATS scores...\n")
	resumeText := resume.FullText()
	keywords.RecomputePatchKeywords(patches, result.Keywords)
	toAdd, missing := keywords.GlobalKeywordStatus(patches, resumeText, result.Keywords)
	before, after := deps.scorer().ScorePlan(resumeText, jobText, result.Keywords, patches)

	plan := &types.TailorPlan{
		ATSScoreBefore:        before,
		ATSScoreAfter:         after,
		GlobalKeywordsToAdd:   toAdd,
		GlobalKeywordsMissing: missing,
		Patches:               patches,
		SectionOrderSuggested: sanitizeSectionOrder(draft.SectionOrder),
		Provenance:            *provenance,
	}
	if opts.Verbose && deps.Printer != nil {
		deps.Printer.PrintPlan(plan)
	}

	fmt.Printf("Step 6/6: Caching plan...\n")
	var token uuid.UUID
	if deps.Cache != nil {
		token = deps.Cache.Store(resume.ID, plan)
	}
	return plan, token, nil
}

// sanitizeSectionOrder keeps only recognizable section names, mapped to
// their canonical form, without duplicates.
func sanitizeSectionOrder(order []string) []string {
	var out []string
	seen := make(map[types.Section]bool)
	for _, name := range order {
		section, ok := types.NormalizeSection(name)
		if !ok || seen[section] {
			continue
		}
		seen[section] = true
		out = append(out, string(section))
	}
	return out
}
