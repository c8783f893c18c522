package reconciliation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tailor/internal/types"
)

var (
	resumeID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	entityID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

type fakeStore struct {
	bullets  map[uuid.UUID][]BulletRow
	maxOrder map[uuid.UUID]int
	err      error
}

func (f *fakeStore) FindBulletsForEntity(_ context.Context, _, entity uuid.UUID) ([]BulletRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bullets[entity], nil
}

func (f *fakeStore) MaxBulletOrder(_ context.Context, _, entity uuid.UUID) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.maxOrder[entity], nil
}

func bulletLine(rank, idx int, content string) types.ContextLine {
	return types.ContextLine{
		Chunk: types.Chunk{
			ResumeID:  resumeID,
			Section:   types.SectionExperience,
			RefType:   types.RefExperienceBullet,
			RefID:     entityID,
			PartOrder: idx,
			Content:   content,
		},
		Rank:        rank,
		BulletIndex: types.IntPtr(idx),
	}
}

func headerLine(rank int, content string) types.ContextLine {
	return types.ContextLine{
		Chunk: types.Chunk{
			ResumeID: resumeID,
			Section:  types.SectionExperience,
			RefType:  types.RefExperienceHeader,
			RefID:    entityID,
			Content:  content,
		},
		Rank: rank,
	}
}

func storeWith(rows ...BulletRow) *fakeStore {
	maxOrder := 0
	for _, row := range rows {
		if row.PartOrder > maxOrder {
			maxOrder = row.PartOrder
		}
	}
	return &fakeStore{
		bullets:  map[uuid.UUID][]BulletRow{entityID: rows},
		maxOrder: map[uuid.UUID]int{entityID: maxOrder},
	}
}

func TestResolveByRankDirectBulletHit(t *testing.T) {
	r := &Reconciler{Store: storeWith(
		BulletRow{PartOrder: 0, Content: "Built internal reporting dashboard"},
		BulletRow{PartOrder: 1, Content: "Reduced deploy time by 40%"},
	)}
	lines := []types.ContextLine{
		bulletLine(1, 1, "Reduced deploy time by 40%"),
		headerLine(2, "Acme Corp — Senior Engineer"),
	}
	draft := types.DraftPatch{
		Section:     "EXPERIENCE",
		Original:    "Reduced deploy time by 40%",
		Variants:    []string{"Reduced deploy time by 40% with CI automation"},
		SourceRanks: []int{1},
	}

	patch := r.Resolve(context.Background(), resumeID, draft, lines)
	require.NotNil(t, patch)
	assert.Equal(t, types.SectionExperience, patch.Section)
	assert.Equal(t, entityID, patch.EntityID)
	require.NotNil(t, patch.BulletIndex)
	assert.Equal(t, 1, *patch.BulletIndex)
}

func TestResolveByRankSiblingSearch(t *testing.T) {
	// Rank points at the header; sibling bullets of the same entity are
	// searched for the best fuzzy match.
	r := &Reconciler{Store: storeWith(
		BulletRow{PartOrder: 0, Content: "Built internal reporting dashboard"},
	)}
	lines := []types.ContextLine{
		headerLine(1, "Acme Corp — Senior Engineer"),
		bulletLine(2, 0, "Built internal reporting dashboard"),
	}
	draft := types.DraftPatch{
		Section:     "EXPERIENCE",
		Original:    "Built internal reporting dashboards",
		Variants:    []string{"Built internal reporting dashboards used by 30 teams"},
		SourceRanks: []int{1},
	}

	patch := r.Resolve(context.Background(), resumeID, draft, lines)
	require.NotNil(t, patch)
	require.NotNil(t, patch.BulletIndex)
	assert.Equal(t, 0, *patch.BulletIndex)
}

func TestResolveByContextFuzzyMatch(t *testing.T) {
	// No ranks at all: context fuzzy matching within the section finds it.
	r := &Reconciler{Store: storeWith(
		BulletRow{PartOrder: 0, Content: "Maintained backend services for internal tools"},
	)}
	lines := []types.ContextLine{
		bulletLine(1, 0, "Maintained backend services for internal tools"),
	}
	draft := types.DraftPatch{
		Section:  "EXPERIENCE",
		Original: "Maintained backend services for internal tooling",
		Variants: []string{"Maintained backend services using AWS"},
	}

	patch := r.Resolve(context.Background(), resumeID, draft, lines)
	require.NotNil(t, patch)
	assert.Equal(t, entityID, patch.EntityID)
	require.NotNil(t, patch.BulletIndex)
	assert.Equal(t, 0, *patch.BulletIndex)
}

func TestResolveStoreOverridesContextGuess(t *testing.T) {
	// Context line claims index 3 but the store's true rows say index 0.
	r := &Reconciler{Store: storeWith(
		BulletRow{PartOrder: 0, Content: "Built internal reporting dashboard"},
		BulletRow{PartOrder: 1, Content: "Reduced deploy time by 40%"},
	)}
	lines := []types.ContextLine{
		bulletLine(1, 3, "Built internal reporting dashboard"),
	}
	draft := types.DraftPatch{
		Section:     "EXPERIENCE",
		Original:    "Built internal reporting dashboards",
		Variants:    []string{"Built internal reporting dashboards for 12 teams"},
		SourceRanks: []int{1},
	}

	patch := r.Resolve(context.Background(), resumeID, draft, lines)
	require.NotNil(t, patch)
	require.NotNil(t, patch.BulletIndex)
	assert.Equal(t, 0, *patch.BulletIndex, "store-backed index must override the context guess")
}

func TestResolveAssignsNextFreePosition(t *testing.T) {
	// Entity known, original matches nothing: patch appends after the last
	// stored bullet.
	r := &Reconciler{Store: storeWith(
		BulletRow{PartOrder: 0, Content: "Completely unrelated content here"},
		BulletRow{PartOrder: 1, Content: "Equally unrelated other content"},
	)}
	draft := types.DraftPatch{
		Section:  "EXPERIENCE",
		EntityID: entityID.String(),
		Original: "Something the resume never said",
		Variants: []string{"Something new worth adding to the resume"},
	}

	patch := r.Resolve(context.Background(), resumeID, draft, nil)
	require.NotNil(t, patch)
	require.NotNil(t, patch.BulletIndex)
	assert.Equal(t, 2, *patch.BulletIndex)
}

func TestResolveDropsWhenNoEntity(t *testing.T) {
	r := &Reconciler{Store: &fakeStore{}}
	draft := types.DraftPatch{
		Section:  "EXPERIENCE",
		Original: "Ghost bullet matching nothing",
		Variants: []string{"Ghost bullet rewritten"},
	}

	assert.Nil(t, r.Resolve(context.Background(), resumeID, draft, nil))
}

func TestResolveDropsHeaderMatch(t *testing.T) {
	// Best context match is a header line: never a rewriting target.
	r := &Reconciler{Store: storeWith()}
	lines := []types.ContextLine{
		headerLine(1, "Acme Corp — Senior Platform Engineer"),
	}
	draft := types.DraftPatch{
		Section:  "EXPERIENCE",
		Original: "Acme Corp Senior Platform Engineer",
		Variants: []string{"Acme Corp — Principal Engineer"},
	}

	assert.Nil(t, r.Resolve(context.Background(), resumeID, draft, lines))
}

func TestResolveDropsEducationContent(t *testing.T) {
	eduID := uuid.New()
	lines := []types.ContextLine{
		{
			Chunk: types.Chunk{
				Section: types.SectionEducation,
				RefType: types.RefEducationDescription,
				RefID:   eduID,
				Content: "Thesis on distributed consensus protocols",
			},
			Rank: 1,
		},
	}
	r := &Reconciler{Store: &fakeStore{}}
	draft := types.DraftPatch{
		Section:  "EDUCATION",
		Original: "Thesis on distributed consensus protocols",
		Variants: []string{"Wrote thesis on distributed consensus"},
	}

	assert.Nil(t, r.Resolve(context.Background(), resumeID, draft, lines))
}

func TestResolveSectionNormalization(t *testing.T) {
	projID := uuid.New()
	lines := []types.ContextLine{
		{
			Chunk: types.Chunk{
				Section: types.SectionProject,
				RefType: types.RefProjectFeature,
				RefID:   projID,
				Content: "At-least-once delivery guarantees",
			},
			Rank: 1,
		},
	}
	r := &Reconciler{Store: &fakeStore{}}
	draft := types.DraftPatch{
		Section:  "PROJECTS", // plural from the model
		Original: "At-least-once delivery guarantees",
		Variants: []string{"Implemented at-least-once delivery guarantees"},
	}

	patch := r.Resolve(context.Background(), resumeID, draft, lines)
	require.NotNil(t, patch)
	assert.Equal(t, types.SectionProject, patch.Section)
	assert.Equal(t, projID, patch.EntityID)
	assert.Nil(t, patch.BulletIndex, "bullet index is only meaningful for experience patches")
}

func TestResolveStoreErrorSkipsStage(t *testing.T) {
	// Store failure must not kill the patch when context already placed it.
	store := &fakeStore{err: errors.New("connection reset")}
	r := &Reconciler{Store: store}
	lines := []types.ContextLine{
		bulletLine(1, 0, "Maintained backend services for internal tools"),
	}
	draft := types.DraftPatch{
		Section:     "EXPERIENCE",
		Original:    "Maintained backend services for internal tools",
		Variants:    []string{"Maintained AWS-backed services"},
		SourceRanks: []int{1},
	}

	patch := r.Resolve(context.Background(), resumeID, draft, lines)
	require.NotNil(t, patch)
	require.NotNil(t, patch.BulletIndex)
	assert.Equal(t, 0, *patch.BulletIndex)
}
