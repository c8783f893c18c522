package dedup

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tailor/internal/types"
)

var entity = uuid.MustParse("22222222-2222-2222-2222-222222222222")

func TestMergeBySameOriginal(t *testing.T) {
	patches := []types.BulletPatch{
		{
			Section:       types.SectionExperience,
			EntityID:      entity,
			BulletIndex:   types.IntPtr(0),
			OriginalText:  "Built internal reporting dashboard",
			Variants:      []string{"Built internal dashboards for 12 teams"},
			KeywordsAdded: []string{"dashboards"},
		},
		{
			Section:       types.SectionExperience,
			EntityID:      entity,
			BulletIndex:   types.IntPtr(0),
			OriginalText:  "Built internal reporting dashboards!", // same after normalization
			Variants:      []string{"Built reporting dashboards used across the org"},
			KeywordsAdded: []string{"reporting"},
		},
	}

	result := Patches(patches)
	require.Len(t, result, 1)
	assert.Len(t, result[0].Variants, 2)
	assert.ElementsMatch(t, []string{"dashboards", "reporting"}, result[0].KeywordsAdded)
}

func TestCollapseBySamePosition(t *testing.T) {
	patches := []types.BulletPatch{
		{
			Section:      types.SectionExperience,
			EntityID:     entity,
			BulletIndex:  types.IntPtr(1),
			OriginalText: "Reduced deploy time by 40%",
			Variants:     []string{"one variant"},
		},
		{
			Section:      types.SectionExperience,
			EntityID:     entity,
			BulletIndex:  types.IntPtr(1),
			OriginalText: "Completely different original text",
			Variants:     []string{"first variant", "second variant"},
		},
	}

	result := Patches(patches)
	require.Len(t, result, 1)
	assert.Equal(t, "Completely different original text", result[0].OriginalText, "patch with more variants wins")
}

func TestDistinctPositionsSurvive(t *testing.T) {
	other := uuid.New()
	patches := []types.BulletPatch{
		{Section: types.SectionExperience, EntityID: entity, BulletIndex: types.IntPtr(0), OriginalText: "First bullet text", Variants: []string{"a"}},
		{Section: types.SectionExperience, EntityID: entity, BulletIndex: types.IntPtr(1), OriginalText: "Second bullet text", Variants: []string{"b"}},
		{Section: types.SectionProject, EntityID: other, OriginalText: "Project feature text", Variants: []string{"c"}},
	}

	result := Patches(patches)
	assert.Len(t, result, 3)

	// Final-plan invariant: positions are unique
	for i := range result {
		for j := i + 1; j < len(result); j++ {
			assert.False(t, result[i].SamePosition(result[j]))
		}
	}
}

func TestEmptyInput(t *testing.T) {
	assert.Empty(t, Patches(nil))
}
