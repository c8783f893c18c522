package types

import "github.com/google/uuid"

// DraftPatch is one proposed rewrite exactly as the model reported it.
// Every field is untrusted: the section may be misspelled, the entity id may
// be missing or wrong, and keyword claims are unverified. Reconciliation
// turns a DraftPatch into a BulletPatch or discards it.
type DraftPatch struct {
	Section       string   `json:"section"`
	EntityID      string   `json:"entityId,omitempty"`
	BulletIndex   *int     `json:"bulletIndex,omitempty"`
	Original      string   `json:"original"`
	Variants      []string `json:"variants"`
	KeywordsAdded []string `json:"keywordsAdded,omitempty"`
	SourceRanks   []int    `json:"sourceRanks,omitempty"`
}

// DraftPlan is the model's raw edit plan. It is an unvalidated type: nothing
// in it may reach a caller without passing reconciliation, validation, and
// the keyword/score recomputation stages.
type DraftPlan struct {
	ATSScoreBefore  int          `json:"atsScoreBefore"`
	ATSScoreAfter   int          `json:"atsScoreAfter"`
	KeywordsToAdd   []string     `json:"keywordsToAdd,omitempty"`
	KeywordsMissing []string     `json:"keywordsMissing,omitempty"`
	Patches         []DraftPatch `json:"bulletPatches,omitempty"`
	SectionOrder    []string     `json:"sectionOrder,omitempty"`
}

// BulletPatch is a reconciled, validated rewrite of one resume text unit.
// In a final plan no two patches share (Section, EntityID, BulletIndex) and
// no two patches share (Section, normalized OriginalText). KeywordsAdded is
// recomputed from the variants, never taken from the model.
type BulletPatch struct {
	Section       Section   `json:"section"`
	EntityID      uuid.UUID `json:"entity_id,omitempty"` // uuid.Nil when section has no entity
	BulletIndex   *int      `json:"bullet_index,omitempty"`
	OriginalText  string    `json:"original_text"`
	Variants      []string  `json:"variants"`
	KeywordsAdded []string  `json:"keywords_added,omitempty"`
}

// SamePosition reports whether two patches target the same structured
// position.
func (p BulletPatch) SamePosition(other BulletPatch) bool {
	if p.Section != other.Section || p.EntityID != other.EntityID {
		return false
	}
	if (p.BulletIndex == nil) != (other.BulletIndex == nil) {
		return false
	}
	return p.BulletIndex == nil || *p.BulletIndex == *other.BulletIndex
}

// Provenance records which model produced the plan and how long it took.
type Provenance struct {
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	LatencyMs     int64  `json:"latency_ms"`
	PromptVersion string `json:"prompt_version"`
}

// TailorPlan is the final, validated, position-resolved output of one
// tailoring request. Scores and keyword lists are recomputed independently
// of the model. Invariant: ATSScoreAfter >= ATSScoreBefore.
type TailorPlan struct {
	ATSScoreBefore        int           `json:"ats_score_before"`
	ATSScoreAfter         int           `json:"ats_score_after"`
	GlobalKeywordsToAdd   []string      `json:"global_keywords_to_add,omitempty"`
	GlobalKeywordsMissing []string      `json:"global_keywords_missing,omitempty"`
	Patches               []BulletPatch `json:"patches"`
	SectionOrderSuggested []string      `json:"section_order_suggested,omitempty"`
	Provenance            Provenance    `json:"provenance"`
}

// IntPtr returns a pointer to v. Helper for optional bullet indexes.
func IntPtr(v int) *int {
	return &v
}
