package types

import (
	"strings"

	"github.com/google/uuid"
)

// Section identifies the resume section a chunk belongs to.
type Section string

// Section constants cover every chunkable resume section.
const (
	SectionSummary    Section = "SUMMARY"
	SectionExperience Section = "EXPERIENCE"
	SectionProject    Section = "PROJECT"
	SectionSkill      Section = "SKILL"
	SectionEducation  Section = "EDUCATION"
)

// HeaderSuffix tags chunks that describe an entity (company/title, project
// name, school) rather than narrative content. Header chunks are retrieval
// context only and are never rewriting targets.
const HeaderSuffix = "_HEADER"

// RefType constants tag what kind of content a chunk carries within its section.
const (
	RefSummary               = "SUMMARY"
	RefExperienceHeader      = "EXPERIENCE_HEADER"
	RefExperienceBullet      = "EXPERIENCE_BULLET"
	RefExperienceAchievement = "EXPERIENCE_ACHIEVEMENT"
	RefExperienceTech        = "EXPERIENCE_TECH"
	RefExperienceMethod      = "EXPERIENCE_METHOD"
	RefExperienceDescription = "EXPERIENCE_DESCRIPTION"
	RefProjectHeader         = "PROJECT_HEADER"
	RefProjectShortDesc      = "PROJECT_SHORT_DESC"
	RefProjectFeature        = "PROJECT_FEATURE"
	RefProjectOutcome        = "PROJECT_OUTCOME"
	RefProjectImpact         = "PROJECT_IMPACT"
	RefSkillLine             = "SKILL_LINE"
	RefSkillCategory         = "SKILL_CATEGORY"
	RefEducationHeader       = "EDUCATION_HEADER"
	RefEducationDescription  = "EDUCATION_DESCRIPTION"
	RefEducationCourses      = "EDUCATION_COURSES"
	RefEducationHonors       = "EDUCATION_HONORS"
	RefEducationGPA          = "EDUCATION_GPA"
)

// Chunk is an addressable, section-tagged fragment of a resume's text
// content. PartOrder is unique within (ResumeID, Section, RefType, RefID).
type Chunk struct {
	ResumeID  uuid.UUID `json:"resume_id"`
	Section   Section   `json:"section"`
	RefType   string    `json:"ref_type"`
	RefID     uuid.UUID `json:"ref_id,omitempty"` // uuid.Nil when no owning record
	PartOrder int       `json:"part_order"`
	Content   string    `json:"content"`
}

// IsHeader reports whether the chunk is an entity header rather than
// rewritable narrative content.
func (c Chunk) IsHeader() bool {
	return strings.HasSuffix(c.RefType, HeaderSuffix)
}

// IsBulletLike reports whether the chunk is experience bullet content whose
// PartOrder is a meaningful bullet index.
func (c Chunk) IsBulletLike() bool {
	return c.RefType == RefExperienceBullet || c.RefType == RefExperienceAchievement
}

// ChunkHit is a chunk returned from the vector index with its distance from
// the query vector. Smaller distance means nearer.
type ChunkHit struct {
	Chunk
	Distance float64 `json:"distance"`
}

// ContextLine is a ranked, retrieval-ordered view of a chunk used to build
// the generation prompt. Rank is 1-based and assigned after reranking.
// BulletIndex is set only for bullet-like chunks.
type ContextLine struct {
	Chunk
	Rank        int  `json:"rank"`
	BulletIndex *int `json:"bullet_index,omitempty"`
}

// RewritableRefTypes lists, per section, the chunk content types that are
// valid rewriting targets. Education narrative is deliberately absent:
// rewriting education content is disallowed.
var RewritableRefTypes = map[Section][]string{
	SectionExperience: {RefExperienceBullet, RefExperienceAchievement, RefExperienceDescription},
	SectionProject:    {RefProjectFeature, RefProjectShortDesc, RefProjectOutcome, RefProjectImpact},
}

// IsRewritable reports whether a chunk of the given section and refType may
// be targeted by a bullet patch.
func IsRewritable(section Section, refType string) bool {
	for _, allowed := range RewritableRefTypes[section] {
		if refType == allowed {
			return true
		}
	}
	return false
}

// NormalizeSection maps loosely-reported section names onto the canonical
// enum. The plural "PROJECTS" is common in model output and folds into
// PROJECT. Returns ok=false for unknown or empty input.
func NormalizeSection(raw string) (Section, bool) {
	switch Section(strings.ToUpper(strings.TrimSpace(raw))) {
	case SectionSummary:
		return SectionSummary, true
	case SectionExperience, "EXPERIENCES", "WORK":
		return SectionExperience, true
	case SectionProject, "PROJECTS":
		return SectionProject, true
	case SectionSkill, "SKILLS":
		return SectionSkill, true
	case SectionEducation:
		return SectionEducation, true
	default:
		return "", false
	}
}
