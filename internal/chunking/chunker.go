// Package chunking decomposes a structured resume into ordered, addressable
// text chunks for embedding and retrieval.
package chunking

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jonathan/resume-tailor/internal/types"
)

// DefaultChunkClampChars caps the length of a single chunk's content.
const DefaultChunkClampChars = 350

// Chunker decomposes resumes into chunks. The zero value is usable; ClampChars
// falls back to DefaultChunkClampChars when unset.
type Chunker struct {
	ClampChars int
}

// ChunkResume walks the resume tree in section order and emits one chunk per
// non-blank content unit. Blank or whitespace-only fields produce no chunk.
// PartOrder restarts at 0 for each (section, refType, refID) group, so it is
// a stable index within that group across rebuilds of an unchanged resume.
func (c Chunker) ChunkResume(resume *types.Resume) []types.Chunk {
	if resume == nil {
		return nil
	}

	b := &builder{resumeID: resume.ID, clamp: c.clamp()}

	b.add(types.SectionSummary, types.RefSummary, uuid.Nil, resume.Summary)

	for _, exp := range resume.Experiences {
		header := joinFields(" — ", exp.Company, exp.Title, dateRange(exp.StartDate, exp.EndDate))
		b.add(types.SectionExperience, types.RefExperienceHeader, exp.ID, header)
		b.addAll(types.SectionExperience, types.RefExperienceBullet, exp.ID, exp.Bullets)
		b.addAll(types.SectionExperience, types.RefExperienceAchievement, exp.ID, exp.Achievements)
		b.add(types.SectionExperience, types.RefExperienceTech, exp.ID, strings.Join(exp.Technologies, ", "))
		b.add(types.SectionExperience, types.RefExperienceMethod, exp.ID, strings.Join(exp.Methods, ", "))
		b.add(types.SectionExperience, types.RefExperienceDescription, exp.ID,
			joinFields(" ", exp.Situation, exp.Task, exp.Action, exp.Result))
	}

	for _, proj := range resume.Projects {
		header := joinFields(" — ", proj.Name, strings.Join(proj.Technologies, ", "))
		b.add(types.SectionProject, types.RefProjectHeader, proj.ID, header)
		b.add(types.SectionProject, types.RefProjectShortDesc, proj.ID, proj.Description)
		b.addAll(types.SectionProject, types.RefProjectFeature, proj.ID, proj.Features)
		b.add(types.SectionProject, types.RefProjectOutcome, proj.ID, proj.Outcome)
		b.addAll(types.SectionProject, types.RefProjectImpact, proj.ID, proj.ImpactMetrics)
	}

	var flat []string
	for _, cat := range resume.Skills {
		flat = append(flat, cat.Skills...)
	}
	b.add(types.SectionSkill, types.RefSkillLine, uuid.Nil, strings.Join(flat, ", "))
	for _, cat := range resume.Skills {
		line := cat.Name + ": " + strings.Join(cat.Skills, ", ")
		if len(cat.Skills) == 0 {
			line = ""
		}
		b.add(types.SectionSkill, types.RefSkillCategory, uuid.Nil, line)
	}

	for _, edu := range resume.Education {
		header := joinFields(" — ", edu.School, edu.Degree, dateRange(edu.StartDate, edu.EndDate))
		b.add(types.SectionEducation, types.RefEducationHeader, edu.ID, header)
		b.add(types.SectionEducation, types.RefEducationDescription, edu.ID, edu.Description)
		b.add(types.SectionEducation, types.RefEducationCourses, edu.ID, strings.Join(edu.Courses, ", "))
		b.add(types.SectionEducation, types.RefEducationHonors, edu.ID, strings.Join(edu.Honors, ", "))
		if edu.GPA != "" {
			b.add(types.SectionEducation, types.RefEducationGPA, edu.ID, "GPA: "+edu.GPA)
		}
	}

	return b.chunks
}

func (c Chunker) clamp() int {
	if c.ClampChars > 0 {
		return c.ClampChars
	}
	return DefaultChunkClampChars
}

// builder accumulates chunks and tracks per-group part orders.
type builder struct {
	resumeID uuid.UUID
	clamp    int
	chunks   []types.Chunk
	orders   map[string]int
}

func (b *builder) add(section types.Section, refType string, refID uuid.UUID, content string) {
	content = NormalizeWhitespace(content)
	if content == "" {
		return
	}
	content = clampBytes(content, b.clamp)

	if b.orders == nil {
		b.orders = make(map[string]int)
	}
	key := string(section) + "/" + refType + "/" + refID.String()
	order := b.orders[key]
	b.orders[key] = order + 1

	b.chunks = append(b.chunks, types.Chunk{
		ResumeID:  b.resumeID,
		Section:   section,
		RefType:   refType,
		RefID:     refID,
		PartOrder: order,
		Content:   content,
	})
}

func (b *builder) addAll(section types.Section, refType string, refID uuid.UUID, items []string) {
	for _, item := range items {
		b.add(section, refType, refID, item)
	}
}

// clampBytes cuts text to at most limit bytes, backing up so a multi-byte
// rune is never split.
func clampBytes(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}

// NormalizeWhitespace collapses all interior whitespace runs to single
// spaces and trims the ends.
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func joinFields(sep string, fields ...string) string {
	var kept []string
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, sep)
}

func dateRange(start, end string) string {
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return start + " – Present"
	case start == "":
		return end
	default:
		return start + " – " + end
	}
}
