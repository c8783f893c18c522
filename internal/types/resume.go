// Package types provides type definitions for structured data used throughout the resume-tailor system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"

	"github.com/google/uuid"
)

// Resume is the full structured tree for one candidate resume.
// It is the input to chunking and the reference text for keyword truth
// checking and ATS scoring.
type Resume struct {
	ID          uuid.UUID       `json:"id"`
	Summary     string          `json:"summary,omitempty"`
	Experiences []Experience    `json:"experiences,omitempty"`
	Projects    []Project       `json:"projects,omitempty"`
	Skills      []SkillCategory `json:"skills,omitempty"`
	Education   []Education     `json:"education,omitempty"`
}

// Experience is one work-experience entry with its rewritable content.
type Experience struct {
	ID           uuid.UUID `json:"id"`
	Company      string    `json:"company" validate:"required"`
	Title        string    `json:"title" validate:"required"`
	StartDate    string    `json:"start_date,omitempty"` // "YYYY-MM"
	EndDate      string    `json:"end_date,omitempty"`   // "YYYY-MM" or empty for current
	Bullets      []string  `json:"bullets,omitempty"`
	Achievements []string  `json:"achievements,omitempty"`
	Technologies []string  `json:"technologies,omitempty"`
	Methods      []string  `json:"methods,omitempty"`
	// STAR narrative fields; joined into a single description chunk.
	Situation string `json:"situation,omitempty"`
	Task      string `json:"task,omitempty"`
	Action    string `json:"action,omitempty"`
	Result    string `json:"result,omitempty"`
}

// Project is one project entry.
type Project struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name" validate:"required"`
	Description   string    `json:"description,omitempty"`
	Features      []string  `json:"features,omitempty"`
	Outcome       string    `json:"outcome,omitempty"`
	ImpactMetrics []string  `json:"impact_metrics,omitempty"`
	Technologies  []string  `json:"technologies,omitempty"`
}

// SkillCategory groups skills under a named category (e.g. "Languages").
type SkillCategory struct {
	Name   string   `json:"name" validate:"required"`
	Skills []string `json:"skills" validate:"min=1"`
}

// Education is one education entry. Narrative education content is never
// rewritten by the pipeline; it is chunked for retrieval context only.
type Education struct {
	ID          uuid.UUID `json:"id"`
	School      string    `json:"school" validate:"required"`
	Degree      string    `json:"degree,omitempty"`
	StartDate   string    `json:"start_date,omitempty"`
	EndDate     string    `json:"end_date,omitempty"`
	Description string    `json:"description,omitempty"`
	Courses     []string  `json:"courses,omitempty"`
	Honors      []string  `json:"honors,omitempty"`
	GPA         string    `json:"gpa,omitempty"`
}

// FullText reconstructs the complete plain text of the resume, one content
// unit per line. Used by the keyword truth checker and the ATS scorer as the
// source of truth for what the resume currently says.
func (r *Resume) FullText() string {
	var lines []string
	add := func(s string) {
		if s != "" {
			lines = append(lines, s)
		}
	}

	add(r.Summary)
	for _, exp := range r.Experiences {
		add(exp.Company + " " + exp.Title)
		for _, b := range exp.Bullets {
			add(b)
		}
		for _, a := range exp.Achievements {
			add(a)
		}
		add(joinNonEmpty(exp.Technologies))
		add(joinNonEmpty(exp.Methods))
		add(joinNonEmptyStrings(exp.Situation, exp.Task, exp.Action, exp.Result))
	}
	for _, proj := range r.Projects {
		add(proj.Name)
		add(proj.Description)
		for _, f := range proj.Features {
			add(f)
		}
		add(proj.Outcome)
		for _, m := range proj.ImpactMetrics {
			add(m)
		}
		add(joinNonEmpty(proj.Technologies))
	}
	for _, cat := range r.Skills {
		add(cat.Name + ": " + joinNonEmpty(cat.Skills))
	}
	for _, edu := range r.Education {
		add(edu.School + " " + edu.Degree)
		add(edu.Description)
		add(joinNonEmpty(edu.Courses))
		add(joinNonEmpty(edu.Honors))
	}

	return strings.Join(lines, "\n")
}

func joinNonEmpty(items []string) string {
	var kept []string
	for _, item := range items {
		if item != "" {
			kept = append(kept, item)
		}
	}
	return strings.Join(kept, ", ")
}

func joinNonEmptyStrings(items ...string) string {
	var kept []string
	for _, item := range items {
		if item != "" {
			kept = append(kept, item)
		}
	}
	return strings.Join(kept, " ")
}
