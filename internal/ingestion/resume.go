package ingestion

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/resume-tailor/internal/types"
)

var validate = validator.New()

// LoadResume reads a structured resume from JSON, assigns IDs where the
// file omits them, and validates required fields.
func LoadResume(path string) (*types.Resume, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume: %w", err)
	}
	return ParseResume(content)
}

// ParseResume decodes and validates resume JSON.
func ParseResume(content []byte) (*types.Resume, error) {
	var resume types.Resume
	if err := json.Unmarshal(content, &resume); err != nil {
		return nil, fmt.Errorf("failed to parse resume JSON: %w", err)
	}

	AssignIDs(&resume)

	if err := validate.Struct(&resume); err != nil {
		return nil, fmt.Errorf("resume failed validation: %w", err)
	}
	if resume.Summary == "" && len(resume.Experiences) == 0 && len(resume.Projects) == 0 {
		return nil, fmt.Errorf("resume has no content to index")
	}
	return &resume, nil
}

// AssignIDs fills in any missing entity IDs. IDs present in the input are
// kept so re-loading a resume stays stable.
func AssignIDs(resume *types.Resume) {
	if resume.ID == uuid.Nil {
		resume.ID = uuid.New()
	}
	for i := range resume.Experiences {
		if resume.Experiences[i].ID == uuid.Nil {
			resume.Experiences[i].ID = uuid.New()
		}
	}
	for i := range resume.Projects {
		if resume.Projects[i].ID == uuid.Nil {
			resume.Projects[i].ID = uuid.New()
		}
	}
	for i := range resume.Education {
		if resume.Education[i].ID == uuid.Nil {
			resume.Education[i].ID = uuid.New()
		}
	}
}
