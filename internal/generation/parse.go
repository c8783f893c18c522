package generation

import (
	_ "embed"
	"encoding/json"
	"log"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/resume-tailor/internal/types"
)

//go:embed schema.json
var draftPlanSchema string

// ParseDraftPlan parses the model's JSON response into a DraftPlan on a
// best-effort basis. Unparseable or wrongly-typed fields degrade to zero
// values; the function never fails. A completely unusable response yields an
// empty plan with zero patches.
func ParseDraftPlan(content string) *types.DraftPlan {
	plan := &types.DraftPlan{}
	if content == "" {
		return plan
	}

	checkDraftShape(content)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		log.Printf("[generation] unparseable model response, continuing with empty plan: %v", err)
		return plan
	}

	plan.ATSScoreBefore = intField(raw, "atsScoreBefore")
	plan.ATSScoreAfter = intField(raw, "atsScoreAfter")
	plan.KeywordsToAdd = stringsField(raw, "keywordsToAdd")
	plan.KeywordsMissing = stringsField(raw, "keywordsMissing")
	plan.SectionOrder = stringsField(raw, "sectionOrder")
	plan.Patches = patchesField(raw, "bulletPatches")
	return plan
}

// checkDraftShape validates the response against the embedded draft-plan
// schema. Violations are logged only; the tolerant field-by-field parse
// still runs so partially-shaped output contributes whatever it can.
func checkDraftShape(content string) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(draftPlanSchema),
		gojsonschema.NewStringLoader(content),
	)
	if err != nil {
		log.Printf("[generation] draft plan schema check failed: %v", err)
		return
	}
	if !result.Valid() {
		for _, desc := range result.Errors() {
			log.Printf("[generation] draft plan shape violation: %s", desc)
		}
	}
}

func intField(raw map[string]json.RawMessage, key string) int {
	msg, ok := raw[key]
	if !ok {
		return 0
	}
	var n float64
	if err := json.Unmarshal(msg, &n); err != nil {
		return 0
	}
	return int(n)
}

func stringField(raw map[string]json.RawMessage, key string) string {
	msg, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return ""
	}
	return s
}

func stringsField(raw map[string]json.RawMessage, key string) []string {
	msg, ok := raw[key]
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(msg, &items); err != nil {
		return nil
	}
	var out []string
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func intsField(raw map[string]json.RawMessage, key string) []int {
	msg, ok := raw[key]
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(msg, &items); err != nil {
		return nil
	}
	var out []int
	for _, item := range items {
		var n float64
		if err := json.Unmarshal(item, &n); err == nil {
			out = append(out, int(n))
		}
	}
	return out
}

func optionalIntField(raw map[string]json.RawMessage, key string) *int {
	msg, ok := raw[key]
	if !ok || string(msg) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(msg, &n); err != nil {
		return nil
	}
	return types.IntPtr(int(n))
}

func patchesField(raw map[string]json.RawMessage, key string) []types.DraftPatch {
	msg, ok := raw[key]
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(msg, &items); err != nil {
		log.Printf("[generation] malformed %s array, dropping: %v", key, err)
		return nil
	}

	var patches []types.DraftPatch
	for i, item := range items {
		var rawPatch map[string]json.RawMessage
		if err := json.Unmarshal(item, &rawPatch); err != nil {
			log.Printf("[generation] malformed patch %d, dropping: %v", i, err)
			continue
		}
		patch := types.DraftPatch{
			Section:       stringField(rawPatch, "section"),
			EntityID:      stringField(rawPatch, "entityId"),
			BulletIndex:   optionalIntField(rawPatch, "bulletIndex"),
			Original:      stringField(rawPatch, "original"),
			Variants:      stringsField(rawPatch, "variants"),
			KeywordsAdded: stringsField(rawPatch, "keywordsAdded"),
			SourceRanks:   intsField(rawPatch, "sourceRanks"),
		}
		if patch.Original == "" && len(patch.Variants) == 0 {
			continue
		}
		patches = append(patches, patch)
	}
	return patches
}
