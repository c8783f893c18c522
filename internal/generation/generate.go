// Package generation assembles tailoring prompts and turns model responses
// into untrusted draft plans.
package generation

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-tailor/internal/llm"
	"github.com/jonathan/resume-tailor/internal/prompts"
	"github.com/jonathan/resume-tailor/internal/retrieval"
	"github.com/jonathan/resume-tailor/internal/types"
)

// DefaultJobClampChars caps how much of the job description enters the prompt.
const DefaultJobClampChars = 1800

// promptFile is the embedded prompt asset for the tailoring pipeline.
const promptFile = "tailoring.json"

// APICallError represents a generative-model transport failure. These are
// fatal for the current tailoring request.
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// Options configures plan generation.
type Options struct {
	JobClampChars int
	ModelOverride string
}

// PromptVersion returns the version tag of the embedded tailoring prompts.
func PromptVersion() string {
	return prompts.Version(promptFile)
}

// GeneratePlan builds the batch tailoring prompt from the reranked context
// and invokes the generative model. Transport failures return an error;
// malformed response content degrades to an empty draft plan.
func GeneratePlan(ctx context.Context, client llm.Client, jobText string, kws []string, lines []types.ContextLine, opts Options) (*types.DraftPlan, *types.Provenance, error) {
	template, err := prompts.Get(promptFile, "tailor_plan")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load tailoring prompt: %w", err)
	}

	prompt := prompts.Format(template, map[string]string{
		"JobDescription": clampText(jobText, jobClamp(opts)),
		"Keywords":       strings.Join(kws, ", "),
		"Context":        retrieval.BuildContextString(lines),
	})

	gen, err := client.GenerateJSON(ctx, prompt, llm.TierAdvanced, opts.ModelOverride, llm.BatchPlanParams())
	if err != nil {
		return nil, nil, &APICallError{Message: "plan generation call failed", Cause: err}
	}

	provenance := &types.Provenance{
		Provider:      gen.Provider,
		Model:         gen.Model,
		LatencyMs:     gen.LatencyMs,
		PromptVersion: PromptVersion(),
	}
	return ParseDraftPlan(gen.Content), provenance, nil
}

// GenerateSinglePatch asks the model to rewrite exactly one context line.
// Used by sparse-plan augmentation. Returns nil (no error) when the response
// contains no usable patch.
func GenerateSinglePatch(ctx context.Context, client llm.Client, jobText string, kws []string, line types.ContextLine, opts Options) (*types.DraftPatch, error) {
	template, err := prompts.Get(promptFile, "single_patch")
	if err != nil {
		return nil, fmt.Errorf("failed to load single-patch prompt: %w", err)
	}

	prompt := prompts.Format(template, map[string]string{
		"JobDescription": clampText(jobText, jobClamp(opts)),
		"Keywords":       strings.Join(kws, ", "),
		"Line":           retrieval.BuildContextString([]types.ContextLine{line}),
	})

	gen, err := client.GenerateJSON(ctx, prompt, llm.TierStandard, opts.ModelOverride, llm.SinglePatchParams())
	if err != nil {
		return nil, &APICallError{Message: "single-patch generation call failed", Cause: err}
	}

	plan := ParseDraftPlan(gen.Content)
	if len(plan.Patches) == 0 {
		return nil, nil
	}

	patch := plan.Patches[0]
	// The model often echoes a sloppy original; pin the patch to the line it
	// was asked about so reconciliation has a trustworthy anchor.
	if patch.Original == "" {
		patch.Original = line.Content
	}
	if patch.Section == "" {
		patch.Section = string(line.Section)
	}
	if patch.EntityID == "" {
		patch.EntityID = line.RefID.String()
	}
	patch.SourceRanks = []int{line.Rank}
	return &patch, nil
}

func jobClamp(opts Options) int {
	if opts.JobClampChars > 0 {
		return opts.JobClampChars
	}
	return DefaultJobClampChars
}

// clampText cuts text to at most limit bytes without splitting a rune.
func clampText(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit]
}
