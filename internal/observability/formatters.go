// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-tailor/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintKeywords outputs the extracted target keywords.
func (p *Printer) PrintKeywords(kws []string) {
	if len(kws) == 0 {
		return
	}
	p.printBox("Target Keywords", strings.Join(kws, ", "))
}

// PrintContextLines outputs the reranked retrieval context.
func (p *Printer) PrintContextLines(lines []types.ContextLine) {
	if len(lines) == 0 {
		return
	}

	var sb strings.Builder
	for i, line := range lines {
		if i >= maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(lines)-maxItemsToShow))
			break
		}
		sb.WriteString(fmt.Sprintf("%d) [%s/%s] %s\n", line.Rank, line.Section, line.RefType, line.Content))
	}
	p.printBox(fmt.Sprintf("Retrieved Context (%d lines)", len(lines)), strings.TrimRight(sb.String(), "\n"))
}

// PrintChunkSummary outputs per-section chunk counts after reindexing.
func (p *Printer) PrintChunkSummary(chunks []types.Chunk) {
	if len(chunks) == 0 {
		return
	}

	counts := make(map[types.Section]int)
	var order []types.Section
	for _, chunk := range chunks {
		if counts[chunk.Section] == 0 {
			order = append(order, chunk.Section)
		}
		counts[chunk.Section]++
	}

	var sb strings.Builder
	for _, section := range order {
		sb.WriteString(fmt.Sprintf("%-12s %d\n", section, counts[section]))
	}
	p.printBox(fmt.Sprintf("Indexed Chunks (%d total)", len(chunks)), strings.TrimRight(sb.String(), "\n"))
}

// PrintPlan outputs a human-readable summary of the final tailoring plan.
func (p *Printer) PrintPlan(plan *types.TailorPlan) {
	if plan == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ATS Score: %d -> %d\n", plan.ATSScoreBefore, plan.ATSScoreAfter))
	sb.WriteString(fmt.Sprintf("Patches:   %d\n", len(plan.Patches)))
	if len(plan.GlobalKeywordsToAdd) > 0 {
		sb.WriteString(fmt.Sprintf("To add:    %s\n", strings.Join(plan.GlobalKeywordsToAdd, ", ")))
	}
	if len(plan.GlobalKeywordsMissing) > 0 {
		sb.WriteString(fmt.Sprintf("Missing:   %s\n", strings.Join(plan.GlobalKeywordsMissing, ", ")))
	}
	sb.WriteString("\n")

	for i, patch := range plan.Patches {
		if i >= maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more patches\n", len(plan.Patches)-maxItemsToShow))
			break
		}
		sb.WriteString(fmt.Sprintf("[%s] %s\n", patch.Section, patch.OriginalText))
		for _, variant := range patch.Variants {
			sb.WriteString(fmt.Sprintf("  -> %s\n", variant))
		}
	}

	p.printBox("Tailoring Plan", strings.TrimRight(sb.String(), "\n"))
	fmt.Fprintf(p.out, "Model: %s/%s (%dms, prompts %s)\n",
		plan.Provenance.Provider, plan.Provenance.Model,
		plan.Provenance.LatencyMs, plan.Provenance.PromptVersion)
}
