// Package ingestion loads tailoring inputs: job descriptions from files or
// job-board URLs, and structured resumes from JSON.
package ingestion

import (
	"context"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/jonathan/resume-tailor/internal/fetch"
)

var (
	multiSpace = regexp.MustCompile(`\s+`)
	blankRuns  = regexp.MustCompile(`\n\n\n+`)
)

// CleanText normalizes job description text while preserving its line
// structure: line endings are unified, per-line whitespace collapsed, and
// runs of blank lines reduced.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned = append(cleaned, multiSpace.ReplaceAllString(strings.TrimSpace(line), " "))
	}

	result := strings.Join(cleaned, "\n")
	result = blankRuns.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// JobFromFile reads a plain-text job description and cleans it.
func JobFromFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read job description: %w", err)
	}

	cleaned := CleanText(string(content))
	if cleaned == "" {
		return "", fmt.Errorf("job description file %s is empty", path)
	}
	return cleaned, nil
}

// JobFromURL fetches a job posting, extracts its description text with
// platform-aware selectors, and cleans it.
func JobFromURL(ctx context.Context, urlStr string, verbose bool) (string, error) {
	platform := fetch.DetectPlatform(urlStr)
	if verbose {
		log.Printf("[VERBOSE] URL: %s", urlStr)
		log.Printf("[VERBOSE] Detected platform: %s", platform)
	}

	result, err := fetch.URL(ctx, urlStr, nil)
	if err != nil {
		return "", fmt.Errorf("fetching job posting failed: %w", err)
	}
	if verbose {
		log.Printf("[VERBOSE] Fetched HTML: %d bytes", len(result.HTML))
	}

	text, err := fetch.ExtractJobText(result.HTML, platform)
	if err != nil {
		return "", fmt.Errorf("extracting job text failed: %w", err)
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return "", fmt.Errorf("no job description text found at %s", urlStr)
	}
	if verbose {
		log.Printf("[VERBOSE] Cleaned text: %d chars", len(cleaned))
	}
	return cleaned, nil
}
