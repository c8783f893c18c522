// Package keywords provides lexical keyword extraction from job descriptions
// and truth-checking of keyword claims against final resume text.
package keywords

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxKeywords caps how many keywords are extracted from a job
// description.
const DefaultMaxKeywords = 12

// stopWords excludes common English function words plus generic job-posting
// and resume noise terms that carry no matching signal.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true, "has": true,
	"have": true, "in": true, "is": true, "it": true, "its": true, "of": true,
	"on": true, "or": true, "our": true, "that": true, "the": true, "their": true,
	"this": true, "to": true, "we": true, "will": true, "with": true, "you": true,
	"your": true, "not": true, "they": true, "them": true, "who": true, "what": true,
	"all": true, "can": true, "do": true, "if": true, "into": true, "more": true,
	"other": true, "so": true, "such": true, "than": true, "these": true, "through": true,
	"us": true, "was": true, "were": true, "when": true, "where": true, "which": true,
	"while": true, "would": true, "about": true, "across": true, "also": true,

	// job-posting noise
	"ability": true, "applicant": true, "applicants": true, "apply": true,
	"benefits": true, "candidate": true, "candidates": true, "company": true,
	"employee": true, "employees": true, "equal": true, "excellent": true,
	"experience": true, "experienced": true, "hiring": true, "ideal": true,
	"job": true, "join": true, "looking": true, "opportunity": true,
	"opportunities": true, "plus": true, "position": true, "preferred": true,
	"qualifications": true, "required": true, "requirements": true, "responsibilities": true,
	"role": true, "salary": true, "seeking": true, "skills": true, "strong": true,
	"team": true, "work": true, "working": true, "years": true, "year": true,

	// resume noise
	"resume": true, "cv": true, "references": true, "objective": true,
}

var tokenPattern = regexp.MustCompile(`[a-z0-9][a-z0-9+#./-]*`)

// Extract returns up to maxKeywords lexical keywords from the job
// description, most frequent first, ties broken by first appearance. Tokens
// are lowercased; stop words and very short tokens are excluded. A
// maxKeywords <= 0 falls back to DefaultMaxKeywords.
func Extract(jobText string, maxKeywords int) []string {
	if maxKeywords <= 0 {
		maxKeywords = DefaultMaxKeywords
	}

	tokens := tokenPattern.FindAllString(strings.ToLower(jobText), -1)

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, tok := range tokens {
		tok = strings.Trim(tok, "./-")
		if len(tok) < 3 && !isShortTechTerm(tok) {
			continue
		}
		if stopWords[tok] {
			continue
		}
		if _, seen := counts[tok]; !seen {
			firstSeen[tok] = i
		}
		counts[tok]++
	}

	keywords := make([]string, 0, len(counts))
	for tok := range counts {
		keywords = append(keywords, tok)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return firstSeen[keywords[i]] < firstSeen[keywords[j]]
	})

	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

// isShortTechTerm whitelists two-character tokens that are real technology
// names rather than noise.
func isShortTechTerm(tok string) bool {
	switch tok {
	case "go", "c#", "c++", "ai", "ml", "ci", "cd", "qa", "ux", "r":
		return true
	}
	return false
}

// CountMatches returns how many of the keywords appear as case-insensitive
// substrings in text.
func CountMatches(text string, kws []string) int {
	lower := strings.ToLower(text)
	matches := 0
	for _, kw := range kws {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			matches++
		}
	}
	return matches
}
