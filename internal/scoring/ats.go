// Package scoring computes deterministic ATS-style scores for a resume
// against a job description. Scores never depend on model self-reports.
package scoring

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/resume-tailor/internal/keywords"
	"github.com/jonathan/resume-tailor/internal/types"
)

// Weights are the six scoring factor weights. They must sum to 100.
type Weights struct {
	KeywordCoverage int `json:"keyword_coverage" validate:"gte=0,lte=100"`
	VerbDensity     int `json:"verb_density" validate:"gte=0,lte=100"`
	MetricDensity   int `json:"metric_density" validate:"gte=0,lte=100"`
	SkillOverlap    int `json:"skill_overlap" validate:"gte=0,lte=100"`
	Recency         int `json:"recency" validate:"gte=0,lte=100"`
	Formatting      int `json:"formatting" validate:"gte=0,lte=100"`
}

// DefaultWeights returns the standard factor weighting.
func DefaultWeights() Weights {
	return Weights{
		KeywordCoverage: 40,
		VerbDensity:     20,
		MetricDensity:   20,
		SkillOverlap:    10,
		Recency:         5,
		Formatting:      5,
	}
}

// Validate checks the weights sum to 100.
func (w Weights) Validate() error {
	sum := w.KeywordCoverage + w.VerbDensity + w.MetricDensity + w.SkillOverlap + w.Recency + w.Formatting
	if sum != 100 {
		return fmt.Errorf("ATS weights must sum to 100, got %d", sum)
	}
	return nil
}

// MaxAfterBonus caps the improvement bonus applied to the simulated
// post-plan score.
const MaxAfterBonus = 7

// Common strong action verbs for resume bullets (heuristic check)
var strongVerbs = map[string]bool{
	"achieved": true, "architected": true, "automated": true, "built": true,
	"created": true, "delivered": true, "designed": true, "developed": true,
	"engineered": true, "implemented": true, "improved": true, "increased": true,
	"launched": true, "led": true, "maintained": true, "migrated": true,
	"optimized": true, "reduced": true, "scaled": true, "shipped": true,
	"streamlined": true, "transformed": true,
}

// commonSkills is a fixed vocabulary for the skill-overlap factor.
var commonSkills = []string{
	"aws", "azure", "gcp", "docker", "kubernetes", "terraform", "linux",
	"postgresql", "mysql", "mongodb", "redis", "kafka", "sql",
	"python", "java", "javascript", "typescript", "golang", " go ", "rust",
	"react", "node", "grpc", "rest", "graphql", "ci/cd", "git",
	"microservices", "machine learning",
}

var (
	percentPattern    = regexp.MustCompile(`\d+(\.\d+)?%`)
	multiDigitPattern = regexp.MustCompile(`\b\d{2,}\b`)
	currencyPattern   = regexp.MustCompile(`[$€£]\s?\d`)
	durationPattern   = regexp.MustCompile(`(?i)\b\d+\+?\s*(years?|months?|weeks?|days?|hours?)\b`)
	yearPattern       = regexp.MustCompile(`\b(20\d{2})\b`)
	noiseSymbols      = regexp.MustCompile(`[*_~^#|<>{}\\]`)
	firstPerson       = regexp.MustCompile(`(?i)\b(i|me|my|myself|we|our)\b`)
)

// Scorer computes ATS scores with a fixed weighting. Now is injectable for
// deterministic recency tests; nil means time.Now.
type Scorer struct {
	Weights Weights
	Now     func() time.Time
}

// NewScorer returns a Scorer with the given weights, falling back to
// defaults for a zero value.
func NewScorer(w Weights) *Scorer {
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	return &Scorer{Weights: w}
}

// Score computes the 0-100 heuristic score of resumeText against the job
// text and its extracted keywords.
func (s *Scorer) Score(resumeText, jobText string, kws []string) int {
	w := s.Weights
	score := 0.0
	score += float64(w.KeywordCoverage) * keywordCoverage(resumeText, kws)
	score += float64(w.VerbDensity) * verbDensity(resumeText)
	score += float64(w.MetricDensity) * metricDensity(resumeText)
	score += float64(w.SkillOverlap) * skillOverlap(resumeText, jobText)
	score += float64(w.Recency) * recency(resumeText, s.now())
	score += float64(w.Formatting) * formattingHealth(resumeText)
	return clampScore(int(score + 0.5))
}

// ScorePlan scores the resume before and after applying the plan's patches.
// "After" simulates each patch's first variant appended to the resume text,
// plus a bonus (capped at MaxAfterBonus) for keyword-bearing patches,
// multi-section coverage, and verb+metric quality in the variants. The
// result is clamped so after >= before always holds.
func (s *Scorer) ScorePlan(resumeText, jobText string, kws []string, patches []types.BulletPatch) (before, after int) {
	before = s.Score(resumeText, jobText, kws)

	simulated := resumeText
	for _, patch := range patches {
		if len(patch.Variants) > 0 {
			simulated += "\n" + patch.Variants[0]
		}
	}

	after = s.Score(simulated, jobText, kws) + improvementBonus(patches)
	if after < before {
		after = before
	}
	return before, clampScore(after)
}

func (s *Scorer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// keywordCoverage is the fraction of target keywords present in the resume.
func keywordCoverage(text string, kws []string) float64 {
	if len(kws) == 0 {
		return 0
	}
	return float64(keywords.CountMatches(text, kws)) / float64(len(kws))
}

// verbDensity is the fraction of non-trivial lines starting with a strong
// action verb, with any capitalized first word accepted at half credit.
func verbDensity(text string) float64 {
	lines := nonTrivialLines(text)
	if len(lines) == 0 {
		return 0
	}

	credit := 0.0
	for _, line := range lines {
		first := strings.ToLower(strings.TrimRight(strings.Fields(line)[0], ".,!?;:"))
		switch {
		case strongVerbs[first]:
			credit += 1.0
		case line[0] >= 'A' && line[0] <= 'Z':
			credit += 0.5 // lenient fallback
		}
	}
	return credit / float64(len(lines))
}

// metricDensity counts percentages, multi-digit numbers, currency amounts,
// and duration mentions, normalized against a fixed cap.
func metricDensity(text string) float64 {
	count := len(percentPattern.FindAllString(text, -1)) +
		len(multiDigitPattern.FindAllString(text, -1)) +
		len(currencyPattern.FindAllString(text, -1)) +
		len(durationPattern.FindAllString(text, -1))

	const saturation = 8.0
	if float64(count) >= saturation {
		return 1.0
	}
	return float64(count) / saturation
}

// skillOverlap counts fixed-vocabulary skills present in both the job text
// and the resume, normalized against a small cap.
func skillOverlap(resumeText, jobText string) float64 {
	resumeLower := strings.ToLower(resumeText)
	jobLower := strings.ToLower(jobText)

	count := 0
	for _, skill := range commonSkills {
		if strings.Contains(resumeLower, skill) && strings.Contains(jobLower, skill) {
			count++
		}
	}

	const saturation = 5.0
	if float64(count) >= saturation {
		return 1.0
	}
	return float64(count) / saturation
}

// recency checks for the current or immediately preceding years, or an
// explicit "Present".
func recency(text string, now time.Time) float64 {
	if strings.Contains(text, "Present") || strings.Contains(text, "present") {
		return 1.0
	}
	currentYear := now.Year()
	for _, match := range yearPattern.FindAllString(text, -1) {
		var year int
		fmt.Sscanf(match, "%d", &year)
		if year >= currentYear-1 {
			return 1.0
		}
		if year >= currentYear-3 {
			return 0.5
		}
	}
	return 0
}

// formattingHealth starts at full credit and penalizes first-person
// language and noise-symbol clutter.
func formattingHealth(text string) float64 {
	health := 1.0
	if firstPerson.MatchString(text) {
		health -= 0.5
	}
	if len(noiseSymbols.FindAllString(text, -1)) > 5 {
		health -= 0.5
	}
	if health < 0 {
		return 0
	}
	return health
}

// improvementBonus rewards plans whose patches genuinely improve the
// resume: keyword-bearing patches, coverage of more than one section, and
// variants that pair a strong verb with a metric.
func improvementBonus(patches []types.BulletPatch) int {
	if len(patches) == 0 {
		return 0
	}

	bonus := 0
	sections := make(map[types.Section]bool)
	keywordBearing := 0
	quality := 0

	for _, patch := range patches {
		sections[patch.Section] = true
		if len(patch.KeywordsAdded) > 0 {
			keywordBearing++
		}
		for _, variant := range patch.Variants {
			if startsWithStrongVerb(variant) && metricDensity(variant) > 0 {
				quality++
				break
			}
		}
	}

	if keywordBearing > 0 {
		bonus += 3
	}
	if len(sections) > 1 {
		bonus += 2
	}
	if quality*2 >= len(patches) {
		bonus += 2
	}
	if bonus > MaxAfterBonus {
		bonus = MaxAfterBonus
	}
	return bonus
}

func startsWithStrongVerb(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	return strongVerbs[strings.ToLower(strings.TrimRight(fields[0], ".,!?;:"))]
}

func nonTrivialLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) >= 10 {
			lines = append(lines, line)
		}
	}
	return lines
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
