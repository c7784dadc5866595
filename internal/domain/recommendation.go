package domain

import (
	"strings"
	"time"
)

// Recommendation is one suggested test or monitoring action. Evaluators create
// candidates, the builder merges them, the scorer replaces priority and score,
// and the formatter freezes them into the final set.
type Recommendation struct {
	TestName           string        `json:"test_name"`
	Category           TestCategory  `json:"category"`
	Rationale          string        `json:"rationale"`
	PriorityLevel      PriorityLevel `json:"priority"`
	PriorityScore      float64       `json:"priority_score"`
	SuggestedTiming    string        `json:"suggested_timing"`
	RelatedMarkers     []string      `json:"related_markers,omitempty"`
	RelatedConditions  []string      `json:"related_conditions,omitempty"`
	EducationalContext string        `json:"educational_context"`
}

// NormalizedTestName returns the test-name identity key used for
// deduplication: lower-cased, trimmed, with internal whitespace collapsed.
func NormalizedTestName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// NormalizedName returns the recommendation's identity key.
func (r *Recommendation) NormalizedName() string {
	return NormalizedTestName(r.TestName)
}

// Summary aggregates counts over a recommendation set.
type Summary struct {
	Total       int      `json:"total"`
	HighCount   int      `json:"high_count"`
	MediumCount int      `json:"medium_count"`
	LowCount    int      `json:"low_count"`
	Categories  []string `json:"categories"`
}

// PipelineFailure is the structured failure reason attached to a degraded
// recommendation set. The engine never raises a pipeline failure to the
// caller; this field is the only way a total failure is visible.
type PipelineFailure struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// RecommendationSet is the final sorted, grouped and summarized output of the
// pipeline for one subject. Once produced it must be treated as immutable.
type RecommendationSet struct {
	SubjectID         string                            `json:"subject_id"`
	GeneratedAt       time.Time                         `json:"generated_at"`
	Summary           Summary                           `json:"summary"`
	Recommendations   []Recommendation                  `json:"recommendations"`
	GroupedByCategory map[TestCategory][]Recommendation `json:"grouped_by_category"`
	Failure           *PipelineFailure                  `json:"failure,omitempty"`
}

// SummaryView is the lightweight projection for callers that do not need the
// full recommendation detail.
type SummaryView struct {
	SubjectID   string    `json:"subject_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Summary     Summary   `json:"summary"`
}

// View returns the summary-only projection of the set.
func (rs *RecommendationSet) View() SummaryView {
	return SummaryView{
		SubjectID:   rs.SubjectID,
		GeneratedAt: rs.GeneratedAt,
		Summary:     rs.Summary,
	}
}
