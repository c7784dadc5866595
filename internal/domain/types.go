// Package domain contains the core entities and types for health test
// recommendation generation: the aggregated health record consumed by the rule
// evaluators and the recommendation model produced by the pipeline.
package domain

import (
	"sort"
	"strings"
)

// PriorityLevel represents the discrete urgency classification of a
// recommendation. It is derived from the continuous priority score and must
// never be set independently of it once scoring has run.
type PriorityLevel string

const (
	PRIORITY_HIGH   PriorityLevel = "high"
	PRIORITY_MEDIUM PriorityLevel = "medium"
	PRIORITY_LOW    PriorityLevel = "low"
)

// IsValid validates the priority level.
func (p PriorityLevel) IsValid() bool {
	switch p {
	case PRIORITY_HIGH, PRIORITY_MEDIUM, PRIORITY_LOW:
		return true
	default:
		return false
	}
}

// String returns the string representation of the priority level.
func (p PriorityLevel) String() string {
	return string(p)
}

// Rank returns the ordering weight of the priority level (high=3, medium=2,
// low=1). Unknown levels rank below low so malformed data sorts last.
func (p PriorityLevel) Rank() int {
	switch p {
	case PRIORITY_HIGH:
		return 3
	case PRIORITY_MEDIUM:
		return 2
	case PRIORITY_LOW:
		return 1
	default:
		return 0
	}
}

// MaxPriority returns the more urgent of two priority levels.
func MaxPriority(a, b PriorityLevel) PriorityLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Score thresholds for deriving the discrete priority level. Lower bounds are
// inclusive: a score of exactly 0.7 is high, exactly 0.4 is medium.
const (
	HighPriorityThreshold   = 0.7
	MediumPriorityThreshold = 0.4
)

// PriorityForScore maps a continuous priority score onto a discrete level.
func PriorityForScore(score float64) PriorityLevel {
	switch {
	case score >= HighPriorityThreshold:
		return PRIORITY_HIGH
	case score >= MediumPriorityThreshold:
		return PRIORITY_MEDIUM
	default:
		return PRIORITY_LOW
	}
}

// TestCategory is the closed set of test categories a recommendation can
// belong to. Category names double as the grouping keys in the formatted
// output and as biomarker snapshot category keys.
type TestCategory string

const (
	CATEGORY_METABOLIC            TestCategory = "metabolic"
	CATEGORY_LIPID_PROFILE        TestCategory = "lipid_profile"
	CATEGORY_COMPLETE_BLOOD_COUNT TestCategory = "complete_blood_count"
	CATEGORY_KIDNEY_FUNCTION      TestCategory = "kidney_function"
	CATEGORY_LIVER_FUNCTION       TestCategory = "liver_function"
	CATEGORY_VITAMINS             TestCategory = "vitamins"
	CATEGORY_HORMONAL             TestCategory = "hormonal"
	CATEGORY_CARDIOVASCULAR       TestCategory = "cardiovascular"
	CATEGORY_CANCER_SCREENING     TestCategory = "cancer_screening"
	CATEGORY_GENERAL              TestCategory = "general"
)

// EssentialCategories are the snapshot categories a complete baseline panel is
// expected to cover, in canonical order.
var EssentialCategories = []TestCategory{
	CATEGORY_METABOLIC,
	CATEGORY_LIPID_PROFILE,
	CATEGORY_COMPLETE_BLOOD_COUNT,
	CATEGORY_KIDNEY_FUNCTION,
	CATEGORY_LIVER_FUNCTION,
	CATEGORY_VITAMINS,
}

// IsValid validates the test category.
func (tc TestCategory) IsValid() bool {
	switch tc {
	case CATEGORY_METABOLIC, CATEGORY_LIPID_PROFILE, CATEGORY_COMPLETE_BLOOD_COUNT,
		CATEGORY_KIDNEY_FUNCTION, CATEGORY_LIVER_FUNCTION, CATEGORY_VITAMINS,
		CATEGORY_HORMONAL, CATEGORY_CARDIOVASCULAR, CATEGORY_CANCER_SCREENING,
		CATEGORY_GENERAL:
		return true
	default:
		return false
	}
}

// String returns the string representation of the test category.
func (tc TestCategory) String() string {
	return string(tc)
}

// ParseTestCategory maps a free-text category name onto the closed category
// set. Unknown names degrade to the metabolic category rather than failing.
func ParseTestCategory(name string) TestCategory {
	tc := TestCategory(strings.ToLower(strings.TrimSpace(name)))
	if tc.IsValid() {
		return tc
	}
	return CATEGORY_METABOLIC
}

// SortedCategoryNames returns the distinct category names of a set of
// categories in sorted order, for summary output.
func SortedCategoryNames(categories map[TestCategory]struct{}) []string {
	names := make([]string, 0, len(categories))
	for tc := range categories {
		names = append(names, tc.String())
	}
	sort.Strings(names)
	return names
}

// MarkerStatus classifies a biomarker reading against its reference range.
type MarkerStatus string

const (
	MARKER_NORMAL MarkerStatus = "normal"
	MARKER_HIGH   MarkerStatus = "high"
	MARKER_LOW    MarkerStatus = "low"
)

// IsValid validates the marker status.
func (ms MarkerStatus) IsValid() bool {
	switch ms {
	case MARKER_NORMAL, MARKER_HIGH, MARKER_LOW:
		return true
	default:
		return false
	}
}

// IsAbnormal reports whether the reading is outside its reference range.
func (ms MarkerStatus) IsAbnormal() bool {
	return ms == MARKER_HIGH || ms == MARKER_LOW
}

// ConditionStatus represents the clinical status of a recorded condition.
type ConditionStatus string

const (
	CONDITION_ACTIVE   ConditionStatus = "active"
	CONDITION_RESOLVED ConditionStatus = "resolved"
	CONDITION_MANAGED  ConditionStatus = "managed"
)

// IsValid validates the condition status.
func (cs ConditionStatus) IsValid() bool {
	switch cs {
	case CONDITION_ACTIVE, CONDITION_RESOLVED, CONDITION_MANAGED:
		return true
	default:
		return false
	}
}

// BiologicalSex represents the recorded biological sex used by the
// demographic screening rules.
type BiologicalSex string

const (
	SEX_FEMALE      BiologicalSex = "female"
	SEX_MALE        BiologicalSex = "male"
	SEX_UNSPECIFIED BiologicalSex = "unspecified"
)

// IsValid validates the biological sex value.
func (s BiologicalSex) IsValid() bool {
	switch s {
	case SEX_FEMALE, SEX_MALE, SEX_UNSPECIFIED:
		return true
	default:
		return false
	}
}

// AbnormalitySeverity grades how far an abnormal reading sits outside its
// reference range. It drives the retest escalation timing.
type AbnormalitySeverity string

const (
	SEVERITY_HIGH     AbnormalitySeverity = "high"
	SEVERITY_MODERATE AbnormalitySeverity = "moderate"
	SEVERITY_LOW      AbnormalitySeverity = "low"
)
