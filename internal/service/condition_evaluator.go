package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/health-recommendation-engine/internal/domain"
)

// ConditionEvaluator maps active conditions onto monitoring cadences and
// emits candidates when monitoring is due.
type ConditionEvaluator struct {
	logger *logrus.Logger
	rules  []conditionRule
}

// conditionRule binds a condition keyword to its monitoring profile. Rules
// are an ordered table; the first matching rule wins, so a condition can
// never match twice.
type conditionRule struct {
	Keyword        string
	Tests          []string
	Category       domain.TestCategory
	IntervalMonths int
	Markers        []string
}

// highPriorityConditionKeywords escalate monitoring priority regardless of
// the declared severity.
var highPriorityConditionKeywords = []string{"diabetes", "kidney", "liver", "heart"}

// NewConditionEvaluator creates a new condition evaluator with its static
// monitoring table.
func NewConditionEvaluator(logger *logrus.Logger) *ConditionEvaluator {
	return &ConditionEvaluator{
		logger: logger,
		rules: []conditionRule{
			// More specific keywords come first: the table is first-match-wins.
			{
				Keyword:        "prediabetes",
				Tests:          []string{"HbA1c"},
				Category:       domain.CATEGORY_METABOLIC,
				IntervalMonths: 6,
				Markers:        []string{"hba1c"},
			},
			{
				Keyword:        "diabetes",
				Tests:          []string{"HbA1c", "Fasting Glucose"},
				Category:       domain.CATEGORY_METABOLIC,
				IntervalMonths: 3,
				Markers:        []string{"hba1c", "glucose"},
			},
			{
				Keyword:        "kidney",
				Tests:          []string{"Kidney Function Panel"},
				Category:       domain.CATEGORY_KIDNEY_FUNCTION,
				IntervalMonths: 3,
				Markers:        []string{"creatinine", "egfr", "bun"},
			},
			{
				Keyword:        "liver",
				Tests:          []string{"Liver Function Panel"},
				Category:       domain.CATEGORY_LIVER_FUNCTION,
				IntervalMonths: 3,
				Markers:        []string{"alt", "ast", "bilirubin"},
			},
			{
				Keyword:        "heart",
				Tests:          []string{"Lipid Profile", "hs-CRP"},
				Category:       domain.CATEGORY_CARDIOVASCULAR,
				IntervalMonths: 6,
				Markers:        []string{"ldl_cholesterol", "hdl_cholesterol", "crp"},
			},
			{
				Keyword:        "hypertension",
				Tests:          []string{"Electrolyte Panel"},
				Category:       domain.CATEGORY_CARDIOVASCULAR,
				IntervalMonths: 6,
				Markers:        []string{"sodium", "potassium"},
			},
			{
				Keyword:        "cholesterol",
				Tests:          []string{"Lipid Profile"},
				Category:       domain.CATEGORY_LIPID_PROFILE,
				IntervalMonths: 6,
				Markers:        []string{"total_cholesterol", "ldl_cholesterol", "triglycerides"},
			},
			{
				Keyword:        "thyroid",
				Tests:          []string{"TSH", "Free T4"},
				Category:       domain.CATEGORY_HORMONAL,
				IntervalMonths: 6,
				Markers:        []string{"tsh", "free_t4"},
			},
			{
				Keyword:        "anemia",
				Tests:          []string{"Complete Blood Count", "Ferritin"},
				Category:       domain.CATEGORY_COMPLETE_BLOOD_COUNT,
				IntervalMonths: 6,
				Markers:        []string{"hemoglobin", "ferritin"},
			},
			{
				Keyword:        "vitamin d",
				Tests:          []string{"Vitamin D"},
				Category:       domain.CATEGORY_VITAMINS,
				IntervalMonths: 6,
				Markers:        []string{"vitamin_d"},
			},
		},
	}
}

// Name returns the evaluator name.
func (e *ConditionEvaluator) Name() string {
	return "condition"
}

// Evaluate produces monitoring candidates for every active condition whose
// monitoring is due.
func (e *ConditionEvaluator) Evaluate(ctx context.Context, record *domain.HealthRecord, now time.Time) ([]domain.Recommendation, error) {
	var candidates []domain.Recommendation

	for _, condition := range record.ActiveConditions() {
		rule, matched := e.matchRule(condition.Name)
		if !matched {
			// Unknown conditions degrade to a generic fallback.
			rule = conditionRule{
				Tests:          []string{"Comprehensive Metabolic Panel"},
				Category:       domain.CATEGORY_METABOLIC,
				IntervalMonths: 6,
				Markers:        essentialCategoryTests[domain.CATEGORY_METABOLIC].Markers,
			}
		}

		if !e.monitoringDue(record, rule, now) {
			continue
		}

		priority := conditionPriority(condition)
		for _, test := range rule.Tests {
			candidates = append(candidates, domain.Recommendation{
				TestName:          test,
				Category:          rule.Category,
				Rationale:         fmt.Sprintf("Regular monitoring for %s", condition.Name),
				PriorityLevel:     priority,
				SuggestedTiming:   timingForInterval(rule.IntervalMonths),
				RelatedMarkers:    rule.Markers,
				RelatedConditions: []string{condition.Name},
			})
		}
	}

	e.logger.WithFields(logrus.Fields{
		"evaluator":  e.Name(),
		"candidates": len(candidates),
	}).Debug("Condition evaluation completed")

	return candidates, nil
}

// matchRule finds the first rule whose keyword is a substring of the
// condition name, or vice versa.
func (e *ConditionEvaluator) matchRule(conditionName string) (conditionRule, bool) {
	name := strings.ToLower(strings.TrimSpace(conditionName))
	for _, rule := range e.rules {
		if strings.Contains(name, rule.Keyword) || strings.Contains(rule.Keyword, name) {
			return rule, true
		}
	}
	return conditionRule{}, false
}

// monitoringDue reports whether a condition's monitoring interval has lapsed:
// true with no history, when the most recent snapshot is older than the
// interval, or when any associated marker is missing from the latest results.
func (e *ConditionEvaluator) monitoringDue(record *domain.HealthRecord, rule conditionRule, now time.Time) bool {
	latest := record.LatestSnapshot()
	if latest == nil {
		return true
	}
	interval := time.Duration(rule.IntervalMonths) * 30 * 24 * time.Hour
	if latest.TestDate.Before(now.Add(-interval)) {
		return true
	}
	for _, marker := range rule.Markers {
		if _, ok := latest.FindMarker(marker); !ok {
			return true
		}
	}
	return false
}

// conditionPriority defaults to medium and escalates to high for severe or
// critical conditions and for the high-priority condition families.
func conditionPriority(condition domain.Condition) domain.PriorityLevel {
	severity := strings.ToLower(condition.Severity)
	if severity == "severe" || severity == "critical" {
		return domain.PRIORITY_HIGH
	}
	if containsAny(strings.ToLower(condition.Name), highPriorityConditionKeywords...) {
		return domain.PRIORITY_HIGH
	}
	return domain.PRIORITY_MEDIUM
}

// timingForInterval derives the suggested timing bucket from the monitoring
// interval in months.
func timingForInterval(months int) string {
	switch {
	case months <= 1:
		return "within 2 weeks"
	case months <= 3:
		return "within 1 month"
	case months <= 6:
		return "within 6 weeks"
	default:
		return "within 3 months"
	}
}
