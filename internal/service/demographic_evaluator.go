package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/health-recommendation-engine/internal/domain"
)

// DemographicEvaluator produces age-bucketed, sex-specific and
// family-history-triggered screening candidates. Screening rules never exceed
// medium priority: they target risk, not diagnosed disease.
type DemographicEvaluator struct {
	logger *logrus.Logger
}

// NewDemographicEvaluator creates a new demographic evaluator.
func NewDemographicEvaluator(logger *logrus.Logger) *DemographicEvaluator {
	return &DemographicEvaluator{logger: logger}
}

// Name returns the evaluator name.
func (e *DemographicEvaluator) Name() string {
	return "demographic"
}

// screeningRule is one demographic screening with its recurrence interval.
type screeningRule struct {
	TestName  string
	Category  domain.TestCategory
	Interval  time.Duration
	Priority  domain.PriorityLevel
	Rationale string
	Timing    string
	Markers   []string
}

const year = 365 * 24 * time.Hour

// Evaluate runs the three independent demographic rule families, each gated
// by its own due check.
func (e *DemographicEvaluator) Evaluate(ctx context.Context, record *domain.HealthRecord, now time.Time) ([]domain.Recommendation, error) {
	var rules []screeningRule
	rules = append(rules, e.ageRules(record.Demographics.Age)...)
	rules = append(rules, e.sexRules(record.Demographics)...)
	rules = append(rules, e.familyHistoryRules(record.FamilyHistory)...)

	var candidates []domain.Recommendation
	for _, rule := range rules {
		if !screeningDue(record, rule.Interval, now) {
			continue
		}
		candidates = append(candidates, domain.Recommendation{
			TestName:        rule.TestName,
			Category:        rule.Category,
			Rationale:       rule.Rationale,
			PriorityLevel:   rule.Priority,
			SuggestedTiming: rule.Timing,
			RelatedMarkers:  rule.Markers,
		})
	}

	e.logger.WithFields(logrus.Fields{
		"evaluator":  e.Name(),
		"candidates": len(candidates),
	}).Debug("Demographic evaluation completed")

	return candidates, nil
}

// ageRules covers the age-bucketed screening schedule.
func (e *DemographicEvaluator) ageRules(age int) []screeningRule {
	switch {
	case age >= 65:
		return []screeningRule{
			{
				TestName:  "Comprehensive Health Panel",
				Category:  domain.CATEGORY_METABOLIC,
				Interval:  year,
				Priority:  domain.PRIORITY_MEDIUM,
				Rationale: "Annual comprehensive screening recommended from age 65",
				Timing:    "within 1 month",
			},
			{
				TestName:  "Vitamin D",
				Category:  domain.CATEGORY_VITAMINS,
				Interval:  year,
				Priority:  domain.PRIORITY_MEDIUM,
				Rationale: "Annual vitamin D check recommended from age 65",
				Timing:    "within 2 months",
				Markers:   []string{"vitamin_d"},
			},
		}
	case age >= 40:
		return []screeningRule{
			{
				TestName:  "Lipid Profile",
				Category:  domain.CATEGORY_LIPID_PROFILE,
				Interval:  year,
				Priority:  domain.PRIORITY_MEDIUM,
				Rationale: "Annual lipid screening recommended for ages 40-64",
				Timing:    "within 2 months",
				Markers:   essentialCategoryTests[domain.CATEGORY_LIPID_PROFILE].Markers,
			},
			{
				TestName:  "Diabetes Screening (HbA1c)",
				Category:  domain.CATEGORY_METABOLIC,
				Interval:  3 * year,
				Priority:  domain.PRIORITY_MEDIUM,
				Rationale: "Diabetes screening every 3 years recommended for ages 40-64",
				Timing:    "within 3 months",
				Markers:   []string{"hba1c", "glucose"},
			},
		}
	case age >= 18:
		return []screeningRule{
			{
				TestName:  "Basic Metabolic Panel",
				Category:  domain.CATEGORY_METABOLIC,
				Interval:  3 * year,
				Priority:  domain.PRIORITY_LOW,
				Rationale: "Baseline metabolic screening every 3 years recommended for ages 18-39",
				Timing:    "within 3 months",
				Markers:   []string{"glucose", "sodium", "potassium", "creatinine"},
			},
		}
	default:
		return nil
	}
}

// sexRules covers the sex-specific screening schedule.
func (e *DemographicEvaluator) sexRules(demo domain.Demographics) []screeningRule {
	var rules []screeningRule
	switch demo.Sex {
	case domain.SEX_FEMALE:
		if demo.Age >= 18 && demo.Age <= 50 {
			rules = append(rules, screeningRule{
				TestName:  "Hormone Panel",
				Category:  domain.CATEGORY_HORMONAL,
				Interval:  2 * year,
				Priority:  domain.PRIORITY_LOW,
				Rationale: "Hormone panel every 2 years recommended for women aged 18-50",
				Timing:    "within 3 months",
				Markers:   []string{"estradiol", "fsh", "lh"},
			})
		}
		if demo.Age >= 45 {
			rules = append(rules, screeningRule{
				TestName:  "Menopause Panel",
				Category:  domain.CATEGORY_HORMONAL,
				Interval:  year,
				Priority:  domain.PRIORITY_LOW,
				Rationale: "Annual menopause panel recommended for women from age 45",
				Timing:    "within 3 months",
				Markers:   []string{"fsh", "estradiol"},
			})
		}
	case domain.SEX_MALE:
		if demo.Age >= 30 {
			rules = append(rules, screeningRule{
				TestName:  "Testosterone",
				Category:  domain.CATEGORY_HORMONAL,
				Interval:  2 * year,
				Priority:  domain.PRIORITY_LOW,
				Rationale: "Testosterone check every 2 years recommended for men from age 30",
				Timing:    "within 3 months",
				Markers:   []string{"testosterone"},
			})
		}
		if demo.Age >= 50 {
			rules = append(rules, screeningRule{
				TestName:  "PSA",
				Category:  domain.CATEGORY_CANCER_SCREENING,
				Interval:  year,
				Priority:  domain.PRIORITY_MEDIUM,
				Rationale: "Annual PSA screening recommended for men from age 50",
				Timing:    "within 2 months",
				Markers:   []string{"psa"},
			})
		}
	}
	return rules
}

// familyHistoryRules triggers enhanced screening from family conditions.
func (e *DemographicEvaluator) familyHistoryRules(history []domain.FamilyHistoryEntry) []screeningRule {
	var hasCardiac, hasDiabetes bool
	for _, entry := range history {
		condition := strings.ToLower(entry.Condition)
		if containsAny(condition, "heart", "cardiovascular") {
			hasCardiac = true
		}
		if strings.Contains(condition, "diabetes") {
			hasDiabetes = true
		}
	}

	var rules []screeningRule
	if hasCardiac {
		rules = append(rules, screeningRule{
			TestName:  "Enhanced Cardiac Panel",
			Category:  domain.CATEGORY_CARDIOVASCULAR,
			Interval:  6 * 30 * 24 * time.Hour,
			Priority:  domain.PRIORITY_MEDIUM,
			Rationale: "Family history of cardiovascular disease",
			Timing:    "within 6 weeks",
			Markers:   []string{"ldl_cholesterol", "hdl_cholesterol", "triglycerides", "crp"},
		})
	}
	if hasDiabetes {
		rules = append(rules, screeningRule{
			TestName:  "Enhanced Diabetes Screening",
			Category:  domain.CATEGORY_METABOLIC,
			Interval:  year,
			Priority:  domain.PRIORITY_MEDIUM,
			Rationale: "Family history of diabetes",
			Timing:    "within 2 months",
			Markers:   []string{"glucose", "hba1c"},
		})
	}
	return rules
}

// screeningDue gates a rule on the age of the most recent snapshot: no
// history means due, otherwise due once the interval has lapsed.
func screeningDue(record *domain.HealthRecord, interval time.Duration, now time.Time) bool {
	latest := record.LatestSnapshot()
	if latest == nil {
		return true
	}
	return latest.TestDate.Before(now.Add(-interval))
}

// String renders the rule for debug logs.
func (r screeningRule) String() string {
	return fmt.Sprintf("%s every %s", r.TestName, r.Interval)
}
