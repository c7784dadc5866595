package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/health-recommendation-engine/internal/domain"
)

// TemporalEvaluator produces candidates driven purely by elapsed time:
// baseline and annual checks, post-intervention follow-ups, and overdue
// condition monitoring.
type TemporalEvaluator struct {
	logger *logrus.Logger
	rules  []interventionRule
}

// interventionRule maps a medication/supplement keyword to its follow-up
// test. Ordered, first match wins.
type interventionRule struct {
	Keyword  string
	TestName string
	Category domain.TestCategory
	Timing   string
	Markers  []string
}

const (
	recentInterventionWindow = 42 * 24 * time.Hour  // 6 weeks
	annualThreshold          = 365 * 24 * time.Hour
)

// NewTemporalEvaluator creates a new temporal evaluator with its static
// post-intervention table.
func NewTemporalEvaluator(logger *logrus.Logger) *TemporalEvaluator {
	return &TemporalEvaluator{
		logger: logger,
		rules: []interventionRule{
			{
				Keyword:  "statin",
				TestName: "Liver Function Panel",
				Category: domain.CATEGORY_LIVER_FUNCTION,
				Timing:   "within 6 weeks",
				Markers:  []string{"alt", "ast"},
			},
			{
				Keyword:  "metformin",
				TestName: "Glucose & HbA1c Check",
				Category: domain.CATEGORY_METABOLIC,
				Timing:   "within 6 weeks",
				Markers:  []string{"glucose", "hba1c"},
			},
			{
				Keyword:  "lisinopril",
				TestName: "Kidney Function Panel",
				Category: domain.CATEGORY_KIDNEY_FUNCTION,
				Timing:   "within 6 weeks",
				Markers:  []string{"creatinine", "egfr", "potassium"},
			},
			{
				Keyword:  "ace inhibitor",
				TestName: "Kidney Function Panel",
				Category: domain.CATEGORY_KIDNEY_FUNCTION,
				Timing:   "within 6 weeks",
				Markers:  []string{"creatinine", "egfr", "potassium"},
			},
			{
				Keyword:  "diuretic",
				TestName: "Electrolyte Panel",
				Category: domain.CATEGORY_METABOLIC,
				Timing:   "within 6 weeks",
				Markers:  []string{"sodium", "potassium"},
			},
			{
				Keyword:  "vitamin d",
				TestName: "Vitamin D Recheck",
				Category: domain.CATEGORY_VITAMINS,
				Timing:   "within 8 weeks",
				Markers:  []string{"vitamin_d"},
			},
			{
				Keyword:  "b12",
				TestName: "Vitamin B12 Recheck",
				Category: domain.CATEGORY_VITAMINS,
				Timing:   "within 8 weeks",
				Markers:  []string{"vitamin_b12"},
			},
		},
	}
}

// Name returns the evaluator name.
func (e *TemporalEvaluator) Name() string {
	return "temporal"
}

// Evaluate produces the time-driven candidates.
func (e *TemporalEvaluator) Evaluate(ctx context.Context, record *domain.HealthRecord, now time.Time) ([]domain.Recommendation, error) {
	var candidates []domain.Recommendation

	candidates = append(candidates, e.baselineCandidates(record)...)
	candidates = append(candidates, e.annualCandidates(record, now)...)
	candidates = append(candidates, e.interventionCandidates(record, now)...)
	candidates = append(candidates, e.overdueConditionCandidates(record, now)...)

	e.logger.WithFields(logrus.Fields{
		"evaluator":  e.Name(),
		"candidates": len(candidates),
	}).Debug("Temporal evaluation completed")

	return candidates, nil
}

// baselineCandidates fires when no lab history exists at all.
func (e *TemporalEvaluator) baselineCandidates(record *domain.HealthRecord) []domain.Recommendation {
	if record.HasBiomarkerHistory() {
		return nil
	}
	return []domain.Recommendation{
		{
			TestName:        "Baseline Comprehensive Panel",
			Category:        domain.CATEGORY_METABOLIC,
			Rationale:       "No lab results on record; a baseline is needed to start tracking",
			PriorityLevel:   domain.PRIORITY_MEDIUM,
			SuggestedTiming: "within 2 weeks",
		},
		{
			TestName:        "Vitamin & Mineral Panel",
			Category:        domain.CATEGORY_VITAMINS,
			Rationale:       "No lab results on record; baseline vitamin and mineral levels are needed",
			PriorityLevel:   domain.PRIORITY_MEDIUM,
			SuggestedTiming: "within 2 weeks",
			RelatedMarkers:  []string{"vitamin_d", "vitamin_b12", "iron"},
		},
	}
}

// annualCandidates fires when the latest results are older than a year:
// annual metabolic and lipid checks plus one candidate per essential category
// still missing from the latest snapshot.
func (e *TemporalEvaluator) annualCandidates(record *domain.HealthRecord, now time.Time) []domain.Recommendation {
	latest := record.LatestSnapshot()
	if latest == nil || !latest.TestDate.Before(now.Add(-annualThreshold)) {
		return nil
	}

	age := now.Sub(latest.TestDate)
	rationale := fmt.Sprintf("Your most recent lab results are %d days old", int(age.Hours()/24))

	candidates := []domain.Recommendation{
		{
			TestName:        "Comprehensive Metabolic Panel",
			Category:        domain.CATEGORY_METABOLIC,
			Rationale:       rationale + "; an annual metabolic check is due",
			PriorityLevel:   domain.PRIORITY_MEDIUM,
			SuggestedTiming: "within 1 month",
			RelatedMarkers:  essentialCategoryTests[domain.CATEGORY_METABOLIC].Markers,
		},
		{
			TestName:        "Lipid Profile",
			Category:        domain.CATEGORY_LIPID_PROFILE,
			Rationale:       rationale + "; an annual lipid check is due",
			PriorityLevel:   domain.PRIORITY_MEDIUM,
			SuggestedTiming: "within 1 month",
			RelatedMarkers:  essentialCategoryTests[domain.CATEGORY_LIPID_PROFILE].Markers,
		},
	}

	for _, category := range domain.EssentialCategories {
		if latest.HasCategory(category) {
			continue
		}
		test := essentialCategoryTests[category]
		candidates = append(candidates, domain.Recommendation{
			TestName:        test.TestName,
			Category:        category,
			Rationale:       fmt.Sprintf("%s markers were not part of your last test package", category),
			PriorityLevel:   domain.PRIORITY_MEDIUM,
			SuggestedTiming: "within 1 month",
			RelatedMarkers:  test.Markers,
		})
	}
	return candidates
}

// interventionCandidates emits one follow-up per medication or supplement
// started within the last six weeks.
func (e *TemporalEvaluator) interventionCandidates(record *domain.HealthRecord, now time.Time) []domain.Recommendation {
	type intervention struct {
		Name      string
		StartDate *time.Time
	}

	var interventions []intervention
	for _, m := range record.Medications {
		interventions = append(interventions, intervention{Name: m.Name, StartDate: m.StartDate})
	}
	for _, s := range record.Supplements {
		interventions = append(interventions, intervention{Name: s.Name, StartDate: s.StartDate})
	}

	var candidates []domain.Recommendation
	for _, iv := range interventions {
		if iv.StartDate == nil {
			continue
		}
		since := now.Sub(*iv.StartDate)
		if since < 0 || since > recentInterventionWindow {
			continue
		}

		rule, matched := e.matchIntervention(iv.Name)
		if !matched {
			candidates = append(candidates, domain.Recommendation{
				TestName:        "Post-Medication Monitoring",
				Category:        domain.CATEGORY_GENERAL,
				Rationale:       fmt.Sprintf("Recently started %s; a follow-up check is recommended", iv.Name),
				PriorityLevel:   domain.PRIORITY_MEDIUM,
				SuggestedTiming: "within 6 weeks",
			})
			continue
		}

		candidates = append(candidates, domain.Recommendation{
			TestName:        rule.TestName,
			Category:        rule.Category,
			Rationale:       fmt.Sprintf("Recently started %s; response should be checked", iv.Name),
			PriorityLevel:   domain.PRIORITY_MEDIUM,
			SuggestedTiming: rule.Timing,
			RelatedMarkers:  rule.Markers,
		})
	}
	return candidates
}

// matchIntervention finds the first rule whose keyword appears in the
// medication or supplement name.
func (e *TemporalEvaluator) matchIntervention(name string) (interventionRule, bool) {
	lower := strings.ToLower(name)
	for _, rule := range e.rules {
		if strings.Contains(lower, rule.Keyword) {
			return rule, true
		}
	}
	return interventionRule{}, false
}

// overdueConditionCandidates emits a high-priority candidate for every active
// condition whose category-specific monitoring interval has fully lapsed.
func (e *TemporalEvaluator) overdueConditionCandidates(record *domain.HealthRecord, now time.Time) []domain.Recommendation {
	latest := record.LatestSnapshot()
	if latest == nil {
		return nil
	}

	var candidates []domain.Recommendation
	for _, condition := range record.ActiveConditions() {
		name := strings.ToLower(condition.Name)
		interval := 3 * 30 * 24 * time.Hour
		category := domain.CATEGORY_GENERAL
		switch {
		case strings.Contains(name, "diabetes"):
			interval = 2 * 30 * 24 * time.Hour
			category = domain.CATEGORY_METABOLIC
		case strings.Contains(name, "kidney"):
			interval = 2 * 30 * 24 * time.Hour
			category = domain.CATEGORY_KIDNEY_FUNCTION
		case strings.Contains(name, "liver"):
			interval = 2 * 30 * 24 * time.Hour
			category = domain.CATEGORY_LIVER_FUNCTION
		}

		if !latest.TestDate.Before(now.Add(-interval)) {
			continue
		}

		candidates = append(candidates, domain.Recommendation{
			TestName:          fmt.Sprintf("%s Monitoring", condition.Name),
			Category:          category,
			Rationale:         fmt.Sprintf("Monitoring for %s is overdue", condition.Name),
			PriorityLevel:     domain.PRIORITY_HIGH,
			SuggestedTiming:   "within 1 week",
			RelatedConditions: []string{condition.Name},
		})
	}
	return candidates
}
