package service

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/health-recommendation-engine/internal/domain"
)

// PriorityScorer computes the continuous 0-1 urgency score from five weighted
// factors and derives the discrete priority level. Scoring replaces whatever
// priority the evaluators and builder set; their judgment only feeds the
// score through the individual factors.
type PriorityScorer struct {
	logger *logrus.Logger
}

// Factor weights. They sum to 1.0; the final score is additionally capped.
const (
	weightAbnormality       = 0.30
	weightClinicalRelevance = 0.25
	weightTimeSensitivity   = 0.20
	weightRiskFactors       = 0.15
	weightConditionSeverity = 0.10
)

// NewPriorityScorer creates a new priority scorer.
func NewPriorityScorer(logger *logrus.Logger) *PriorityScorer {
	return &PriorityScorer{logger: logger}
}

// highSignificanceKeywords and mediumSignificanceKeywords tier test names by
// clinical weight. Ordered; first match wins.
var (
	highSignificanceKeywords   = []string{"hba1c", "glucose", "lipid", "cholesterol", "metabolic", "kidney", "liver", "cardiac"}
	mediumSignificanceKeywords = []string{"thyroid", "tsh", "hormone", "testosterone", "vitamin", "blood count", "electrolyte", "psa"}
)

// highRiskConditionKeywords mark conditions that contribute double risk
// weight and score 0.8 severity when no explicit severity is recorded.
var highRiskConditionKeywords = []string{"diabetes", "kidney", "liver", "heart", "cancer", "stroke"}

// Score computes the priority score for one recommendation against the
// subject's record and returns a new recommendation value with the score and
// derived level replaced. The input is never mutated.
func (s *PriorityScorer) Score(rec domain.Recommendation, record *domain.HealthRecord) domain.Recommendation {
	score := weightAbnormality*s.abnormalityFactor(rec, record) +
		weightClinicalRelevance*s.clinicalSignificanceFactor(rec) +
		weightTimeSensitivity*s.timeSensitivityFactor(rec) +
		weightRiskFactors*s.riskFactorCount(record) +
		weightConditionSeverity*s.conditionSeverityFactor(rec, record)

	if score > 1.0 {
		score = 1.0
	}

	scored := rec
	scored.PriorityScore = score
	scored.PriorityLevel = domain.PriorityForScore(score)

	s.logger.WithFields(logrus.Fields{
		"test_name": rec.TestName,
		"score":     score,
		"priority":  scored.PriorityLevel,
	}).Debug("Recommendation scored")

	return scored
}

// ScoreAll scores a list of recommendations, returning a new slice.
func (s *PriorityScorer) ScoreAll(recs []domain.Recommendation, record *domain.HealthRecord) []domain.Recommendation {
	scored := make([]domain.Recommendation, len(recs))
	for i, rec := range recs {
		scored[i] = s.Score(rec, record)
	}
	return scored
}

// abnormalityFactor is the max abnormality signal over the recommendation's
// related markers in the latest snapshot. Absent markers and missing history
// contribute the no-data default of 0.3.
func (s *PriorityScorer) abnormalityFactor(rec domain.Recommendation, record *domain.HealthRecord) float64 {
	const noData = 0.3

	latest := record.LatestSnapshot()
	if latest == nil || len(rec.RelatedMarkers) == 0 {
		return noData
	}

	factor := 0.0
	for _, marker := range rec.RelatedMarkers {
		reading, ok := latest.FindMarker(marker)
		contribution := noData
		if ok {
			switch reading.Status {
			case domain.MARKER_HIGH:
				contribution = 0.8
			case domain.MARKER_LOW:
				contribution = 0.7
			case domain.MARKER_NORMAL:
				contribution = 0.1
			}
		}
		if contribution > factor {
			factor = contribution
		}
	}
	return factor
}

// clinicalSignificanceFactor tiers the test name by keyword.
func (s *PriorityScorer) clinicalSignificanceFactor(rec domain.Recommendation) float64 {
	name := strings.ToLower(rec.TestName)
	if containsAny(name, highSignificanceKeywords...) {
		return 0.9
	}
	if containsAny(name, mediumSignificanceKeywords...) {
		return 0.6
	}
	return 0.4
}

// timeSensitivityFactor maps the suggested timing onto an urgency value.
func (s *PriorityScorer) timeSensitivityFactor(rec domain.Recommendation) float64 {
	timing := strings.ToLower(rec.SuggestedTiming)
	switch {
	case strings.Contains(timing, "1 week"):
		return 1.0
	case strings.Contains(timing, "2 weeks"):
		return 0.8
	case strings.Contains(timing, "1 month"):
		return 0.6
	case strings.Contains(timing, "6 weeks"):
		return 0.5
	case strings.Contains(timing, "2 months"):
		return 0.4
	case strings.Contains(timing, "3 months"):
		return 0.2
	default:
		return 0.3
	}
}

// riskFactorCount scores the subject's overall risk burden: age, active
// conditions, family history and lifestyle, normalized by 10 and capped.
func (s *PriorityScorer) riskFactorCount(record *domain.HealthRecord) float64 {
	count := 0

	switch {
	case record.Demographics.Age >= 65:
		count += 2
	case record.Demographics.Age >= 40:
		count++
	}

	for _, condition := range record.ActiveConditions() {
		if containsAny(strings.ToLower(condition.Name), highRiskConditionKeywords...) {
			count += 2
		} else {
			count++
		}
	}

	for _, entry := range record.FamilyHistory {
		if containsAny(strings.ToLower(entry.Condition), "heart", "diabetes", "cancer") {
			count++
		}
	}

	if lifestyle := record.Lifestyle; lifestyle != nil {
		if strings.Contains(strings.ToLower(lifestyle.SmokingStatus), "current") {
			count += 2
		}
		if strings.Contains(strings.ToLower(lifestyle.AlcoholUse), "daily") {
			count++
		}
		if containsAny(strings.ToLower(lifestyle.ExerciseFrequency), "rarely", "never", "sedentary") {
			count++
		}
	}

	factor := float64(count) / 10.0
	if factor > 1.0 {
		return 1.0
	}
	return factor
}

// conditionSeverityFactor is the max severity signal over the
// recommendation's related conditions; zero when none are related.
func (s *PriorityScorer) conditionSeverityFactor(rec domain.Recommendation, record *domain.HealthRecord) float64 {
	if len(rec.RelatedConditions) == 0 {
		return 0
	}

	factor := 0.0
	for _, related := range rec.RelatedConditions {
		severity := severityForCondition(related, record)
		if severity > factor {
			factor = severity
		}
	}
	return factor
}

// severityForCondition resolves a related condition name to its severity
// signal using the subject's condition records.
func severityForCondition(name string, record *domain.HealthRecord) float64 {
	lower := strings.ToLower(name)
	for _, condition := range record.Conditions {
		conditionName := strings.ToLower(condition.Name)
		if !strings.Contains(conditionName, lower) && !strings.Contains(lower, conditionName) {
			continue
		}
		switch strings.ToLower(condition.Severity) {
		case "severe", "critical":
			return 1.0
		case "moderate":
			return 0.6
		case "mild":
			return 0.3
		}
		break
	}
	if containsAny(lower, highRiskConditionKeywords...) {
		return 0.8
	}
	return 0.4
}
