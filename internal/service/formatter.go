package service

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/health-recommendation-engine/internal/domain"
)

// OutputFormatter freezes a scored recommendation list into the final sorted,
// grouped and summarized set. Formatting the same scored list twice yields the
// same set.
type OutputFormatter struct {
	logger *logrus.Logger
}

// NewOutputFormatter creates a new output formatter.
func NewOutputFormatter(logger *logrus.Logger) *OutputFormatter {
	return &OutputFormatter{logger: logger}
}

// Format assembles the recommendation set for one subject. Recommendations are
// stably sorted by priority level then score, so equal entries keep their
// builder order.
func (f *OutputFormatter) Format(subjectID string, recs []domain.Recommendation, generatedAt time.Time) *domain.RecommendationSet {
	sorted := make([]domain.Recommendation, len(recs))
	copy(sorted, recs)
	for i := range sorted {
		sorted[i] = validateRecommendation(sorted[i])
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PriorityLevel.Rank() != sorted[j].PriorityLevel.Rank() {
			return sorted[i].PriorityLevel.Rank() > sorted[j].PriorityLevel.Rank()
		}
		return sorted[i].PriorityScore > sorted[j].PriorityScore
	})

	set := &domain.RecommendationSet{
		SubjectID:         subjectID,
		GeneratedAt:       generatedAt,
		Summary:           buildSummary(sorted),
		Recommendations:   sorted,
		GroupedByCategory: groupByCategory(sorted),
	}

	f.logger.WithFields(logrus.Fields{
		"subject_id":      subjectID,
		"recommendations": len(sorted),
		"high_count":      set.Summary.HighCount,
	}).Info("Recommendation set formatted")

	return set
}

// buildSummary counts recommendations per priority level and collects the
// distinct categories in sorted order.
func buildSummary(recs []domain.Recommendation) domain.Summary {
	summary := domain.Summary{Total: len(recs)}
	categories := make(map[domain.TestCategory]struct{})
	for _, rec := range recs {
		switch rec.PriorityLevel {
		case domain.PRIORITY_HIGH:
			summary.HighCount++
		case domain.PRIORITY_MEDIUM:
			summary.MediumCount++
		case domain.PRIORITY_LOW:
			summary.LowCount++
		}
		categories[rec.Category] = struct{}{}
	}
	summary.Categories = domain.SortedCategoryNames(categories)
	return summary
}

// groupByCategory buckets recommendations by category, preserving the sorted
// order inside each bucket.
func groupByCategory(recs []domain.Recommendation) map[domain.TestCategory][]domain.Recommendation {
	grouped := make(map[domain.TestCategory][]domain.Recommendation)
	for _, rec := range recs {
		grouped[rec.Category] = append(grouped[rec.Category], rec)
	}
	return grouped
}
