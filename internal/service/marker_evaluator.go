package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/health-recommendation-engine/internal/domain"
)

// MarkerEvaluator flags missing baseline panels, abnormal-result follow-ups,
// and concerning marker trends. All three sub-rules are additive: each is
// evaluated regardless of what the others produced.
type MarkerEvaluator struct {
	logger *logrus.Logger
}

// NewMarkerEvaluator creates a new marker evaluator.
func NewMarkerEvaluator(logger *logrus.Logger) *MarkerEvaluator {
	return &MarkerEvaluator{logger: logger}
}

// Name returns the evaluator name.
func (e *MarkerEvaluator) Name() string {
	return "marker"
}

// trendWatchList are the markers monitored for concerning trends, in the
// order their candidates are emitted.
var trendWatchList = []string{
	"glucose",
	"hba1c",
	"total_cholesterol",
	"ldl_cholesterol",
	"triglycerides",
	"creatinine",
	"alt",
	"crp",
}

// baselinePanel is the fixed recommendation set emitted when no biomarker
// history exists at all.
var baselinePanel = []domain.TestCategory{
	domain.CATEGORY_METABOLIC,
	domain.CATEGORY_LIPID_PROFILE,
	domain.CATEGORY_COMPLETE_BLOOD_COUNT,
	domain.CATEGORY_VITAMINS,
}

// Evaluate produces candidate recommendations from the biomarker history.
func (e *MarkerEvaluator) Evaluate(ctx context.Context, record *domain.HealthRecord, now time.Time) ([]domain.Recommendation, error) {
	var candidates []domain.Recommendation

	candidates = append(candidates, e.baselineCandidates(record)...)
	candidates = append(candidates, e.abnormalFollowUps(record)...)
	candidates = append(candidates, e.trendCandidates(record)...)

	e.logger.WithFields(logrus.Fields{
		"evaluator":  e.Name(),
		"candidates": len(candidates),
	}).Debug("Marker evaluation completed")

	return candidates, nil
}

// baselineCandidates covers the missing-baseline rule: a fixed comprehensive
// panel when no history exists, otherwise one candidate per essential
// category absent from the most recent snapshot.
func (e *MarkerEvaluator) baselineCandidates(record *domain.HealthRecord) []domain.Recommendation {
	if !record.HasBiomarkerHistory() {
		recs := make([]domain.Recommendation, 0, len(baselinePanel))
		for _, category := range baselinePanel {
			test := essentialCategoryTests[category]
			recs = append(recs, domain.Recommendation{
				TestName:        test.TestName,
				Category:        category,
				Rationale:       "No baseline biomarker results on record",
				PriorityLevel:   domain.PRIORITY_MEDIUM,
				SuggestedTiming: "within 2-4 weeks",
				RelatedMarkers:  test.Markers,
			})
		}
		return recs
	}

	latest := record.LatestSnapshot()
	var recs []domain.Recommendation
	for _, category := range domain.EssentialCategories {
		if latest.HasCategory(category) {
			continue
		}
		test := essentialCategoryTests[category]
		recs = append(recs, domain.Recommendation{
			TestName:        test.TestName,
			Category:        category,
			Rationale:       fmt.Sprintf("Most recent lab results do not cover %s markers (%s)", category, strings.Join(test.Markers, ", ")),
			PriorityLevel:   domain.PRIORITY_MEDIUM,
			SuggestedTiming: "within 1 month",
			RelatedMarkers:  test.Markers,
		})
	}
	return recs
}

// abnormalFollowUps emits a retest candidate for every abnormal marker in the
// most recent snapshot. Map iteration order is pinned by sorting keys.
func (e *MarkerEvaluator) abnormalFollowUps(record *domain.HealthRecord) []domain.Recommendation {
	latest := record.LatestSnapshot()
	if latest == nil {
		return nil
	}

	categoryNames := make([]string, 0, len(latest.Categories))
	for name := range latest.Categories {
		categoryNames = append(categoryNames, name)
	}
	sort.Strings(categoryNames)

	var recs []domain.Recommendation
	for _, categoryName := range categoryNames {
		markers := latest.Categories[categoryName]
		markerNames := make([]string, 0, len(markers))
		for name := range markers {
			markerNames = append(markerNames, name)
		}
		sort.Strings(markerNames)

		for _, markerName := range markerNames {
			reading := markers[markerName]
			if !reading.Status.IsAbnormal() {
				continue
			}

			severity := assessAbnormalitySeverity(reading)
			priority := domain.PRIORITY_MEDIUM
			if severity == domain.SEVERITY_HIGH {
				priority = domain.PRIORITY_HIGH
			}

			recs = append(recs, domain.Recommendation{
				TestName:        markerDisplayName(markerName) + " Retest",
				Category:        domain.ParseTestCategory(categoryName),
				Rationale:       fmt.Sprintf("%s was %s on your most recent test", markerDisplayName(markerName), reading.Status),
				PriorityLevel:   priority,
				SuggestedTiming: retestTiming(severity),
				RelatedMarkers:  []string{markerName},
			})
		}
	}
	return recs
}

// trendCandidates emits a monitoring candidate for each watch-list marker
// whose last three values are strictly rising by more than 20% overall.
func (e *MarkerEvaluator) trendCandidates(record *domain.HealthRecord) []domain.Recommendation {
	if len(record.Snapshots) < 3 {
		return nil
	}
	chronological := record.SnapshotsChronological()

	var recs []domain.Recommendation
	for _, markerName := range trendWatchList {
		var values []float64
		for i := range chronological {
			reading, ok := chronological[i].FindMarker(markerName)
			if !ok {
				continue
			}
			// Unparseable values are treated as absent, not as errors.
			if v, numeric := reading.NumericValue(); numeric {
				values = append(values, v)
			}
		}
		if len(values) < 3 {
			continue
		}
		last3 := values[len(values)-3:]
		if !isConcerningTrend(last3) {
			continue
		}

		recs = append(recs, domain.Recommendation{
			TestName:        markerDisplayName(markerName) + " Monitoring",
			Category:        categoryForMarker(markerName),
			Rationale:       fmt.Sprintf("%s has risen over your last three tests (%.1f to %.1f)", markerDisplayName(markerName), last3[0], last3[2]),
			PriorityLevel:   domain.PRIORITY_MEDIUM,
			SuggestedTiming: "within 6 weeks",
			RelatedMarkers:  []string{markerName},
		})
	}
	return recs
}

// isConcerningTrend reports whether three chronological values are strictly
// monotonically increasing with a relative rise of more than 20%.
func isConcerningTrend(values []float64) bool {
	if len(values) != 3 {
		return false
	}
	if !(values[0] < values[1] && values[1] < values[2]) {
		return false
	}
	if values[0] <= 0 {
		return false
	}
	return (values[2]-values[0])/values[0] > 0.20
}

// assessAbnormalitySeverity grades how far an abnormal reading sits outside
// its reference range. Values or ranges that cannot be parsed grade as
// moderate rather than aborting the evaluator.
func assessAbnormalitySeverity(reading domain.MarkerReading) domain.AbnormalitySeverity {
	value, ok := reading.NumericValue()
	if !ok {
		return domain.SEVERITY_MODERATE
	}
	lo, hi, ok := parseReferenceRange(reading.ReferenceRange)
	if !ok {
		return domain.SEVERITY_MODERATE
	}
	width := hi - lo
	if width <= 0 {
		return domain.SEVERITY_MODERATE
	}

	var overshoot float64
	switch reading.Status {
	case domain.MARKER_HIGH:
		overshoot = (value - hi) / width
	case domain.MARKER_LOW:
		overshoot = (lo - value) / width
	default:
		return domain.SEVERITY_LOW
	}

	switch {
	case overshoot > 0.5:
		return domain.SEVERITY_HIGH
	case overshoot <= 0.1:
		return domain.SEVERITY_LOW
	default:
		return domain.SEVERITY_MODERATE
	}
}

// parseReferenceRange reads a "lo-hi" reference range string.
func parseReferenceRange(text string) (lo, hi float64, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(text), "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, errLo := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	hi, errHi := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLo != nil || errHi != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

// retestTiming maps abnormality severity onto the escalation table.
func retestTiming(severity domain.AbnormalitySeverity) string {
	switch severity {
	case domain.SEVERITY_HIGH:
		return "within 1 week"
	case domain.SEVERITY_LOW:
		return "within 8 weeks"
	default:
		return "within 4 weeks"
	}
}

// categoryForMarker resolves a watch-list marker to its essential category.
func categoryForMarker(markerName string) domain.TestCategory {
	for _, category := range domain.EssentialCategories {
		for _, m := range essentialCategoryTests[category].Markers {
			if m == markerName {
				return category
			}
		}
	}
	return domain.CATEGORY_GENERAL
}
