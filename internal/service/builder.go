package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/health-recommendation-engine/internal/domain"
)

// RecommendationBuilder runs the four rule evaluators and merges their
// candidates into a deduplicated list keyed by normalized test name.
//
// Evaluator order is fixed as {marker, condition, demographic, temporal}: it
// does not affect which recommendations are produced, but it determines which
// candidate becomes the base of a merged group, so it is part of the
// deterministic contract.
type RecommendationBuilder struct {
	logger     *logrus.Logger
	evaluators []domain.Evaluator
}

// NewRecommendationBuilder creates a builder with the standard evaluators.
func NewRecommendationBuilder(logger *logrus.Logger) *RecommendationBuilder {
	return &RecommendationBuilder{
		logger: logger,
		evaluators: []domain.Evaluator{
			NewMarkerEvaluator(logger),
			NewConditionEvaluator(logger),
			NewDemographicEvaluator(logger),
			NewTemporalEvaluator(logger),
		},
	}
}

// timingRank orders suggested-timing strings by urgency. Higher rank is more
// urgent; unrecognized timings rank zero.
var timingRank = []struct {
	Keyword string
	Rank    int
}{
	{"1 week", 6},
	{"2 weeks", 5},
	{"1 month", 4},
	{"6 weeks", 3},
	{"2 months", 2},
	{"3 months", 1},
}

// Build runs all evaluators against the record and returns the merged,
// validated candidate list. The evaluators have no data dependencies and run
// concurrently; their outputs are recombined in fixed evaluator order before
// merging so results stay deterministic.
func (b *RecommendationBuilder) Build(ctx context.Context, record *domain.HealthRecord, now time.Time) ([]domain.Recommendation, error) {
	if record == nil {
		return nil, domain.NewPipelineError("building", "health record is nil", domain.ErrNilRecord)
	}

	results := make([][]domain.Recommendation, len(b.evaluators))
	g, gctx := errgroup.WithContext(ctx)
	for i, evaluator := range b.evaluators {
		g.Go(func() error {
			// A panicking evaluator must not take the whole pipeline down;
			// the engine's own recover cannot reach this goroutine.
			defer func() {
				if r := recover(); r != nil {
					b.logger.WithFields(logrus.Fields{
						"evaluator": evaluator.Name(),
						"panic":     r,
					}).Error("Evaluator panicked, continuing without its candidates")
				}
			}()
			candidates, err := evaluator.Evaluate(gctx, record, now)
			if err != nil {
				b.logger.WithError(err).WithField("evaluator", evaluator.Name()).Warn("Evaluator failed, continuing without its candidates")
				return nil
			}
			results[i] = candidates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, domain.NewPipelineError("building", "evaluator fan-out failed", err)
	}

	var candidates []domain.Recommendation
	for _, r := range results {
		candidates = append(candidates, r...)
	}

	merged := b.mergeCandidates(candidates)
	for i := range merged {
		merged[i] = validateRecommendation(merged[i])
	}

	b.logger.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"merged":     len(merged),
	}).Info("Recommendation build completed")

	return merged, nil
}

// mergeCandidates groups candidates by normalized test name in first-seen
// order and merges each multi-member group into one recommendation.
func (b *RecommendationBuilder) mergeCandidates(candidates []domain.Recommendation) []domain.Recommendation {
	groups := make(map[string][]domain.Recommendation)
	var order []string
	for _, c := range candidates {
		key := c.NormalizedName()
		if key == "" {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], c)
	}

	merged := make([]domain.Recommendation, 0, len(order))
	for _, key := range order {
		group := groups[key]
		if len(group) == 1 {
			merged = append(merged, group[0])
			continue
		}
		merged = append(merged, mergeGroup(group))
	}
	return merged
}

// mergeGroup folds a group of same-test candidates into one recommendation.
// The first candidate (earliest evaluator in the fixed order) is the base.
func mergeGroup(group []domain.Recommendation) domain.Recommendation {
	out := group[0]

	out.Rationale = joinDistinct(rationales(group), "; ")
	for _, c := range group[1:] {
		out.PriorityLevel = domain.MaxPriority(out.PriorityLevel, c.PriorityLevel)
	}
	out.RelatedMarkers = unionStrings(group, func(r domain.Recommendation) []string { return r.RelatedMarkers })
	out.RelatedConditions = unionStrings(group, func(r domain.Recommendation) []string { return r.RelatedConditions })
	out.SuggestedTiming = mostUrgentTiming(group)

	out.EducationalContext = ""
	for _, c := range group {
		if c.EducationalContext != "" {
			out.EducationalContext = c.EducationalContext
			break
		}
	}

	return out
}

// rationales collects the group's rationale strings in order.
func rationales(group []domain.Recommendation) []string {
	out := make([]string, 0, len(group))
	for _, c := range group {
		if c.Rationale != "" {
			out = append(out, c.Rationale)
		}
	}
	return out
}

// joinDistinct joins strings preserving first occurrence and dropping
// duplicates.
func joinDistinct(values []string, sep string) string {
	seen := make(map[string]struct{}, len(values))
	var distinct []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		distinct = append(distinct, v)
	}
	return strings.Join(distinct, sep)
}

// unionStrings builds the ordered set union of a string-slice field across
// the group.
func unionStrings(group []domain.Recommendation, field func(domain.Recommendation) []string) []string {
	seen := make(map[string]struct{})
	var union []string
	for _, c := range group {
		for _, v := range field(c) {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			union = append(union, v)
		}
	}
	return union
}

// mostUrgentTiming picks the single most urgent timing string in the group
// using the fixed keyword ranking; ties resolve to first occurrence.
func mostUrgentTiming(group []domain.Recommendation) string {
	best := group[0].SuggestedTiming
	bestRank := rankTiming(best)
	for _, c := range group[1:] {
		if r := rankTiming(c.SuggestedTiming); r > bestRank {
			best = c.SuggestedTiming
			bestRank = r
		}
	}
	return best
}

// rankTiming resolves a timing string to its urgency rank.
func rankTiming(timing string) int {
	lower := strings.ToLower(timing)
	for _, entry := range timingRank {
		if strings.Contains(lower, entry.Keyword) {
			return entry.Rank
		}
	}
	return 0
}

// validateRecommendation guarantees the output invariants: non-empty
// rationale, timing and educational context, and a valid category.
func validateRecommendation(rec domain.Recommendation) domain.Recommendation {
	if rec.Rationale == "" {
		rec.Rationale = "Recommended based on your current health profile"
	}
	if rec.SuggestedTiming == "" {
		rec.SuggestedTiming = "within 1 month"
	}
	if !rec.Category.IsValid() {
		rec.Category = domain.CATEGORY_METABOLIC
	}
	rec.EducationalContext = resolveEducationalContext(rec.EducationalContext, rec.TestName)
	return rec
}
