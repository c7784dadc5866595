package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/health-recommendation-engine/internal/domain"
)

// Pipeline stage labels, used in logs and in degraded-set failure reasons.
const (
	StageIdle       = "idle"
	StageBuilding   = "building"
	StageScoring    = "scoring"
	StageFormatting = "formatting"
	StageDone       = "done"
	StageFailed     = "failed"
)

// RecommendationEngine orchestrates the three pipeline stages. Its contract is
// best-effort: Generate always returns a usable recommendation set, degrading
// to an empty set with a structured failure reason when a stage fails
// outright. It never returns an error and never panics across its boundary.
type RecommendationEngine struct {
	logger    *logrus.Logger
	builder   *RecommendationBuilder
	scorer    *PriorityScorer
	formatter *OutputFormatter
}

// NewRecommendationEngine creates an engine with the standard stages.
func NewRecommendationEngine(logger *logrus.Logger) *RecommendationEngine {
	return &RecommendationEngine{
		logger:    logger,
		builder:   NewRecommendationBuilder(logger),
		scorer:    NewPriorityScorer(logger),
		formatter: NewOutputFormatter(logger),
	}
}

// Generate runs the full pipeline for one subject at the given reference
// instant. The same record and instant always produce the same set.
func (e *RecommendationEngine) Generate(ctx context.Context, subjectID string, record *domain.HealthRecord, now time.Time) *domain.RecommendationSet {
	stage := StageIdle

	set, err := func() (set *domain.RecommendationSet, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = domain.NewPipelineError(stage, fmt.Sprintf("panic: %v", r), nil)
			}
		}()

		stage = StageBuilding
		candidates, err := e.builder.Build(ctx, record, now)
		if err != nil {
			return nil, err
		}

		stage = StageScoring
		scored := e.scorer.ScoreAll(candidates, record)

		stage = StageFormatting
		return e.formatter.Format(subjectID, scored, now), nil
	}()

	if err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"subject_id": subjectID,
			"stage":      stage,
		}).Error("Pipeline failed, returning degraded recommendation set")
		return degradedSet(subjectID, now, domain.FailureFromError(stage, err))
	}

	e.logger.WithFields(logrus.Fields{
		"subject_id":      subjectID,
		"stage":           StageDone,
		"recommendations": set.Summary.Total,
	}).Info("Recommendation generation completed")

	return set
}

// degradedSet is the empty-but-valid output returned when the pipeline cannot
// produce recommendations at all.
func degradedSet(subjectID string, now time.Time, failure *domain.PipelineFailure) *domain.RecommendationSet {
	return &domain.RecommendationSet{
		SubjectID:         subjectID,
		GeneratedAt:       now,
		Recommendations:   []domain.Recommendation{},
		GroupedByCategory: map[domain.TestCategory][]domain.Recommendation{},
		Summary:           domain.Summary{Categories: []string{}},
		Failure:           failure,
	}
}
