package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/health-recommendation-engine/internal/domain"
)

func testRecord() *domain.HealthRecord {
	started := daysAgo(20)
	snapshot := fullRecentSnapshot(daysAgo(45))
	snapshot.Categories["metabolic"]["hba1c"] = domain.MarkerReading{Value: 6.4, ReferenceRange: "4.0-5.6", Status: domain.MARKER_HIGH}
	return &domain.HealthRecord{
		Demographics: domain.Demographics{Age: 52, Sex: domain.SEX_MALE},
		Snapshots:    []domain.BiomarkerSnapshot{snapshot},
		Conditions: []domain.Condition{
			{Name: "Prediabetes", Status: domain.CONDITION_ACTIVE},
		},
		Medications: []domain.Medication{
			{Name: "Atorvastatin (statin)", StartDate: &started},
		},
		FamilyHistory: []domain.FamilyHistoryEntry{
			{Condition: "Heart Disease", Relation: "father"},
		},
		Lifestyle: &domain.Lifestyle{SmokingStatus: "former", ExerciseFrequency: "weekly"},
	}
}

func TestEngineGenerateEndToEnd(t *testing.T) {
	engine := NewRecommendationEngine(testLogger())

	set := engine.Generate(context.Background(), "subject-1", testRecord(), testNow)

	if set == nil {
		t.Fatal("expected a recommendation set")
	}
	if set.Failure != nil {
		t.Fatalf("unexpected failure: %+v", set.Failure)
	}
	if set.SubjectID != "subject-1" {
		t.Errorf("unexpected subject id %q", set.SubjectID)
	}
	if !set.GeneratedAt.Equal(testNow) {
		t.Errorf("expected generated-at pinned to the reference instant, got %v", set.GeneratedAt)
	}
	if set.Summary.Total == 0 {
		t.Fatal("expected recommendations for a record with abnormal results and an active condition")
	}
	if set.Summary.Total != len(set.Recommendations) {
		t.Errorf("summary total %d does not match %d recommendations", set.Summary.Total, len(set.Recommendations))
	}

	for i, rec := range set.Recommendations {
		if rec.Rationale == "" || rec.SuggestedTiming == "" || rec.EducationalContext == "" {
			t.Errorf("recommendation %d (%s) is missing required output fields", i, rec.TestName)
		}
		if rec.PriorityLevel != domain.PriorityForScore(rec.PriorityScore) {
			t.Errorf("recommendation %d (%s): level %s does not match score %f", i, rec.TestName, rec.PriorityLevel, rec.PriorityScore)
		}
		if i > 0 {
			prev := set.Recommendations[i-1]
			if prev.PriorityLevel.Rank() < rec.PriorityLevel.Rank() {
				t.Errorf("recommendations not sorted by priority at %d", i)
			}
			if prev.PriorityLevel == rec.PriorityLevel && prev.PriorityScore < rec.PriorityScore {
				t.Errorf("recommendations not sorted by score at %d", i)
			}
		}
	}
}

func TestEngineGenerateIsDeterministic(t *testing.T) {
	engine := NewRecommendationEngine(testLogger())
	record := testRecord()

	first, err := json.Marshal(engine.Generate(context.Background(), "subject-1", record, testNow))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := json.Marshal(engine.Generate(context.Background(), "subject-1", record, testNow))
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(first) != string(again) {
			t.Fatalf("run %d produced a different set:\nfirst: %s\nagain: %s", i, first, again)
		}
	}
}

func TestEngineNilRecordDegrades(t *testing.T) {
	engine := NewRecommendationEngine(testLogger())

	set := engine.Generate(context.Background(), "subject-1", nil, testNow)

	if set == nil {
		t.Fatal("expected a degraded set, not nil")
	}
	if set.Failure == nil {
		t.Fatal("expected a structured failure reason")
	}
	if set.Failure.Stage != StageBuilding {
		t.Errorf("expected building stage, got %q", set.Failure.Stage)
	}
	if len(set.Recommendations) != 0 {
		t.Errorf("expected empty recommendations, got %d", len(set.Recommendations))
	}
	if set.Summary.Total != 0 {
		t.Errorf("expected zeroed summary, got %+v", set.Summary)
	}
	if set.SubjectID != "subject-1" || !set.GeneratedAt.Equal(testNow) {
		t.Error("degraded set lost subject id or generated-at")
	}
}

func TestEngineSurvivesPanickingEvaluator(t *testing.T) {
	engine := NewRecommendationEngine(testLogger())
	engine.builder.evaluators = []domain.Evaluator{
		panickingEvaluator{},
		NewMarkerEvaluator(testLogger()),
	}

	set := engine.Generate(context.Background(), "subject-1", &domain.HealthRecord{}, testNow)

	if set == nil {
		t.Fatal("expected a set despite the panicking evaluator")
	}
	if set.Failure != nil {
		t.Fatalf("one bad evaluator must not fail the pipeline: %+v", set.Failure)
	}
	if set.Summary.Total == 0 {
		t.Error("expected candidates from the surviving evaluator")
	}
}

func TestEngineEmptyRecordStillProducesBaseline(t *testing.T) {
	engine := NewRecommendationEngine(testLogger())

	set := engine.Generate(context.Background(), "subject-1", &domain.HealthRecord{}, testNow)

	if set.Failure != nil {
		t.Fatalf("unexpected failure: %+v", set.Failure)
	}
	if set.Summary.Total == 0 {
		t.Error("expected baseline recommendations for an empty record")
	}
}

// panickingEvaluator panics on evaluation, for boundary tests.
type panickingEvaluator struct{}

func (panickingEvaluator) Name() string { return "panicking" }

func (panickingEvaluator) Evaluate(ctx context.Context, record *domain.HealthRecord, now time.Time) ([]domain.Recommendation, error) {
	panic("evaluator blew up")
}
