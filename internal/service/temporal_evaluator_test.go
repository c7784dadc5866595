package service

import (
	"context"
	"testing"
	"time"

	"github.com/health-recommendation-engine/internal/domain"
)

func TestTemporalEvaluatorBaselineWithoutHistory(t *testing.T) {
	evaluator := NewTemporalEvaluator(testLogger())
	record := &domain.HealthRecord{}

	recs, err := evaluator.Evaluate(context.Background(), record, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 baseline candidates, got %d", len(recs))
	}
	if _, found := findByName(recs, "Baseline Comprehensive Panel"); !found {
		t.Error("expected Baseline Comprehensive Panel candidate")
	}
	if _, found := findByName(recs, "Vitamin & Mineral Panel"); !found {
		t.Error("expected Vitamin & Mineral Panel candidate")
	}
}

func TestTemporalEvaluatorAnnualStaleness(t *testing.T) {
	evaluator := NewTemporalEvaluator(testLogger())
	record := &domain.HealthRecord{
		Snapshots: []domain.BiomarkerSnapshot{
			snapshotAt(daysAgo(400), map[string]map[string]domain.MarkerReading{
				"metabolic": {"glucose": {Value: 90.0, Status: domain.MARKER_NORMAL}},
			}),
		},
	}

	recs, err := evaluator.Evaluate(context.Background(), record, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, found := findByName(recs, "Comprehensive Metabolic Panel"); !found {
		t.Error("expected annual metabolic candidate")
	}
	if _, found := findByName(recs, "Lipid Profile"); !found {
		t.Error("expected annual lipid candidate")
	}
	// The stale snapshot only covered metabolic, so the remaining essential
	// categories appear as gap candidates too.
	if _, found := findByName(recs, "Complete Blood Count"); !found {
		t.Error("expected missing-category candidate for complete blood count")
	}
}

func TestTemporalEvaluatorFreshResultsAreQuiet(t *testing.T) {
	evaluator := NewTemporalEvaluator(testLogger())
	record := &domain.HealthRecord{
		Snapshots: []domain.BiomarkerSnapshot{fullRecentSnapshot(daysAgo(30))},
	}

	recs, err := evaluator.Evaluate(context.Background(), record, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no candidates with fresh complete results, got %d", len(recs))
	}
}

func TestTemporalEvaluatorRecentIntervention(t *testing.T) {
	evaluator := NewTemporalEvaluator(testLogger())

	started := daysAgo(21)
	oldStart := daysAgo(90)

	tests := []struct {
		name       string
		medication domain.Medication
		wantTest   string
		wantFound  bool
	}{
		{
			name:       "statin maps to liver follow-up",
			medication: domain.Medication{Name: "Atorvastatin (statin)", StartDate: &started},
			wantTest:   "Liver Function Panel",
			wantFound:  true,
		},
		{
			name:       "unknown medication gets generic monitoring",
			medication: domain.Medication{Name: "Sertraline", StartDate: &started},
			wantTest:   "Post-Medication Monitoring",
			wantFound:  true,
		},
		{
			name:       "old start date is outside the window",
			medication: domain.Medication{Name: "Atorvastatin (statin)", StartDate: &oldStart},
			wantTest:   "Liver Function Panel",
			wantFound:  false,
		},
		{
			name:       "missing start date is skipped",
			medication: domain.Medication{Name: "Atorvastatin (statin)"},
			wantTest:   "Liver Function Panel",
			wantFound:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := &domain.HealthRecord{
				Snapshots:   []domain.BiomarkerSnapshot{fullRecentSnapshot(daysAgo(30))},
				Medications: []domain.Medication{tt.medication},
			}
			recs, err := evaluator.Evaluate(context.Background(), record, testNow)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, found := findByName(recs, tt.wantTest); found != tt.wantFound {
				t.Errorf("candidate %q: found=%v, want %v", tt.wantTest, found, tt.wantFound)
			}
		})
	}
}

func TestTemporalEvaluatorSupplementIntervention(t *testing.T) {
	evaluator := NewTemporalEvaluator(testLogger())
	started := daysAgo(14)
	record := &domain.HealthRecord{
		Snapshots: []domain.BiomarkerSnapshot{fullRecentSnapshot(daysAgo(30))},
		Supplements: []domain.Supplement{
			{Name: "Vitamin D3", StartDate: &started},
		},
	}

	recs, err := evaluator.Evaluate(context.Background(), record, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, found := findByName(recs, "Vitamin D Recheck")
	if !found {
		t.Fatal("expected Vitamin D Recheck candidate")
	}
	if rec.SuggestedTiming != "within 8 weeks" {
		t.Errorf("unexpected timing %q", rec.SuggestedTiming)
	}
}

func TestTemporalEvaluatorOverdueConditionMonitoring(t *testing.T) {
	evaluator := NewTemporalEvaluator(testLogger())
	record := &domain.HealthRecord{
		Conditions: []domain.Condition{
			{Name: "Type 2 Diabetes", Status: domain.CONDITION_ACTIVE},
		},
		Snapshots: []domain.BiomarkerSnapshot{fullRecentSnapshot(daysAgo(75))},
	}

	recs, err := evaluator.Evaluate(context.Background(), record, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, found := findByName(recs, "Type 2 Diabetes Monitoring")
	if !found {
		t.Fatal("expected overdue monitoring candidate")
	}
	if rec.PriorityLevel != domain.PRIORITY_HIGH {
		t.Errorf("expected high priority, got %s", rec.PriorityLevel)
	}
	if rec.SuggestedTiming != "within 1 week" {
		t.Errorf("unexpected timing %q", rec.SuggestedTiming)
	}
	if rec.Category != domain.CATEGORY_METABOLIC {
		t.Errorf("expected metabolic category, got %s", rec.Category)
	}
}

func TestTemporalEvaluatorConditionWithinIntervalIsQuiet(t *testing.T) {
	evaluator := NewTemporalEvaluator(testLogger())
	record := &domain.HealthRecord{
		Conditions: []domain.Condition{
			{Name: "Type 2 Diabetes", Status: domain.CONDITION_ACTIVE},
		},
		Snapshots: []domain.BiomarkerSnapshot{fullRecentSnapshot(daysAgo(30))},
	}

	recs, err := evaluator.Evaluate(context.Background(), record, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no candidates within the monitoring interval, got %d", len(recs))
	}
}

func TestTemporalEvaluatorFutureStartDateIsSkipped(t *testing.T) {
	evaluator := NewTemporalEvaluator(testLogger())
	future := testNow.Add(7 * 24 * time.Hour)
	record := &domain.HealthRecord{
		Snapshots: []domain.BiomarkerSnapshot{fullRecentSnapshot(daysAgo(30))},
		Medications: []domain.Medication{
			{Name: "Metformin", StartDate: &future},
		},
	}

	recs, err := evaluator.Evaluate(context.Background(), record, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no candidates for a not-yet-started medication, got %d", len(recs))
	}
}
