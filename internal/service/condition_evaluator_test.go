package service

import (
	"context"
	"testing"

	"github.com/health-recommendation-engine/internal/domain"
)

func TestConditionEvaluatorPrediabetesMatchesBeforeDiabetes(t *testing.T) {
	evaluator := NewConditionEvaluator(testLogger())
	record := &domain.HealthRecord{
		Conditions: []domain.Condition{
			{Name: "Prediabetes", Status: domain.CONDITION_ACTIVE},
		},
	}

	recs, err := evaluator.Evaluate(context.Background(), record, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 candidate from the prediabetes rule, got %d", len(recs))
	}
	if recs[0].TestName != "HbA1c" {
		t.Errorf("expected HbA1c, got %q", recs[0].TestName)
	}
	if recs[0].SuggestedTiming != "within 6 weeks" {
		t.Errorf("expected 6-month cadence timing, got %q", recs[0].SuggestedTiming)
	}
}

func TestConditionEvaluatorDiabetesEscalates(t *testing.T) {
	evaluator := NewConditionEvaluator(testLogger())
	record := &domain.HealthRecord{
		Conditions: []domain.Condition{
			{Name: "Type 2 Diabetes", Status: domain.CONDITION_ACTIVE},
		},
	}

	recs, err := evaluator.Evaluate(context.Background(), record, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(recs))
	}
	for _, rec := range recs {
		if rec.PriorityLevel != domain.PRIORITY_HIGH {
			t.Errorf("candidate %q: expected high priority, got %s", rec.TestName, rec.PriorityLevel)
		}
		if len(rec.RelatedConditions) != 1 || rec.RelatedConditions[0] != "Type 2 Diabetes" {
			t.Errorf("candidate %q: expected related condition, got %v", rec.TestName, rec.RelatedConditions)
		}
	}
}

func TestConditionEvaluatorSevereConditionEscalates(t *testing.T) {
	evaluator := NewConditionEvaluator(testLogger())
	record := &domain.HealthRecord{
		Conditions: []domain.Condition{
			{Name: "Hypothyroidism", Status: domain.CONDITION_ACTIVE, Severity: "severe"},
		},
	}

	recs, err := evaluator.Evaluate(context.Background(), record, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("expected candidates for severe thyroid condition")
	}
	for _, rec := range recs {
		if rec.PriorityLevel != domain.PRIORITY_HIGH {
			t.Errorf("candidate %q: expected high priority for severe condition, got %s", rec.TestName, rec.PriorityLevel)
		}
	}
}

func TestConditionEvaluatorUnknownConditionFallsBack(t *testing.T) {
	evaluator := NewConditionEvaluator(testLogger())
	record := &domain.HealthRecord{
		Conditions: []domain.Condition{
			{Name: "Psoriasis", Status: domain.CONDITION_ACTIVE},
		},
	}

	recs, err := evaluator.Evaluate(context.Background(), record, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 fallback candidate, got %d", len(recs))
	}
	if recs[0].TestName != "Comprehensive Metabolic Panel" {
		t.Errorf("expected generic fallback test, got %q", recs[0].TestName)
	}
	if recs[0].PriorityLevel != domain.PRIORITY_MEDIUM {
		t.Errorf("expected medium priority, got %s", recs[0].PriorityLevel)
	}
}

func TestConditionEvaluatorSkipsInactiveAndCoveredConditions(t *testing.T) {
	evaluator := NewConditionEvaluator(testLogger())

	tests := []struct {
		name   string
		record *domain.HealthRecord
	}{
		{
			name: "resolved condition produces nothing",
			record: &domain.HealthRecord{
				Conditions: []domain.Condition{
					{Name: "Anemia", Status: domain.CONDITION_RESOLVED},
				},
			},
		},
		{
			name: "recent results with markers suppress monitoring",
			record: &domain.HealthRecord{
				Conditions: []domain.Condition{
					{Name: "High Cholesterol", Status: domain.CONDITION_ACTIVE},
				},
				Snapshots: []domain.BiomarkerSnapshot{fullRecentSnapshot(daysAgo(14))},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := evaluator.Evaluate(context.Background(), tt.record, testNow)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(recs) != 0 {
				t.Errorf("expected no candidates, got %d", len(recs))
			}
		})
	}
}

func TestConditionEvaluatorStaleResultsTriggerMonitoring(t *testing.T) {
	evaluator := NewConditionEvaluator(testLogger())
	record := &domain.HealthRecord{
		Conditions: []domain.Condition{
			{Name: "High Cholesterol", Status: domain.CONDITION_ACTIVE},
		},
		Snapshots: []domain.BiomarkerSnapshot{fullRecentSnapshot(daysAgo(200))},
	}

	recs, err := evaluator.Evaluate(context.Background(), record, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, found := findByName(recs, "Lipid Profile"); !found {
		t.Errorf("expected Lipid Profile monitoring candidate, got %d candidates", len(recs))
	}
}

func TestTimingForInterval(t *testing.T) {
	tests := []struct {
		months int
		want   string
	}{
		{1, "within 2 weeks"},
		{3, "within 1 month"},
		{6, "within 6 weeks"},
		{12, "within 3 months"},
	}

	for _, tt := range tests {
		if got := timingForInterval(tt.months); got != tt.want {
			t.Errorf("timingForInterval(%d) = %q, want %q", tt.months, got, tt.want)
		}
	}
}
