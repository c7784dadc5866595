// Package history records every recommendation generation run in an embedded
// SQLite database, giving operators a local audit trail that survives
// restarts and needs no external services.
package history

import "time"

// GenerationEvent is one recorded pipeline run for a subject.
type GenerationEvent struct {
	ID           int64     `json:"id"`
	SubjectID    string    `json:"subject_id"`
	GeneratedAt  time.Time `json:"generated_at"`
	Total        int       `json:"total"`
	HighCount    int       `json:"high_count"`
	MediumCount  int       `json:"medium_count"`
	LowCount     int       `json:"low_count"`
	Degraded     bool      `json:"degraded"`
	FailureStage string    `json:"failure_stage,omitempty"`
	FailureMsg   string    `json:"failure_msg,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Stats aggregates the recorded history.
type Stats struct {
	TotalRuns    int64 `json:"total_runs"`
	DegradedRuns int64 `json:"degraded_runs"`
	Subjects     int64 `json:"subjects"`
}
