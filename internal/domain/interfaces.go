package domain

import (
	"context"
	"time"
)

// Evaluator is one rule family producing candidate recommendations from a
// health record. Implementations must be stateless and safe for concurrent
// use, must never mutate the record, and must take the reference instant from
// the caller instead of reading the system clock.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, record *HealthRecord, now time.Time) ([]Recommendation, error)
}

// RecordSource fetches the aggregated health record for a subject from the
// upstream data-aggregation collaborator. Partial upstream failure yields an
// empty record, never an error into the pipeline.
type RecordSource interface {
	FetchRecord(ctx context.Context, subjectID string) (*HealthRecord, error)
}

// ResultStore persists generated recommendation sets.
type ResultStore interface {
	Save(ctx context.Context, set *RecommendationSet) error
	LatestBySubject(ctx context.Context, subjectID string) (*RecommendationSet, error)
}

// ConfigManager provides access to validated application configuration.
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	Validate() error
}
