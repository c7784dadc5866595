package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/health-recommendation-engine/internal/domain"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	schema := `
		CREATE TABLE recommendation_sets (
			id UUID PRIMARY KEY,
			subject_id TEXT NOT NULL,
			generated_at TIMESTAMPTZ NOT NULL,
			total INTEGER NOT NULL,
			high_count INTEGER NOT NULL,
			medium_count INTEGER NOT NULL,
			low_count INTEGER NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX idx_recommendation_sets_subject ON recommendation_sets (subject_id, generated_at DESC);`
	if _, err := pool.Exec(ctx, schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return pool
}

func testSet(subjectID string, generatedAt time.Time) *domain.RecommendationSet {
	return &domain.RecommendationSet{
		SubjectID:   subjectID,
		GeneratedAt: generatedAt,
		Summary: domain.Summary{
			Total:      1,
			HighCount:  1,
			Categories: []string{"metabolic"},
		},
		Recommendations: []domain.Recommendation{
			{
				TestName:           "HbA1c Retest",
				Category:           domain.CATEGORY_METABOLIC,
				Rationale:          "HbA1c was high on your most recent test",
				PriorityLevel:      domain.PRIORITY_HIGH,
				PriorityScore:      0.82,
				SuggestedTiming:    "within 1 week",
				RelatedMarkers:     []string{"hba1c"},
				EducationalContext: "HbA1c reflects your average blood sugar over the past three months.",
			},
		},
		GroupedByCategory: map[domain.TestCategory][]domain.Recommendation{},
	}
}

func TestRecommendationRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}

	pool := setupTestDB(t)
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	repo := NewRecommendationRepository(pool, logger)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("save and load latest", func(t *testing.T) {
		older := testSet("subject-1", base.Add(-24*time.Hour))
		newer := testSet("subject-1", base)

		if err := repo.Save(ctx, older); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := repo.Save(ctx, newer); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := repo.LatestBySubject(ctx, "subject-1")
		if err != nil {
			t.Fatalf("LatestBySubject failed: %v", err)
		}
		if !got.GeneratedAt.Equal(newer.GeneratedAt) {
			t.Errorf("expected newest set, got generated_at %v", got.GeneratedAt)
		}
		if len(got.Recommendations) != 1 || got.Recommendations[0].TestName != "HbA1c Retest" {
			t.Errorf("payload round trip lost recommendations: %+v", got.Recommendations)
		}
	})

	t.Run("unknown subject", func(t *testing.T) {
		_, err := repo.LatestBySubject(ctx, "nobody")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("empty subject id rejected", func(t *testing.T) {
		set := testSet("", base)
		if err := repo.Save(ctx, set); !errors.Is(err, domain.ErrInvalidSubject) {
			t.Errorf("expected ErrInvalidSubject, got %v", err)
		}
	})

	t.Run("list with pagination", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			set := testSet("subject-2", base.Add(time.Duration(i)*time.Hour))
			if err := repo.Save(ctx, set); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
		}

		sets, err := repo.ListBySubject(ctx, "subject-2", 2, 0)
		if err != nil {
			t.Fatalf("ListBySubject failed: %v", err)
		}
		if len(sets) != 2 {
			t.Fatalf("expected 2 sets, got %d", len(sets))
		}
		if !sets[0].GeneratedAt.After(sets[1].GeneratedAt) {
			t.Error("expected newest-first ordering")
		}

		count, err := repo.CountBySubject(ctx, "subject-2")
		if err != nil {
			t.Fatalf("CountBySubject failed: %v", err)
		}
		if count != 3 {
			t.Errorf("expected count 3, got %d", count)
		}
	})
}
