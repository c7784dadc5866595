package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/health-recommendation-engine/internal/domain"
)

// RecommendationRepository persists generated recommendation sets. The full
// set is stored as a JSONB payload; summary counts are broken out into
// columns for querying without unmarshaling.
type RecommendationRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewRecommendationRepository creates a new recommendation repository
func NewRecommendationRepository(db *pgxpool.Pool, logger *logrus.Logger) *RecommendationRepository {
	return &RecommendationRepository{
		db:  db,
		log: logger,
	}
}

// Save inserts a generated recommendation set
func (r *RecommendationRepository) Save(ctx context.Context, set *domain.RecommendationSet) error {
	if set.SubjectID == "" {
		return domain.ErrInvalidSubject
	}

	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshaling recommendation set: %w", err)
	}

	query := `
		INSERT INTO recommendation_sets (
			id, subject_id, generated_at, total, high_count, medium_count, low_count, payload
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`

	_, err = r.db.Exec(ctx, query,
		uuid.New(),
		set.SubjectID,
		set.GeneratedAt,
		set.Summary.Total,
		set.Summary.HighCount,
		set.Summary.MediumCount,
		set.Summary.LowCount,
		payload,
	)

	if err != nil {
		r.log.WithFields(logrus.Fields{
			"subject_id": set.SubjectID,
			"error":      err,
		}).Error("Failed to save recommendation set")
		return fmt.Errorf("saving recommendation set: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"subject_id": set.SubjectID,
		"total":      set.Summary.Total,
	}).Info("Recommendation set saved")

	return nil
}

// LatestBySubject retrieves the most recently generated set for a subject
func (r *RecommendationRepository) LatestBySubject(ctx context.Context, subjectID string) (*domain.RecommendationSet, error) {
	query := `
		SELECT payload
		FROM recommendation_sets
		WHERE subject_id = $1
		ORDER BY generated_at DESC
		LIMIT 1`

	var payload []byte
	err := r.db.QueryRow(ctx, query, subjectID).Scan(&payload)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("recommendation set not found: %w", domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"subject_id": subjectID,
			"error":      err,
		}).Error("Failed to get latest recommendation set")
		return nil, fmt.Errorf("getting latest recommendation set: %w", err)
	}

	var set domain.RecommendationSet
	if err := json.Unmarshal(payload, &set); err != nil {
		return nil, fmt.Errorf("unmarshaling recommendation set: %w", err)
	}

	return &set, nil
}

// ListBySubject retrieves stored sets for a subject, newest first, with
// pagination
func (r *RecommendationRepository) ListBySubject(ctx context.Context, subjectID string, limit, offset int) ([]*domain.RecommendationSet, error) {
	query := `
		SELECT payload
		FROM recommendation_sets
		WHERE subject_id = $1
		ORDER BY generated_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, subjectID, limit, offset)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"subject_id": subjectID,
			"error":      err,
		}).Error("Failed to list recommendation sets")
		return nil, fmt.Errorf("listing recommendation sets: %w", err)
	}
	defer rows.Close()

	var sets []*domain.RecommendationSet
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning recommendation set row: %w", err)
		}
		var set domain.RecommendationSet
		if err := json.Unmarshal(payload, &set); err != nil {
			return nil, fmt.Errorf("unmarshaling recommendation set: %w", err)
		}
		sets = append(sets, &set)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recommendation set rows: %w", err)
	}

	return sets, nil
}

// CountBySubject returns the number of stored sets for a subject
func (r *RecommendationRepository) CountBySubject(ctx context.Context, subjectID string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM recommendation_sets WHERE subject_id = $1`,
		subjectID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting recommendation sets: %w", err)
	}
	return count, nil
}
