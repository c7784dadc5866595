package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/health-recommendation-engine/internal/domain"
)

// GenerateRequest is the body of a generation request. The health record is
// optional; when omitted the record is fetched from the aggregation service.
type GenerateRequest struct {
	SubjectID string               `json:"subject_id" binding:"required"`
	Record    *domain.HealthRecord `json:"health_record,omitempty"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	})
}

// handleGenerate runs the pipeline for a subject and returns the full set.
// Generation itself never fails; a degraded set carries its failure reason.
func (s *Server) handleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject_id is required"})
		return
	}

	record := req.Record
	if record == nil {
		fetched, err := s.deps.Source.FetchRecord(c.Request.Context(), req.SubjectID)
		if err != nil {
			s.log.WithError(err).WithField("subject_id", req.SubjectID).Error("Record fetch rejected")
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		record = fetched
	}

	now := time.Now().UTC()
	set := s.deps.Engine.Generate(c.Request.Context(), req.SubjectID, record, now)

	s.persistSet(c, set)

	c.JSON(http.StatusOK, set)
}

// persistSet writes a generated set to the optional store, cache and history.
// Persistence problems are logged, never surfaced to the caller.
func (s *Server) persistSet(c *gin.Context, set *domain.RecommendationSet) {
	ctx := c.Request.Context()

	if s.deps.Store != nil {
		if err := s.deps.Store.Save(ctx, set); err != nil {
			s.log.WithError(err).WithField("subject_id", set.SubjectID).Warn("Failed to persist recommendation set")
		}
	}
	if s.deps.Cache != nil {
		if err := s.deps.Cache.SetSet(ctx, set, 0); err != nil {
			s.log.WithError(err).WithField("subject_id", set.SubjectID).Warn("Failed to cache recommendation set")
		}
	}
	if s.deps.History != nil {
		if err := s.deps.History.Record(ctx, set); err != nil {
			s.log.WithError(err).WithField("subject_id", set.SubjectID).Warn("Failed to record generation event")
		}
	}
}

// handleGetLatest returns the most recently generated set for a subject,
// preferring the cache over the store.
func (s *Server) handleGetLatest(c *gin.Context) {
	subjectID := c.Param("subjectId")

	set, ok := s.loadLatest(c, subjectID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, set)
}

// handleGetSummary returns the summary-only projection of the latest set.
func (s *Server) handleGetSummary(c *gin.Context) {
	subjectID := c.Param("subjectId")

	set, ok := s.loadLatest(c, subjectID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, set.View())
}

// loadLatest resolves the latest set from cache then store, writing the error
// response itself when nothing is available.
func (s *Server) loadLatest(c *gin.Context, subjectID string) (*domain.RecommendationSet, bool) {
	ctx := c.Request.Context()

	if s.deps.Cache != nil {
		if set, found, err := s.deps.Cache.GetSet(ctx, subjectID); err == nil && found {
			return set, true
		}
	}

	if s.deps.Store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no recommendations generated for subject"})
		return nil, false
	}

	set, err := s.deps.Store.LatestBySubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no recommendations generated for subject"})
			return nil, false
		}
		s.log.WithError(err).WithField("subject_id", subjectID).Error("Failed to load recommendation set")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recommendations"})
		return nil, false
	}

	return set, true
}

// handleGetHistory returns recent generation events for a subject.
func (s *Server) handleGetHistory(c *gin.Context) {
	if s.deps.History == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "generation history is disabled"})
		return
	}

	subjectID := c.Param("subjectId")
	events, err := s.deps.History.RecentBySubject(c.Request.Context(), subjectID, 20)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"subject_id": subjectID,
			"error":      err,
		}).Error("Failed to load generation history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subject_id": subjectID,
		"events":     events,
	})
}
