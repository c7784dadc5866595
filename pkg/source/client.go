// Package source is the client for the upstream data-aggregation service that
// assembles a subject's health record. Its failure contract mirrors the rest
// of the pipeline: degraded data in, never an error out.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/health-recommendation-engine/internal/domain"
)

// Client fetches aggregated health records over HTTP with rate limiting and a
// circuit breaker. It implements domain.RecordSource.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	log        *logrus.Logger
}

// NewClient creates a new record source client.
func NewClient(config *domain.SourceConfig, logger *logrus.Logger) *Client {
	limit := rate.Limit(config.RateLimit)
	if config.RateLimit <= 0 {
		limit = rate.Inf
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "RecordSource",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &Client{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		breaker: breaker,
		log:     logger,
	}
}

// FetchRecord retrieves the aggregated health record for a subject. Upstream
// failure degrades to an empty record: downstream evaluators treat missing
// data as a reason to recommend baselines, not as an error.
func (c *Client) FetchRecord(ctx context.Context, subjectID string) (*domain.HealthRecord, error) {
	if subjectID == "" {
		return nil, domain.ErrInvalidSubject
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, subjectID)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.WithError(err).WithField("subject_id", subjectID).Warn("Record fetch failed, degrading to empty record")
		return &domain.HealthRecord{}, nil
	}

	return result.(*domain.HealthRecord), nil
}

// fetch performs the HTTP request.
func (c *Client) fetch(ctx context.Context, subjectID string) (*domain.HealthRecord, error) {
	url := fmt.Sprintf("%s/api/v1/subjects/%s/record", c.baseURL, subjectID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating record request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// A subject unknown upstream has an empty record, not an error.
		return &domain.HealthRecord{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("record source returned %d: %s", resp.StatusCode, string(body))
	}

	var record domain.HealthRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}

	return &record, nil
}

// BreakerState returns the current circuit breaker state for health checks.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}
