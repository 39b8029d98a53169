package smartrecruit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	MinRecommendationLimit     = 1
	MaxRecommendationLimit     = 50
	DefaultRecommendationLimit = 20
)

// FetchRecommendations asks the matching endpoint for jobs ranked against the resume and
// normalizes every record. It never retries.
func (c *Client) FetchRecommendations(ctx context.Context, userID int, resumeID string, limit int) ([]JobMatch, error) {
	if err := validateRecommendationRequest(userID, resumeID, limit); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("user_id", strconv.Itoa(userID))
	q.Set("resume_id", resumeID)
	q.Set("limit", strconv.Itoa(limit))

	var payload any
	if err := c.getJSON(ctx, recommendationsPath, q, &payload); err != nil {
		return nil, err
	}

	records, err := listFrom(payload, "recommended_jobs", "jobs", "recommendations", "items")
	if err != nil {
		return nil, fmt.Errorf("recommendations: %w", err)
	}

	jobs := make([]JobMatch, 0, len(records))
	for _, raw := range records {
		job, ok := NormalizeJob(raw)
		if !ok {
			c.logger.Debug("dropping recommendation without job id", zap.Any("record", raw))
			continue
		}
		jobs = append(jobs, job)
	}

	c.logger.Debug("got recommendations",
		zap.Int("user_id", userID),
		zap.String("resume_id", resumeID),
		zap.Int("raw", len(records)),
		zap.Int("normalized", len(jobs)),
	)

	if len(jobs) == 0 {
		return nil, &NoMatchesError{ResumeID: resumeID}
	}

	return jobs, nil
}

func validateRecommendationRequest(userID int, resumeID string, limit int) error {
	if userID <= 0 {
		return &ValidationError{Field: "user_id", Reason: "no authenticated user"}
	}
	if strings.TrimSpace(resumeID) == "" {
		return &ValidationError{Field: "resume_id", Reason: "select a resume first"}
	}
	if limit < MinRecommendationLimit || limit > MaxRecommendationLimit {
		return &ValidationError{
			Field:  "limit",
			Reason: fmt.Sprintf("must be between %d and %d", MinRecommendationLimit, MaxRecommendationLimit),
		}
	}
	return nil
}
