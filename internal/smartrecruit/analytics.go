package smartrecruit

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// Summary counts applications per pipeline status. JobID is zero for the overall summary.
type Summary struct {
	JobID             int `json:"jobId,omitempty" mapstructure:"job_id"`
	TotalApplications int `json:"totalApplications" mapstructure:"total_applications"`
	Applied           int `json:"applied" mapstructure:"applied"`
	Shortlisted       int `json:"shortlisted" mapstructure:"shortlisted"`
	Interviewed       int `json:"interviewed" mapstructure:"interviewed"`
	Offered           int `json:"offered" mapstructure:"offered"`
	Rejected          int `json:"rejected" mapstructure:"rejected"`
}

// Bucket is one fit-score band of a distribution.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type FitScoreDistribution struct {
	JobID             int      `json:"jobId,omitempty"`
	TotalApplications int      `json:"totalApplications"`
	Buckets           []Bucket `json:"buckets"`
}

// GetSummary returns the status counts across all jobs.
func (c *Client) GetSummary(ctx context.Context) (*Summary, error) {
	var raw map[string]any
	if err := c.getJSON(ctx, summaryPath, nil, &raw); err != nil {
		return nil, err
	}

	return decodeSummary(raw)
}

// GetJobSummary returns the status counts of one job.
func (c *Client) GetJobSummary(ctx context.Context, jobID int) (*Summary, error) {
	if jobID <= 0 {
		return nil, &ValidationError{Field: "job_id", Reason: "must be positive"}
	}

	q := url.Values{}
	q.Set("job_id", strconv.Itoa(jobID))

	var raw map[string]any
	if err := c.getJSON(ctx, jobSummaryPath, q, &raw); err != nil {
		return nil, err
	}

	summary, err := decodeSummary(raw)
	if err != nil {
		return nil, err
	}
	if summary.JobID == 0 {
		summary.JobID = jobID
	}
	return summary, nil
}

func decodeSummary(raw map[string]any) (*Summary, error) {
	var summary Summary
	cfg := &mapstructure.DecoderConfig{
		Result:           &summary,
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	return &summary, nil
}

// GetFitScoreDistribution returns the fit-score bands of one job, or of all applications
// when jobID is zero.
func (c *Client) GetFitScoreDistribution(ctx context.Context, jobID int) (*FitScoreDistribution, error) {
	if jobID < 0 {
		return nil, &ValidationError{Field: "job_id", Reason: "must not be negative"}
	}

	path := distributionPath
	if jobID > 0 {
		path = fmt.Sprintf(jobDistributionPath, jobID)
	}

	var raw map[string]any
	if err := c.getJSON(ctx, path, nil, &raw); err != nil {
		return nil, err
	}

	dist := &FitScoreDistribution{JobID: jobID, Buckets: []Bucket{}}
	dist.TotalApplications, _ = asInt(raw["total_applications"])

	bands, _ := raw["fit_score_distribution"].(map[string]any)
	for label, v := range bands {
		count, _ := asInt(v)
		dist.Buckets = append(dist.Buckets, Bucket{Label: label, Count: count})
	}
	// Map order is random; present the bands in a stable order.
	sort.Slice(dist.Buckets, func(i, j int) bool {
		return dist.Buckets[i].Label > dist.Buckets[j].Label
	})

	return dist, nil
}
