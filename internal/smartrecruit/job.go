package smartrecruit

import (
	"context"
	"fmt"
)

type JobStatus string

const (
	JobActive JobStatus = "active"
	JobClosed JobStatus = "closed"
)

// JobMatch is the canonical recommendation record. FitScore is always a whole percentage.
type JobMatch struct {
	JobID       int       `json:"jobId"`
	Title       string    `json:"title"`
	CompanyName string    `json:"companyName"`
	Location    string    `json:"location"`
	JobType     string    `json:"jobType"`
	JobStatus   JobStatus `json:"jobStatus"`
	FitScore    int       `json:"fitScore"`
	Description string    `json:"description"`
}

func (j JobMatch) Closed() bool {
	return j.JobStatus == JobClosed
}

// Complete reports whether the record carries enough to launch a sub-view for it.
func (j JobMatch) Complete() bool {
	return j.JobID > 0 && j.Title != ""
}

// Job is a posting as the job-details and recruiter endpoints return it.
type Job struct {
	ID          int       `json:"id"`
	RecruiterID int       `json:"recruiterId,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	JobType     string    `json:"jobType"`
	JobStatus   JobStatus `json:"jobStatus"`
}

// GetJob fetches the details of one posting.
func (c *Client) GetJob(ctx context.Context, jobID int) (*Job, error) {
	if jobID <= 0 {
		return nil, &ValidationError{Field: "job_id", Reason: "must be positive"}
	}

	var raw map[string]any
	if err := c.getJSON(ctx, fmt.Sprintf(jobPath, jobID), nil, &raw); err != nil {
		return nil, err
	}

	job := normalizeJobDetails(raw)
	if job.ID == 0 {
		job.ID = jobID
	}
	return &job, nil
}

func normalizeJobDetails(raw map[string]any) Job {
	id, _ := asInt(lookup(raw, jobIDKeys...))
	recruiterID, _ := asInt(lookup(raw, "recruiter_id", "recruiterId"))

	return Job{
		ID:          id,
		RecruiterID: recruiterID,
		Title:       asString(lookup(raw, titleKeys...)),
		Description: asString(lookup(raw, descriptionKeys...)),
		Company:     asString(lookup(raw, companyKeys...)),
		Location:    asString(lookup(raw, locationKeys...)),
		JobType:     asString(lookup(raw, jobTypeKeys...)),
		JobStatus:   NormalizeJobStatus(asString(lookup(raw, jobStatusKeys...))),
	}
}
