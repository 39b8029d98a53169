package smartrecruit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// JobPosting is the recruiter-side input for creating or updating a job.
type JobPosting struct {
	RecruiterID int       `json:"recruiterId" validate:"gt=0"`
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description" validate:"required"`
	Company     string    `json:"company" validate:"max=255"`
	Location    string    `json:"location" validate:"max=255"`
	JobType     string    `json:"jobType" validate:"oneof=Full-time Part-time Contract Internship"`
	JobStatus   JobStatus `json:"jobStatus" validate:"oneof=active closed"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (p *JobPosting) trim() {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Company = strings.TrimSpace(p.Company)
	p.Location = strings.TrimSpace(p.Location)
	p.JobType = strings.TrimSpace(p.JobType)
	if p.JobStatus == "" {
		p.JobStatus = JobActive
	}
}

func (p JobPosting) query() url.Values {
	q := url.Values{}
	q.Set("title", p.Title)
	q.Set("description", p.Description)
	q.Set("company", p.Company)
	q.Set("location", p.Location)
	q.Set("job_type", p.JobType)
	q.Set("job_status", string(p.JobStatus))
	return q
}

// validationError turns the first validator failure into a ValidationError.
func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}

	fe := errs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Reason: "cannot be empty"}
	case "max":
		return &ValidationError{Field: field, Reason: fmt.Sprintf("exceeds %s characters", fe.Param())}
	case "oneof":
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be one of %s", strings.ReplaceAll(fe.Param(), " ", ", "))}
	case "gt":
		return &ValidationError{Field: field, Reason: "must be positive"}
	default:
		return &ValidationError{Field: field, Reason: fe.Error()}
	}
}

// ListRecruiterJobs returns every posting owned by the recruiter.
func (c *Client) ListRecruiterJobs(ctx context.Context, recruiterID int) ([]Job, error) {
	if recruiterID <= 0 {
		return nil, &ValidationError{Field: "recruiter_id", Reason: "must be positive"}
	}

	var payload any
	if err := c.getJSON(ctx, fmt.Sprintf(recruiterJobsPath, recruiterID), nil, &payload); err != nil {
		return nil, err
	}

	records, err := listFrom(payload, "jobs", "items")
	if err != nil {
		return nil, fmt.Errorf("recruiter jobs: %w", err)
	}

	jobs := make([]Job, 0, len(records))
	for _, raw := range records {
		jobs = append(jobs, normalizeJobDetails(raw))
	}
	return jobs, nil
}

// CreateJob validates the posting locally and returns the new job id.
func (c *Client) CreateJob(ctx context.Context, posting JobPosting) (int, error) {
	posting.trim()
	if err := validate.Struct(posting); err != nil {
		return 0, validationError(err)
	}

	q := posting.query()
	q.Set("recruiter_id", strconv.Itoa(posting.RecruiterID))

	var raw map[string]any
	if err := c.sendJSON(ctx, http.MethodPost, createJobPath, q, nil, &raw); err != nil {
		return 0, err
	}

	id, ok := asInt(lookup(raw, jobIDKeys...))
	if !ok || id <= 0 {
		return 0, fmt.Errorf("create job: response carries no job id")
	}
	return id, nil
}

// UpdateJob replaces every field of the posting. The recruiter id is not updatable.
func (c *Client) UpdateJob(ctx context.Context, jobID int, posting JobPosting) (*Job, error) {
	if jobID <= 0 {
		return nil, &ValidationError{Field: "job_id", Reason: "must be positive"}
	}

	posting.trim()
	if err := validate.StructExcept(posting, "RecruiterID"); err != nil {
		return nil, validationError(err)
	}

	var raw map[string]any
	if err := c.sendJSON(ctx, http.MethodPut, fmt.Sprintf(jobPath, jobID), posting.query(), nil, &raw); err != nil {
		return nil, err
	}

	job := normalizeJobDetails(raw)
	if job.ID == 0 {
		job.ID = jobID
	}
	return &job, nil
}

func (c *Client) DeleteJob(ctx context.Context, jobID int) error {
	if jobID <= 0 {
		return &ValidationError{Field: "job_id", Reason: "must be positive"}
	}

	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf(deleteJobPath, jobID), nil, nil, nil)
}

// StatusChange is the backend's acknowledgement of a status update.
type StatusChange struct {
	ApplicationID string            `json:"applicationId"`
	OldStatus     ApplicationStatus `json:"oldStatus"`
	NewStatus     ApplicationStatus `json:"newStatus"`
}

// UpdateApplicationStatus moves an application through the recruiter pipeline.
func (c *Client) UpdateApplicationStatus(ctx context.Context, applicationID string, status string) (*StatusChange, error) {
	if strings.TrimSpace(applicationID) == "" {
		return nil, &ValidationError{Field: "application_id", Reason: "is required"}
	}
	parsed, err := ParseApplicationStatus(status)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("status", string(parsed))

	var raw map[string]any
	if err := c.sendJSON(ctx, http.MethodPut, fmt.Sprintf(applicationStatusPath, url.PathEscape(applicationID)), q, nil, &raw); err != nil {
		return nil, err
	}

	change := &StatusChange{
		ApplicationID: applicationID,
		OldStatus:     ApplicationStatus(asString(raw["old_status"])),
		NewStatus:     parsed,
	}
	return change, nil
}

// Applicant is one application to a recruiter's job, with its scoring.
type Applicant struct {
	UserID        int               `json:"userId"`
	JobID         int               `json:"jobId"`
	FitScore      int               `json:"fitScore"`
	SkillScore    int               `json:"skillScore"`
	SemanticScore int               `json:"semanticScore"`
	MatchedSkills SkillSet          `json:"matchedSkills"`
	MissingSkills SkillSet          `json:"missingSkills"`
	Status        ApplicationStatus `json:"status"`
	AppliedAt     time.Time         `json:"appliedAt"`
}

// ListJobApplicants returns the applications received by one job. The backend answers
// 404 when there are none; that is reported as an empty list.
func (c *Client) ListJobApplicants(ctx context.Context, jobID int) ([]Applicant, error) {
	if jobID <= 0 {
		return nil, &ValidationError{Field: "job_id", Reason: "must be positive"}
	}

	var payload any
	err := c.getJSON(ctx, fmt.Sprintf(jobApplicantsPath, jobID), nil, &payload)
	var backendErr *BackendError
	if errors.As(err, &backendErr) && backendErr.Status == http.StatusNotFound {
		return []Applicant{}, nil
	}
	if err != nil {
		return nil, err
	}

	records, err := listFrom(payload, "applications", "items")
	if err != nil {
		return nil, fmt.Errorf("applicants: %w", err)
	}

	applicants := make([]Applicant, 0, len(records))
	for _, raw := range records {
		analysis := NormalizeSkillAnalysis(raw)
		a := Applicant{
			JobID:         analysis.JobID,
			FitScore:      analysis.FitScore,
			SkillScore:    analysis.SkillScore,
			SemanticScore: analysis.SemanticScore,
			MatchedSkills: analysis.MatchedSkills,
			MissingSkills: analysis.MissingSkills,
			Status:        ApplicationStatus(strings.ToLower(asString(lookup(raw, "application_status", "status")))),
		}
		a.UserID, _ = asInt(lookup(raw, "user_id", "userId"))
		if a.JobID == 0 {
			a.JobID = jobID
		}
		if at, ok := parseTime(asString(lookup(raw, "applied_at", "appliedAt"))); ok {
			a.AppliedAt = at
		}
		applicants = append(applicants, a)
	}
	return applicants, nil
}
