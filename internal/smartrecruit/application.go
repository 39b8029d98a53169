package smartrecruit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type ApplicationStatus string

const (
	StatusApplied     ApplicationStatus = "applied"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusInterviewed ApplicationStatus = "interviewed"
	StatusOffered     ApplicationStatus = "offered"
	StatusRejected    ApplicationStatus = "rejected"
)

var applicationStatuses = []ApplicationStatus{
	StatusApplied,
	StatusShortlisted,
	StatusInterviewed,
	StatusOffered,
	StatusRejected,
}

// ParseApplicationStatus accepts the recruiter pipeline statuses in any case.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, status := range applicationStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", &ValidationError{
		Field:  "status",
		Reason: fmt.Sprintf("%q is not one of applied, shortlisted, interviewed, offered, rejected", s),
	}
}

// Application is one submitted application as the backend reports it.
type Application struct {
	ApplicationID string            `json:"applicationId"`
	JobID         int               `json:"jobId"`
	UserID        int               `json:"userId"`
	ResumeID      string            `json:"resumeId"`
	Status        ApplicationStatus `json:"status"`
	AppliedAt     time.Time         `json:"appliedAt"`
}

// ApplyForJob submits one application. Duplicate prevention is the caller's job; this
// call goes to the network unconditionally.
func (c *Client) ApplyForJob(ctx context.Context, jobID, userID int, resumeID string) (*Application, error) {
	if jobID <= 0 {
		return nil, &ValidationError{Field: "job_id", Reason: "must be positive"}
	}
	if strings.TrimSpace(resumeID) == "" {
		return nil, &ValidationError{Field: "resume_id", Reason: "select a resume first"}
	}

	q := url.Values{}
	q.Set("user_id", strconv.Itoa(userID))
	q.Set("resume_id", resumeID)

	var raw map[string]any
	if err := c.sendJSON(ctx, http.MethodPost, fmt.Sprintf(applyPath, jobID), q, nil, &raw); err != nil {
		return nil, err
	}

	app := normalizeApplication(raw)
	if app.JobID == 0 {
		app.JobID = jobID
	}
	if app.UserID == 0 {
		app.UserID = userID
	}
	if app.ResumeID == "" {
		app.ResumeID = resumeID
	}
	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now().UTC()
	}
	if app.ApplicationID == "" {
		c.logger.Warn("backend accepted application without an id",
			zap.Int("job_id", jobID),
			zap.String("resume_id", resumeID),
		)
	}

	return &app, nil
}

// ListApplications returns the user's applications. Entries carry no job titles.
func (c *Client) ListApplications(ctx context.Context, userID int) ([]Application, error) {
	q := url.Values{}
	q.Set("user_id", strconv.Itoa(userID))

	var payload any
	if err := c.getJSON(ctx, applicationsPath, q, &payload); err != nil {
		return nil, err
	}

	records, err := listFrom(payload, "applications", "items")
	if err != nil {
		return nil, fmt.Errorf("applications: %w", err)
	}

	apps := make([]Application, 0, len(records))
	for _, raw := range records {
		apps = append(apps, normalizeApplication(raw))
	}
	return apps, nil
}

// WithdrawApplication hard-deletes the application on the backend.
func (c *Client) WithdrawApplication(ctx context.Context, applicationID string) error {
	if strings.TrimSpace(applicationID) == "" {
		return &ValidationError{Field: "application_id", Reason: "is required"}
	}

	return c.sendJSON(ctx, http.MethodDelete, fmt.Sprintf(applicationPath, url.PathEscape(applicationID)), nil, nil, nil)
}

func normalizeApplication(raw map[string]any) Application {
	app := Application{
		ApplicationID: asString(lookup(raw, "application_id", "applicationId", "id")),
		ResumeID:      asString(lookup(raw, "resume_id", "resumeId")),
		Status:        ApplicationStatus(strings.ToLower(asString(lookup(raw, "application_status", "status")))),
	}
	app.JobID, _ = asInt(lookup(raw, jobIDKeys[:2]...))
	app.UserID, _ = asInt(lookup(raw, "user_id", "userId"))
	if at, ok := parseTime(asString(lookup(raw, "applied_at", "appliedAt", "created_at"))); ok {
		app.AppliedAt = at
	}

	// The apply stub answers with a prose status ("Application submitted successfully").
	if _, err := ParseApplicationStatus(string(app.Status)); err != nil {
		app.Status = StatusApplied
	}

	return app
}
