package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/logger"
	"github.com/smartrecruit/smartrecruit/internal/session"
	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

// SyncResult counts what a Sync changed in the applied-set.
type SyncResult struct {
	Added   int
	Updated int
	Removed int
}

// Sync makes the applied-set follow the backend's application list. Statuses only ever
// change here. Records whose application no longer exists are dropped.
func (a *Applications) Sync(ctx context.Context, userID int) (SyncResult, error) {
	var result SyncResult

	apps, err := a.backend.ListApplications(ctx, userID)
	if err != nil {
		return result, err
	}

	live := make(map[string]struct{}, len(apps))
	for _, app := range apps {
		if app.ApplicationID != "" {
			live[app.ApplicationID] = struct{}{}
		}
		if app.JobID == 0 || app.ResumeID == "" {
			continue
		}

		record := session.Record{
			JobID:         app.JobID,
			ResumeID:      app.ResumeID,
			ApplicationID: app.ApplicationID,
			Status:        string(app.Status),
			AppliedAt:     app.AppliedAt,
		}

		known, err := a.store.Get(ctx, record.Key())
		switch {
		case errors.Is(err, session.ErrNotFound):
			err := a.store.Add(ctx, record)
			switch {
			case err == nil:
				result.Added++
			case !errors.Is(err, session.ErrDuplicate):
				return result, fmt.Errorf("record application %s: %w", app.ApplicationID, err)
			}
		case err != nil:
			return result, fmt.Errorf("read applied jobs: %w", err)
		case known.Status != record.Status || known.ApplicationID != record.ApplicationID:
			if err := a.store.Update(ctx, record); err != nil {
				return result, fmt.Errorf("update application %s: %w", app.ApplicationID, err)
			}
			result.Updated++
		}
	}

	records, err := a.store.List(ctx)
	if err != nil {
		return result, fmt.Errorf("list applied jobs: %w", err)
	}
	for _, record := range records {
		if record.ApplicationID == "" {
			continue
		}
		if _, ok := live[record.ApplicationID]; ok {
			continue
		}
		if err := a.store.Remove(ctx, record.ApplicationID); err != nil && !errors.Is(err, session.ErrNotFound) {
			return result, fmt.Errorf("forget application %s: %w", record.ApplicationID, err)
		}
		result.Removed++
	}

	a.logger.Info("applications synced",
		zap.Int(logger.FieldUserID, userID),
		zap.Int("added", result.Added),
		zap.Int("updated", result.Updated),
		zap.Int("removed", result.Removed),
	)
	return result, nil
}

// ApplicationView is an application joined with the details of its job.
type ApplicationView struct {
	smartrecruit.Application
	JobTitle    string `json:"jobTitle"`
	CompanyName string `json:"companyName"`
	Location    string `json:"location"`
}

// List returns the user's applications with job titles. A job whose details cannot be
// fetched gets a placeholder title and a warning; it never fails the list.
func (a *Applications) List(ctx context.Context, userID int) ([]ApplicationView, error) {
	apps, err := a.backend.ListApplications(ctx, userID)
	if err != nil {
		return nil, err
	}

	jobs := map[int]*smartrecruit.Job{}
	views := make([]ApplicationView, 0, len(apps))
	for _, app := range apps {
		view := ApplicationView{Application: app, JobTitle: PlaceholderTitle(app.JobID)}

		job, seen := jobs[app.JobID]
		if !seen {
			job, err = a.backend.GetJob(ctx, app.JobID)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				a.logger.Warn("could not load job details",
					zap.Int(logger.FieldJobID, app.JobID),
					zap.String(logger.FieldApplicationID, app.ApplicationID),
					zap.Error(err),
				)
				job = nil
			}
			jobs[app.JobID] = job
		}

		if job != nil && job.Title != "" {
			view.JobTitle = job.Title
			view.CompanyName = job.Company
			view.Location = job.Location
		}
		views = append(views, view)
	}

	return views, nil
}

// PlaceholderTitle labels a job whose details are unavailable.
func PlaceholderTitle(jobID int) string {
	return "Job #" + strconv.Itoa(jobID)
}
