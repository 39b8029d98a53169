package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

type appliedHistoryFilter struct {
	hide bool
}

// NewAppliedHistory creates a filter that hides jobs already applied to with the current
// resume. It only acts when Config.HideApplied is set.
func NewAppliedHistory() Filter {
	return &appliedHistoryFilter{}
}

func (f *appliedHistoryFilter) Name() string { return "applied_history" }

func (f *appliedHistoryFilter) Disable(string) {}

func (f *appliedHistoryFilter) IsEnabled() bool { return true }

func (f *appliedHistoryFilter) Validate(cfg *Config) error {
	f.hide = cfg != nil && cfg.HideApplied
	return nil
}

func (f *appliedHistoryFilter) Apply(ctx context.Context, deps Deps, jobs []smartrecruit.JobMatch) ([]smartrecruit.JobMatch, Step, error) {
	if !f.hide || deps.ResumeID == "" {
		return jobs, stepOf(len(jobs), nil), nil
	}
	if deps.Applied == nil {
		return nil, Step{}, fmt.Errorf("applied history is required")
	}

	var checkErr error
	kept, dropped := keep(jobs, func(job smartrecruit.JobMatch) bool {
		if checkErr != nil {
			return true
		}
		applied, err := deps.Applied.IsApplied(ctx, job.JobID, deps.ResumeID)
		if err != nil {
			checkErr = err
			return true
		}
		return !applied
	})
	if checkErr != nil {
		return nil, Step{}, fmt.Errorf("check applied jobs: %w", checkErr)
	}

	if len(dropped) > 0 {
		deps.Logger.Info("hiding already applied jobs",
			zap.String("resume_id", deps.ResumeID),
			zap.Ints("excluded_jobs", dropped),
		)
	}

	return kept, stepOf(len(jobs), dropped), nil
}

func (f *appliedHistoryFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"hide_applied": strconv.FormatBool(f.hide)},
	}
}
