package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

type minFitScoreFilter struct {
	disabled bool
	reason   string
	min      int
}

// NewMinFitScore creates a filter that drops jobs scoring below the configured percentage.
func NewMinFitScore() Filter {
	return &minFitScoreFilter{}
}

func (f *minFitScoreFilter) Name() string { return "min_fit_score" }

func (f *minFitScoreFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *minFitScoreFilter) IsEnabled() bool { return !f.disabled }

func (f *minFitScoreFilter) Validate(cfg *Config) error {
	f.min = 0
	if cfg == nil {
		return nil
	}
	if cfg.MinFitScore < 0 || cfg.MinFitScore > 100 {
		return fmt.Errorf("minimum fit score must be between 0 and 100, got %d", cfg.MinFitScore)
	}
	f.min = cfg.MinFitScore
	return nil
}

func (f *minFitScoreFilter) Apply(_ context.Context, deps Deps, jobs []smartrecruit.JobMatch) ([]smartrecruit.JobMatch, Step, error) {
	if f.min == 0 {
		return jobs, stepOf(len(jobs), nil), nil
	}

	kept, dropped := keep(jobs, func(job smartrecruit.JobMatch) bool {
		return job.FitScore >= f.min
	})
	if len(dropped) > 0 {
		deps.Logger.Debug("excluding jobs below minimum fit score",
			zap.Int("minimum", f.min),
			zap.Ints("excluded_jobs", dropped),
		)
	}

	return kept, stepOf(len(jobs), dropped), nil
}

func (f *minFitScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"minimum": strconv.Itoa(f.min)},
	}
}
