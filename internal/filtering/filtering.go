package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

// Filter represents a single filtering step applied to job matches after every fetch.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, jobs []smartrecruit.JobMatch) ([]smartrecruit.JobMatch, Step, error)
}

// AppliedChecker reports whether the job was already applied to with the resume.
type AppliedChecker interface {
	IsApplied(ctx context.Context, jobID int, resumeID string) (bool, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger   *zap.Logger
	Applied  AppliedChecker
	ResumeID string
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	MinFitScore       int
	ExcludedCompanies []string
	ExcludeFile       string
	HideApplied       bool
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Default returns the standard pipeline in execution order.
func Default() []Filter {
	return []Filter{
		NewMinFitScore(),
		NewExcludedCompanies(),
		NewExcludeFile(),
		NewAppliedHistory(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially and returns what is left.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, jobs []smartrecruit.JobMatch) ([]smartrecruit.JobMatch, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			deps.Logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, deps, jobs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		deps.Logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		jobs = next
	}

	return jobs, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// keep partitions jobs by pred without touching the input slice.
func keep(jobs []smartrecruit.JobMatch, pred func(smartrecruit.JobMatch) bool) (kept []smartrecruit.JobMatch, dropped []int) {
	kept = make([]smartrecruit.JobMatch, 0, len(jobs))
	for _, job := range jobs {
		if pred(job) {
			kept = append(kept, job)
			continue
		}
		dropped = append(dropped, job.JobID)
	}
	return kept, dropped
}

func stepOf(initial int, dropped []int) Step {
	return Step{Initial: initial, Dropped: len(dropped), Left: initial - len(dropped)}
}
