package filtering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

// ExcludedJobs is the content of an exclude file.
type ExcludedJobs struct {
	Items []*ExcludedJob
}

type ExcludedJob struct {
	JobID       int
	Title       string
	CompanyName string
	ExcludedAt  time.Time
}

// ToExcluded describes jobs as exclude file entries.
func ToExcluded(jobs []smartrecruit.JobMatch) *ExcludedJobs {
	excluded := &ExcludedJobs{}
	now := time.Now().UTC()
	for _, job := range jobs {
		excluded.Items = append(excluded.Items, &ExcludedJob{
			JobID:       job.JobID,
			Title:       job.Title,
			CompanyName: job.CompanyName,
			ExcludedAt:  now,
		})
	}
	return excluded
}

// LoadExcludedJobs reads an exclude file. A missing or empty file is an empty list.
func LoadExcludedJobs(path string) (*ExcludedJobs, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &ExcludedJobs{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return &ExcludedJobs{}, nil
	}

	var excluded ExcludedJobs
	if err := json.Unmarshal(data, &excluded); err != nil {
		return nil, fmt.Errorf("parse exclude file %s: %w", path, err)
	}
	return &excluded, nil
}

// Append adds entries whose job id is not listed yet.
func (e *ExcludedJobs) Append(s *ExcludedJobs) {
	seen := make(map[int]struct{}, len(e.Items))
	for _, item := range e.Items {
		seen[item.JobID] = struct{}{}
	}
	for _, item := range s.Items {
		if _, ok := seen[item.JobID]; ok {
			continue
		}
		seen[item.JobID] = struct{}{}
		e.Items = append(e.Items, item)
	}
}

func (e *ExcludedJobs) JobIDs() []int {
	ids := make([]int, 0, len(e.Items))
	for _, item := range e.Items {
		ids = append(ids, item.JobID)
	}
	return ids
}

func (e *ExcludedJobs) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that removes jobs listed in the exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, jobs []smartrecruit.JobMatch) ([]smartrecruit.JobMatch, Step, error) {
	if f.path == "" {
		return jobs, stepOf(len(jobs), nil), nil
	}

	excluded, err := LoadExcludedJobs(f.path)
	if err != nil {
		return nil, Step{}, fmt.Errorf("getting excluded jobs from file: %w", err)
	}

	ids := make(map[int]struct{}, len(excluded.Items))
	for _, id := range excluded.JobIDs() {
		ids[id] = struct{}{}
	}

	kept, dropped := keep(jobs, func(job smartrecruit.JobMatch) bool {
		_, ok := ids[job.JobID]
		return !ok
	})
	if len(dropped) > 0 {
		deps.Logger.Info("excluding jobs based on exclude file",
			zap.String("path", f.path),
			zap.Ints("excluded_jobs", dropped),
		)
	}

	return kept, stepOf(len(jobs), dropped), nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
