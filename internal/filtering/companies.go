package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

type excludedCompaniesFilter struct {
	companies []string
}

// NewExcludedCompanies creates a filter that removes jobs of companies listed in the config.
func NewExcludedCompanies() Filter {
	return &excludedCompaniesFilter{}
}

func (f *excludedCompaniesFilter) Name() string { return "excluded_companies" }

func (f *excludedCompaniesFilter) Disable(string) {}

func (f *excludedCompaniesFilter) IsEnabled() bool { return true }

func (f *excludedCompaniesFilter) Validate(cfg *Config) error {
	f.companies = nil
	if cfg == nil {
		return nil
	}
	for _, company := range cfg.ExcludedCompanies {
		if company = strings.TrimSpace(company); company != "" {
			f.companies = append(f.companies, company)
		}
	}
	return nil
}

func (f *excludedCompaniesFilter) Apply(_ context.Context, deps Deps, jobs []smartrecruit.JobMatch) ([]smartrecruit.JobMatch, Step, error) {
	if len(f.companies) == 0 {
		return jobs, stepOf(len(jobs), nil), nil
	}

	fold := cases.Fold()
	excluded := make(map[string]struct{}, len(f.companies))
	for _, company := range f.companies {
		excluded[fold.String(company)] = struct{}{}
	}

	kept, dropped := keep(jobs, func(job smartrecruit.JobMatch) bool {
		_, ok := excluded[fold.String(strings.TrimSpace(job.CompanyName))]
		return !ok
	})
	if len(dropped) > 0 {
		deps.Logger.Info("excluding jobs by companies",
			zap.Strings("excluded_companies", f.companies),
			zap.Ints("excluded_jobs", dropped),
		)
	}

	return kept, stepOf(len(jobs), dropped), nil
}

func (f *excludedCompaniesFilter) Status() Status {
	details := map[string]string{}
	if len(f.companies) > 0 {
		details["companies"] = strings.Join(f.companies, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
