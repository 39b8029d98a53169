package filtering

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

func sampleJobs() []smartrecruit.JobMatch {
	return []smartrecruit.JobMatch{
		{JobID: 1, Title: "Go Developer", CompanyName: "Acme", FitScore: 91},
		{JobID: 2, Title: "Data Engineer", CompanyName: "Initech", FitScore: 55},
		{JobID: 3, Title: "SRE", CompanyName: "ACME ", FitScore: 70},
		{JobID: 4, Title: "Backend Engineer", CompanyName: "Globex", FitScore: 80},
	}
}

func ids(jobs []smartrecruit.JobMatch) []int {
	out := make([]int, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, job.JobID)
	}
	return out
}

type appliedSet map[int]bool

func (a appliedSet) IsApplied(_ context.Context, jobID int, _ string) (bool, error) {
	return a[jobID], nil
}

type failingChecker struct{}

func (failingChecker) IsApplied(context.Context, int, string) (bool, error) {
	return false, errors.New("store unavailable")
}

func TestRunAppliesStepsInOrder(t *testing.T) {
	t.Parallel()

	excludeFile := filepath.Join(t.TempDir(), "exclude.json")
	if err := ToExcluded([]smartrecruit.JobMatch{{JobID: 4, Title: "Backend Engineer"}}).ToFile(excludeFile); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	core, logs := observer.New(zap.InfoLevel)
	cfg := &Config{
		MinFitScore:       60,
		ExcludedCompanies: []string{"initech"},
		ExcludeFile:       excludeFile,
		HideApplied:       true,
	}
	deps := Deps{Logger: zap.New(core), Applied: appliedSet{3: true}, ResumeID: "r1"}

	got, err := Run(context.Background(), cfg, deps, Default(), sampleJobs())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if want := []int{1}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("unexpected jobs left: got %v want %v", ids(got), want)
	}

	steps := logs.FilterMessage("filter step").All()
	if len(steps) != 4 {
		t.Fatalf("expected 4 filter step logs, got %d", len(steps))
	}
	first := steps[0].ContextMap()
	if first["name"] != "min_fit_score" || first["dropped"] != int64(1) || first["left"] != int64(3) {
		t.Fatalf("unexpected first step fields: %v", first)
	}
}

func TestCompaniesMatchCaseInsensitively(t *testing.T) {
	t.Parallel()

	f := NewExcludedCompanies()
	if err := f.Validate(&Config{ExcludedCompanies: []string{" acme", ""}}); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}

	got, step, err := f.Apply(context.Background(), Deps{Logger: zap.NewNop()}, sampleJobs())
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if want := []int{2, 4}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("unexpected jobs: got %v want %v", ids(got), want)
	}
	if step != (Step{Initial: 4, Dropped: 2, Left: 2}) {
		t.Fatalf("unexpected step: %+v", step)
	}
}

func TestMinFitScoreValidation(t *testing.T) {
	t.Parallel()

	for _, score := range []int{-1, 101} {
		if err := NewMinFitScore().Validate(&Config{MinFitScore: score}); err == nil {
			t.Fatalf("expected error for minimum %d", score)
		}
	}
}

func TestRunReportsValidationError(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), &Config{MinFitScore: 200}, Deps{}, Default(), sampleJobs())
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestDisabledStepIsSkipped(t *testing.T) {
	t.Parallel()

	steps := Default()
	DisableByName(steps, "min_fit_score", "flag")

	got, err := Run(context.Background(), &Config{MinFitScore: 99}, Deps{}, steps, sampleJobs())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected all jobs to pass, got %v", ids(got))
	}

	statuses := Describe(steps)
	if statuses[0].Enabled || statuses[0].Reason != "flag" {
		t.Fatalf("unexpected status: %+v", statuses[0])
	}
}

func TestAppliedHistoryIsOptIn(t *testing.T) {
	t.Parallel()

	deps := Deps{Applied: appliedSet{1: true}, ResumeID: "r1"}
	got, err := Run(context.Background(), &Config{}, deps, Default(), sampleJobs())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("applied jobs must stay visible by default, got %v", ids(got))
	}

	deps.Applied = failingChecker{}
	if _, err := Run(context.Background(), &Config{HideApplied: true}, deps, Default(), sampleJobs()); err == nil {
		t.Fatalf("expected checker error to surface")
	}
}

func TestExcludedJobsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "exclude.json")

	loaded, err := LoadExcludedJobs(path)
	if err != nil {
		t.Fatalf("missing file should load empty: %v", err)
	}
	if len(loaded.Items) != 0 {
		t.Fatalf("expected empty list, got %d", len(loaded.Items))
	}

	loaded.Append(ToExcluded(sampleJobs()[:2]))
	loaded.Append(ToExcluded(sampleJobs()[1:3]))
	if want := []int{1, 2, 3}; !reflect.DeepEqual(loaded.JobIDs(), want) {
		t.Fatalf("unexpected ids: got %v want %v", loaded.JobIDs(), want)
	}
	if err := loaded.ToFile(path); err != nil {
		t.Fatalf("ToFile: %v", err)
	}

	shorter := ToExcluded(sampleJobs()[:1])
	if err := shorter.ToFile(path); err != nil {
		t.Fatalf("ToFile: %v", err)
	}
	reloaded, err := LoadExcludedJobs(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if want := []int{1}; !reflect.DeepEqual(reloaded.JobIDs(), want) {
		t.Fatalf("rewrite must truncate: got %v want %v", reloaded.JobIDs(), want)
	}

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadExcludedJobs(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
