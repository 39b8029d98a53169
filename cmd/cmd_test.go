package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/pflag"

	"github.com/smartrecruit/smartrecruit/internal/results"
	"github.com/smartrecruit/smartrecruit/internal/session"
	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
	"github.com/smartrecruit/smartrecruit/internal/workflow"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "not logged in",
			err:  fmt.Errorf("jobs: %w", session.ErrNotAuthenticated),
			want: "You are not logged in. Run `smartrecruit login` first.",
		},
		{
			name: "expired session",
			err:  &smartrecruit.BackendError{Status: 401, Detail: "Could not validate credentials"},
			want: "Your session has expired. Run `smartrecruit login` to sign in again.",
		},
		{
			name: "stale intent",
			err:  workflow.ErrUnknownIntent,
			want: "This confirmation has expired. Please start again.",
		},
		{
			name: "backend detail",
			err:  &smartrecruit.BackendError{Status: 400, Detail: "Job is closed"},
			want: "Job is closed",
		},
		{
			name: "duplicate apply",
			err:  &smartrecruit.AlreadyAppliedError{JobID: 1, ResumeID: "r1"},
			want: "You have already applied to this job with this resume.",
		},
		{
			name: "plain error",
			err:  errors.New("open cv.pdf: no such file or directory"),
			want: "open cv.pdf: no such file or directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Fatalf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionLabel(t *testing.T) {
	tests := []struct {
		actions results.Actions
		want    string
	}{
		{actions: results.Actions{}, want: "-"},
		{actions: results.Actions{SkillAnalysis: true, InterviewPrep: true}, want: "skills,prepare"},
		{actions: results.Actions{SkillAnalysis: true, InterviewPrep: true, Apply: true}, want: "skills,prepare,apply"},
	}

	for _, tt := range tests {
		if got := actionLabel(tt.actions); got != tt.want {
			t.Fatalf("actionLabel(%+v) = %q, want %q", tt.actions, got, tt.want)
		}
	}
}

func TestFilterConfig(t *testing.T) {
	config := &Config{
		ExcludeFile: "/tmp/excluded.json",
		Recommend: &RecommendConfig{
			MinFitScore: 60,
			HideApplied: true,
			Exclude: &struct {
				Companies []string `mapstructure:"companies"`
			}{Companies: []string{"Acme"}},
		},
	}

	cfg := filterConfig(config)
	if cfg.MinFitScore != 60 || !cfg.HideApplied || cfg.ExcludeFile != "/tmp/excluded.json" {
		t.Fatalf("unexpected filter config: %+v", cfg)
	}
	if len(cfg.ExcludedCompanies) != 1 || cfg.ExcludedCompanies[0] != "Acme" {
		t.Fatalf("unexpected excluded companies: %v", cfg.ExcludedCompanies)
	}

	bare := filterConfig(&Config{Recommend: &RecommendConfig{}})
	if len(bare.ExcludedCompanies) != 0 {
		t.Fatalf("expected no excluded companies, got %v", bare.ExcludedCompanies)
	}
}

func TestOverlayPostingKeepsUnsetFields(t *testing.T) {
	flags := pflag.NewFlagSet("update", pflag.ContinueOnError)
	flags.String("title", "", "")
	flags.String("description", "", "")
	flags.String("company", "", "")
	flags.String("location", "", "")
	flags.String("type", "Full-time", "")
	flags.String("status", "active", "")

	if err := flags.Parse([]string{"--title", "Senior Go Developer", "--status", " CLOSED "}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	posting := smartrecruit.JobPosting{
		Title:     "Go Developer",
		Company:   "Acme",
		JobType:   "Contract",
		JobStatus: smartrecruit.JobActive,
	}
	overlayPosting(flags, &posting)

	if posting.Title != "Senior Go Developer" || posting.JobStatus != smartrecruit.JobClosed {
		t.Fatalf("changed flags were not applied: %+v", posting)
	}
	if posting.Company != "Acme" || posting.JobType != "Contract" {
		t.Fatalf("unchanged flags overwrote the posting: %+v", posting)
	}
}

func TestParseJobID(t *testing.T) {
	if id, err := parseJobID(" 42 "); err != nil || id != 42 {
		t.Fatalf("parseJobID() = %d, %v", id, err)
	}

	for _, ref := range []string{"", "0", "-1", "abc"} {
		var validation *smartrecruit.ValidationError
		if _, err := parseJobID(ref); !errors.As(err, &validation) {
			t.Fatalf("expected validation error for %q, got %v", ref, err)
		}
	}
}

func TestBar(t *testing.T) {
	if got := bar(0, 10); got != "" {
		t.Fatalf("expected empty bar, got %q", got)
	}
	if got := bar(1, 1000); got != "#" {
		t.Fatalf("expected a minimal bar, got %q", got)
	}
	if got := bar(10, 10); len(got) != 40 {
		t.Fatalf("expected full bar, got %d", len(got))
	}
}
