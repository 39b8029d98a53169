package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

var stdout io.Writer = os.Stdout

func newTable(headers ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	return w
}

func row(w io.Writer, values ...any) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = fmt.Sprint(v)
	}
	fmt.Fprintln(w, strings.Join(cells, "\t"))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func printJobs(jobs []smartrecruit.JobMatch) {
	w := newTable("ID", "TITLE", "COMPANY", "LOCATION", "TYPE", "STATUS", "FIT")
	for _, job := range jobs {
		row(w, job.JobID, job.Title, orDash(job.CompanyName), orDash(job.Location), orDash(job.JobType), job.JobStatus, fmt.Sprintf("%d%%", job.FitScore))
	}
	w.Flush()
}

func printSkillAnalysis(a *smartrecruit.SkillAnalysis) {
	fmt.Fprintf(stdout, "Job #%d\n", a.JobID)
	fmt.Fprintf(stdout, "  Fit score:      %d%%\n", a.FitScore)
	fmt.Fprintf(stdout, "  Skill score:    %d%%\n", a.SkillScore)
	fmt.Fprintf(stdout, "  Semantic score: %d%%\n", a.SemanticScore)
	fmt.Fprintf(stdout, "  Matched skills: %s\n", skillLine(a.MatchedSkills))
	fmt.Fprintf(stdout, "  Missing skills: %s\n", skillLine(a.MissingSkills))
}

func skillLine(s smartrecruit.SkillSet) string {
	if s.Len() == 0 {
		return "none"
	}
	return strings.Join(s, ", ")
}

func printQuestions(set *smartrecruit.InterviewQuestionSet) {
	fmt.Fprintf(stdout, "Interview questions for job #%d (%s)\n\nTechnical\n", set.JobID, set.Difficulty)
	for _, q := range set.Technical {
		fmt.Fprintf(stdout, "  %2d. %s\n", q.Number, q.Question)
	}
	fmt.Fprintln(stdout, "\nBehavioral")
	for _, q := range set.Behavioral {
		fmt.Fprintf(stdout, "  %2d. %s [%s]\n", q.Number, q.Question, q.Framework)
	}
}
