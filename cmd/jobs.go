package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/export"
	"github.com/smartrecruit/smartrecruit/internal/filtering"
	"github.com/smartrecruit/smartrecruit/internal/results"
	"github.com/smartrecruit/smartrecruit/internal/session"
	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Show job recommendations for a resume",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		m, err := startMatching(ctx, cmd, a, false)
		if err != nil {
			return err
		}

		query, _ := cmd.Flags().GetString("filter")
		m.view.SetFilter(query)

		if target, _ := cmd.Flags().GetString("export"); target != "" {
			return m.export(target)
		}

		page, _ := cmd.Flags().GetInt("page")
		m.printPage(ctx, page)
		return nil
	},
}

// matching is one recommendation run: who, with which resume, and the view over the result.
type matching struct {
	app      *application
	identity session.Identity
	resume   *smartrecruit.Resume
	view     *results.ViewModel
	limit    int
	pageSize int
	filters  *filtering.Config
}

func startMatching(ctx context.Context, cmd *cobra.Command, a *application, interactive bool) (*matching, error) {
	identity, err := a.identity()
	if err != nil {
		return nil, err
	}

	ref, _ := cmd.Flags().GetString("resume")
	resume, err := selectResume(ctx, a, identity, ref, interactive)
	if err != nil {
		return nil, err
	}

	m := &matching{
		app:      a,
		identity: identity,
		resume:   resume,
		view:     results.New(a.applications, a.logger),
		limit:    viper.GetInt("recommend.limit"),
		pageSize: viper.GetInt("recommend.page-size"),
		filters:  filterConfig(a.config),
	}
	if cmd.Flags().Changed("limit") {
		m.limit, _ = cmd.Flags().GetInt("limit")
	}
	if cmd.Flags().Changed("page-size") {
		m.pageSize, _ = cmd.Flags().GetInt("page-size")
	}
	if cmd.Flags().Changed("min-fit-score") {
		m.filters.MinFitScore, _ = cmd.Flags().GetInt("min-fit-score")
	}
	if cmd.Flags().Changed("hide-applied") {
		m.filters.HideApplied, _ = cmd.Flags().GetBool("hide-applied")
	}
	if cmd.Flags().Changed("exclude-file") {
		m.filters.ExcludeFile, _ = cmd.Flags().GetString("exclude-file")
	}

	if err := m.refresh(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func filterConfig(config *Config) *filtering.Config {
	cfg := &filtering.Config{
		MinFitScore: config.Recommend.MinFitScore,
		ExcludeFile: config.ExcludeFile,
		HideApplied: config.Recommend.HideApplied,
	}
	if config.Recommend.Exclude != nil {
		cfg.ExcludedCompanies = config.Recommend.Exclude.Companies
	}
	return cfg
}

// refresh fetches recommendations again, filters them and replaces the view wholesale.
func (m *matching) refresh(ctx context.Context) error {
	log := m.app.logger.With(zap.String("resume", m.resume.DisplayName))
	log.Info("getting recommendations", zap.Int("limit", m.limit))

	jobs, err := m.app.client.FetchRecommendations(ctx, m.identity.UserID, m.resume.ID, m.limit)
	if err != nil {
		return err
	}

	deps := filtering.Deps{Logger: m.app.logger, Applied: m.app.applications, ResumeID: m.resume.ID}
	filtered, err := filtering.Run(ctx, m.filters, deps, filtering.Default(), jobs)
	if err != nil {
		return fmt.Errorf("filtering failed: %w", err)
	}

	log.Info("current list of jobs", zap.Int("fetched", len(jobs)), zap.Int("count", len(filtered)))
	m.view.Replace(filtered, m.resume.ID)
	return nil
}

func (m *matching) printPage(ctx context.Context, n int) {
	jobs := m.view.Page(n, m.pageSize)
	if len(jobs) == 0 {
		if m.view.Filter() != "" {
			fmt.Fprintf(stdout, "No jobs match %q.\n", m.view.Filter())
		} else {
			fmt.Fprintln(stdout, "No jobs left after filters.")
		}
		return
	}

	w := newTable("ID", "TITLE", "COMPANY", "LOCATION", "STATUS", "FIT", "ACTIONS")
	for _, job := range jobs {
		row(w, job.JobID, job.Title, orDash(job.CompanyName), orDash(job.Location), job.JobStatus,
			fmt.Sprintf("%d%%", job.FitScore), actionLabel(m.view.Actions(ctx, job)))
	}
	w.Flush()

	fmt.Fprintf(stdout, "\nPage %d of %d, %d jobs, resume %q\n",
		m.view.CurrentPage(), m.view.PageCount(m.pageSize), len(m.view.Filtered()), m.resume.DisplayName)
}

func actionLabel(actions results.Actions) string {
	var labels []string
	if actions.SkillAnalysis {
		labels = append(labels, "skills")
	}
	if actions.InterviewPrep {
		labels = append(labels, "prepare")
	}
	if actions.Apply {
		labels = append(labels, "apply")
	}
	if len(labels) == 0 {
		return "-"
	}
	return strings.Join(labels, ",")
}

// export writes the filtered list: "json" dumps to a temp file, anything else is an xlsx path.
func (m *matching) export(target string) error {
	meta := export.Meta{ResumeID: m.resume.ID, Filter: m.view.Filter(), GeneratedAt: time.Now()}
	jobs := m.view.Filtered()

	var (
		path string
		err  error
	)
	if strings.EqualFold(target, "json") {
		path, err = export.DumpToTmpFile(meta, jobs)
	} else {
		path, err = export.ToExcel(meta, jobs, target)
	}
	if err != nil {
		return fmt.Errorf("dump results to file: %w", err)
	}

	m.app.logger.Info("dumping result to file", zap.String("filename", path), zap.Int("count", len(jobs)))
	fmt.Fprintln(stdout, path)
	return nil
}

func addMatchingFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("resume", "r", "", "resume id or name (default recommend.resume)")
	cmd.Flags().IntP("limit", "l", smartrecruit.DefaultRecommendationLimit, "number of recommendations to fetch (1-50)")
	cmd.Flags().Int("page-size", 5, "jobs per page")
	cmd.Flags().Int("min-fit-score", 0, "hide jobs below this fit score")
	cmd.Flags().Bool("hide-applied", false, "hide jobs already applied to with the resume")
	cmd.Flags().StringP("exclude-file", "e", "", "special file with jobs to exclude. Default is unset.")
}

func init() {
	addMatchingFlags(jobsCmd)
	jobsCmd.Flags().StringP("filter", "f", "", "show only jobs whose id, title, location or company contains this text")
	jobsCmd.Flags().IntP("page", "p", 1, "page to show")
	jobsCmd.Flags().String("export", "", "export the filtered list: json, or a path for an xlsx workbook")

	rootCmd.AddCommand(jobsCmd)
}
