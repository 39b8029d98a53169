package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/filtering"
	"github.com/smartrecruit/smartrecruit/internal/launcher"
	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

const (
	PromptNextPage            = "Next page"
	PromptPrevPage            = "Previous page"
	PromptChooseJob           = "Choose a job"
	PromptFilter              = "Filter jobs"
	PromptClearFilter         = "Clear filter"
	PromptRefresh             = "Refresh recommendations"
	PromptAppendToExcludeFile = "Append page to exclude file"
	PromptJobsToFile          = "Dump jobs to file"
	PromptExit                = "Exit"
	PromptBack                = "back"

	PromptSkillAnalysis = "Skill analysis"
	PromptInterviewPrep = "Interview preparation"
	PromptApply         = "Apply"
)

var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Browse recommendations interactively",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		a.logger.Info("starting the smartrecruit", zap.String("version", version))

		m, err := startMatching(ctx, cmd, a, true)
		if err != nil {
			return err
		}

		s := &browser{matching: m, skills: launcher.NewSkillAnalysis(a.client, a.logger)}
		a.session.OnTeardown(func(context.Context) {
			m.view.Clear()
			_ = s.skills.Reset()
		})

		return s.loop(ctx)
	},
}

// browser is one interactive run over a matching.
type browser struct {
	*matching
	skills    *launcher.SkillAnalysis
	interview *launcher.InterviewPrep
	page      int
}

func (b *browser) loop(ctx context.Context) error {
	b.page = 1
	for {
		b.printPage(ctx, b.page)

		items := []string{PromptChooseJob, PromptFilter}
		if b.view.Filter() != "" {
			items = append(items, PromptClearFilter)
		}
		if b.page < b.view.PageCount(b.pageSize) {
			items = append(items, PromptNextPage)
		}
		if b.page > 1 {
			items = append(items, PromptPrevPage)
		}
		if b.filters.ExcludeFile != "" && len(b.view.Filtered()) != 0 {
			items = append(items, PromptAppendToExcludeFile)
		}
		items = append(items, PromptRefresh, PromptJobsToFile, PromptExit)

		prompt := promptui.Select{Label: "Procced?", Items: items, Size: len(items)}
		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		if err := b.handleAction(ctx, action); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			if !smartrecruit.IsLocal(err) && !recoverable(err) {
				return err
			}
			fmt.Fprintln(stdout, UserMessage(err))
		}

		if _, err := b.app.session.RequireIdentity(); err != nil {
			return err
		}
	}
}

func (b *browser) handleAction(ctx context.Context, action string) error {
	switch action {
	case PromptNextPage:
		b.page++
	case PromptPrevPage:
		b.page--
	case PromptFilter:
		p := promptui.Prompt{Label: "Filter", Default: b.view.Filter()}
		query, err := p.Run()
		if err != nil {
			return err
		}
		b.view.SetFilter(query)
		b.page = 1
	case PromptClearFilter:
		b.view.SetFilter("")
		b.page = 1
	case PromptRefresh:
		_ = b.skills.Reset()
		b.page = 1
		return b.refresh(ctx)
	case PromptJobsToFile:
		return b.export("json")
	case PromptAppendToExcludeFile:
		return b.appendToExcludeFile(ctx)
	case PromptChooseJob:
		return b.chooseJob(ctx)
	case PromptExit:
		b.app.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
	return nil
}

func (b *browser) appendToExcludeFile(ctx context.Context) error {
	path := b.filters.ExcludeFile
	excluded, err := filtering.LoadExcludedJobs(path)
	if err != nil {
		return err
	}

	excluded.Append(filtering.ToExcluded(b.view.Page(b.page, b.pageSize)))
	if err := excluded.ToFile(path); err != nil {
		return err
	}

	b.app.logger.Info("appended to exclude file", zap.String("filename", path))
	b.page = 1
	return b.refresh(ctx)
}

func (b *browser) chooseJob(ctx context.Context) error {
	jobs := b.view.Page(b.page, b.pageSize)

	items := make([]string, 0, len(jobs)+1)
	for _, job := range jobs {
		items = append(items, fmt.Sprintf("%d %s / %s / %d%%", job.JobID, job.Title, orDash(job.CompanyName), job.FitScore))
	}

	p := promptui.Select{Label: "Choose a job and press ENTER", Items: append(items, PromptBack)}
	_, selected, err := p.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return nil
	}

	id, err := strconv.Atoi(strings.Split(selected, " ")[0])
	if err != nil {
		return fmt.Errorf("there is no such job id %s", selected)
	}
	job, ok := b.view.Find(id)
	if !ok {
		return fmt.Errorf("there is no such job id %d", id)
	}

	return b.jobActions(ctx, job)
}

func (b *browser) jobActions(ctx context.Context, job smartrecruit.JobMatch) error {
	for {
		actions := b.view.Actions(ctx, job)

		var items []string
		if actions.SkillAnalysis {
			items = append(items, PromptSkillAnalysis)
		}
		if actions.InterviewPrep {
			items = append(items, PromptInterviewPrep)
		}
		if actions.Apply {
			items = append(items, PromptApply)
		}
		if len(items) == 0 {
			fmt.Fprintf(stdout, "Job #%d is %s, nothing can be done with it.\n", job.JobID, job.JobStatus)
			return nil
		}

		p := promptui.Select{
			Label: fmt.Sprintf("%s at %s", job.Title, orDash(job.CompanyName)),
			Items: append(items, PromptBack),
		}
		_, action, err := p.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptBack:
			return nil
		case PromptSkillAnalysis:
			analysis, err := b.skills.Run(ctx, job, b.identity.UserID, b.resume.ID)
			if err != nil {
				return err
			}
			printSkillAnalysis(analysis)
		case PromptInterviewPrep:
			if err := b.prepare(ctx, job); err != nil {
				return err
			}
		case PromptApply:
			record, err := b.app.applications.Apply(ctx, job, b.identity.UserID, b.resume.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Applied to %s (application %s)\n", job.Title, record.ApplicationID)
		}
	}
}

func (b *browser) prepare(ctx context.Context, job smartrecruit.JobMatch) error {
	if b.interview == nil {
		source, err := b.app.questionSource(ctx)
		if err != nil {
			return err
		}
		b.interview = launcher.NewInterviewPrep(source, b.app.logger)
	}

	p := promptui.Select{
		Label: "Difficulty",
		Items: []string{string(smartrecruit.Easy), string(smartrecruit.Medium), string(smartrecruit.Hard)},
	}
	_, level, err := p.Run()
	if err != nil {
		return err
	}
	if err := b.interview.SelectDifficulty(level); err != nil {
		return err
	}

	set, err := b.interview.Generate(ctx, job)
	if err != nil {
		return err
	}
	printQuestions(set)
	return nil
}

// recoverable reports backend errors the loop survives: the user sees the message and goes on.
func recoverable(err error) bool {
	var (
		backend   *smartrecruit.BackendError
		transport *smartrecruit.TransportError
		noMatches *smartrecruit.NoMatchesError
	)
	return errors.As(err, &backend) || errors.As(err, &transport) || errors.As(err, &noMatches)
}

func init() {
	addMatchingFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
