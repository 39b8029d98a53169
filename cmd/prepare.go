package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/smartrecruit/smartrecruit/internal/launcher"
	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

var skillsCmd = &cobra.Command{
	Use:   "skills <job-id>",
	Short: "Compare a resume with a job: fit score, matched and missing skills",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		identity, err := a.identity()
		if err != nil {
			return err
		}

		job, err := lookupJob(ctx, a, args[0])
		if err != nil {
			return err
		}

		ref, _ := cmd.Flags().GetString("resume")
		resume, err := selectResume(ctx, a, identity, ref, false)
		if err != nil {
			return err
		}

		analysis, err := launcher.NewSkillAnalysis(a.client, a.logger).Run(ctx, job, identity.UserID, resume.ID)
		if err != nil {
			return err
		}
		printSkillAnalysis(analysis)
		return nil
	},
}

var prepareCmd = &cobra.Command{
	Use:   "prepare <job-id>",
	Short: "Generate interview questions for a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		if _, err := a.identity(); err != nil {
			return err
		}

		job, err := lookupJob(ctx, a, args[0])
		if err != nil {
			return err
		}

		source, err := a.questionSource(ctx)
		if err != nil {
			return err
		}
		prep := launcher.NewInterviewPrep(source, a.logger)

		difficulty, _ := cmd.Flags().GetString("difficulty")
		if err := prep.SelectDifficulty(difficulty); err != nil {
			return err
		}

		set, err := prep.Generate(ctx, job)
		if err != nil {
			return err
		}
		printQuestions(set)
		return nil
	},
}

// lookupJob loads a posting by id and presents it as a recommendation record.
func lookupJob(ctx context.Context, a *application, ref string) (smartrecruit.JobMatch, error) {
	id, err := parseJobID(ref)
	if err != nil {
		return smartrecruit.JobMatch{}, err
	}

	job, err := a.client.GetJob(ctx, id)
	if err != nil {
		return smartrecruit.JobMatch{}, err
	}

	return smartrecruit.JobMatch{
		JobID:       job.ID,
		Title:       job.Title,
		CompanyName: job.Company,
		Location:    job.Location,
		JobType:     job.JobType,
		JobStatus:   job.JobStatus,
		Description: job.Description,
	}, nil
}

func init() {
	skillsCmd.Flags().StringP("resume", "r", "", "resume id or name (default recommend.resume)")
	prepareCmd.Flags().String("difficulty", "", "question difficulty: Easy, Medium or Hard")

	rootCmd.AddCommand(skillsCmd, prepareCmd)
}
