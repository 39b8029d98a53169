package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/session"
	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

var recruiterCmd = &cobra.Command{
	Use:   "recruiter",
	Short: "Manage job postings and applicants",
}

var recruiterJobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage your job postings",
}

var recruiterJobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your job postings",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		identity, err := a.recruiter()
		if err != nil {
			return err
		}

		jobs, err := a.client.ListRecruiterJobs(ctx, identity.UserID)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Fprintln(stdout, "No job postings yet.")
			return nil
		}

		w := newTable("ID", "TITLE", "COMPANY", "LOCATION", "TYPE", "STATUS")
		for _, job := range jobs {
			row(w, job.ID, job.Title, orDash(job.Company), orDash(job.Location), orDash(job.JobType), job.JobStatus)
		}
		return w.Flush()
	},
}

var recruiterJobsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a job posting",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		identity, err := a.recruiter()
		if err != nil {
			return err
		}

		posting := smartrecruit.JobPosting{RecruiterID: identity.UserID, JobType: "Full-time"}
		overlayPosting(cmd.Flags(), &posting)

		id, err := a.client.CreateJob(ctx, posting)
		if err != nil {
			return err
		}

		a.logger.Info("job created", zap.Int("job_id", id), zap.String("title", posting.Title))
		fmt.Fprintf(stdout, "Created job #%d\n", id)
		return nil
	},
}

var recruiterJobsUpdateCmd = &cobra.Command{
	Use:   "update <job-id>",
	Short: "Update a job posting; flags not given keep their current value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		if _, err := a.recruiter(); err != nil {
			return err
		}

		id, err := parseJobID(args[0])
		if err != nil {
			return err
		}

		current, err := a.client.GetJob(ctx, id)
		if err != nil {
			return err
		}

		posting := smartrecruit.JobPosting{
			Title:       current.Title,
			Description: current.Description,
			Company:     current.Company,
			Location:    current.Location,
			JobType:     current.JobType,
			JobStatus:   current.JobStatus,
		}
		overlayPosting(cmd.Flags(), &posting)

		job, err := a.client.UpdateJob(ctx, id, posting)
		if err != nil {
			return err
		}

		fmt.Fprintf(stdout, "Updated job #%d: %s (%s)\n", job.ID, job.Title, job.JobStatus)
		return nil
	},
}

var recruiterJobsDeleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a job posting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		if _, err := a.recruiter(); err != nil {
			return err
		}

		id, err := parseJobID(args[0])
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		ok, err := confirm(fmt.Sprintf("Delete job #%d", id), yes)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(stdout, "Cancelled.")
			return nil
		}

		if err := a.client.DeleteJob(ctx, id); err != nil {
			return err
		}

		a.logger.Info("job deleted", zap.Int("job_id", id))
		fmt.Fprintf(stdout, "Deleted job #%d\n", id)
		return nil
	},
}

var recruiterStatusCmd = &cobra.Command{
	Use:   "status <application-id> <status>",
	Short: "Move an application to applied, shortlisted, interviewed, offered or rejected",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		if _, err := a.recruiter(); err != nil {
			return err
		}

		change, err := a.client.UpdateApplicationStatus(ctx, args[0], args[1])
		if err != nil {
			return err
		}

		fmt.Fprintf(stdout, "Application %s: %s -> %s\n", change.ApplicationID, orDash(string(change.OldStatus)), change.NewStatus)
		return nil
	},
}

var recruiterApplicantsCmd = &cobra.Command{
	Use:   "applicants <job-id>",
	Short: "List the applicants of a job with their scores",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		if _, err := a.recruiter(); err != nil {
			return err
		}

		id, err := parseJobID(args[0])
		if err != nil {
			return err
		}

		applicants, err := a.client.ListJobApplicants(ctx, id)
		if err != nil {
			return err
		}
		if len(applicants) == 0 {
			fmt.Fprintf(stdout, "No applicants for job #%d yet.\n", id)
			return nil
		}

		w := newTable("USER", "FIT", "SKILLS", "SEMANTIC", "STATUS", "APPLIED", "MISSING")
		for _, ap := range applicants {
			row(w, ap.UserID, fmt.Sprintf("%d%%", ap.FitScore), fmt.Sprintf("%d%%", ap.SkillScore),
				fmt.Sprintf("%d%%", ap.SemanticScore), orDash(string(ap.Status)), formatTime(ap.AppliedAt), skillLine(ap.MissingSkills))
		}
		return w.Flush()
	},
}

// recruiter is identity for commands only recruiters may run.
func (a *application) recruiter() (session.Identity, error) {
	identity, err := a.identity()
	if err != nil {
		return identity, err
	}
	if identity.Role != "" && identity.Role != smartrecruit.RoleRecruiter {
		return identity, &smartrecruit.ValidationError{Field: "role", Reason: "this command is for recruiters"}
	}
	return identity, nil
}

func parseJobID(ref string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(ref))
	if err != nil || id <= 0 {
		return 0, &smartrecruit.ValidationError{Field: "job_id", Reason: fmt.Sprintf("%q is not a job id", ref)}
	}
	return id, nil
}

// overlayPosting copies the posting flags that were set on the command line.
func overlayPosting(flags *pflag.FlagSet, p *smartrecruit.JobPosting) {
	if flags.Changed("title") {
		p.Title, _ = flags.GetString("title")
	}
	if flags.Changed("description") {
		p.Description, _ = flags.GetString("description")
	}
	if flags.Changed("company") {
		p.Company, _ = flags.GetString("company")
	}
	if flags.Changed("location") {
		p.Location, _ = flags.GetString("location")
	}
	if flags.Changed("type") {
		p.JobType, _ = flags.GetString("type")
	}
	if flags.Changed("status") {
		status, _ := flags.GetString("status")
		p.JobStatus = smartrecruit.JobStatus(strings.ToLower(strings.TrimSpace(status)))
	}
}

func addPostingFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "job title")
	cmd.Flags().String("description", "", "job description")
	cmd.Flags().String("company", "", "company name")
	cmd.Flags().String("location", "", "job location")
	cmd.Flags().String("type", "Full-time", "Full-time, Part-time, Contract or Internship")
	cmd.Flags().String("status", "active", "active or closed")
}

func init() {
	addPostingFlags(recruiterJobsCreateCmd)
	addPostingFlags(recruiterJobsUpdateCmd)
	recruiterJobsDeleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	recruiterJobsCmd.AddCommand(recruiterJobsListCmd, recruiterJobsCreateCmd, recruiterJobsUpdateCmd, recruiterJobsDeleteCmd)
	recruiterCmd.AddCommand(recruiterJobsCmd, recruiterStatusCmd, recruiterApplicantsCmd)
	rootCmd.AddCommand(recruiterCmd)
}
