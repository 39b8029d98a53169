package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var applyCmd = &cobra.Command{
	Use:   "apply <job-id>",
	Short: "Apply to a job with a resume",
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

		record, err := a.applications.Apply(ctx, job, identity.UserID, resume.ID)
		if err != nil {
			return err
		}

		fmt.Fprintf(stdout, "Applied to %s with %q (application %s)\n", job.Title, resume.DisplayName, record.ApplicationID)
		return nil
	},
}

var applicationsCmd = &cobra.Command{
	Use:   "applications",
	Short: "Track submitted applications",
}

var applicationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List submitted applications",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		identity, err := a.identity()
		if err != nil {
			return err
		}

		views, err := a.applications.List(ctx, identity.UserID)
		if err != nil {
			return err
		}
		if len(views) == 0 {
			fmt.Fprintln(stdout, "No applications yet.")
			return nil
		}

		w := newTable("APPLICATION", "JOB", "TITLE", "COMPANY", "RESUME", "STATUS", "APPLIED")
		for _, v := range views {
			row(w, v.ApplicationID, v.JobID, v.JobTitle, orDash(v.CompanyName), orDash(v.ResumeID), orDash(string(v.Status)), formatTime(v.AppliedAt))
		}
		return w.Flush()
	},
}

var applicationsWithdrawCmd = &cobra.Command{
	Use:   "withdraw <application-id>",
	Short: "Withdraw an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		if _, err := a.identity(); err != nil {
			return err
		}

		intent, err := a.applications.RequestWithdraw(ctx, args[0])
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		ok, err := confirm(fmt.Sprintf("Withdraw application %s", args[0]), yes)
		if err != nil || !ok {
			a.applications.CancelWithdraw(intent)
			if err == nil {
				fmt.Fprintln(stdout, "Cancelled.")
			}
			return err
		}

		if err := a.applications.ConfirmWithdraw(ctx, intent); err != nil {
			return err
		}

		fmt.Fprintf(stdout, "Withdrew application %s\n", args[0])
		return nil
	},
}

var applicationsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the local applied jobs from the backend",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		identity, err := a.identity()
		if err != nil {
			return err
		}

		result, err := a.applications.Sync(ctx, identity.UserID)
		if err != nil {
			return err
		}

		a.logger.Info("applied jobs synced",
			zap.Int("added", result.Added),
			zap.Int("updated", result.Updated),
			zap.Int("removed", result.Removed),
		)
		fmt.Fprintf(stdout, "Added %d, updated %d, removed %d\n", result.Added, result.Updated, result.Removed)
		return nil
	},
}

func init() {
	applyCmd.Flags().StringP("resume", "r", "", "resume id or name (default recommend.resume)")
	applicationsWithdrawCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")

	applicationsCmd.AddCommand(applicationsListCmd, applicationsWithdrawCmd, applicationsSyncCmd)
	rootCmd.AddCommand(applyCmd, applicationsCmd)
}
