package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Application statistics",
}

var analyticsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count applications per status, overall or for one job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		if _, err := a.identity(); err != nil {
			return err
		}

		jobID, _ := cmd.Flags().GetInt("job-id")

		var (
			summary *smartrecruit.Summary
			err     error
		)
		if jobID != 0 {
			summary, err = a.client.GetJobSummary(ctx, jobID)
		} else {
			summary, err = a.client.GetSummary(ctx)
		}
		if err != nil {
			return err
		}

		if summary.JobID != 0 {
			fmt.Fprintf(stdout, "Job #%d\n", summary.JobID)
		}
		w := newTable("STATUS", "COUNT")
		row(w, "total", summary.TotalApplications)
		row(w, smartrecruit.StatusApplied, summary.Applied)
		row(w, smartrecruit.StatusShortlisted, summary.Shortlisted)
		row(w, smartrecruit.StatusInterviewed, summary.Interviewed)
		row(w, smartrecruit.StatusOffered, summary.Offered)
		row(w, smartrecruit.StatusRejected, summary.Rejected)
		return w.Flush()
	},
}

var analyticsDistributionCmd = &cobra.Command{
	Use:   "distribution",
	Short: "Fit-score distribution of applications, overall or for one job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		if _, err := a.identity(); err != nil {
			return err
		}

		jobID, _ := cmd.Flags().GetInt("job-id")
		dist, err := a.client.GetFitScoreDistribution(ctx, jobID)
		if err != nil {
			return err
		}

		fmt.Fprintf(stdout, "%d applications\n", dist.TotalApplications)
		w := newTable("BAND", "COUNT", "")
		for _, b := range dist.Buckets {
			row(w, b.Label, b.Count, bar(b.Count, dist.TotalApplications))
		}
		return w.Flush()
	},
}

func bar(count, total int) string {
	if total <= 0 || count <= 0 {
		return ""
	}
	return strings.Repeat("#", max(1, count*40/total))
}

func init() {
	analyticsSummaryCmd.Flags().Int("job-id", 0, "limit to one job")
	analyticsDistributionCmd.Flags().Int("job-id", 0, "limit to one job")

	analyticsCmd.AddCommand(analyticsSummaryCmd, analyticsDistributionCmd)
	rootCmd.AddCommand(analyticsCmd)
}
