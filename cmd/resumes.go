package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/session"
	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

var resumesCmd = &cobra.Command{
	Use:   "resumes",
	Short: "Manage uploaded resumes",
}

var resumesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded resumes",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		identity, err := a.identity()
		if err != nil {
			return err
		}

		resumes, err := a.resumes.List(ctx, identity.UserID)
		if err != nil {
			return err
		}
		printResumes(resumes)
		return nil
	},
}

var resumesUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a resume and show the extracted skills",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		identity, err := a.identity()
		if err != nil {
			return err
		}

		file, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer file.Close()

		result, resumes, err := a.resumes.Upload(ctx, identity.UserID, filepath.Base(args[0]), file)
		if err != nil {
			return err
		}

		fmt.Fprintf(stdout, "Uploaded resume %s\nExtracted skills: %s\n\n", result.ResumeID, skillLine(result.Skills))
		if resumes != nil {
			printResumes(resumes)
		}
		return nil
	},
}

var resumesDeleteCmd = &cobra.Command{
	Use:   "delete <resume>",
	Short: "Delete a resume by id or name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		identity, err := a.identity()
		if err != nil {
			return err
		}

		resumes, err := a.resumes.List(ctx, identity.UserID)
		if err != nil {
			return err
		}
		resume := resumes.Find(args[0])
		if resume == nil {
			return &smartrecruit.ValidationError{Field: "resume", Reason: fmt.Sprintf("%q not found", args[0])}
		}

		intent, err := a.resumes.RequestDelete(resume.ID)
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		ok, err := confirm(fmt.Sprintf("Delete resume %q", resume.DisplayName), yes)
		if err != nil || !ok {
			a.resumes.CancelDelete(intent)
			if err == nil {
				fmt.Fprintln(stdout, "Cancelled.")
			}
			return err
		}

		left, err := a.resumes.ConfirmDelete(ctx, identity.UserID, intent)
		if err != nil {
			return err
		}

		fmt.Fprintf(stdout, "Deleted %s\n\n", resume.DisplayName)
		printResumes(left)
		return nil
	},
}

var resumesDownloadCmd = &cobra.Command{
	Use:   "download <resume>",
	Short: "Download a resume by id or name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		identity, err := a.identity()
		if err != nil {
			return err
		}

		resumes, err := a.resumes.List(ctx, identity.UserID)
		if err != nil {
			return err
		}
		resume := resumes.Find(args[0])
		if resume == nil {
			return &smartrecruit.ValidationError{Field: "resume", Reason: fmt.Sprintf("%q not found", args[0])}
		}

		download, err := a.client.DownloadResume(ctx, resume.ID, identity.UserID, resume.Filename)
		if err != nil {
			return err
		}

		dir, _ := cmd.Flags().GetString("dir")
		path := filepath.Join(dir, download.Filename)
		if err := os.WriteFile(path, download.Content, 0o644); err != nil {
			return err
		}

		a.logger.Info("resume downloaded",
			zap.String("resume_id", resume.ID),
			zap.String("path", path),
			zap.Int("bytes", len(download.Content)),
		)
		fmt.Fprintln(stdout, path)
		return nil
	},
}

func printResumes(resumes *smartrecruit.Resumes) {
	w := newTable("ID", "NAME", "FILE", "UPLOADED")
	for _, r := range resumes.Items {
		row(w, r.ID, r.DisplayName, orDash(r.Filename), formatTime(r.UploadedAt))
	}
	w.Flush()
}

// selectResume resolves the resume to work with: the given reference, else the only one,
// else an interactive choice when allowed.
func selectResume(ctx context.Context, a *application, identity session.Identity, ref string, interactive bool) (*smartrecruit.Resume, error) {
	if ref == "" {
		ref = a.config.Recommend.Resume
	}

	resumes, err := a.resumes.List(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("getting mine resumes", zap.Int("count", resumes.Len()))

	if resumes.Len() == 0 {
		return nil, &smartrecruit.ValidationError{Field: "resume", Reason: "upload a resume first"}
	}

	if ref != "" {
		resume := resumes.Find(ref)
		if resume == nil {
			a.logger.Info("resume not found", zap.Strings("existing resumes", resumes.Names()))
			return nil, &smartrecruit.ValidationError{Field: "resume", Reason: fmt.Sprintf("%q not found", ref)}
		}
		return resume, nil
	}

	if resumes.Len() == 1 {
		return resumes.Items[0], nil
	}

	if !interactive {
		return nil, &smartrecruit.ValidationError{Field: "resume", Reason: "select a resume first (--resume)"}
	}

	p := promptui.Select{Label: "Choose a resume", Items: resumes.Names()}
	i, _, err := p.Run()
	if err != nil {
		return nil, err
	}
	return resumes.Items[i], nil
}

func init() {
	resumesDeleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	resumesDownloadCmd.Flags().String("dir", ".", "directory to save the file to")

	resumesCmd.AddCommand(resumesListCmd, resumesUploadCmd, resumesDeleteCmd, resumesDownloadCmd)
	rootCmd.AddCommand(resumesCmd)
}
