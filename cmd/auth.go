package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smartrecruit/smartrecruit/internal/smartrecruit"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the token for later commands",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		creds, err := readCredentials(cmd)
		if err != nil {
			return err
		}

		identity, err := a.session.Login(ctx, a.client, creds)
		if err != nil {
			return err
		}

		fmt.Fprintf(stdout, "Logged in as %s (%s)\n", a.session.Profile().DisplayName(), identity.Role)
		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a SmartRecruit account",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		creds, err := readCredentials(cmd)
		if err != nil {
			return err
		}

		first, _ := cmd.Flags().GetString("first-name")
		last, _ := cmd.Flags().GetString("last-name")
		role, _ := cmd.Flags().GetString("role")

		err = a.client.Signup(ctx, smartrecruit.SignupRequest{
			Email:     creds.Email,
			Password:  creds.Password,
			FirstName: first,
			LastName:  last,
			Role:      smartrecruit.Role(strings.ToLower(role)),
		})
		if err != nil {
			return err
		}

		a.logger.Info("account created", zap.String("email", creds.Email))
		fmt.Fprintln(stdout, "Account created. Run `smartrecruit login` to sign in.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token and the local applied jobs",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		if err := a.session.Teardown(ctx); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()
		a := newApplication(ctx)
		defer a.Close()

		identity, err := a.session.RequireIdentity()
		if err != nil {
			return err
		}

		profile := a.session.Profile()
		w := newTable("USER ID", "NAME", "EMAIL", "ROLE", "EXPIRES")
		row(w, identity.UserID, profile.DisplayName(), identity.Email, identity.Role, formatTime(a.session.ExpiresAt()))
		return w.Flush()
	},
}

func readCredentials(cmd *cobra.Command) (smartrecruit.Credentials, error) {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	if email == "" {
		p := promptui.Prompt{Label: "Email"}
		v, err := p.Run()
		if err != nil {
			return smartrecruit.Credentials{}, err
		}
		email = v
	}
	if password == "" {
		p := promptui.Prompt{Label: "Password", Mask: '*'}
		v, err := p.Run()
		if err != nil {
			return smartrecruit.Credentials{}, err
		}
		password = v
	}

	return smartrecruit.Credentials{Email: email, Password: password}, nil
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().StringP("email", "e", "", "account email (prompted when empty)")
		c.Flags().StringP("password", "p", "", "account password (prompted when empty)")
	}
	signupCmd.Flags().String("first-name", "", "first name")
	signupCmd.Flags().String("last-name", "", "last name")
	signupCmd.Flags().String("role", string(smartrecruit.RoleCandidate), "candidate or recruiter")

	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, whoamiCmd)
}
