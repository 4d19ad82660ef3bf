package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reviewly/reviewly/internal/services/auth"
	"github.com/reviewly/reviewly/internal/services/prefs"
)

var (
	email            string
	password         string
	googleCredential string
	githubCode       string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the access token",
	Long: `Logs in with email and password, a Google ID token credential or a GitHub
authorization code. The password may also come from REVIEWLY_PASSWORD.`,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and store the access token",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := loadServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		if err := svcs.GetAuthService().Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := loadServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		user, err := svcs.GetAuthService().CurrentUser(cmd.Context())
		if errors.Is(err, auth.ErrNotLoggedIn) {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
			return nil
		}
		if err != nil {
			return err
		}
		printUser(cmd, user)
		return nil
	},
}

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Show or change the chat model preference",
}

var modelGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the selected provider and model",
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := loadServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		pref := svcs.GetPrefsService().Model(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", pref.Provider, pref.Model)
		return nil
	},
}

var modelSetCmd = &cobra.Command{
	Use:   "set [provider] [model]",
	Short: "Select the provider and model used for chat",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svcs, err := loadServices()
		if err != nil {
			return err
		}
		defer svcs.Close()

		pref := prefs.ModelPreference{Provider: args[0], Model: args[1]}
		if err := svcs.GetPrefsService().SetModel(cmd.Context(), pref); err != nil {
			return fmt.Errorf("failed to store model preference: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Using %s %s\n", pref.Provider, pref.Model)
		return nil
	},
}

func registerAccountCommands(root *cobra.Command) {
	loginCmd.Flags().StringVar(&email, "email", "", "account email")
	loginCmd.Flags().StringVar(&password, "password", "", "account password")
	loginCmd.Flags().StringVar(&googleCredential, "google-credential", "", "Google ID token credential")
	loginCmd.Flags().StringVar(&githubCode, "github-code", "", "GitHub OAuth authorization code")
	loginCmd.MarkFlagsMutuallyExclusive("email", "google-credential", "github-code")

	registerCmd.Flags().StringVar(&email, "email", "", "account email")
	registerCmd.Flags().StringVar(&password, "password", "", "account password")
	registerCmd.MarkFlagRequired("email")

	modelCmd.AddCommand(modelGetCmd, modelSetCmd)
	root.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd, modelCmd)
}

func passwordValue() string {
	if password != "" {
		return password
	}
	return os.Getenv("REVIEWLY_PASSWORD")
}

func runLogin(cmd *cobra.Command, args []string) error {
	svcs, err := loadServices()
	if err != nil {
		return err
	}
	defer svcs.Close()

	authService := svcs.GetAuthService()
	ctx := cmd.Context()

	var user *auth.User
	switch {
	case googleCredential != "":
		user, err = authService.LoginWithGoogle(ctx, googleCredential)
	case githubCode != "":
		user, err = authService.LoginWithGitHub(ctx, githubCode)
	case email != "":
		user, err = authService.Login(ctx, email, passwordValue())
	default:
		return errors.New("one of --email, --google-credential or --github-code is required")
	}
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	printUser(cmd, user)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	svcs, err := loadServices()
	if err != nil {
		return err
	}
	defer svcs.Close()

	user, err := svcs.GetAuthService().Register(cmd.Context(), email, passwordValue())
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	printUser(cmd, user)
	return nil
}

func printUser(cmd *cobra.Command, user *auth.User) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s (id %s)\n", botStyle.Render("Logged in as"), user.Email, user.ID)
	if !user.ExpiresAt.IsZero() {
		fmt.Fprintln(out, timeStyle.Render("Session expires "+user.ExpiresAt.Local().Format("2006-01-02 15:04")))
	}
}
