package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"smartcity-air/internal/models"
	"smartcity-air/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with a demo account",
	Long: `Log in with a demo account or a persona.

Without --remember the token is printed and no session is kept.

Examples:
  aqctl login --persona env --remember
  aqctl login --email paul.elu@smartcity.demo --password demo`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sessionStore().Clear(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Déconnecté")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := sessionStore().Load()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> %s\n", s.User.Name, s.User.Email, s.User.Role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().String("persona", "", "persona: env, elected or citizen")
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "demo", "account password")
	loginCmd.Flags().Bool("remember", false, "keep the session for later commands")
}

func runLogin(cmd *cobra.Command, args []string) error {
	persona, _ := cmd.Flags().GetString("persona")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	remember, _ := cmd.Flags().GetBool("remember")

	if persona == "" && email == "" {
		return fmt.Errorf("--persona or --email is required")
	}

	resp, err := apiClient().Login(cmd.Context(), models.LoginRequest{Email: email, Password: password, Persona: persona})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	store := sessionStore()
	out := cmd.OutOrStdout()
	if remember {
		if err := store.Save(session.Context{Token: resp.Token, User: resp.User, Remember: true}); err != nil {
			return err
		}
		fmt.Fprintf(out, "Connecté : %s (%s)\n", resp.User.Name, resp.User.Role)
		return nil
	}

	if err := store.Clear(); err != nil {
		logger.Warn("failed to clear previous session", "error", err)
	}
	fmt.Fprintf(out, "Connecté : %s (%s)\n%s\n", resp.User.Name, resp.User.Role, resp.Token)
	return nil
}
