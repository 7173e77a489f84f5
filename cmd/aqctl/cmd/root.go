// Package cmd команды aqctl
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"smartcity-air/internal/client"
	"smartcity-air/internal/config"
	"smartcity-air/internal/logging"
	"smartcity-air/internal/session"
)

var (
	verbose bool
	cfg     *config.ClientConfig
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "aqctl",
	Short: "Smart City air quality CLI",
	Long: `aqctl talks to the air quality service and works offline in demo mode.

Example usage:
  aqctl login --persona env        # Demo login as the environment officer
  aqctl scenario --period 7d       # Print the dashboard scenario as JSON
  aqctl report --zone industrie    # Render the PDF report locally
  aqctl watch                      # Follow the dashboard, demo data on failure
  aqctl simulate --interval 5s     # Push simulated sensor readings`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute запускает корневую команду
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() error {
	var err error
	cfg, err = config.LoadClient()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger = logging.New(os.Stderr, level, "text")
	slog.SetDefault(logger)

	logger.Debug("configuration loaded", "api_base", cfg.APIBase, "session_file", cfg.SessionFile)
	return nil
}

func sessionStore() session.Store {
	return session.NewFileStore(cfg.SessionFile)
}

// apiClient клиент API с токеном сохраненной сессии, если она есть
func apiClient() *client.Client {
	var opts []client.Option
	if s, err := sessionStore().Load(); err == nil && s.Authenticated() {
		opts = append(opts, client.WithToken(s.Token))
	}
	return client.New(cfg.APIBase, cfg.Timeout, opts...)
}
