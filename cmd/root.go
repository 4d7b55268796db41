package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "miniquiz",
	Short: "Terminal client for Mini Quiz Ambis",
	Long:  "miniquiz lets students sign in, take timed quizzes and review their results from the terminal.",
	// Usage is noise when a network call fails.
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a config file (default $XDG_CONFIG_HOME/miniquiz/config.yaml)")
	flags.String("db", "", "Path to SQLite database file (overrides MINIQUIZ_DB env var)")
	flags.String("api-url", "", "Base URL of the quiz API")
	flags.Duration("timeout", 0, "Per-request timeout, e.g. 30s")
	flags.String("log-level", "", "Log level: trace, debug, info, warn or error")
	flags.String("log-format", "", "Log format: pretty or json")
	flags.String("log-file", "", "Log file for the interactive app")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}
