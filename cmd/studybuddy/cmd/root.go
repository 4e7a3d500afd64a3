package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/nfrund/studybuddy/cmd/studybuddy/internal/output"
	"github.com/nfrund/studybuddy/internal/config"
	"github.com/nfrund/studybuddy/internal/database"
	"github.com/nfrund/studybuddy/internal/logging"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var outputFormat string

var rootCmd = &cobra.Command{
	Use:   "studybuddy",
	Short: "StudyBuddy server and admin tool",
	Long: `StudyBuddy matches students who share subjects and lets them chat in real time.

Available commands:
  serve      Start the web server
  migrate    Apply the database schema
  users      List registered users
  matches    Show the study buddies of one user
  history    Print the conversation between two users
  topics     List the events carried on the message bus
  version    Print the version

Use "studybuddy [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return printer(cmd).Validate()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", output.FormatTable,
		"Output format: table or json")
}

func printer(cmd *cobra.Command) output.Printer {
	return output.Printer{W: cmd.OutOrStdout(), Format: outputFormat}
}

// loadConfig reads .env and the environment, then sets up logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.New()
	logging.New()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// withStore opens the configured store for the duration of fn.
func withStore(ctx context.Context, fn func(database.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := database.Open(ctx, cfg, afero.NewOsFs())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
