package main

import (
	"os"

	"github.com/httprunner/TestLabAgent/internal/env"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "testlabagent",
	Short: "Submit and track cloud device-lab test runs",
	Long: `testlabagent submits iOS test bundles to Google's cloud device-testing
service, polls test matrix status and lists execution-step artifacts.
Authorization uses application default credentials; run state is mirrored into
a local SQLite database so pipeline steps can recover matrix ids.`,
}

var rootProject string

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	rootCmd.PersistentFlags().StringVar(&rootProject, "project", "", "GCP project id, overrides TESTLAB_GCP_PROJECT")
	rootCmd.AddCommand(
		newSubmitCmd(),
		newStatusCmd(),
		newStepsCmd(),
		newRunsCmd(),
	)
	_ = env.Ensure()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("testlabagent command failed")
	}
}
