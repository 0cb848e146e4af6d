package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newStepsCmd() *cobra.Command {
	var (
		flagHistory   string
		flagExecution string
	)

	cmd := &cobra.Command{
		Use:   "steps",
		Short: "List execution steps",
		Long:  "Lists the steps of one execution in the project's test history, carrying artifact metadata such as logs and videos. Prints the raw document as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			project, err := resolveProject()
			if err != nil {
				return err
			}
			if flagHistory == "" || flagExecution == "" {
				return fmt.Errorf("--history and --execution are required")
			}
			client, err := newTestLabClient(ctx)
			if err != nil {
				return err
			}
			doc, err := client.ExecutionSteps(ctx, project, flagHistory, flagExecution)
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(doc)
		},
	}

	cmd.Flags().StringVar(&flagHistory, "history", "", "test history id")
	cmd.Flags().StringVar(&flagExecution, "execution", "", "execution id within the history")
	return cmd
}
