package main

import (
	"fmt"

	"github.com/spf13/cobra"

	agent "github.com/httprunner/TestLabAgent"
)

func newRunsCmd() *cobra.Command {
	var flagLimit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List mirrored runs",
		Long:  "Lists test runs recorded in the local SQLite mirror, most recently updated first. States reflect the last poll, not live service state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			mirror, err := agent.NewRunMirror()
			if err != nil {
				return err
			}
			defer mirror.Close()
			records, err := mirror.List(flagLimit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}
			for _, rec := range records {
				fmt.Printf("%s\t%s\t%s\t%s\t%s\n",
					rec.MatrixID, rec.Project, rec.State,
					rec.UpdatedAt.Format("2006-01-02 15:04:05"), rec.ResultPath)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&flagLimit, "limit", 50, "maximum number of runs to list")
	return cmd
}
