package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	agent "github.com/httprunner/TestLabAgent"
)

func newStatusCmd() *cobra.Command {
	var (
		flagWatch    bool
		flagInterval time.Duration
		flagAll      bool
		flagJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "status [matrix-id...]",
		Short: "Poll test matrix status",
		Long:  "Fetches the current state of one or more test matrices. With --watch, polls until every matrix reaches a terminal state. With --all, polls every non-terminal run from the local mirror.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			project, err := resolveProject()
			if err != nil {
				return err
			}
			matrixIDs := args
			if flagAll {
				if len(matrixIDs) > 0 {
					return fmt.Errorf("--all and explicit matrix ids are mutually exclusive")
				}
				matrixIDs, err = pendingMatrixIDs()
				if err != nil {
					return err
				}
				if len(matrixIDs) == 0 {
					log.Info().Msg("no pending runs in the local mirror")
					return nil
				}
			}
			if len(matrixIDs) == 0 {
				return fmt.Errorf("at least one matrix id (or --all) is required")
			}

			client, err := newTestLabClient(ctx)
			if err != nil {
				return err
			}
			if flagJSON && len(matrixIDs) == 1 && !flagWatch {
				doc, err := client.MatrixStatus(ctx, project, matrixIDs[0])
				if err != nil {
					return err
				}
				return json.NewEncoder(os.Stdout).Encode(doc)
			}
			if !flagWatch {
				states, err := pollOnce(ctx, client, project, matrixIDs)
				if err != nil {
					return err
				}
				printStates(states)
				return nil
			}
			interval := flagInterval
			if interval <= 0 {
				interval = 30 * time.Second
			}
			return watch(ctx, client, project, matrixIDs, interval)
		},
	}

	cmd.Flags().BoolVar(&flagWatch, "watch", false, "poll until every matrix reaches a terminal state")
	cmd.Flags().DurationVar(&flagInterval, "interval", 30*time.Second, "polling interval for --watch")
	cmd.Flags().BoolVar(&flagAll, "all", false, "poll every non-terminal run recorded in the local mirror")
	cmd.Flags().BoolVar(&flagJSON, "json", false, "print the raw matrix document (single matrix, no --watch)")
	return cmd
}

func pendingMatrixIDs() ([]string, error) {
	mirror, err := agent.NewRunMirror()
	if err != nil {
		return nil, err
	}
	defer mirror.Close()
	pending, err := mirror.Pending(agent.IsTerminalState)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(pending))
	for _, rec := range pending {
		ids = append(ids, rec.MatrixID)
	}
	return ids, nil
}

// pollOnce fetches every matrix concurrently. Each call is an independent
// request; the client tolerates concurrent use.
func pollOnce(ctx context.Context, client *agent.Client, project string, matrixIDs []string) (map[string]string, error) {
	var mu sync.Mutex
	states := make(map[string]string, len(matrixIDs))
	group, groupCtx := errgroup.WithContext(ctx)
	for _, matrixID := range matrixIDs {
		matrixID := matrixID
		group.Go(func() error {
			doc, err := client.MatrixStatus(groupCtx, project, matrixID)
			if err != nil {
				return err
			}
			mu.Lock()
			states[matrixID] = agent.MatrixState(doc)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	updateMirrorStates(states)
	return states, nil
}

func watch(ctx context.Context, client *agent.Client, project string, matrixIDs []string, interval time.Duration) error {
	remaining := append([]string(nil), matrixIDs...)
	for {
		states, err := pollOnce(ctx, client, project, remaining)
		if err != nil {
			return err
		}
		printStates(states)
		next := remaining[:0]
		for _, matrixID := range remaining {
			if !agent.IsTerminalState(states[matrixID]) {
				next = append(next, matrixID)
			}
		}
		remaining = next
		if len(remaining) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func printStates(states map[string]string) {
	ids := make([]string, 0, len(states))
	for id := range states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Printf("%s\t%s\n", id, states[id])
	}
}

func updateMirrorStates(states map[string]string) {
	mirror, err := agent.NewRunMirror()
	if err != nil {
		log.Debug().Err(err).Msg("open run mirror failed, skipping state update")
		return
	}
	defer mirror.Close()
	for matrixID, state := range states {
		if state == "" {
			continue
		}
		if err := mirror.UpdateState(matrixID, state); err != nil {
			log.Debug().Err(err).Str("matrix", matrixID).Msg("mirror state update failed")
		}
	}
}
