package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	agent "github.com/httprunner/TestLabAgent"
	"github.com/httprunner/TestLabAgent/internal/config"
)

const defaultTimeoutSeconds = 900

func newSubmitCmd() *cobra.Command {
	var (
		flagAppPath     string
		flagResultPath  string
		flagModels      []string
		flagOSVersions  []string
		flagLocale      string
		flagOrientation string
		flagTimeout     int
		flagDetails     []string
		flagNoMirror    bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a test matrix",
		Long:  "Submits the tests bundle against the requested device list and prints the assigned matrix id. The default result bucket is initialized on first use.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			project, err := resolveProject()
			if err != nil {
				return err
			}
			appPath := firstNonEmpty(flagAppPath, config.String(agent.EnvAppPath, ""))
			if appPath == "" {
				return fmt.Errorf("--app or $%s is required", agent.EnvAppPath)
			}
			models := flagModels
			if len(models) == 0 {
				models = config.StringSlice(agent.EnvDeviceModels, nil)
			}
			versions := flagOSVersions
			if len(versions) == 0 {
				versions = config.StringSlice(agent.EnvDeviceVersions, nil)
			}
			if len(models) == 0 {
				return fmt.Errorf("--model or $%s is required", agent.EnvDeviceModels)
			}
			if len(versions) != len(models) {
				return fmt.Errorf("got %d OS versions for %d models; counts must match", len(versions), len(models))
			}
			devices := make([]agent.Device, 0, len(models))
			for i, model := range models {
				devices = append(devices, agent.Device{
					ModelID:     model,
					VersionID:   versions[i],
					Locale:      flagLocale,
					Orientation: flagOrientation,
				})
			}
			details, err := parseDetails(flagDetails)
			if err != nil {
				return err
			}

			client, err := newTestLabClient(ctx)
			if err != nil {
				return err
			}
			resultPath := strings.TrimSpace(flagResultPath)
			bucket := ""
			if resultPath == "" {
				bucket, err = client.DefaultBucket(ctx, project)
				if err != nil {
					return err
				}
				resultPath = fmt.Sprintf("gs://%s/%s/", bucket, time.Now().UTC().Format("2006-01-02_15-04-05"))
			}

			matrixID, err := client.StartJob(ctx, agent.JobRequest{
				Project:        project,
				AppPath:        appPath,
				ResultPath:     resultPath,
				Devices:        devices,
				TimeoutSeconds: flagTimeout,
				ClientDetails:  details,
			})
			if err != nil {
				return err
			}
			if !flagNoMirror {
				mirrorSubmission(agent.RunRecord{
					MatrixID:   matrixID,
					Project:    project,
					AppPath:    appPath,
					ResultPath: resultPath,
					Bucket:     bucket,
					State:      agent.StatePending,
				})
			}
			fmt.Println(matrixID)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagAppPath, "app", "", "gs:// path of the tests zip, overrides TESTLAB_APP_PATH")
	cmd.Flags().StringVar(&flagResultPath, "result-path", "", "gs:// path for result artifacts; defaults to the project's default bucket")
	cmd.Flags().StringArrayVar(&flagModels, "model", nil, "device model id, repeatable")
	cmd.Flags().StringArrayVar(&flagOSVersions, "os-version", nil, "device OS version id, repeatable, paired with --model by position")
	cmd.Flags().StringVar(&flagLocale, "locale", "en", "device locale")
	cmd.Flags().StringVar(&flagOrientation, "orientation", "portrait", "device orientation")
	cmd.Flags().IntVar(&flagTimeout, "timeout", defaultTimeoutSeconds, "per-device test timeout in seconds")
	cmd.Flags().StringArrayVar(&flagDetails, "detail", nil, "extra client metadata as key=value, repeatable")
	cmd.Flags().BoolVar(&flagNoMirror, "no-mirror", false, "skip recording the run into the local SQLite mirror")
	return cmd
}

func parseDetails(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	details := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --detail %q, expected key=value", pair)
		}
		details[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return details, nil
}

// mirrorSubmission records the run locally. Mirror failures are logged, never
// fatal: the submission already succeeded and the matrix id was printed.
func mirrorSubmission(rec agent.RunRecord) {
	mirror, err := agent.NewRunMirror()
	if err != nil {
		log.Warn().Err(err).Msg("open run mirror failed")
		return
	}
	defer mirror.Close()
	if err := mirror.Record(rec); err != nil {
		log.Warn().Err(err).Str("matrix", rec.MatrixID).Msg("mirror run failed")
	}
}
