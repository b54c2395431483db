package cli

import (
	"errors"

	"github.com/compozy/o2a/engine/converter"
	"github.com/compozy/o2a/pkg/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// ConvertCmd converts a single workflow application directory
func ConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert one Oozie workflow directory into an Airflow DAG",
		Long: `Convert reads workflow.xml (from <input>/hdfs or <input>), job.properties and
configuration.properties, compiles the workflow and writes <dag-name>.py to the output directory.`,
		RunE: runConvert,
	}
	flags := cmd.Flags()
	flags.StringP("input", "i", "", "Oozie workflow application directory")
	flags.StringP("output", "o", "", "Output directory for the DAG")
	flags.StringP("dag-name", "d", "", "DAG name (defaults to the input directory name)")
	flags.StringP("user", "u", "", "Value of user.name")
	flags.String("schedule-interval", "", "Airflow schedule interval (preset or cron)")
	flags.Int("start-days-ago", 0, "DAG start date in days before today")
	return cmd
}

func runConvert(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx).Converter
	if cfg.InputDir == "" {
		return errors.New("input directory is required")
	}
	conv, err := converter.New(afero.NewOsFs(), nil, converter.Options{
		InputDir:         cfg.InputDir,
		OutputDir:        cfg.OutputDir,
		DAGName:          cfg.DAGName,
		User:             cfg.User,
		ScheduleInterval: cfg.ScheduleInterval,
		StartDaysAgo:     cfg.StartDaysAgo,
	})
	if err != nil {
		return err
	}
	result, err := conv.Convert(ctx)
	if err != nil {
		return err
	}
	printResults(cmd.OutOrStdout(), result)
	return nil
}
