package cli

import (
	"github.com/compozy/o2a/engine/converter"
	"github.com/compozy/o2a/pkg/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// BatchCmd converts every workflow directory found below a root
func BatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Convert every Oozie workflow below a directory in parallel",
		RunE:  runBatch,
	}
	flags := cmd.Flags()
	flags.StringP("input", "i", "", "Root directory to search (defaults to the current directory)")
	flags.StringP("output", "o", "", "Root output directory; each DAG gets its own subdirectory")
	flags.StringP("pattern", "p", "", "Glob matching workflow.xml files below the root")
	flags.StringP("user", "u", "", "Value of user.name")
	flags.String("schedule-interval", "", "Airflow schedule interval (preset or cron)")
	flags.Int("start-days-ago", 0, "DAG start date in days before today")
	flags.Int("max-parallel", 0, "Maximum number of workflows converted at once")
	return cmd
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx).Converter
	root := cfg.InputDir
	if root == "" {
		root = "."
	}
	results, err := converter.ConvertAll(ctx, afero.NewOsFs(), nil, converter.BatchOptions{
		InputRoot:        root,
		OutputRoot:       cfg.OutputDir,
		Pattern:          cfg.Pattern,
		User:             cfg.User,
		ScheduleInterval: cfg.ScheduleInterval,
		StartDaysAgo:     cfg.StartDaysAgo,
		MaxParallel:      cfg.MaxParallel,
	})
	printResults(cmd.OutOrStdout(), results...)
	return err
}
