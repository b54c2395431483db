package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/compozy/o2a/pkg/config"
	"github.com/compozy/o2a/pkg/logger"
	"github.com/compozy/o2a/pkg/version"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	defaultConfigFile = "o2a.yaml"
	defaultEnvFile    = ".env"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "o2a",
		Short:        "Convert Oozie workflows into Airflow DAGs",
		Version:      version.String(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cmd)
		},
	}
	flags := root.PersistentFlags()
	flags.String("config", defaultConfigFile, "Path to configuration file")
	flags.String("env-file", defaultEnvFile, "Path to an environment file loaded before the configuration")
	flags.String("log-level", "info", "Log level (debug, info, warn, error, disabled)")
	flags.Bool("log-json", false, "Output logs in JSON format")
	flags.Bool("log-source", false, "Include source code location in logs")

	root.AddCommand(
		ConvertCmd(),
		BatchCmd(),
	)
	return root
}

// SetupGlobalConfig loads the configuration, initializes the logger and stores both in the command context
func SetupGlobalConfig(cmd *cobra.Command) error {
	path, err := stringFlag(cmd, "config")
	if err != nil {
		return err
	}
	envFile, err := stringFlag(cmd, "env-file")
	if err != nil {
		return err
	}
	if err := loadEnvFile(envFile); err != nil {
		return err
	}
	loader, err := config.NewLoader()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loader.Load(ctx, config.NewYAMLProvider(path), config.NewCLIProvider(changedFlags(cmd)))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.SetupLogger(cfg.Runtime.LogLevel, cfg.Runtime.LogJSON, cfg.Runtime.LogSource)
	ctx = config.ContextWithConfig(ctx, cfg)
	ctx = logger.ContextWithLogger(ctx, logger.GetDefault())
	cmd.SetContext(ctx)
	return nil
}

// loadEnvFile exports the variables of path without overriding the environment.
// A missing file is ignored.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("env file path '%s' is not a regular file", path)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func stringFlag(cmd *cobra.Command, name string) (string, error) {
	f := cmd.Flag(name)
	if f == nil {
		return "", fmt.Errorf("failed to get %s flag", name)
	}
	return f.Value.String(), nil
}

// changedFlags returns the local and inherited flags set on the command line keyed by name
func changedFlags(cmd *cobra.Command) map[string]any {
	values := make(map[string]any)
	collect := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		raw := f.Value.String()
		switch f.Value.Type() {
		case "int":
			if v, err := strconv.Atoi(raw); err == nil {
				values[f.Name] = v
			}
		case "bool":
			if v, err := strconv.ParseBool(raw); err == nil {
				values[f.Name] = v
			}
		default:
			values[f.Name] = raw
		}
	}
	cmd.InheritedFlags().VisitAll(collect)
	cmd.PersistentFlags().VisitAll(collect)
	cmd.Flags().VisitAll(collect)
	return values
}
