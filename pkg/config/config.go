package config

import (
	"os"
	"runtime"
)

// Config holds every setting of a conversion run
type Config struct {
	Converter ConverterConfig `koanf:"converter" validate:"required"`
	Runtime   RuntimeConfig   `koanf:"runtime"   validate:"required"`
}

// ConverterConfig contains the conversion inputs and DAG header settings.
type ConverterConfig struct {
	DAGName          string `koanf:"dag_name"          validate:"omitempty,dag_name"          env:"CONVERTER_DAG_NAME"          flag:"dag-name"`
	InputDir         string `koanf:"input_dir"                                                env:"CONVERTER_INPUT_DIR"         flag:"input"`
	OutputDir        string `koanf:"output_dir"        validate:"required"                    env:"CONVERTER_OUTPUT_DIR"        flag:"output"`
	User             string `koanf:"user"              validate:"required"                    env:"CONVERTER_USER"              flag:"user"`
	ScheduleInterval string `koanf:"schedule_interval" validate:"omitempty,schedule_interval" env:"CONVERTER_SCHEDULE_INTERVAL" flag:"schedule-interval"`
	StartDaysAgo     int    `koanf:"start_days_ago"    validate:"min=0"                       env:"CONVERTER_START_DAYS_AGO"    flag:"start-days-ago"`
	Pattern          string `koanf:"pattern"           validate:"required"                    env:"CONVERTER_PATTERN"           flag:"pattern"`
	MaxParallel      int    `koanf:"max_parallel"      validate:"min=1"                       env:"CONVERTER_MAX_PARALLEL"      flag:"max-parallel"`
}

// RuntimeConfig contains logging behavior.
type RuntimeConfig struct {
	LogLevel  string `koanf:"log_level"  validate:"oneof=debug info warn error disabled" env:"RUNTIME_LOG_LEVEL"  flag:"log-level"`
	LogJSON   bool   `koanf:"log_json"                                                   env:"RUNTIME_LOG_JSON"   flag:"log-json"`
	LogSource bool   `koanf:"log_source"                                                 env:"RUNTIME_LOG_SOURCE" flag:"log-source"`
}

// Default returns the built-in configuration
func Default() *Config {
	user := os.Getenv("USER")
	if user == "" {
		user = "oozie"
	}
	return &Config{
		Converter: ConverterConfig{
			OutputDir:    "output",
			User:         user,
			StartDaysAgo: 0,
			Pattern:      "**/workflow.xml",
			MaxParallel:  runtime.NumCPU(),
		},
		Runtime: RuntimeConfig{
			LogLevel: "info",
		},
	}
}
