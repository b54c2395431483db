package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	data       map[string]any
	sourceType SourceType
}

func (m *mockSource) Load() (map[string]any, error) {
	return m.data, nil
}

func (m *mockSource) Type() SourceType {
	return m.sourceType
}

func load(t *testing.T, sources ...Source) (*Config, *Loader, error) {
	t.Helper()
	loader, err := NewLoader()
	require.NoError(t, err)
	cfg, err := loader.Load(context.Background(), sources...)
	return cfg, loader, err
}

func TestLoader_Load(t *testing.T) {
	t.Run("Should load default configuration when no sources provided", func(t *testing.T) {
		t.Setenv("USER", "alice")
		cfg, loader, err := load(t)
		require.NoError(t, err)
		assert.Equal(t, "output", cfg.Converter.OutputDir)
		assert.Equal(t, "alice", cfg.Converter.User)
		assert.Equal(t, "**/workflow.xml", cfg.Converter.Pattern)
		assert.Equal(t, "info", cfg.Runtime.LogLevel)
		assert.GreaterOrEqual(t, cfg.Converter.MaxParallel, 1)
		assert.Equal(t, SourceDefault, loader.SourceOf("converter.output_dir"))
	})
	t.Run("Should read values from a YAML file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "o2a.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
converter:
  dag_name: nightly
  schedule_interval: "@daily"
  start_days_ago: 3
  input_dir:
runtime:
  log_level: debug
`), 0o644))
		cfg, loader, err := load(t, NewYAMLProvider(path))
		require.NoError(t, err)
		assert.Equal(t, "nightly", cfg.Converter.DAGName)
		assert.Equal(t, "@daily", cfg.Converter.ScheduleInterval)
		assert.Equal(t, 3, cfg.Converter.StartDaysAgo)
		assert.Equal(t, "output", cfg.Converter.OutputDir)
		assert.Equal(t, "debug", cfg.Runtime.LogLevel)
		assert.Equal(t, SourceYAML, loader.SourceOf("converter.dag_name"))
	})
	t.Run("Should ignore a missing YAML file", func(t *testing.T) {
		cfg, _, err := load(t, NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml")))
		require.NoError(t, err)
		assert.Equal(t, "output", cfg.Converter.OutputDir)
	})
	t.Run("Should let environment override YAML and CLI override environment", func(t *testing.T) {
		t.Setenv("O2A_CONVERTER_OUTPUT_DIR", "from-env")
		t.Setenv("O2A_CONVERTER_MAX_PARALLEL", "3")
		t.Setenv("O2A_RUNTIME_LOG_JSON", "true")
		yamlSource := &mockSource{
			sourceType: SourceYAML,
			data: map[string]any{"converter": map[string]any{
				"output_dir": "from-yaml",
				"user":       "yaml-user",
			}},
		}
		cli := NewCLIProvider(map[string]any{"output": "from-cli", "unknown": "x"})
		cfg, loader, err := load(t, cli, yamlSource)
		require.NoError(t, err)
		assert.Equal(t, "from-cli", cfg.Converter.OutputDir)
		assert.Equal(t, "yaml-user", cfg.Converter.User)
		assert.Equal(t, 3, cfg.Converter.MaxParallel)
		assert.True(t, cfg.Runtime.LogJSON)
		assert.Equal(t, SourceCLI, loader.SourceOf("converter.output_dir"))
		assert.Equal(t, SourceEnv, loader.SourceOf("converter.max_parallel"))
	})
	t.Run("Should reject an invalid schedule interval", func(t *testing.T) {
		_, _, err := load(t, NewCLIProvider(map[string]any{"schedule-interval": "sometimes"}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
	})
	t.Run("Should reject an invalid DAG name", func(t *testing.T) {
		_, _, err := load(t, NewCLIProvider(map[string]any{"dag-name": "1-bad"}))
		require.Error(t, err)
	})
	t.Run("Should reject an unknown log level", func(t *testing.T) {
		_, _, err := load(t, NewCLIProvider(map[string]any{"log-level": "loud"}))
		require.Error(t, err)
	})
	t.Run("Should reject a zero parallelism", func(t *testing.T) {
		_, _, err := load(t, NewCLIProvider(map[string]any{"max-parallel": 0}))
		require.Error(t, err)
	})
}

func TestScheduleInterval(t *testing.T) {
	cases := map[string]bool{
		"@daily":         true,
		"@once":          true,
		"0 3 * * *":      true,
		"*/15 * * * 1-5": true,
		"0 3 * *":        false,
		"@every 1h":      false,
		"daily":          false,
	}
	for value, valid := range cases {
		t.Run("Should validate "+value, func(t *testing.T) {
			_, _, err := load(t, NewCLIProvider(map[string]any{"schedule-interval": value}))
			if valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestMappings(t *testing.T) {
	t.Run("Should derive env and flag mappings from struct tags", func(t *testing.T) {
		assert.Equal(t, "converter.output_dir", mappingIndex(EnvMappings())["CONVERTER_OUTPUT_DIR"])
		assert.Equal(t, "runtime.log_level", mappingIndex(FlagMappings())["log-level"])
	})
	t.Run("Should transform unmapped environment keys", func(t *testing.T) {
		assert.Equal(t, "converter.max_parallel", transformEnvKey("CONVERTER_MAX_PARALLEL"))
		assert.Equal(t, "runtime", transformEnvKey("RUNTIME"))
		assert.Equal(t, "", transformEnvKey("__"))
	})
}

func TestFromContext(t *testing.T) {
	t.Run("Should return the stored configuration", func(t *testing.T) {
		cfg := Default()
		cfg.Converter.DAGName = "stored"
		ctx := ContextWithConfig(context.Background(), cfg)
		assert.Same(t, cfg, FromContext(ctx))
	})
	t.Run("Should fall back to defaults", func(t *testing.T) {
		assert.Equal(t, "info", FromContext(context.Background()).Runtime.LogLevel)
	})
}
