package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Loader merges defaults, files, environment and CLI flags into a validated Config.
// Precedence from lowest to highest: defaults, YAML sources, environment, CLI sources.
type Loader struct {
	koanf     *koanf.Koanf
	validator *validator.Validate
	sources   map[string]SourceType
}

// NewLoader creates a loader with the custom validation rules registered
func NewLoader() (*Loader, error) {
	v := validator.New()
	if err := RegisterCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	return &Loader{
		koanf:     koanf.New("."),
		validator: v,
		sources:   make(map[string]SourceType),
	}, nil
}

// Load loads configuration from the given sources
func (l *Loader) Load(_ context.Context, sources ...Source) (*Config, error) {
	l.koanf = koanf.New(".")
	l.sources = make(map[string]SourceType)
	if err := l.koanf.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	l.track(SourceDefault, nil)

	var cli []Source
	for _, source := range sources {
		if source == nil {
			continue
		}
		if source.Type() == SourceCLI {
			cli = append(cli, source)
			continue
		}
		if err := l.loadSource(source); err != nil {
			return nil, err
		}
	}
	if err := l.loadEnvironment(); err != nil {
		return nil, err
	}
	for _, source := range cli {
		if err := l.loadSource(source); err != nil {
			return nil, err
		}
	}
	return l.unmarshalAndValidate()
}

// SourceOf returns the source that last set key
func (l *Loader) SourceOf(key string) SourceType {
	if source, ok := l.sources[key]; ok {
		return source
	}
	return SourceDefault
}

// transformEnvKey converts variable names without prefix to koanf paths.
// For example: CONVERTER_MAX_PARALLEL -> converter.max_parallel
func transformEnvKey(s string) string {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '_'
	})
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return parts[0] + "." + strings.Join(parts[1:], "_")
}

func (l *Loader) loadEnvironment() error {
	envToPath := mappingIndex(EnvMappings())
	before := l.snapshot()
	if err := l.koanf.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, EnvPrefix)
			if path, ok := envToPath[key]; ok {
				return path, value
			}
			return transformEnvKey(key), value
		},
	}), nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	l.track(SourceEnv, before)
	return nil
}

func (l *Loader) loadSource(source Source) error {
	data, err := source.Load()
	if err != nil {
		return fmt.Errorf("failed to load from source %s: %w", source.Type(), err)
	}
	if len(data) == 0 {
		return nil
	}
	before := l.snapshot()
	if err := l.koanf.Load(rawMap(data), nil); err != nil {
		return fmt.Errorf("failed to apply source %s: %w", source.Type(), err)
	}
	l.track(source.Type(), before)
	return nil
}

func (l *Loader) snapshot() map[string]any {
	values := make(map[string]any)
	for _, key := range l.koanf.Keys() {
		values[key] = l.koanf.Get(key)
	}
	return values
}

// track attributes every key that is new or changed since before to source
func (l *Loader) track(source SourceType, before map[string]any) {
	for _, key := range l.koanf.Keys() {
		prev, existed := before[key]
		if before == nil || !existed || fmt.Sprint(prev) != fmt.Sprint(l.koanf.Get(key)) {
			l.sources[key] = source
		}
	}
}

func (l *Loader) unmarshalAndValidate() (*Config, error) {
	var config Config
	if err := l.koanf.UnmarshalWithConf("", &config, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &config,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := l.validator.Struct(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// rawMap is a koanf.Provider adapter for map[string]any data
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) {
	return r, nil
}

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("ReadBytes not implemented")
}
