package config

import (
	"reflect"
	"sync"
)

// EnvPrefix is prepended to every environment variable read by the loader
const EnvPrefix = "O2A_"

// Mapping links an environment variable or CLI flag to a config path
type Mapping struct {
	Name       string
	ConfigPath string
}

var (
	envMappings  []Mapping
	flagMappings []Mapping
	mappingsOnce sync.Once
)

func loadMappings() {
	mappingsOnce.Do(func() {
		t := reflect.TypeOf(Config{})
		envMappings = extractMappings(t, "", "env")
		flagMappings = extractMappings(t, "", "flag")
	})
}

// EnvMappings returns the environment variables without EnvPrefix and the paths they set
func EnvMappings() []Mapping {
	loadMappings()
	return envMappings
}

// FlagMappings returns the CLI flag names and the paths they set
func FlagMappings() []Mapping {
	loadMappings()
	return flagMappings
}

func extractMappings(t reflect.Type, prefix, tag string) []Mapping {
	var mappings []Mapping
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		koanfTag := field.Tag.Get("koanf")
		if koanfTag == "" || koanfTag == "-" {
			continue
		}
		configPath := koanfTag
		if prefix != "" {
			configPath = prefix + "." + koanfTag
		}
		if name := field.Tag.Get(tag); name != "" && name != "-" {
			mappings = append(mappings, Mapping{Name: name, ConfigPath: configPath})
		}
		if field.Type.Kind() == reflect.Struct {
			mappings = append(mappings, extractMappings(field.Type, configPath, tag)...)
		}
	}
	return mappings
}

func mappingIndex(mappings []Mapping) map[string]string {
	index := make(map[string]string, len(mappings))
	for _, m := range mappings {
		index[m.Name] = m.ConfigPath
	}
	return index
}
