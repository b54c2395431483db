package converter

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"slices"

	"dario.cat/mergo"
	"github.com/compozy/o2a/engine/el"
	"github.com/magiconair/properties"
	"github.com/spf13/afero"
)

const (
	JobPropertiesFile           = "job.properties"
	ConfigurationPropertiesFile = "configuration.properties"
	ParamUserName               = "user.name"
)

// LoadParams builds the workflow params from the user name and the two properties files.
// Later sources override earlier ones and references between values are resolved last.
func LoadParams(fsys afero.Fs, user string, files ...string) (map[string]string, error) {
	params := map[string]string{ParamUserName: user}
	for _, file := range files {
		props, err := readProperties(fsys, file)
		if err != nil {
			return nil, err
		}
		if err := mergo.Merge(&params, props, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge properties from %s: %w", file, err)
		}
	}
	return el.SubstituteAll(params), nil
}

// readProperties returns an empty map when the file does not exist
func readProperties(fsys afero.Fs, file string) (map[string]string, error) {
	raw, err := afero.ReadFile(fsys, file)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read properties %s: %w", file, err)
	}
	props := properties.NewProperties()
	props.DisableExpansion = true
	if err := props.Load(raw, properties.UTF8); err != nil {
		return nil, fmt.Errorf("failed to parse properties %s: %w", file, err)
	}
	return props.Map(), nil
}

// UnresolvedParams returns the sorted keys whose values still hold an expression
func UnresolvedParams(params map[string]string) []string {
	var keys []string
	for _, key := range slices.Sorted(maps.Keys(params)) {
		if el.HasExpression(params[key]) {
			keys = append(keys, key)
		}
	}
	return keys
}
