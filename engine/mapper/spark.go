package mapper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/compozy/o2a/engine/el"
	"github.com/compozy/o2a/engine/workflow"
	"github.com/google/shlex"
)

const (
	ParamMainJar    = "main_jar"
	ParamMainClass  = "main_class"
	ParamArguments  = "arguments"
	ParamArchives   = "archives"
	ParamFiles      = "files"
	ParamJobName    = "job_name"
	ParamSparkProps = "dataproc_spark_properties"
	ParamSparkJars  = "dataproc_spark_jars"
)

var ErrEmptySparkOpts = errors.New("spark-opts has no text")

// SparkMapper submits a Spark job to the cluster
type SparkMapper struct{}

func (SparkMapper) Translate(_ context.Context, node Node, params map[string]string) (*Result, error) {
	action := node.Element
	files, err := ExtractFiles(action, params)
	if err != nil {
		return nil, err
	}
	archives, err := ExtractArchives(action, params)
	if err != nil {
		return nil, err
	}
	jar := optionalText(action, "jar", params)
	class := optionalText(action, "class", params)
	jars := []string{}
	var mainJar any
	if jar != "" && class != "" {
		jars = append(jars, jar)
	} else if jar != "" {
		mainJar = jar
	}
	var mainClass any
	if class != "" {
		mainClass = class
	}
	var jobName any
	if name := optionalText(action, "name", params); name != "" {
		jobName = name
	}
	props := ParseConfiguration(action, params)
	if opts := action.SelectElement("spark-opts"); opts != nil {
		confs, err := ParseSparkOpts(opts.Text())
		if err != nil {
			return nil, fmt.Errorf("spark action %q: %w", node.Name, err)
		}
		for k, v := range confs {
			props[k] = v
		}
	}
	args := []string{}
	for _, arg := range childTexts(action, "arg") {
		args = append(args, el.Resolve(arg, params))
	}
	task := workflow.NewTask(node.Name, TemplateSpark, map[string]any{
		ParamMainJar:    mainJar,
		ParamMainClass:  mainClass,
		ParamArguments:  args,
		ParamArchives:   archives,
		ParamFiles:      files,
		ParamJobName:    jobName,
		ParamSparkProps: props,
		ParamSparkJars:  jars,
	})
	return single(task, ImportDataproc, ImportDates), nil
}

// ParseSparkOpts extracts --conf key=value pairs. Other options are ignored and later
// duplicates win.
func ParseSparkOpts(text string) (map[string]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptySparkOpts
	}
	tokens, err := shlex.Split(text)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize spark-opts: %w", err)
	}
	conf := make(map[string]string)
	for i := 0; i < len(tokens); i++ {
		if tokens[i] != "--conf" {
			continue
		}
		if i+1 >= len(tokens) {
			return nil, fmt.Errorf("--conf without value")
		}
		i++
		key, value, _ := strings.Cut(tokens[i], "=")
		if key == "" || value == "" {
			return nil, fmt.Errorf("expected key=value after --conf, got %q", tokens[i])
		}
		conf[key] = value
	}
	return conf, nil
}
