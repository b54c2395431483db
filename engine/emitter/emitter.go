// Package emitter renders compiled workflows as Airflow DAG files.
package emitter

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/compozy/o2a/engine/workflow"
	"github.com/compozy/o2a/pkg/tplengine"
	"github.com/spf13/afero"
)

const dagTemplate = "dag"

var baseImports = []string{
	"from airflow import models",
	"from airflow.utils import dates",
}

// Options controls the DAG header
type Options struct {
	DAGName          string
	ScheduleInterval string
	StartDaysAgo     int
	Params           map[string]string
}

// Emitter renders and writes DAG files
type Emitter struct {
	fs     afero.Fs
	engine *tplengine.TemplateEngine
}

// New creates an emitter writing to fsys. The cache should live for one conversion run.
func New(fsys afero.Fs, cache *tplengine.Cache) *Emitter {
	return &Emitter{
		fs:     fsys,
		engine: tplengine.NewEngine(Templates(), cache),
	}
}

type taskView struct {
	ID          string
	Var         string
	TriggerRule string
	Params      map[string]any
}

type relationView struct {
	From string
	To   string
}

type dagView struct {
	Workflow     string
	DAGName      string
	Schedule     string
	StartDaysAgo int
	Imports      []string
	Params       map[string]string
	Operators    []string
	Relations    []relationView
}

// Render produces the Python source of the DAG
func (e *Emitter) Render(wf *workflow.Workflow, opts Options) (string, error) {
	vars, err := variableNames(wf)
	if err != nil {
		return "", err
	}
	view := dagView{
		Workflow:     wf.Name,
		DAGName:      opts.DAGName,
		Schedule:     opts.ScheduleInterval,
		StartDaysAgo: opts.StartDaysAgo,
		Imports:      imports(wf),
		Params:       opts.Params,
	}
	if view.DAGName == "" {
		view.DAGName = wf.Name
	}
	if view.Params == nil {
		view.Params = map[string]string{}
	}
	for _, task := range wf.Tasks() {
		out, err := e.engine.Render(task.Template, taskView{
			ID:          task.ID,
			Var:         vars[task.ID],
			TriggerRule: task.Trigger.AirflowRule(),
			Params:      task.Params,
		})
		if err != nil {
			return "", fmt.Errorf("failed to render task %s: %w", task.ID, err)
		}
		view.Operators = append(view.Operators, strings.TrimRight(out, "\n"))
	}
	for _, pair := range wf.Relations.Pairs() {
		view.Relations = append(view.Relations, relationView{From: vars[pair.From], To: vars[pair.To]})
	}
	out, err := e.engine.Render(dagTemplate, view)
	if err != nil {
		return "", fmt.Errorf("failed to render dag %s: %w", view.DAGName, err)
	}
	return out, nil
}

// Write renders the DAG and writes it to outputDir/<dag name>.py.
// outputDir is recreated so stale files from earlier runs disappear.
func (e *Emitter) Write(wf *workflow.Workflow, opts Options, outputDir string) (string, error) {
	source, err := e.Render(wf, opts)
	if err != nil {
		return "", err
	}
	if err := e.fs.RemoveAll(outputDir); err != nil {
		return "", fmt.Errorf("failed to clean output directory %s: %w", outputDir, err)
	}
	if err := e.fs.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	name := opts.DAGName
	if name == "" {
		name = wf.Name
	}
	path := filepath.Join(outputDir, tplengine.PyVar(name)+".py")
	if err := afero.WriteFile(e.fs, path, []byte(source), 0o644); err != nil {
		return "", fmt.Errorf("failed to write dag %s: %w", path, err)
	}
	return path, nil
}

// variableNames assigns every task a Python variable, failing on collisions
func variableNames(wf *workflow.Workflow) (map[string]string, error) {
	vars := make(map[string]string)
	owners := make(map[string]string)
	for _, task := range wf.Tasks() {
		v := tplengine.PyVar(task.ID)
		if other, taken := owners[v]; taken {
			return nil, fmt.Errorf("tasks %q and %q map to the same python variable %q", other, task.ID, v)
		}
		owners[v] = task.ID
		vars[task.ID] = v
	}
	return vars, nil
}

func imports(wf *workflow.Workflow) []string {
	set := make(map[string]struct{})
	for _, imp := range baseImports {
		set[imp] = struct{}{}
	}
	for _, imp := range wf.Dependencies {
		set[imp] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}
