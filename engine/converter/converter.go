// Package converter turns Oozie workflow application directories into Airflow DAG files.
package converter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/beevik/etree"
	"github.com/compozy/o2a/engine/compiler"
	"github.com/compozy/o2a/engine/emitter"
	"github.com/compozy/o2a/engine/mapper"
	"github.com/compozy/o2a/pkg/logger"
	"github.com/compozy/o2a/pkg/tplengine"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	WorkflowFile = "workflow.xml"
	HDFSDir      = "hdfs"
	LibDir       = "lib"
)

// Options describes one conversion
type Options struct {
	InputDir         string
	OutputDir        string
	DAGName          string
	User             string
	ScheduleInterval string
	StartDaysAgo     int
}

// Result summarizes a finished conversion
type Result struct {
	RunID    string
	Workflow string
	DAGPath  string
	Tasks    int
}

// Converter runs the full read, compile and emit pipeline for one workflow directory
type Converter struct {
	fs       afero.Fs
	registry *mapper.Registry
	opts     Options
}

// New creates a converter. A nil registry selects the default mappers.
func New(fsys afero.Fs, registry *mapper.Registry, opts Options) (*Converter, error) {
	if opts.InputDir == "" {
		return nil, errors.New("input directory is required")
	}
	if opts.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if registry == nil {
		var err error
		registry, err = mapper.DefaultRegistry()
		if err != nil {
			return nil, err
		}
	}
	if opts.DAGName == "" {
		opts.DAGName = tplengine.PyVar(filepath.Base(filepath.Clean(opts.InputDir)))
	}
	return &Converter{fs: fsys, registry: registry, opts: opts}, nil
}

// Convert compiles the workflow and writes the DAG. Nothing is written when compilation fails.
func (c *Converter) Convert(ctx context.Context) (*Result, error) {
	runID := uuid.NewString()
	log := logger.FromContext(ctx).With("run_id", runID, "dag", c.opts.DAGName)
	ctx = logger.ContextWithLogger(ctx, log)

	params, err := LoadParams(
		c.fs,
		c.opts.User,
		filepath.Join(c.opts.InputDir, JobPropertiesFile),
		filepath.Join(c.opts.InputDir, ConfigurationPropertiesFile),
	)
	if err != nil {
		return nil, err
	}
	log.Info("Loaded params", "count", len(params))
	for _, key := range UnresolvedParams(params) {
		log.Warn("Param references an unknown value", "param", key, "value", params[key])
	}
	log.Debug("Using mappers", "tags", c.registry.Tags())

	appDir, err := c.applicationDir()
	if err != nil {
		return nil, err
	}
	root, err := c.readWorkflow(filepath.Join(appDir, WorkflowFile))
	if err != nil {
		return nil, err
	}
	wf, err := compiler.Compile(ctx, root, c.registry, params)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", c.opts.InputDir, err)
	}
	log.Info("Compiled workflow", "workflow", wf.Name, "tasks", len(wf.Tasks()))

	cache, err := tplengine.NewCache(tplengine.DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	path, err := emitter.New(c.fs, cache).Write(wf, emitter.Options{
		DAGName:          c.opts.DAGName,
		ScheduleInterval: c.opts.ScheduleInterval,
		StartDaysAgo:     c.opts.StartDaysAgo,
		Params:           params,
	}, c.opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := emitter.CopyAssets(c.fs, filepath.Join(appDir, LibDir), filepath.Join(c.opts.OutputDir, LibDir)); err != nil {
		if rmErr := c.fs.RemoveAll(c.opts.OutputDir); rmErr != nil {
			return nil, errors.Join(err, fmt.Errorf("failed to remove partial output %s: %w", c.opts.OutputDir, rmErr))
		}
		return nil, err
	}
	hits, misses := cache.Stats()
	log.Info("Wrote DAG", "path", path, "template_hits", hits, "template_misses", misses)
	return &Result{RunID: runID, Workflow: wf.Name, DAGPath: path, Tasks: len(wf.Tasks())}, nil
}

// applicationDir returns the directory holding workflow.xml, preferring the hdfs subdirectory
func (c *Converter) applicationDir() (string, error) {
	for _, dir := range []string{filepath.Join(c.opts.InputDir, HDFSDir), c.opts.InputDir} {
		ok, err := afero.Exists(c.fs, filepath.Join(dir, WorkflowFile))
		if err != nil {
			return "", fmt.Errorf("failed to look up %s: %w", WorkflowFile, err)
		}
		if ok {
			return dir, nil
		}
	}
	return "", fmt.Errorf("%s not found in %s: %w", WorkflowFile, c.opts.InputDir, fs.ErrNotExist)
}

func (c *Converter) readWorkflow(path string) (*etree.Element, error) {
	raw, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow %s: %w", path, err)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("failed to parse workflow %s: %w", path, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("workflow %s has no root element", path)
	}
	return root, nil
}
