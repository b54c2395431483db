package converter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/compozy/o2a/engine/mapper"
	"github.com/compozy/o2a/pkg/logger"
	"github.com/compozy/o2a/pkg/tplengine"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// DefaultPattern matches every workflow.xml below the root
const DefaultPattern = "**/" + WorkflowFile

// ErrDAGNameCollision is returned for workflow directories that flatten to the same DAG name
var ErrDAGNameCollision = errors.New("dag name collision")

// BatchOptions describes a conversion of many workflow directories
type BatchOptions struct {
	InputRoot        string
	OutputRoot       string
	Pattern          string
	User             string
	ScheduleInterval string
	StartDaysAgo     int
	MaxParallel      int
}

// Discover returns the sorted workflow directories below root whose workflow.xml matches pattern.
// A workflow.xml inside an hdfs directory belongs to the directory above it.
func Discover(fsys afero.Fs, root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(fsys, abs)), pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob %s: %w", root, err)
	}
	seen := make(map[string]bool)
	var dirs []string
	for _, match := range matches {
		dir := filepath.Dir(filepath.FromSlash(match))
		if filepath.Base(dir) == HDFSDir {
			dir = filepath.Dir(dir)
		}
		if seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	slices.Sort(dirs)
	return dirs, nil
}

// ConvertAll converts every discovered workflow in parallel. Each workflow gets its own
// compiler run; a failing workflow does not stop the others and all failures are joined.
func ConvertAll(ctx context.Context, fsys afero.Fs, registry *mapper.Registry, opts BatchOptions) ([]*Result, error) {
	dirs, err := Discover(fsys, opts.InputRoot, opts.Pattern)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	log.Info("Discovered workflows", "root", opts.InputRoot, "count", len(dirs))

	results := make([]*Result, len(dirs))
	errs := make([]error, len(dirs))
	names := dagNames(opts.InputRoot, dirs)
	for i, dir := range dirs {
		if others := names[dagName(opts.InputRoot, dir)]; len(others) > 1 {
			errs[i] = fmt.Errorf("%s: %w: %q is shared by %v", dir, ErrDAGNameCollision, dagName(opts.InputRoot, dir), others)
			log.Error("Skipping workflow with a colliding DAG name", "workflow", dir, "dirs", others)
		}
	}
	g, ctx := errgroup.WithContext(ctx)
	if opts.MaxParallel > 0 {
		g.SetLimit(opts.MaxParallel)
	}
	for i, dir := range dirs {
		if errs[i] != nil {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			conv, err := New(fsys, registry, Options{
				InputDir:         filepath.Join(opts.InputRoot, dir),
				OutputDir:        filepath.Join(opts.OutputRoot, dagName(opts.InputRoot, dir)),
				DAGName:          dagName(opts.InputRoot, dir),
				User:             opts.User,
				ScheduleInterval: opts.ScheduleInterval,
				StartDaysAgo:     opts.StartDaysAgo,
			})
			if err == nil {
				results[i], err = conv.Convert(ctx)
			}
			if err != nil {
				log.Error("Workflow conversion failed", "workflow", dir, "error", err)
				errs[i] = fmt.Errorf("%s: %w", dir, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	converted := make([]*Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			converted = append(converted, r)
		}
	}
	return converted, errors.Join(errs...)
}

// dagNames groups the workflow directories by the DAG name they flatten to
func dagNames(root string, dirs []string) map[string][]string {
	names := make(map[string][]string, len(dirs))
	for _, dir := range dirs {
		name := dagName(root, dir)
		names[name] = append(names[name], dir)
	}
	return names
}

// dagName flattens a workflow directory relative to the root into one identifier
func dagName(root, dir string) string {
	if dir == "." {
		return tplengine.PyVar(filepath.Base(filepath.Clean(root)))
	}
	return tplengine.PyVar(filepath.ToSlash(dir))
}
