// Package compiler turns a workflow document into a validated task graph.
package compiler

import (
	"context"
	"fmt"

	"github.com/beevik/etree"
	"github.com/compozy/o2a/engine/mapper"
	"github.com/compozy/o2a/engine/parser"
	"github.com/compozy/o2a/engine/workflow"
	"github.com/compozy/o2a/pkg/logger"
)

// ParamBranches holds the decision arms bound to task ids, in case order
const ParamBranches = "branches"

// Branch is a decision arm bound to the task it selects
type Branch struct {
	Predicate string
	TaskID    string
}

// Compile parses root, assigns trigger policies, elides markers and collects
// dependencies. The returned workflow is ready for emission.
func Compile(
	ctx context.Context,
	root *etree.Element,
	registry *mapper.Registry,
	params map[string]string,
) (*workflow.Workflow, error) {
	wf, err := parser.ParseWorkflow(ctx, root, registry, params)
	if err != nil {
		return nil, err
	}
	workflow.AssignTriggerPolicies(wf)
	if err := workflow.ElideMarkers(wf); err != nil {
		return nil, err
	}
	if err := bindBranches(wf); err != nil {
		return nil, err
	}
	wf.Dependencies = workflow.CollectDependencies(wf)
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug(
		"Compiled workflow",
		"workflow", wf.Name,
		"nodes", wf.NodeCount(),
		"relations", wf.Relations.Len(),
	)
	return wf, nil
}

// bindBranches rewrites decision targets from node names to the task ids they select
func bindBranches(wf *workflow.Workflow) error {
	for _, node := range wf.Nodes() {
		if node.Kind != workflow.NodeDecision {
			continue
		}
		for _, task := range node.Tasks {
			if task.Template != mapper.TemplateDecision {
				continue
			}
			if err := bindTask(wf, node.Name, task); err != nil {
				return err
			}
		}
	}
	return nil
}

func bindTask(wf *workflow.Workflow, decision string, task *workflow.Task) error {
	resolve := func(target string) (string, error) {
		id, ok := wf.ResolveEntry(target)
		if !ok {
			return "", workflow.NewStructuralError(
				workflow.ErrCodeUnknownTransition,
				[]string{decision, target},
				"decision %q selects unknown node %q",
				decision, target,
			)
		}
		return id, nil
	}
	cases, _ := task.Params[mapper.ParamCases].([]mapper.BranchCase)
	branches := make([]Branch, 0, len(cases))
	for _, c := range cases {
		id, err := resolve(c.Target)
		if err != nil {
			return err
		}
		branches = append(branches, Branch{Predicate: c.Predicate, TaskID: id})
	}
	def, ok := task.Params[mapper.ParamDefault].(string)
	if !ok {
		return fmt.Errorf("decision %q has no default target", decision)
	}
	defID, err := resolve(def)
	if err != nil {
		return err
	}
	task.Params[ParamBranches] = branches
	task.Params[mapper.ParamDefault] = defID
	return nil
}
