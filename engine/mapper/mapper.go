// Package mapper translates source workflow nodes into tasks.
package mapper

import (
	"context"

	"github.com/beevik/etree"
	"github.com/compozy/o2a/engine/workflow"
)

// Node is the input handed to a mapper
type Node struct {
	Name string
	Kind workflow.NodeKind
	// Element is the control element itself or, for actions, the inner action element
	Element *etree.Element
}

// Result is what a mapper produces for one node
type Result struct {
	Tasks     []*workflow.Task
	Relations []workflow.Relation
	Imports   []string
}

// FirstTaskID returns the id of the task receiving incoming relations
func (r *Result) FirstTaskID() string {
	if len(r.Tasks) == 0 {
		return ""
	}
	return r.Tasks[0].ID
}

// Mapper translates one node. Implementations must not mutate params.
type Mapper interface {
	Translate(ctx context.Context, node Node, params map[string]string) (*Result, error)
}

// Func adapts a function to the Mapper interface
type Func func(ctx context.Context, node Node, params map[string]string) (*Result, error)

func (f Func) Translate(ctx context.Context, node Node, params map[string]string) (*Result, error) {
	return f(ctx, node, params)
}

func single(task *workflow.Task, imports ...string) *Result {
	return &Result{Tasks: []*workflow.Task{task}, Imports: imports}
}
