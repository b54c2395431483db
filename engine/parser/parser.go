// Package parser reads Oozie workflow documents into the task graph.
package parser

import (
	"context"
	"fmt"

	"github.com/beevik/etree"
	"github.com/compozy/o2a/engine/mapper"
	"github.com/compozy/o2a/engine/workflow"
	"github.com/compozy/o2a/pkg/logger"
	"github.com/mohae/deepcopy"
)

type pending struct {
	target string
	kind   workflow.EdgeKind
	from   string
}

// ParseWorkflow validates the document under root and translates every node reachable
// from start into tasks and relations.
func ParseWorkflow(
	ctx context.Context,
	root *etree.Element,
	registry *mapper.Registry,
	params map[string]string,
) (*workflow.Workflow, error) {
	if registry == nil {
		return nil, fmt.Errorf("mapper registry is required")
	}
	def, err := ReadDefinition(root)
	if err != nil {
		return nil, err
	}
	structure, err := Validate(def)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).With("workflow", def.Name)
	wf := workflow.New(def.Name)
	queue := []pending{{target: def.Start}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		node, seen := wf.Node(item.target)
		if !seen {
			src, _ := def.Node(item.target)
			node, err = translate(ctx, src, registry, params, structure)
			if err != nil {
				return nil, err
			}
			if err := wf.AddNode(node); err != nil {
				return nil, err
			}
			log.Debug("Translated node", "node", node.Name, "tag", node.Tag, "tasks", len(node.Tasks))
			for _, tr := range src.Transitions {
				queue = append(queue, pending{target: tr.Target, kind: tr.Kind, from: node.Name})
			}
		}
		if item.from == "" {
			continue
		}
		from, _ := wf.Node(item.from)
		rel := workflow.Relation{From: from.LastTaskID(), To: node.FirstTaskID(), Kind: item.kind}
		if err := wf.AddRelation(rel); err != nil {
			return nil, err
		}
	}
	for _, src := range def.Nodes() {
		if _, ok := wf.Node(src.Name); !ok {
			log.Warn("Skipping unreachable node", "node", src.Name)
		}
	}
	return wf, nil
}

func translate(
	ctx context.Context,
	src *SourceNode,
	registry *mapper.Registry,
	params map[string]string,
	structure *Structure,
) (*workflow.Node, error) {
	entry := registry.Lookup(src.Tag)
	local, err := copyParams(params)
	if err != nil {
		return nil, workflow.NewMappingError(src.Name, src.Tag, err)
	}
	res, err := entry.Mapper.Translate(ctx, mapper.Node{Name: src.Name, Kind: src.Kind, Element: src.Element}, local)
	if err != nil {
		return nil, workflow.NewMappingError(src.Name, src.Tag, err)
	}
	if res == nil || len(res.Tasks) == 0 {
		return nil, workflow.NewMappingError(src.Name, src.Tag, fmt.Errorf("mapper produced no tasks"))
	}
	return &workflow.Node{
		Name:      src.Name,
		Kind:      src.Kind,
		Tag:       entry.Tag,
		Element:   src.Element,
		Tasks:     res.Tasks,
		Relations: res.Relations,
		Imports:   res.Imports,
		Marker:    src.Kind == workflow.NodeStart || entry.Passthrough,
		Join:      structure.Joins[src.Name],
	}, nil
}

// copyParams gives every mapper its own params
func copyParams(params map[string]string) (map[string]string, error) {
	if params == nil {
		return map[string]string{}, nil
	}
	copied, ok := deepcopy.Copy(params).(map[string]string)
	if !ok {
		return nil, fmt.Errorf("failed to copy params")
	}
	return copied, nil
}
