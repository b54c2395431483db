package parser

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/compozy/o2a/engine/workflow"
)

// StartNodeName is the name given to the unnamed start element
const StartNodeName = "start_node"

const rootTag = "workflow-app"

// Transition is an outgoing control-flow edge of a source node
type Transition struct {
	Target string
	Kind   workflow.EdgeKind
}

// SourceNode is one control-flow element as read from the document
type SourceNode struct {
	Name string
	Kind workflow.NodeKind
	// Tag selects the mapper: the element tag, or the inner element tag for actions
	Tag         string
	Element     *etree.Element
	Transitions []Transition
}

// Definition is the control-flow graph of a workflow document before translation
type Definition struct {
	Name  string
	Start string
	nodes map[string]*SourceNode
	order []string
}

func (d *Definition) Node(name string) (*SourceNode, bool) {
	n, ok := d.nodes[name]
	return n, ok
}

// Nodes returns the nodes in document order
func (d *Definition) Nodes() []*SourceNode {
	out := make([]*SourceNode, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.nodes[name])
	}
	return out
}

var controlKinds = map[string]workflow.NodeKind{
	"start":    workflow.NodeStart,
	"end":      workflow.NodeEnd,
	"kill":     workflow.NodeKill,
	"decision": workflow.NodeDecision,
	"fork":     workflow.NodeFork,
	"join":     workflow.NodeJoin,
	"action":   workflow.NodeAction,
}

// ReadDefinition reads the control-flow nodes of a <workflow-app> element.
// Elements that are not control-flow nodes (parameters, global, credentials) are skipped.
func ReadDefinition(root *etree.Element) (*Definition, error) {
	if root == nil || root.Tag != rootTag {
		return nil, workflow.NewStructuralError(workflow.ErrCodeMalformedNode, nil, "document root must be <%s>", rootTag)
	}
	def := &Definition{
		Name:  root.SelectAttrValue("name", ""),
		nodes: make(map[string]*SourceNode),
	}
	for _, child := range root.ChildElements() {
		kind, ok := controlKinds[child.Tag]
		if !ok {
			continue
		}
		node, err := readNode(kind, child)
		if err != nil {
			return nil, err
		}
		if kind == workflow.NodeStart {
			if def.Start != "" {
				return nil, workflow.NewStructuralError(workflow.ErrCodeMalformedNode, []string{StartNodeName}, "workflow declares more than one start")
			}
			def.Start = node.Name
		}
		if _, exists := def.nodes[node.Name]; exists {
			return nil, workflow.NewStructuralError(workflow.ErrCodeDuplicateNode, []string{node.Name}, "node %q is defined more than once", node.Name)
		}
		def.nodes[node.Name] = node
		def.order = append(def.order, node.Name)
	}
	if def.Start == "" {
		return nil, workflow.NewStructuralError(workflow.ErrCodeMissingStart, nil, "workflow %q has no start node", def.Name)
	}
	return def, nil
}

func readNode(kind workflow.NodeKind, el *etree.Element) (*SourceNode, error) {
	node := &SourceNode{
		Name:    el.SelectAttrValue("name", ""),
		Kind:    kind,
		Tag:     el.Tag,
		Element: el,
	}
	if kind == workflow.NodeStart {
		node.Name = StartNodeName
	}
	if node.Name == "" {
		return nil, workflow.NewStructuralError(workflow.ErrCodeMalformedNode, nil, "<%s> element has no name", el.Tag)
	}
	var err error
	switch kind {
	case workflow.NodeStart, workflow.NodeJoin:
		err = node.addTarget(el.SelectAttrValue("to", ""), workflow.EdgeNormal)
	case workflow.NodeDecision:
		err = readDecision(node)
	case workflow.NodeFork:
		err = readFork(node)
	case workflow.NodeAction:
		err = readAction(node)
	}
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (n *SourceNode) addTarget(target string, kind workflow.EdgeKind) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return workflow.NewStructuralError(workflow.ErrCodeMalformedNode, []string{n.Name}, "%s node %q has a transition without target", n.Kind, n.Name)
	}
	n.Transitions = append(n.Transitions, Transition{Target: target, Kind: kind})
	return nil
}

func readDecision(node *SourceNode) error {
	sw := node.Element.SelectElement("switch")
	if sw == nil {
		return workflow.NewStructuralError(workflow.ErrCodeMalformedNode, []string{node.Name}, "decision %q has no switch", node.Name)
	}
	for _, c := range sw.SelectElements("case") {
		if err := node.addTarget(c.SelectAttrValue("to", ""), workflow.EdgeNormal); err != nil {
			return err
		}
	}
	def := sw.SelectElement("default")
	if def == nil {
		return workflow.NewStructuralError(workflow.ErrCodeMissingDefault, []string{node.Name}, "decision %q has no default", node.Name)
	}
	return node.addTarget(def.SelectAttrValue("to", ""), workflow.EdgeNormal)
}

func readFork(node *SourceNode) error {
	paths := node.Element.SelectElements("path")
	if len(paths) == 0 {
		return workflow.NewStructuralError(workflow.ErrCodeMalformedNode, []string{node.Name}, "fork %q has no paths", node.Name)
	}
	for _, p := range paths {
		if err := node.addTarget(p.SelectAttrValue("start", ""), workflow.EdgeNormal); err != nil {
			return err
		}
	}
	return nil
}

func readAction(node *SourceNode) error {
	var inner, ok, fail *etree.Element
	for _, child := range node.Element.ChildElements() {
		switch child.Tag {
		case "ok":
			ok = child
		case "error":
			fail = child
		default:
			if inner == nil {
				inner = child
			}
		}
	}
	if inner == nil {
		return workflow.NewStructuralError(workflow.ErrCodeMalformedNode, []string{node.Name}, "action %q has no action element", node.Name)
	}
	if ok == nil {
		return workflow.NewStructuralError(workflow.ErrCodeMalformedNode, []string{node.Name}, "action %q has no ok transition", node.Name)
	}
	node.Tag = inner.Tag
	node.Element = inner
	if err := node.addTarget(ok.SelectAttrValue("to", ""), workflow.EdgeNormal); err != nil {
		return err
	}
	if fail != nil {
		return node.addTarget(fail.SelectAttrValue("to", ""), workflow.EdgeError)
	}
	return nil
}
