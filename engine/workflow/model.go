package workflow

import (
	"slices"

	"github.com/beevik/etree"
)

type NodeKind string

const (
	NodeStart    NodeKind = "start"
	NodeEnd      NodeKind = "end"
	NodeKill     NodeKind = "kill"
	NodeDecision NodeKind = "decision"
	NodeFork     NodeKind = "fork"
	NodeJoin     NodeKind = "join"
	NodeAction   NodeKind = "action"
)

// Node is one translated element of the source control-flow graph
type Node struct {
	Name string
	Kind NodeKind
	// Tag is the registry key the node was translated with
	Tag string
	// Element is the source element. It is never modified.
	Element   *etree.Element
	Tasks     []*Task
	Relations []Relation
	Imports   []string
	// Marker nodes are structural only and are removed before emission
	Marker bool
	// Join is the name of the join node a fork resolves to
	Join string
}

// FirstTaskID is the task that receives the node's incoming relations
func (n *Node) FirstTaskID() string {
	if len(n.Tasks) == 0 {
		return ""
	}
	return n.Tasks[0].ID
}

// LastTaskID is the task that originates the node's outgoing relations
func (n *Node) LastTaskID() string {
	if len(n.Tasks) == 0 {
		return ""
	}
	return n.Tasks[len(n.Tasks)-1].ID
}

// IsEntryTask reports whether taskID receives the node's incoming relations
func (n *Node) IsEntryTask(taskID string) bool {
	return n.FirstTaskID() == taskID
}

// Workflow is the compiled task graph
type Workflow struct {
	Name         string
	Relations    *RelationSet
	Dependencies []string

	nodes     map[string]*Node
	order     []string
	taskOwner map[string]string
	redirects map[string]string
}

func New(name string) *Workflow {
	return &Workflow{
		Name:      name,
		Relations: NewRelationSet(),
		nodes:     make(map[string]*Node),
		taskOwner: make(map[string]string),
		redirects: make(map[string]string),
	}
}

// AddNode registers a node together with its tasks and internal relations
func (w *Workflow) AddNode(node *Node) error {
	if _, exists := w.nodes[node.Name]; exists {
		return NewStructuralError(ErrCodeDuplicateNode, []string{node.Name}, "node %q is defined more than once", node.Name)
	}
	if len(node.Tasks) == 0 {
		return NewStructuralError(ErrCodeMalformedNode, []string{node.Name}, "node %q produced no tasks", node.Name)
	}
	local := make(map[string]bool, len(node.Tasks))
	for _, task := range node.Tasks {
		if owner, taken := w.taskOwner[task.ID]; taken || local[task.ID] {
			if !taken {
				owner = node.Name
			}
			return NewStructuralError(
				ErrCodeDuplicateTask,
				[]string{owner, node.Name},
				"task id %q is produced by more than one node",
				task.ID,
			)
		}
		local[task.ID] = true
	}
	for _, rel := range node.Relations {
		if rel.From == rel.To {
			return NewStructuralError(ErrCodeSelfLoop, []string{node.Name}, "task %q depends on itself", rel.From)
		}
		if !local[rel.From] || !local[rel.To] {
			return NewStructuralError(
				ErrCodeDanglingRelation,
				[]string{node.Name},
				"internal relation %s -> %s leaves node %q",
				rel.From, rel.To, node.Name,
			)
		}
	}
	w.nodes[node.Name] = node
	w.order = append(w.order, node.Name)
	for id := range local {
		w.taskOwner[id] = node.Name
	}
	for _, rel := range node.Relations {
		w.Relations.Add(rel)
	}
	return nil
}

// AddRelation records a cross-node relation between two registered tasks
func (w *Workflow) AddRelation(rel Relation) error {
	if rel.From == rel.To {
		return NewStructuralError(ErrCodeSelfLoop, []string{w.taskOwner[rel.From]}, "task %q depends on itself", rel.From)
	}
	var missing []string
	for _, id := range []string{rel.From, rel.To} {
		if _, ok := w.taskOwner[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return NewStructuralError(
			ErrCodeDanglingRelation,
			missing,
			"relation %s -> %s references unknown tasks",
			rel.From, rel.To,
		)
	}
	w.Relations.Add(rel)
	return nil
}

func (w *Workflow) Node(name string) (*Node, bool) {
	node, ok := w.nodes[name]
	return node, ok
}

// Nodes returns the nodes in registration order
func (w *Workflow) Nodes() []*Node {
	out := make([]*Node, 0, len(w.order))
	for _, name := range w.order {
		out = append(out, w.nodes[name])
	}
	return out
}

func (w *Workflow) NodeCount() int {
	return len(w.order)
}

// RemoveNode drops a node, its tasks and every relation touching them.
// The removed relations are returned sorted.
func (w *Workflow) RemoveNode(name string) []Relation {
	node, ok := w.nodes[name]
	if !ok {
		return nil
	}
	ids := make(map[string]bool, len(node.Tasks))
	for _, task := range node.Tasks {
		ids[task.ID] = true
		delete(w.taskOwner, task.ID)
	}
	var removed []Relation
	for _, rel := range w.Relations.Sorted() {
		if ids[rel.From] || ids[rel.To] {
			w.Relations.Remove(rel)
			removed = append(removed, rel)
		}
	}
	delete(w.nodes, name)
	w.order = slices.DeleteFunc(w.order, func(n string) bool { return n == name })
	return removed
}

// ResolveEntry returns the entry task standing for a node name. Names of elided
// markers resolve to the entry task of their successor.
func (w *Workflow) ResolveEntry(name string) (string, bool) {
	for range len(w.redirects) + 1 {
		if node, ok := w.nodes[name]; ok {
			return node.FirstTaskID(), true
		}
		next, ok := w.redirects[name]
		if !ok {
			return "", false
		}
		name = next
	}
	return "", false
}

// OwnerOf returns the node that produced the task
func (w *Workflow) OwnerOf(taskID string) (*Node, bool) {
	name, ok := w.taskOwner[taskID]
	if !ok {
		return nil, false
	}
	return w.nodes[name], true
}

func (w *Workflow) Task(taskID string) (*Task, bool) {
	node, ok := w.OwnerOf(taskID)
	if !ok {
		return nil, false
	}
	for _, task := range node.Tasks {
		if task.ID == taskID {
			return task, true
		}
	}
	return nil, false
}

// Tasks returns every task, node by node in registration order
func (w *Workflow) Tasks() []*Task {
	var out []*Task
	for _, node := range w.Nodes() {
		out = append(out, node.Tasks...)
	}
	return out
}

// EntryTaskIDs returns the sorted ids of tasks without incoming relations
func (w *Workflow) EntryTaskIDs() []string {
	hasIncoming := make(map[string]bool, w.Relations.Len())
	for _, rel := range w.Relations.Sorted() {
		hasIncoming[rel.To] = true
	}
	var out []string
	for id := range w.taskOwner {
		if !hasIncoming[id] {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Validate checks the graph invariants that must hold before emission
func (w *Workflow) Validate() error {
	for _, rel := range w.Relations.Sorted() {
		if rel.From == rel.To {
			return NewStructuralError(ErrCodeSelfLoop, []string{w.taskOwner[rel.From]}, "task %q depends on itself", rel.From)
		}
		for _, id := range []string{rel.From, rel.To} {
			if _, ok := w.taskOwner[id]; !ok {
				return NewStructuralError(
					ErrCodeDanglingRelation,
					[]string{id},
					"relation %s -> %s references unknown task %q",
					rel.From, rel.To, id,
				)
			}
		}
	}
	for _, node := range w.Nodes() {
		if node.Marker {
			return NewStructuralError(ErrCodeMalformedNode, []string{node.Name}, "marker node %q was not elided", node.Name)
		}
		for _, task := range node.Tasks {
			if !task.Trigger.IsValid() {
				return NewStructuralError(
					ErrCodeMalformedNode,
					[]string{node.Name},
					"task %q has no trigger policy",
					task.ID,
				)
			}
		}
	}
	return nil
}

// successorNodes maps every node to the distinct nodes its tasks lead to
func (w *Workflow) successorNodes() map[string][]string {
	out := make(map[string][]string, len(w.order))
	seen := make(map[[2]string]bool)
	for _, rel := range w.Relations.Sorted() {
		from, to := w.taskOwner[rel.From], w.taskOwner[rel.To]
		if from == "" || to == "" || from == to {
			continue
		}
		key := [2]string{from, to}
		if seen[key] {
			continue
		}
		seen[key] = true
		out[from] = append(out[from], to)
	}
	return out
}
