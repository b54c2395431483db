package parser

import (
	"maps"
	"slices"

	"github.com/compozy/o2a/engine/workflow"
)

// Structure is the result of validating a definition
type Structure struct {
	// Reachable lists the nodes reachable from start in breadth-first order
	Reachable []string
	// Joins maps every reachable fork to the join its paths converge on
	Joins map[string]string
}

// Validate checks the control flow reachable from start: transition targets must exist,
// the graph must be acyclic and every fork must converge on exactly one join.
func Validate(def *Definition) (*Structure, error) {
	reachable, err := reachableFrom(def)
	if err != nil {
		return nil, err
	}
	if cycle := findCycle(def, reachable); cycle != nil {
		return nil, workflow.NewStructuralError(workflow.ErrCodeCycle, cycle, "workflow %q contains a cycle", def.Name)
	}
	joins, err := resolveForks(def, reachable)
	if err != nil {
		return nil, err
	}
	return &Structure{Reachable: reachable, Joins: joins}, nil
}

func reachableFrom(def *Definition) ([]string, error) {
	seen := map[string]bool{def.Start: true}
	order := []string{def.Start}
	for i := 0; i < len(order); i++ {
		node := def.nodes[order[i]]
		for _, tr := range node.Transitions {
			if _, ok := def.nodes[tr.Target]; !ok {
				return nil, workflow.NewStructuralError(
					workflow.ErrCodeUnknownTransition,
					[]string{node.Name, tr.Target},
					"node %q transitions to unknown node %q",
					node.Name, tr.Target,
				)
			}
			if tr.Target == node.Name {
				return nil, workflow.NewStructuralError(workflow.ErrCodeSelfLoop, []string{node.Name}, "node %q transitions to itself", node.Name)
			}
			if !seen[tr.Target] {
				seen[tr.Target] = true
				order = append(order, tr.Target)
			}
		}
	}
	return order, nil
}

// findCycle returns one cycle as a closed path of node names, or nil
func findCycle(def *Definition, reachable []string) []string {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(reachable))
	var stack []string
	var cycle []string
	var dfs func(name string) bool
	dfs = func(name string) bool {
		color[name] = gray
		stack = append(stack, name)
		for _, tr := range def.nodes[name].Transitions {
			switch color[tr.Target] {
			case white:
				if dfs(tr.Target) {
					return true
				}
			case gray:
				start := slices.Index(stack, tr.Target)
				cycle = append(slices.Clone(stack[start:]), tr.Target)
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		return false
	}
	for _, name := range reachable {
		if color[name] == white && dfs(name) {
			return cycle
		}
	}
	return nil
}

type forkResolver struct {
	def   *Definition
	joins map[string]string
	reach map[string]map[string]bool
}

func resolveForks(def *Definition, reachable []string) (map[string]string, error) {
	r := &forkResolver{
		def:   def,
		joins: make(map[string]string),
		reach: make(map[string]map[string]bool),
	}
	owner := make(map[string]string)
	for _, name := range reachable {
		if def.nodes[name].Kind != workflow.NodeFork {
			continue
		}
		join, err := r.join(name)
		if err != nil {
			return nil, err
		}
		if other, taken := owner[join]; taken && other != name {
			return nil, workflow.NewStructuralError(
				workflow.ErrCodeUnbalancedFork,
				[]string{other, name, join},
				"forks %q and %q share join %q",
				other, name, join,
			)
		}
		owner[join] = name
	}
	return r.joins, nil
}

// join returns the single join every path of fork reaches
func (r *forkResolver) join(fork string) (string, error) {
	if join, ok := r.joins[fork]; ok {
		return join, nil
	}
	found := make(map[string]bool)
	for _, tr := range r.def.nodes[fork].Transitions {
		reached, err := r.joinsFrom(fork, tr.Target)
		if err != nil {
			return "", err
		}
		for j := range reached {
			found[j] = true
		}
	}
	if len(found) != 1 {
		names := slices.Sorted(maps.Keys(found))
		return "", workflow.NewStructuralError(
			workflow.ErrCodeUnbalancedFork,
			append([]string{fork}, names...),
			"paths of fork %q must converge on exactly one join, found %d",
			fork, len(found),
		)
	}
	for j := range found {
		r.joins[fork] = j
	}
	return r.joins[fork], nil
}

// joinsFrom returns the joins first reached from name. Paths ending in a kill node reach none.
func (r *forkResolver) joinsFrom(fork, name string) (map[string]bool, error) {
	if cached, ok := r.reach[name]; ok {
		return cached, nil
	}
	node := r.def.nodes[name]
	out := make(map[string]bool)
	next := node.Transitions
	switch node.Kind {
	case workflow.NodeJoin:
		out[name] = true
		next = nil
	case workflow.NodeKill:
		next = nil
	case workflow.NodeEnd:
		return nil, workflow.NewStructuralError(
			workflow.ErrCodeUnbalancedFork,
			[]string{fork, name},
			"a path of fork %q reaches end %q before its join",
			fork, name,
		)
	case workflow.NodeFork:
		join, err := r.join(name)
		if err != nil {
			return nil, err
		}
		next = r.def.nodes[join].Transitions
	}
	for _, tr := range next {
		reached, err := r.joinsFrom(fork, tr.Target)
		if err != nil {
			return nil, err
		}
		for j := range reached {
			out[j] = true
		}
	}
	r.reach[name] = out
	return out, nil
}
