package workflow

// AssignTriggerPolicies sets the trigger policy of every task from its incoming relations.
// It only reads graph structure and can be run any number of times.
func AssignTriggerPolicies(wf *Workflow) {
	convergent := ConvergenceNodes(wf)
	for _, node := range wf.Nodes() {
		assignNodePolicies(wf, node, convergent[node.Name])
	}
}

func assignNodePolicies(wf *Workflow, node *Node, convergent bool) {
	for _, task := range node.Tasks {
		task.Trigger = policyFor(wf.Relations.Incoming(task.ID), convergent && node.IsEntryTask(task.ID))
	}
}

func policyFor(incoming []Relation, convergent bool) TriggerPolicy {
	if len(incoming) == 0 {
		return AllUpstreamSucceeded
	}
	var failures, successes int
	for _, rel := range incoming {
		if rel.Kind == EdgeError {
			failures++
		} else {
			successes++
		}
	}
	switch {
	case successes == 0:
		return AnyUpstreamFailed
	case failures > 0:
		return AllUpstreamDone
	case convergent:
		return AnyUpstreamSucceededOrSkipped
	default:
		return AllUpstreamSucceeded
	}
}

// ConvergenceNodes returns the nodes reachable from two or more distinct arms of the same decision.
// A walk stops at other decisions and at joins, except joins of forks entered during the same walk.
func ConvergenceNodes(wf *Workflow) map[string]bool {
	succ := wf.successorNodes()
	out := make(map[string]bool)
	for _, node := range wf.Nodes() {
		if node.Kind != NodeDecision {
			continue
		}
		arms := succ[node.Name]
		if len(arms) < 2 {
			continue
		}
		hits := make(map[string]int)
		for _, arm := range arms {
			for name := range walkArm(wf, succ, node.Name, arm) {
				hits[name]++
			}
		}
		for name, count := range hits {
			if count > 1 {
				out[name] = true
			}
		}
	}
	return out
}

func walkArm(wf *Workflow, succ map[string][]string, decision, arm string) map[string]bool {
	visited := map[string]bool{arm: true}
	openJoins := make(map[string]bool)
	queue := []string{arm}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		node, ok := wf.Node(name)
		if !ok {
			continue
		}
		switch node.Kind {
		case NodeDecision:
			continue
		case NodeJoin:
			if !openJoins[name] {
				continue
			}
		case NodeFork:
			if node.Join != "" {
				openJoins[node.Join] = true
			}
		}
		for _, next := range succ[name] {
			if next == decision || visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return visited
}
