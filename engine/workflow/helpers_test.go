package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func node(name string, kind NodeKind, taskIDs ...string) *Node {
	if len(taskIDs) == 0 {
		taskIDs = []string{name}
	}
	n := &Node{Name: name, Kind: kind, Tag: string(kind)}
	for _, id := range taskIDs {
		n.Tasks = append(n.Tasks, NewTask(id, "dummy", nil))
	}
	for i := 1; i < len(taskIDs); i++ {
		n.Relations = append(n.Relations, Relation{From: taskIDs[i-1], To: taskIDs[i], Kind: EdgeStructural})
	}
	return n
}

func mustAdd(t *testing.T, wf *Workflow, nodes ...*Node) {
	t.Helper()
	for _, n := range nodes {
		require.NoError(t, wf.AddNode(n))
	}
}

func link(t *testing.T, wf *Workflow, from, to string, kind EdgeKind) {
	t.Helper()
	fromNode, ok := wf.Node(from)
	require.True(t, ok, "unknown node %s", from)
	toNode, ok := wf.Node(to)
	require.True(t, ok, "unknown node %s", to)
	require.NoError(t, wf.AddRelation(Relation{From: fromNode.LastTaskID(), To: toNode.FirstTaskID(), Kind: kind}))
}

func trigger(t *testing.T, wf *Workflow, taskID string) TriggerPolicy {
	t.Helper()
	task, ok := wf.Task(taskID)
	require.True(t, ok, "unknown task %s", taskID)
	return task.Trigger
}
