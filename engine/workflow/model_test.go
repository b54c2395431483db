package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflow_AddNode(t *testing.T) {
	t.Run("Should reject duplicate node names", func(t *testing.T) {
		wf := New("wf")
		mustAdd(t, wf, node("a", NodeAction))
		err := wf.AddNode(node("a", NodeAction, "other"))
		require.Error(t, err)
		assert.True(t, IsStructural(err, ErrCodeDuplicateNode))
	})

	t.Run("Should reject task ids produced by two nodes", func(t *testing.T) {
		wf := New("wf")
		mustAdd(t, wf, node("a", NodeAction, "a_prepare", "a"))
		err := wf.AddNode(node("a_prepare", NodeAction))
		require.Error(t, err)
		var se *StructuralError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, ErrCodeDuplicateTask, se.Code)
		assert.ElementsMatch(t, []string{"a", "a_prepare"}, se.Nodes)
	})

	t.Run("Should reject nodes without tasks", func(t *testing.T) {
		wf := New("wf")
		err := wf.AddNode(&Node{Name: "empty", Kind: NodeAction})
		assert.True(t, IsStructural(err, ErrCodeMalformedNode))
	})

	t.Run("Should reject internal relations leaving the node", func(t *testing.T) {
		wf := New("wf")
		n := node("a", NodeAction)
		n.Relations = []Relation{{From: "a", To: "elsewhere", Kind: EdgeStructural}}
		assert.True(t, IsStructural(wf.AddNode(n), ErrCodeDanglingRelation))
	})

	t.Run("Should register internal relations", func(t *testing.T) {
		wf := New("wf")
		mustAdd(t, wf, node("x", NodeAction, "x_prepare", "x"))
		assert.True(t, wf.Relations.Has(Relation{From: "x_prepare", To: "x", Kind: EdgeStructural}))
		owner, ok := wf.OwnerOf("x_prepare")
		require.True(t, ok)
		assert.Equal(t, "x", owner.Name)
	})
}

func TestWorkflow_AddRelation(t *testing.T) {
	wf := New("wf")
	mustAdd(t, wf, node("a", NodeAction), node("b", NodeAction))

	t.Run("Should reject self loops", func(t *testing.T) {
		err := wf.AddRelation(Relation{From: "a", To: "a", Kind: EdgeNormal})
		assert.True(t, IsStructural(err, ErrCodeSelfLoop))
	})

	t.Run("Should reject unknown endpoints", func(t *testing.T) {
		err := wf.AddRelation(Relation{From: "a", To: "ghost", Kind: EdgeNormal})
		var se *StructuralError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, ErrCodeDanglingRelation, se.Code)
		assert.Equal(t, []string{"ghost"}, se.Nodes)
	})

	t.Run("Should be idempotent for duplicates", func(t *testing.T) {
		require.NoError(t, wf.AddRelation(Relation{From: "a", To: "b", Kind: EdgeNormal}))
		require.NoError(t, wf.AddRelation(Relation{From: "a", To: "b", Kind: EdgeNormal}))
		assert.Equal(t, 1, wf.Relations.Len())
	})
}

func TestWorkflow_RemoveNode(t *testing.T) {
	t.Run("Should drop tasks and incident relations", func(t *testing.T) {
		wf := New("wf")
		mustAdd(t, wf, node("a", NodeAction), node("b", NodeAction), node("c", NodeAction))
		link(t, wf, "a", "b", EdgeNormal)
		link(t, wf, "b", "c", EdgeNormal)
		removed := wf.RemoveNode("b")
		assert.Len(t, removed, 2)
		assert.Zero(t, wf.Relations.Len())
		_, ok := wf.Task("b")
		assert.False(t, ok)
		assert.Equal(t, 2, wf.NodeCount())
		assert.Equal(t, []string{"a", "c"}, wf.EntryTaskIDs())
	})
}

func TestWorkflow_Validate(t *testing.T) {
	t.Run("Should accept a well formed graph", func(t *testing.T) {
		wf := New("wf")
		mustAdd(t, wf, node("a", NodeAction), node("b", NodeAction))
		link(t, wf, "a", "b", EdgeNormal)
		assert.NoError(t, wf.Validate())
	})

	t.Run("Should reject tasks without a policy", func(t *testing.T) {
		wf := New("wf")
		n := node("a", NodeAction)
		n.Tasks[0].Trigger = ""
		mustAdd(t, wf, n)
		assert.True(t, IsStructural(wf.Validate(), ErrCodeMalformedNode))
	})

	t.Run("Should reject leftover markers", func(t *testing.T) {
		wf := New("wf")
		n := node("start_node", NodeStart)
		n.Marker = true
		mustAdd(t, wf, n)
		assert.True(t, IsStructural(wf.Validate(), ErrCodeMalformedNode))
	})
}

func TestMappingError(t *testing.T) {
	t.Run("Should unwrap the mapper cause", func(t *testing.T) {
		cause := errors.New("missing exec")
		err := NewMappingError("sh", "shell", cause)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), `"sh"`)
		assert.False(t, IsStructural(err, ""))
	})
}
