package compiler

import (
	"context"
	"testing"

	"github.com/beevik/etree"
	"github.com/compozy/o2a/engine/mapper"
	"github.com/compozy/o2a/engine/parser"
	"github.com/compozy/o2a/engine/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = map[string]string{
	"dataproc_cluster": "cluster",
	"gcp_region":       "region",
}

func document(t *testing.T, body string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<workflow-app name="demo" xmlns="uri:oozie:workflow:0.5">`+body+`</workflow-app>`))
	return doc.Root()
}

func action(name, ok, fail string) string {
	out := `<action name="` + name + `"><shell><exec>echo</exec></shell><ok to="` + ok + `"/>`
	if fail != "" {
		out += `<error to="` + fail + `"/>`
	}
	return out + `</action>`
}

func compile(t *testing.T, body string) *workflow.Workflow {
	t.Helper()
	reg, err := mapper.DefaultRegistry()
	require.NoError(t, err)
	wf, err := Compile(context.Background(), document(t, body), reg, testParams)
	require.NoError(t, err)
	return wf
}

func policy(t *testing.T, wf *workflow.Workflow, id string) workflow.TriggerPolicy {
	t.Helper()
	task, ok := wf.Task(id)
	require.True(t, ok, "missing task %s", id)
	return task.Trigger
}

func taskIDs(wf *workflow.Workflow) []string {
	var ids []string
	for _, task := range wf.Tasks() {
		ids = append(ids, task.ID)
	}
	return ids
}

const scenarioA = `<start to="A"/>` +
	`<action name="A"><shell><exec>echo</exec></shell><ok to="end"/><error to="kill"/></action>` +
	`<kill name="kill"><message>A failed</message></kill>` +
	`<end name="end"/>`

const scenarioC = `<start to="D"/>
	<decision name="D"><switch>
		<case to="N1">${a}</case>
		<case to="N2">${b}</case>
		<default to="N3"/>
	</switch></decision>` +
	`<action name="N1"><shell><exec>one</exec></shell><ok to="M"/></action>` +
	`<action name="N2"><shell><exec>two</exec></shell><ok to="M"/></action>` +
	`<action name="N3"><shell><exec>three</exec></shell><ok to="M"/></action>` +
	`<action name="M"><shell><exec>merge</exec></shell><ok to="end"/></action>` +
	`<end name="end"/>`

const forkJoin = `<start to="F"/>
	<fork name="F"><path start="P1"/><path start="P2"/><path start="P3"/></fork>` +
	`<action name="P1"><shell><exec>1</exec></shell><ok to="J"/><error to="fail"/></action>` +
	`<action name="P2"><shell><exec>2</exec></shell><ok to="J"/><error to="fail"/></action>` +
	`<action name="P3"><shell><exec>3</exec></shell><ok to="J"/><error to="fail"/></action>` +
	`<join name="J" to="end"/>` +
	`<kill name="fail"><message>x</message></kill>` +
	`<end name="end"/>`

func TestCompile_Scenarios(t *testing.T) {
	t.Run("Should route failures to the kill task", func(t *testing.T) {
		wf := compile(t, scenarioA)
		assert.ElementsMatch(t, []string{"A", "kill", "end"}, taskIDs(wf))
		assert.Equal(t, workflow.AllUpstreamSucceeded, policy(t, wf, "A"))
		assert.Equal(t, workflow.AnyUpstreamFailed, policy(t, wf, "kill"))
		_, ok := wf.Node(parser.StartNodeName)
		assert.False(t, ok)
		assert.Equal(t, []workflow.Relation{{From: "A", To: "end", Kind: workflow.EdgeNormal}}, wf.Relations.Incoming("end"))
		assert.Equal(t, []string{"A"}, wf.EntryTaskIDs())
	})

	t.Run("Should attach a prepared action through its terminal task", func(t *testing.T) {
		wf := compile(t, `<start to="X"/>
			<action name="X"><shell>
				<prepare><delete path="hdfs:///tmp/x"/></prepare>
				<exec>run.sh</exec>
			</shell><ok to="end"/></action>
			<end name="end"/>`)
		assert.True(t, wf.Relations.Has(workflow.Relation{From: "X_prepare", To: "X", Kind: workflow.EdgeStructural}))
		assert.Equal(t, []workflow.Relation{{From: "X", To: "end", Kind: workflow.EdgeNormal}}, wf.Relations.Incoming("end"))
		assert.Empty(t, wf.Relations.Incoming("X_prepare"))
		assert.Equal(t, []string{"X_prepare"}, wf.EntryTaskIDs())
	})

	t.Run("Should relax the convergence of decision arms", func(t *testing.T) {
		wf := compile(t, scenarioC)
		assert.Equal(t, workflow.AnyUpstreamSucceededOrSkipped, policy(t, wf, "M"))
		for _, arm := range []string{"N1", "N2", "N3"} {
			assert.Equal(t, workflow.AllUpstreamSucceeded, policy(t, wf, arm))
		}
	})

	t.Run("Should run a shared cleanup after success or failure", func(t *testing.T) {
		wf := compile(t, `<start to="A"/>`+
			action("A", "B", "C")+
			action("B", "C", "")+
			action("C", "end", "")+
			`<end name="end"/>`)
		assert.Equal(t, workflow.AllUpstreamDone, policy(t, wf, "C"))
	})
}

func TestCompile_Properties(t *testing.T) {
	documents := map[string]string{
		"kill":     scenarioA,
		"decision": scenarioC,
		"fork":     forkJoin,
	}

	t.Run("Should produce unique task ids", func(t *testing.T) {
		for name, body := range documents {
			ids := taskIDs(compile(t, body))
			seen := make(map[string]bool)
			for _, id := range ids {
				assert.False(t, seen[id], "%s: duplicate task %s", name, id)
				seen[id] = true
			}
		}
	})

	t.Run("Should assign a policy to every task", func(t *testing.T) {
		for _, body := range documents {
			for _, task := range compile(t, body).Tasks() {
				assert.True(t, task.Trigger.IsValid(), task.ID)
			}
		}
	})

	t.Run("Should leave no relation referencing a marker", func(t *testing.T) {
		for _, body := range documents {
			wf := compile(t, body)
			for _, rel := range wf.Relations.Sorted() {
				assert.NotEqual(t, parser.StartNodeName, rel.From)
				assert.NotEqual(t, parser.StartNodeName, rel.To)
			}
			for _, node := range wf.Nodes() {
				assert.False(t, node.Marker, node.Name)
			}
		}
	})

	t.Run("Should feed the join from every fork branch", func(t *testing.T) {
		wf := compile(t, forkJoin)
		assert.Len(t, wf.Relations.Incoming("J"), 3)
		assert.Len(t, wf.Relations.Outgoing("F"), 3)
		assert.Equal(t, workflow.AnyUpstreamFailed, policy(t, wf, "fail"))
		fork, ok := wf.Node("F")
		require.True(t, ok)
		assert.Equal(t, "J", fork.Join)
	})

	t.Run("Should keep policies stable when recomputed", func(t *testing.T) {
		for name, body := range documents {
			wf := compile(t, body)
			before := make(map[string]workflow.TriggerPolicy)
			for _, task := range wf.Tasks() {
				before[task.ID] = task.Trigger
			}
			workflow.AssignTriggerPolicies(wf)
			for _, task := range wf.Tasks() {
				assert.Equal(t, before[task.ID], task.Trigger, "%s: %s", name, task.ID)
			}
		}
	})

	t.Run("Should compile deterministically", func(t *testing.T) {
		first := compile(t, scenarioC)
		second := compile(t, scenarioC)
		assert.Equal(t, first.Relations.Sorted(), second.Relations.Sorted())
		assert.Equal(t, first.Dependencies, second.Dependencies)
	})
}

func TestCompile_Branches(t *testing.T) {
	t.Run("Should bind decision arms to task ids", func(t *testing.T) {
		wf := compile(t, scenarioC)
		task, ok := wf.Task("D")
		require.True(t, ok)
		assert.Equal(t, []Branch{
			{Predicate: "{{ params['a'] }}", TaskID: "N1"},
			{Predicate: "{{ params['b'] }}", TaskID: "N2"},
		}, task.Params[ParamBranches])
		assert.Equal(t, "N3", task.Params[mapper.ParamDefault])
	})

	t.Run("Should bind arms whose targets carry surrounding spaces", func(t *testing.T) {
		wf := compile(t, `<start to="D"/>
			<decision name="D"><switch>
				<case to=" N1 ">${a}</case>
				<default to=" N2"/>
			</switch></decision>`+
			action("N1", "end", "")+
			action("N2", "end", "")+
			`<end name="end"/>`)
		task, ok := wf.Task("D")
		require.True(t, ok)
		branches, ok := task.Params[ParamBranches].([]Branch)
		require.True(t, ok)
		require.Len(t, branches, 1)
		assert.Equal(t, "N1", branches[0].TaskID)
		assert.Equal(t, "N2", task.Params[mapper.ParamDefault])
	})
	t.Run("Should bind arms through elided markers", func(t *testing.T) {
		entries := append(mapper.DefaultEntries(), mapper.Entry{Tag: "noop", Mapper: mapper.EndMapper{}, Passthrough: true})
		reg, err := mapper.NewRegistry(mapper.DummyMapper{}, entries...)
		require.NoError(t, err)
		wf, err := Compile(context.Background(), document(t, `<start to="D"/>
			<decision name="D"><switch><case to="skip">${flag}</case><default to="work"/></switch></decision>
			<action name="skip"><noop/><ok to="end"/></action>`+
			action("work", "end", "")+
			`<end name="end"/>`), reg, testParams)
		require.NoError(t, err)
		task, _ := wf.Task("D")
		branches := task.Params[ParamBranches].([]Branch)
		require.Len(t, branches, 1)
		assert.Equal(t, "end", branches[0].TaskID)
		_, ok := wf.Node("skip")
		assert.False(t, ok)
	})
}

func TestCompile_Errors(t *testing.T) {
	reg, err := mapper.DefaultRegistry()
	require.NoError(t, err)

	t.Run("Should surface structural errors", func(t *testing.T) {
		_, err := Compile(context.Background(), document(t, `<end name="end"/>`), reg, nil)
		assert.True(t, workflow.IsStructural(err, workflow.ErrCodeMissingStart))
	})

	t.Run("Should reject a marker with several successors", func(t *testing.T) {
		entries := []mapper.Entry{
			{Tag: "start", Mapper: mapper.StartMapper{}, Passthrough: true},
			{Tag: "fork", Mapper: mapper.ForkMapper{}, Passthrough: true},
			{Tag: "join", Mapper: mapper.JoinMapper{}},
			{Tag: "end", Mapper: mapper.EndMapper{}},
		}
		custom, err := mapper.NewRegistry(mapper.DummyMapper{}, entries...)
		require.NoError(t, err)
		_, err = Compile(context.Background(), document(t, `<start to="F"/>
			<fork name="F"><path start="a"/><path start="b"/></fork>`+
			action("a", "J", "")+action("b", "J", "")+
			`<join name="J" to="end"/><end name="end"/>`), custom, nil)
		assert.True(t, workflow.IsStructural(err, workflow.ErrCodeMarkerFanOut))
	})
}
