package mapper

import (
	"context"
	"fmt"
	"strings"

	"github.com/compozy/o2a/engine/el"
	"github.com/compozy/o2a/engine/workflow"
	"github.com/compozy/o2a/pkg/logger"
)

const (
	ParamCases   = "cases"
	ParamDefault = "default"
	ParamMessage = "message"
)

// BranchCase is one arm of a decision. Target holds the node name until the
// compiler rewrites it to the task id the branch must select.
type BranchCase struct {
	Predicate string
	Target    string
}

func dummy(name string) *Result {
	return single(workflow.NewTask(name, TemplateDummy, nil), ImportDummy)
}

type StartMapper struct{}

func (StartMapper) Translate(_ context.Context, node Node, _ map[string]string) (*Result, error) {
	return dummy(node.Name), nil
}

type EndMapper struct{}

func (EndMapper) Translate(_ context.Context, node Node, _ map[string]string) (*Result, error) {
	return dummy(node.Name), nil
}

type ForkMapper struct{}

func (ForkMapper) Translate(_ context.Context, node Node, _ map[string]string) (*Result, error) {
	return dummy(node.Name), nil
}

type JoinMapper struct{}

func (JoinMapper) Translate(_ context.Context, node Node, _ map[string]string) (*Result, error) {
	return dummy(node.Name), nil
}

// KillMapper fails the run with the kill node's message
type KillMapper struct{}

func (KillMapper) Translate(_ context.Context, node Node, params map[string]string) (*Result, error) {
	message, _ := childText(node.Element, "message")
	if message == "" {
		message = fmt.Sprintf("workflow killed at %s", node.Name)
	}
	message = el.Resolve(message, params)
	task := workflow.NewTask(node.Name, TemplateKill, map[string]any{
		ParamMessage: message,
		ParamCommand: "echo " + shellQuote(message) + " >&2 && exit 1",
	})
	return single(task, ImportBash), nil
}

// DecisionMapper produces a branch task selecting one successor at run time
type DecisionMapper struct{}

func (DecisionMapper) Translate(_ context.Context, node Node, params map[string]string) (*Result, error) {
	sw := node.Element.SelectElement("switch")
	if sw == nil {
		return nil, fmt.Errorf("decision %q has no switch", node.Name)
	}
	var cases []BranchCase
	for _, c := range sw.SelectElements("case") {
		target := strings.TrimSpace(c.SelectAttrValue("to", ""))
		if target == "" {
			return nil, fmt.Errorf("decision %q has a case without target", node.Name)
		}
		cases = append(cases, BranchCase{
			Predicate: el.Resolve(strings.TrimSpace(c.Text()), params),
			Target:    target,
		})
	}
	def := sw.SelectElement("default")
	var fallback string
	if def != nil {
		fallback = strings.TrimSpace(def.SelectAttrValue("to", ""))
	}
	if fallback == "" {
		return nil, fmt.Errorf("decision %q has no default", node.Name)
	}
	task := workflow.NewTask(node.Name, TemplateDecision, map[string]any{
		ParamCases:   cases,
		ParamDefault: fallback,
	})
	return single(task, ImportPython), nil
}

// DummyMapper stands in for action tags without a dedicated mapper
type DummyMapper struct{}

func (DummyMapper) Translate(ctx context.Context, node Node, _ map[string]string) (*Result, error) {
	if node.Kind == workflow.NodeAction {
		tag := ""
		if node.Element != nil {
			tag = node.Element.Tag
		}
		logger.FromContext(ctx).Warn("No mapper for action, emitting placeholder", "node", node.Name, "tag", tag)
	}
	return dummy(node.Name), nil
}
