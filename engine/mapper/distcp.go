package mapper

import (
	"context"
	"fmt"

	"github.com/compozy/o2a/engine/el"
	"github.com/compozy/o2a/engine/workflow"
)

// DistCpMapper copies data between clusters with Hadoop DistCp
type DistCpMapper struct{}

func (DistCpMapper) Translate(_ context.Context, node Node, params map[string]string) (*Result, error) {
	raw := childTexts(node.Element, "arg")
	if len(raw) < 2 {
		return nil, fmt.Errorf("distcp action %q needs a source and a target argument", node.Name)
	}
	args := make([]string, 0, len(raw))
	for _, arg := range raw {
		args = append(args, el.Resolve(arg, params))
	}
	task := workflow.NewTask(node.Name, TemplateDistCp, map[string]any{
		ParamArguments:  args,
		ParamProperties: ParseConfiguration(node.Element, params),
	})
	return single(task, ImportDataproc, ImportDates), nil
}
