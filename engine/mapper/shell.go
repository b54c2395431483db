package mapper

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/compozy/o2a/engine/el"
	"github.com/compozy/o2a/engine/workflow"
)

const (
	ParamCommand    = "command"
	ParamProperties = "properties"
)

var unsafeShellChars = regexp.MustCompile(`[^\w@%+=:,./-]`)

// ShellMapper runs <exec> with its <argument>s on the cluster through a Pig sh command
type ShellMapper struct{}

func (ShellMapper) Translate(_ context.Context, node Node, params map[string]string) (*Result, error) {
	exec, ok := childText(node.Element, "exec")
	if !ok || exec == "" {
		return nil, fmt.Errorf("shell action %q has no exec", node.Name)
	}
	cmd := strings.Join(append([]string{exec}, childTexts(node.Element, "argument")...), " ")
	task := workflow.NewTask(node.Name, TemplateShell, map[string]any{
		ParamCommand:    "sh " + shellQuote(el.Resolve(cmd, params)),
		ParamProperties: ParseConfiguration(node.Element, params),
	})
	return single(task, ImportDataproc, ImportDates), nil
}

// shellQuote quotes s for a POSIX shell
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !unsafeShellChars.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
