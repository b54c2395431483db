package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/compozy/o2a/engine/converter"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5AF78E")).Bold(true)
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Italic(true)
)

func printResults(w io.Writer, results ...*converter.Result) {
	for _, r := range results {
		fmt.Fprintf(w, "%s %s\n", successStyle.Render("✔ "+r.Workflow), r.DAGPath)
		fmt.Fprintln(w, detailStyle.Render(fmt.Sprintf("%d tasks, run %s", r.Tasks, r.RunID)))
	}
}
