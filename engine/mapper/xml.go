package mapper

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/compozy/o2a/engine/el"
)

// childText returns the trimmed text of the first child with tag
func childText(parent *etree.Element, tag string) (string, bool) {
	child := parent.SelectElement(tag)
	if child == nil {
		return "", false
	}
	return strings.TrimSpace(child.Text()), true
}

func childTexts(parent *etree.Element, tag string) []string {
	children := parent.SelectElements(tag)
	out := make([]string, 0, len(children))
	for _, child := range children {
		out = append(out, strings.TrimSpace(child.Text()))
	}
	return out
}

// optionalText resolves the text of the first child with tag, or returns ""
func optionalText(action *etree.Element, tag string, params map[string]string) string {
	text, ok := childText(action, tag)
	if !ok || text == "" {
		return ""
	}
	return el.Resolve(text, params)
}
