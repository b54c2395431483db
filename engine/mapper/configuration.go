package mapper

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/compozy/o2a/engine/el"
)

// ParseConfiguration reads <configuration><property><name/><value/></property></configuration>.
// Properties missing a name or a value are skipped.
func ParseConfiguration(action *etree.Element, params map[string]string) map[string]string {
	props := make(map[string]string)
	conf := action.SelectElement("configuration")
	if conf == nil {
		return props
	}
	for _, prop := range conf.SelectElements("property") {
		name, hasName := childText(prop, "name")
		value, hasValue := childText(prop, "value")
		if !hasName || !hasValue || name == "" || value == "" {
			continue
		}
		props[strings.TrimSpace(name)] = el.Resolve(value, params)
	}
	return props
}
