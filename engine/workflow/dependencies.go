package workflow

import (
	"maps"
	"slices"
)

// CollectDependencies returns the sorted union of the imports required by the remaining nodes
func CollectDependencies(wf *Workflow) []string {
	set := make(map[string]struct{})
	for _, node := range wf.Nodes() {
		for _, imp := range node.Imports {
			set[imp] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}
