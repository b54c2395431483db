package workflow

// ElideMarkers removes every marker node and reconnects its predecessors to its single successor.
// Relinked relations become STRUCTURAL unless they are failure edges, which keep their kind.
func ElideMarkers(wf *Workflow) error {
	elided := 0
	for _, node := range wf.Nodes() {
		if !node.Marker {
			continue
		}
		if err := elideMarker(wf, node); err != nil {
			return err
		}
		elided++
	}
	// Removing a marker can change which nodes converge, so every policy is recomputed
	if elided > 0 {
		AssignTriggerPolicies(wf)
	}
	return nil
}

func elideMarker(wf *Workflow, marker *Node) error {
	own := make(map[string]bool, len(marker.Tasks))
	for _, task := range marker.Tasks {
		own[task.ID] = true
	}
	targets := make(map[string]bool)
	var target string
	for _, task := range marker.Tasks {
		for _, rel := range wf.Relations.Outgoing(task.ID) {
			if own[rel.To] {
				continue
			}
			targets[rel.To] = true
			target = rel.To
		}
	}
	if len(targets) != 1 {
		return NewStructuralError(
			ErrCodeMarkerFanOut,
			[]string{marker.Name},
			"marker node %q must have exactly one successor, found %d",
			marker.Name, len(targets),
		)
	}
	removed := wf.RemoveNode(marker.Name)
	for _, rel := range removed {
		if own[rel.From] || !own[rel.To] {
			continue
		}
		kind := EdgeStructural
		if rel.Kind == EdgeError {
			kind = EdgeError
		}
		if err := wf.AddRelation(Relation{From: rel.From, To: target, Kind: kind}); err != nil {
			return err
		}
	}
	successor, _ := wf.OwnerOf(target)
	wf.redirects[marker.Name] = successor.Name
	return nil
}
