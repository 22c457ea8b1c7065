package orgtree

// Edge is one (member, parent) pair of a team's parent-pointer table.
type Edge struct {
	ID       int64
	ParentID *int64
}

// Descendants returns every member below memberID, excluding memberID.
// The walk is not depth bounded: it has to see the whole subtree to be
// correct, and the visited set keeps it finite on corrupted data.
func Descendants(edges []Edge, memberID int64) map[int64]struct{} {
	children := make(map[int64][]int64, len(edges))
	for _, e := range edges {
		if e.ParentID != nil {
			children[*e.ParentID] = append(children[*e.ParentID], e.ID)
		}
	}

	seen := make(map[int64]struct{})
	stack := append([]int64(nil), children[memberID]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		stack = append(stack, children[id]...)
	}
	delete(seen, memberID)
	return seen
}

// ValidateReparent checks that memberID may report to parentID within the
// team described by edges. Checks run in order: self reference, team
// membership of both ends, no-op, cycle.
func ValidateReparent(edges []Edge, memberID, parentID int64) error {
	if memberID == parentID {
		return ErrSelfParenting
	}

	var member *Edge
	parentFound := false
	for i := range edges {
		switch edges[i].ID {
		case memberID:
			member = &edges[i]
		case parentID:
			parentFound = true
		}
	}
	if member == nil || !parentFound {
		return ErrCrossTeamReference
	}

	if member.ParentID != nil && *member.ParentID == parentID {
		return ErrAlreadySet
	}

	if _, ok := Descendants(edges, memberID)[parentID]; ok {
		return ErrCyclicReparenting
	}
	return nil
}

// HasCycle reports whether following parent pointers from any member loops.
func HasCycle(edges []Edge) bool {
	parent := make(map[int64]int64, len(edges))
	for _, e := range edges {
		if e.ParentID != nil {
			parent[e.ID] = *e.ParentID
		}
	}
	for _, e := range edges {
		seen := map[int64]struct{}{e.ID: {}}
		cur := e.ID
		for {
			next, ok := parent[cur]
			if !ok {
				break
			}
			if _, loop := seen[next]; loop {
				return true
			}
			seen[next] = struct{}{}
			cur = next
		}
	}
	return false
}
