// Package orgtree renders and mutates the reporting structure of a team.
//
// A team's members form a forest over their parent pointers. Build projects
// that forest into a depth-bounded tree rooted at a supervisor chosen by the
// caller, and ValidateReparent decides whether moving a member under a new
// parent keeps the forest acyclic.
package orgtree

import (
	"strconv"

	teammodels "github.com/nikhil/orgchart/internal/models/teams"
)

// Node is a rendered member with its expanded subordinates.
type Node struct {
	teammodels.MemberCard
	Subordinates []*Node `json:"subordinates"`
}

// Tree is the rendered structure of a team.
type Tree struct {
	teammodels.MemberCard
	Subordinates  []*Node `json:"subordinates"`
	WithoutParent []*Node `json:"without_parent"`
}

// ClampDepth turns the raw "deep" query parameter into a depth within
// [1, max]. Empty or non-numeric input yields max.
func ClampDepth(raw string, max int) int {
	depth, err := strconv.Atoi(raw)
	if err != nil {
		return max
	}
	if depth < 1 {
		return 1
	}
	if depth > max {
		return max
	}
	return depth
}

// Build renders members as a tree under root.
//
// The root sits at depth 0 and a node at depth d lists its children only
// while d+1 < maxDepth. Members whose parent is null or not part of members
// are collected into WithoutParent and expanded the same way from depth 0.
// Recursion is bounded by maxDepth alone, so corrupted cycles still terminate.
func Build(members []teammodels.MemberCard, root teammodels.MemberCard, maxDepth int) Tree {
	if maxDepth < 1 {
		maxDepth = 1
	}

	known := make(map[int64]struct{}, len(members)+1)
	known[root.ID] = struct{}{}
	for _, m := range members {
		known[m.ID] = struct{}{}
	}

	children := make(map[int64][]teammodels.MemberCard)
	var orphans []teammodels.MemberCard
	for _, m := range members {
		if m.ID == root.ID {
			continue
		}
		if m.ParentID == nil {
			orphans = append(orphans, m)
			continue
		}
		if _, ok := known[*m.ParentID]; !ok {
			orphans = append(orphans, m)
			continue
		}
		children[*m.ParentID] = append(children[*m.ParentID], m)
	}

	b := builder{children: children, maxDepth: maxDepth}
	tree := Tree{
		MemberCard:    root,
		Subordinates:  b.subordinates(root.ID, 0),
		WithoutParent: make([]*Node, 0, len(orphans)),
	}
	for _, o := range orphans {
		tree.WithoutParent = append(tree.WithoutParent, b.node(o, 0))
	}
	return tree
}

type builder struct {
	children map[int64][]teammodels.MemberCard
	maxDepth int
}

func (b builder) node(m teammodels.MemberCard, depth int) *Node {
	return &Node{MemberCard: m, Subordinates: b.subordinates(m.ID, depth)}
}

func (b builder) subordinates(id int64, depth int) []*Node {
	out := []*Node{}
	if depth+1 >= b.maxDepth {
		return out
	}
	for _, child := range b.children[id] {
		out = append(out, b.node(child, depth+1))
	}
	return out
}
