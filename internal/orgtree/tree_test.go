package orgtree

import (
	"testing"

	"github.com/stretchr/testify/require"

	teammodels "github.com/nikhil/orgchart/internal/models/teams"
)

func ptr(id int64) *int64 { return &id }

func card(id int64, parent *int64) teammodels.MemberCard {
	return teammodels.MemberCard{ID: id, ParentID: parent, UserID: id * 10}
}

func ids(nodes []*Node) []int64 {
	out := make([]int64, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestBuildScenario(t *testing.T) {
	a := card(1, nil)
	b := card(2, ptr(1))
	c := card(3, ptr(2))
	d := card(4, nil)

	tree := Build([]teammodels.MemberCard{a, b, c, d}, a, 6)

	require.Equal(t, int64(1), tree.ID)
	require.Equal(t, []int64{2}, ids(tree.Subordinates))
	require.Equal(t, []int64{3}, ids(tree.Subordinates[0].Subordinates))
	require.Empty(t, tree.Subordinates[0].Subordinates[0].Subordinates)
	require.NotNil(t, tree.Subordinates[0].Subordinates[0].Subordinates)
	require.Equal(t, []int64{4}, ids(tree.WithoutParent))
	require.Empty(t, tree.WithoutParent[0].Subordinates)
}

func chain(n int) []teammodels.MemberCard {
	members := []teammodels.MemberCard{card(1, nil)}
	for i := int64(2); i <= int64(n); i++ {
		members = append(members, card(i, ptr(i-1)))
	}
	return members
}

func maxHops(nodes []*Node) int {
	deepest := 0
	for _, n := range nodes {
		if d := 1 + maxHops(n.Subordinates); d > deepest {
			deepest = d
		}
	}
	return deepest
}

func TestBuildRespectsDepthBound(t *testing.T) {
	members := chain(10)
	for k := 1; k <= 6; k++ {
		tree := Build(members, members[0], k)
		require.Equal(t, k-1, maxHops(tree.Subordinates), "maxDepth=%d", k)
	}
}

func TestBuildClampsNonPositiveDepth(t *testing.T) {
	members := chain(3)
	tree := Build(members, members[0], 0)
	require.Empty(t, tree.Subordinates)
}

func TestBuildOrphansAppearExactlyOnce(t *testing.T) {
	root := card(1, nil)
	members := []teammodels.MemberCard{
		root,
		card(2, ptr(1)),
		card(3, nil),
		card(4, ptr(99)), // parent outside the team
		card(5, ptr(3)),
		card(6, ptr(4)),
		card(7, ptr(2)),
	}

	tree := Build(members, root, 100)

	counts := map[int64]int{}
	var walk func([]*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			counts[n.ID]++
			walk(n.Subordinates)
		}
	}
	walk(tree.Subordinates)
	walk(tree.WithoutParent)

	require.Equal(t, []int64{3, 4}, ids(tree.WithoutParent))
	for _, m := range members[1:] {
		require.Equal(t, 1, counts[m.ID], "member %d", m.ID)
	}
	require.Zero(t, counts[root.ID])
}

func TestBuildRootIsNeverAnOrphan(t *testing.T) {
	root := card(1, ptr(42))
	tree := Build([]teammodels.MemberCard{root, card(2, ptr(1))}, root, 6)

	require.Empty(t, tree.WithoutParent)
	require.Equal(t, []int64{2}, ids(tree.Subordinates))
}

func TestBuildTerminatesOnCorruptedCycle(t *testing.T) {
	root := card(1, ptr(3))
	members := []teammodels.MemberCard{
		root,
		card(2, ptr(1)),
		card(3, ptr(2)),
		card(4, ptr(5)),
		card(5, ptr(4)),
		card(6, ptr(6)),
	}

	tree := Build(members, root, 6)

	require.Equal(t, []int64{2}, ids(tree.Subordinates))
	require.Equal(t, []int64{3}, ids(tree.Subordinates[0].Subordinates))
	require.Empty(t, tree.Subordinates[0].Subordinates[0].Subordinates)
	require.Empty(t, tree.WithoutParent)
}

func TestBuildIsIdempotent(t *testing.T) {
	members := append(chain(5), card(20, nil), card(21, ptr(20)), card(22, ptr(1)))

	first := Build(members, members[0], 4)
	second := Build(members, members[0], 4)

	require.Equal(t, first, second)
}

func TestBuildKeepsInputOrder(t *testing.T) {
	root := card(1, nil)
	members := []teammodels.MemberCard{root, card(5, ptr(1)), card(3, ptr(1)), card(4, ptr(1))}

	tree := Build(members, root, 2)

	require.Equal(t, []int64{5, 3, 4}, ids(tree.Subordinates))
}

func TestClampDepth(t *testing.T) {
	cases := map[string]int{
		"":    6,
		"abc": 6,
		"0":   1,
		"-3":  1,
		"1":   1,
		"4":   4,
		"6":   6,
		"60":  6,
		"2.5": 6,
	}
	for raw, want := range cases {
		require.Equal(t, want, ClampDepth(raw, 6), "raw=%q", raw)
	}
}
