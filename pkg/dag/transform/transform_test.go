package transform

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/matzehuels/domsplit/pkg/dag"
)

func build(n int, edges [][2]int) (*dag.Graph[int, struct{}], []dag.NodeID) {
	g := dag.New[int, struct{}]()
	ids := make([]dag.NodeID, n)
	for i := range n {
		ids[i] = g.AddNode(i)
	}
	for _, e := range edges {
		_ = g.AddEdge(ids[e[0]], ids[e[1]], dag.DefaultEdgeType)
	}
	_ = g.SetRoot(ids[0])
	return g, ids
}

func sortedComponents(comps [][]dag.NodeID) [][]dag.NodeID {
	out := make([][]dag.NodeID, len(comps))
	for i, c := range comps {
		out[i] = slices.Sorted(slices.Values(c))
	}
	return out
}

func TestStronglyConnectedComponents_NoCycles(t *testing.T) {
	g, _ := build(3, [][2]int{{0, 1}, {1, 2}})
	comps := StronglyConnectedComponents(g, dag.AllEdgeTypes)
	if len(comps) != 3 {
		t.Fatalf("StronglyConnectedComponents() returned %d components, want 3", len(comps))
	}
	// Reverse topological order: sink first.
	if comps[0][0] != 2 || comps[2][0] != 0 {
		t.Errorf("StronglyConnectedComponents() = %v, want [[2] [1] [0]]", comps)
	}
}

func TestStronglyConnectedComponents_Cycles(t *testing.T) {
	// 0 → 1 ⇄ 2, 2 → 3 → 4 → 3
	g, _ := build(5, [][2]int{{0, 1}, {1, 2}, {2, 1}, {2, 3}, {3, 4}, {4, 3}})
	got := sortedComponents(StronglyConnectedComponents(g, dag.AllEdgeTypes))
	want := [][]dag.NodeID{{3, 4}, {1, 2}, {0}}
	if len(got) != len(want) {
		t.Fatalf("StronglyConnectedComponents() = %v, want %v", got, want)
	}
	for i := range want {
		if !slices.Equal(got[i], want[i]) {
			t.Errorf("component %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStronglyConnectedComponents_SkipsTombstones(t *testing.T) {
	g, ids := build(3, [][2]int{{0, 1}, {1, 2}, {2, 1}})
	_ = g.RemoveNode(ids[2], false)
	comps := StronglyConnectedComponents(g, dag.AllEdgeTypes)
	if len(comps) != 2 {
		t.Errorf("StronglyConnectedComponents() returned %d components, want 2", len(comps))
	}
}

func TestStronglyConnectedComponents_DeepChain(t *testing.T) {
	const n = 50000
	edges := make([][2]int, 0, n)
	for i := 1; i < n; i++ {
		edges = append(edges, [2]int{i - 1, i})
	}
	edges = append(edges, [2]int{n - 1, 0})
	g, _ := build(n, edges)
	comps := StronglyConnectedComponents(g, dag.AllEdgeTypes)
	if len(comps) != 1 || len(comps[0]) != n {
		t.Errorf("StronglyConnectedComponents() returned %d components, want 1 of size %d", len(comps), n)
	}
}

func TestImmediateDominators(t *testing.T) {
	// Classic diamond with a tail and an unreachable node:
	//   0 → 1 → 3 → 4
	//   0 → 2 → 3
	//   5 → 4
	g, ids := build(6, [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}, {3, 4}, {5, 4}})
	idom, err := ImmediateDominators(context.Background(), g, ids[0], dag.AllEdgeTypes)
	if err != nil {
		t.Fatalf("ImmediateDominators() error = %v", err)
	}
	want := []dag.NodeID{dag.NoNode, 0, 0, 0, 3, dag.NoNode}
	if !slices.Equal(idom, want) {
		t.Errorf("ImmediateDominators() = %v, want %v", idom, want)
	}
	if !Dominates(idom, ids[3], ids[4]) {
		t.Error("Dominates(3, 4) = false, want true")
	}
	if Dominates(idom, ids[1], ids[3]) {
		t.Error("Dominates(1, 3) = true, want false")
	}
	if !Dominates(idom, ids[0], ids[4]) {
		t.Error("Dominates(0, 4) = false, want true")
	}
}

func TestImmediateDominators_Loop(t *testing.T) {
	// 0 → 1 → 2 → 1, 2 → 3
	g, ids := build(4, [][2]int{{0, 1}, {1, 2}, {2, 1}, {2, 3}})
	idom, err := ImmediateDominators(context.Background(), g, ids[0], dag.AllEdgeTypes)
	if err != nil {
		t.Fatalf("ImmediateDominators() error = %v", err)
	}
	want := []dag.NodeID{dag.NoNode, 0, 1, 2}
	if !slices.Equal(idom, want) {
		t.Errorf("ImmediateDominators() = %v, want %v", idom, want)
	}
}

func TestImmediateDominators_Errors(t *testing.T) {
	g, ids := build(2, [][2]int{{0, 1}})
	if _, err := ImmediateDominators(context.Background(), g, 42, dag.AllEdgeTypes); !errors.Is(err, ErrUnknownEntry) {
		t.Errorf("ImmediateDominators() error = %v, want %v", err, ErrUnknownEntry)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ImmediateDominators(ctx, g, ids[0], dag.AllEdgeTypes); !errors.Is(err, context.Canceled) {
		t.Errorf("ImmediateDominators() error = %v, want %v", err, context.Canceled)
	}
}

func TestReversePostOrder(t *testing.T) {
	g, ids := build(4, [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}})
	got := ReversePostOrder(g, ids[0], dag.AllEdgeTypes)
	want := []dag.NodeID{0, 2, 1, 3}
	if !slices.Equal(got, want) {
		t.Errorf("ReversePostOrder() = %v, want %v", got, want)
	}
}
