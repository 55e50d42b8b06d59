package dag

import (
	"errors"
	"slices"
	"testing"
)

func chain(n int) (*Graph[int, string], []NodeID) {
	g := New[int, string]()
	ids := make([]NodeID, n)
	for i := range n {
		ids[i] = g.AddNode(i)
		if i > 0 {
			_ = g.AddEdge(ids[i-1], ids[i], DefaultEdgeType)
		}
	}
	_ = g.SetRoot(ids[0])
	return g, ids
}

func TestAddNodeByContentKey(t *testing.T) {
	g := New[string, int]()
	id, err := g.AddNodeByContentKey("a", "A")
	if err != nil {
		t.Fatalf("AddNodeByContentKey() error = %v", err)
	}
	if got, _ := g.NodeIDByContentKey("a"); got != id {
		t.Errorf("NodeIDByContentKey() = %d, want %d", got, id)
	}

	if _, err := g.AddNodeByContentKey("a", "other"); !errors.Is(err, ErrDuplicateContentKey) {
		t.Errorf("duplicate AddNodeByContentKey() error = %v, want %v", err, ErrDuplicateContentKey)
	}
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d after rejected insert, want 1", g.NodeCount())
	}
	if v, _ := g.Node(id); v != "A" {
		t.Errorf("Node() = %q, want %q", v, "A")
	}
}

func TestAddNodeByContentKeyIfNeeded(t *testing.T) {
	g := New[string, int]()
	first := g.AddNodeByContentKeyIfNeeded("k", "one")
	second := g.AddNodeByContentKeyIfNeeded("k", "two")
	if first != second {
		t.Errorf("AddNodeByContentKeyIfNeeded() = %d then %d, want same id", first, second)
	}
	if v, _ := g.Node(first); v != "one" {
		t.Errorf("Node() = %q, want %q", v, "one")
	}
}

func TestNodeIDByContentKey_Unknown(t *testing.T) {
	g := New[string, int]()
	if _, err := g.NodeIDByContentKey("missing"); !errors.Is(err, ErrUnknownContentKey) {
		t.Errorf("NodeIDByContentKey() error = %v, want %v", err, ErrUnknownContentKey)
	}
}

func TestAddEdge_Errors(t *testing.T) {
	g := New[int, int]()
	a := g.AddNode(0)

	tests := []struct {
		name     string
		from, to NodeID
		typ      EdgeType
		want     error
	}{
		{"unknown source", 99, a, DefaultEdgeType, ErrUnknownSourceNode},
		{"unknown target", a, 99, DefaultEdgeType, ErrUnknownTargetNode},
		{"all edge types", a, a, AllEdgeTypes, ErrInvalidEdgeType},
		{"zero type", a, a, 0, ErrInvalidEdgeType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.AddEdge(tt.from, tt.to, tt.typ); !errors.Is(err, tt.want) {
				t.Errorf("AddEdge() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAddEdge_Idempotent(t *testing.T) {
	g := New[int, int]()
	a, b := g.AddNode(0), g.AddNode(1)
	_ = g.AddEdge(a, b, DefaultEdgeType)
	_ = g.AddEdge(a, b, DefaultEdgeType)
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	_ = g.AddEdge(a, b, 2)
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d after second type, want 2", g.EdgeCount())
	}
	if got := g.NodesConnectedFrom(a, AllEdgeTypes); !slices.Equal(got, []NodeID{b}) {
		t.Errorf("NodesConnectedFrom() = %v, want [%d]", got, b)
	}
	if got := g.NodesConnectedFrom(a, 3); len(got) != 0 {
		t.Errorf("NodesConnectedFrom(type 3) = %v, want empty", got)
	}
}

func TestEdgeWeight(t *testing.T) {
	g := New[int, string]()
	a, b := g.AddNode(0), g.AddNode(1)
	if err := g.SetEdgeWeight(a, b, "x"); !errors.Is(err, ErrUnknownEdge) {
		t.Errorf("SetEdgeWeight() without edge error = %v, want %v", err, ErrUnknownEdge)
	}
	_ = g.AddWeightedEdge(a, b, DefaultEdgeType, "dep")
	if w, ok := g.EdgeWeight(a, b); !ok || w != "dep" {
		t.Errorf("EdgeWeight() = %q, %v, want %q, true", w, ok, "dep")
	}
	_ = g.RemoveEdge(a, b, DefaultEdgeType, false)
	if _, ok := g.EdgeWeight(a, b); ok {
		t.Error("EdgeWeight() should be gone after RemoveEdge()")
	}
}

func TestRemoveEdge_Unknown(t *testing.T) {
	g := New[int, int]()
	a, b := g.AddNode(0), g.AddNode(1)
	if err := g.RemoveEdge(a, b, DefaultEdgeType, false); !errors.Is(err, ErrUnknownEdge) {
		t.Errorf("RemoveEdge() error = %v, want %v", err, ErrUnknownEdge)
	}
}

func TestRemoveEdge_Orphans(t *testing.T) {
	g, ids := chain(4)
	if err := g.RemoveEdge(ids[1], ids[2], DefaultEdgeType, true); err != nil {
		t.Fatalf("RemoveEdge() error = %v", err)
	}
	for _, id := range ids[2:] {
		if g.HasNode(id) {
			t.Errorf("HasNode(%d) = true, want orphan removed", id)
		}
	}
	if g.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", g.NodeCount())
	}
}

func TestRemoveEdge_KeepsReachable(t *testing.T) {
	// root → a → c, root → b → c: cutting a→c leaves c reachable via b.
	g := New[string, int]()
	root := g.AddNode("root")
	_ = g.SetRoot(root)
	a, b, c := g.AddNode("a"), g.AddNode("b"), g.AddNode("c")
	_ = g.AddEdge(root, a, DefaultEdgeType)
	_ = g.AddEdge(root, b, DefaultEdgeType)
	_ = g.AddEdge(a, c, DefaultEdgeType)
	_ = g.AddEdge(b, c, DefaultEdgeType)

	_ = g.RemoveEdge(a, c, DefaultEdgeType, true)
	if !g.HasNode(c) {
		t.Error("c removed although still reachable through b")
	}
}

func TestRemoveNode_CycleBelowCut(t *testing.T) {
	// root → a → b ⇄ c: removing a must also drop b and c, which only
	// reference each other.
	g := New[string, int]()
	root := g.AddNode("root")
	_ = g.SetRoot(root)
	a, b, c := g.AddNode("a"), g.AddNode("b"), g.AddNode("c")
	_ = g.AddEdge(root, a, DefaultEdgeType)
	_ = g.AddEdge(a, b, DefaultEdgeType)
	_ = g.AddEdge(b, c, DefaultEdgeType)
	_ = g.AddEdge(c, b, DefaultEdgeType)

	_ = g.RemoveNode(a, true)
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", g.NodeCount())
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestRemoveNode_NoOrphanRemoval(t *testing.T) {
	g, ids := chain(3)
	_ = g.RemoveNode(ids[1], false)
	if !g.HasNode(ids[2]) {
		t.Error("child removed although removeOrphans = false")
	}
	if got := g.NodesConnectedTo(ids[2], AllEdgeTypes); len(got) != 0 {
		t.Errorf("NodesConnectedTo() = %v, want none", got)
	}
}

func TestRemoveNode_TombstoneAndKeys(t *testing.T) {
	g := New[string, int]()
	a, _ := g.AddNodeByContentKey("a", "A")
	b := g.AddNode("B")
	_ = g.RemoveNode(a, false)

	if g.HasNode(a) {
		t.Error("HasNode() = true after RemoveNode()")
	}
	if _, ok := g.Node(a); ok {
		t.Error("Node() ok = true after RemoveNode()")
	}
	if g.HasContentKey("a") {
		t.Error("content key still bound after RemoveNode()")
	}
	if v, _ := g.Node(b); v != "B" {
		t.Errorf("Node(b) = %q, want %q; ids must stay stable", v, "B")
	}
	if c := g.AddNode("C"); c == a {
		t.Errorf("AddNode() reused id %d", a)
	}
	if err := g.RemoveNode(a, false); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("second RemoveNode() error = %v, want %v", err, ErrUnknownNode)
	}
}

func TestRemoveNode_DeepChain(t *testing.T) {
	g, ids := chain(100000)
	_ = g.RemoveNode(ids[1], true)
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", g.NodeCount())
	}
}

func TestIsOrphaned_NoRoot(t *testing.T) {
	g := New[int, int]()
	a, b := g.AddNode(0), g.AddNode(1)
	_ = g.AddEdge(a, b, DefaultEdgeType)
	if !g.IsOrphaned(a) {
		t.Error("IsOrphaned(a) = false, want true without incoming edges")
	}
	if g.IsOrphaned(b) {
		t.Error("IsOrphaned(b) = true, want false")
	}
}

func TestClone_Independent(t *testing.T) {
	g, ids := chain(3)
	_ = g.SetEdgeWeight(ids[0], ids[1], "w")
	c := g.Clone()

	_ = c.RemoveNode(ids[2], false)
	_ = c.UpdateNode(ids[0], 42)

	if !g.HasNode(ids[2]) {
		t.Error("RemoveNode() on clone affected original")
	}
	if v, _ := g.Node(ids[0]); v != 0 {
		t.Errorf("original Node() = %d, want 0", v)
	}
	if w, _ := c.EdgeWeight(ids[0], ids[1]); w != "w" {
		t.Errorf("clone EdgeWeight() = %q, want %q", w, "w")
	}
	if c.Root() != g.Root() {
		t.Errorf("clone Root() = %d, want %d", c.Root(), g.Root())
	}
}

func TestValidate(t *testing.T) {
	g := New[int, int]()
	if err := g.Validate(); !errors.Is(err, ErrMissingRoot) {
		t.Errorf("Validate() error = %v, want %v", err, ErrMissingRoot)
	}
	r := g.AddNode(0)
	_ = g.SetRoot(r)
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	_ = g.RemoveNode(r, false)
	if g.Root() != NoNode {
		t.Errorf("Root() = %d after removing root, want NoNode", g.Root())
	}
}

func TestDFS_SkipAndStop(t *testing.T) {
	// a → b → c, a → d
	g := New[string, int]()
	a, b, c, d := g.AddNode("a"), g.AddNode("b"), g.AddNode("c"), g.AddNode("d")
	_ = g.AddEdge(a, b, DefaultEdgeType)
	_ = g.AddEdge(b, c, DefaultEdgeType)
	_ = g.AddEdge(a, d, DefaultEdgeType)

	var entered []NodeID
	g.DFS(a, AllEdgeTypes, Visitor{Enter: func(id NodeID) Action {
		entered = append(entered, id)
		if id == b {
			return SkipChildren
		}
		return Continue
	}})
	if want := []NodeID{a, b, d}; !slices.Equal(entered, want) {
		t.Errorf("DFS() with skip entered %v, want %v", entered, want)
	}

	entered = nil
	var exited []NodeID
	g.DFS(a, AllEdgeTypes, Visitor{
		Enter: func(id NodeID) Action {
			entered = append(entered, id)
			if id == c {
				return Stop
			}
			return Continue
		},
		Exit: func(id NodeID) { exited = append(exited, id) },
	})
	if want := []NodeID{a, b, c}; !slices.Equal(entered, want) {
		t.Errorf("DFS() with stop entered %v, want %v", entered, want)
	}
	if len(exited) != 0 {
		t.Errorf("DFS() with stop exited %v, want none", exited)
	}
}

func TestPostOrder_Diamond(t *testing.T) {
	// a → b → d, a → c → d
	g := New[string, int]()
	a, b, c, d := g.AddNode("a"), g.AddNode("b"), g.AddNode("c"), g.AddNode("d")
	_ = g.AddEdge(a, b, DefaultEdgeType)
	_ = g.AddEdge(a, c, DefaultEdgeType)
	_ = g.AddEdge(b, d, DefaultEdgeType)
	_ = g.AddEdge(c, d, DefaultEdgeType)

	if got, want := g.PostOrder(a, AllEdgeTypes), []NodeID{d, b, c, a}; !slices.Equal(got, want) {
		t.Errorf("PostOrder() = %v, want %v", got, want)
	}
	if got := len(g.Reachable(b, AllEdgeTypes)); got != 2 {
		t.Errorf("len(Reachable(b)) = %d, want 2", got)
	}
}
