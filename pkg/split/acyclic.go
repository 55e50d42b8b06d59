package split

import (
	"slices"

	"github.com/matzehuels/domsplit/pkg/dag"
	"github.com/matzehuels/domsplit/pkg/dag/transform"
)

// Acyclic returns a copy of g in which every strongly connected component
// with more than one node is collapsed into a single KindSCC node. It also
// returns how many components were collapsed.
//
// Members are re-added under their original content keys as children of the
// component node, so their assets stay addressable. Edges touching a member
// are redirected to the component; edges inside a component are dropped.
// Edge types and weights carry over. Nodes outside any cycle, including the
// root, keep their content keys; the root is always the first node copied.
func Acyclic(g *Graph) (*Graph, int, error) {
	var cycles [][]dag.NodeID
	inCycle := make(map[dag.NodeID]bool)
	for _, c := range transform.StronglyConnectedComponents(g, dag.AllEdgeTypes) {
		if len(c) < 2 {
			continue
		}
		c = slices.Sorted(slices.Values(c))
		cycles = append(cycles, c)
		for _, id := range c {
			inCycle[id] = true
		}
	}
	slices.SortFunc(cycles, func(a, b []dag.NodeID) int { return int(a[0] - b[0]) })

	out := newGraph()
	idMap := make(map[dag.NodeID]dag.NodeID, g.NodeCount())

	ids := g.NodeIDs()
	if root := g.Root(); root != dag.NoNode {
		ids = append([]dag.NodeID{root}, slices.DeleteFunc(ids, func(id dag.NodeID) bool { return id == root })...)
	}
	for _, id := range ids {
		if inCycle[id] {
			continue
		}
		n, _ := g.Node(id)
		newID, err := out.AddNodeByContentKey(keyOf(g, id), n)
		if err != nil {
			return nil, 0, invariant(err, "copy node %s", n)
		}
		idMap[id] = newID
	}
	if root := g.Root(); root != dag.NoNode {
		_ = out.SetRoot(idMap[root])
	}

	for _, members := range cycles {
		keys := make([]string, len(members))
		values := make([]Node, len(members))
		for i, id := range members {
			keys[i] = keyOf(g, id)
			values[i], _ = g.Node(id)
		}
		scc := Node{
			Kind:      KindSCC,
			ID:        SCCKey(keys),
			MemberIDs: members,
			Members:   values,
		}
		sccID := out.AddNodeByContentKeyIfNeeded(scc.ID, scc)
		for i, id := range members {
			memberID, err := out.AddNodeByContentKey(keys[i], values[i])
			if err != nil {
				return nil, 0, invariant(err, "re-add member %q of %s", keys[i], scc.ID)
			}
			if err := out.AddEdge(sccID, memberID, EdgeContains); err != nil {
				return nil, 0, invariant(err, "attach member %q", keys[i])
			}
			idMap[id] = sccID
		}
	}

	for _, e := range g.Edges() {
		from, to := idMap[e.From], idMap[e.To]
		if from == to {
			continue
		}
		if err := out.AddEdge(from, to, e.Type); err != nil {
			return nil, 0, invariant(err, "redirect edge %d -> %d", e.From, e.To)
		}
		if w, ok := g.EdgeWeight(e.From, e.To); ok {
			_ = out.SetEdgeWeight(from, to, w)
		}
	}
	return out, len(cycles), nil
}
