package split

import (
	"context"

	"github.com/matzehuels/domsplit/pkg/dag"
	"github.com/matzehuels/domsplit/pkg/dag/transform"
)

// DominatorTree builds the immediate-dominator tree of an acyclic rooted
// graph. The tree holds the root and every node reachable from it under the
// same content keys, with one EdgeContains edge from each node's immediate
// dominator to the node. Edges out of the root keep the weight of the
// corresponding root edge in g. Unreachable nodes are left out.
//
// The raw dominator table, indexed by NodeIDs of g, is returned as well.
func DominatorTree(ctx context.Context, g *Graph) (*Graph, []dag.NodeID, error) {
	root := g.Root()
	if root == dag.NoNode {
		return nil, nil, invariant(dag.ErrMissingRoot, "dominator tree")
	}
	idom, err := transform.ImmediateDominators(ctx, g, root, dag.AllEdgeTypes)
	if err != nil {
		return nil, nil, err
	}

	tree := newGraph()
	treeID := make(map[dag.NodeID]dag.NodeID)
	rootNode, _ := g.Node(root)
	treeRoot, _ := tree.AddNodeByContentKey(keyOf(g, root), rootNode)
	_ = tree.SetRoot(treeRoot)
	treeID[root] = treeRoot

	var reachable []dag.NodeID
	for _, id := range g.NodeIDs() {
		if id == root || idom[id] == dag.NoNode {
			continue
		}
		n, _ := g.Node(id)
		tid, err := tree.AddNodeByContentKey(keyOf(g, id), n)
		if err != nil {
			return nil, nil, invariant(err, "add %s to dominator tree", n)
		}
		treeID[id] = tid
		reachable = append(reachable, id)
	}

	for _, id := range reachable {
		parent := idom[id]
		if parent == root {
			if w, ok := g.EdgeWeight(root, id); ok {
				err = tree.AddWeightedEdge(treeRoot, treeID[id], EdgeContains, w)
			} else {
				err = tree.AddEdge(treeRoot, treeID[id], EdgeContains)
			}
		} else {
			err = tree.AddEdge(treeID[parent], treeID[id], EdgeContains)
		}
		if err != nil {
			return nil, nil, invariant(err, "dominator edge to %s", keyOf(g, id))
		}
	}
	return tree, idom, nil
}
