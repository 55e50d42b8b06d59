package split

import (
	"slices"

	"github.com/matzehuels/domsplit/pkg/assetgraph"
	"github.com/matzehuels/domsplit/pkg/dag"
	"github.com/matzehuels/domsplit/pkg/errors"
)

// RootedGraph reduces bg to one node per asset plus a synthetic root. An
// entry or async dependency becomes an edge from the root; a synchronous
// dependency becomes an edge from the asset that declares it. Every edge
// carries its dependency as weight.
//
// The returned order lists asset IDs in reverse postorder of the traversal.
func RootedGraph(bg assetgraph.BundleGraph) (*Graph, []string, error) {
	g := newRootedGraph()
	root := g.Root()

	var postorder []string
	var addErr error
	bg.Traverse(assetgraph.Visitor{
		Enter: func(a *assetgraph.Asset) {
			if addErr != nil {
				return
			}
			if _, err := g.AddNodeByContentKey(a.ID, AssetNode(a)); err != nil {
				addErr = invariant(err, "add asset %q", a.ID)
			}
		},
		Exit: func(a *assetgraph.Asset) {
			postorder = append(postorder, a.ID)
		},
	})
	if addErr != nil {
		return nil, nil, addErr
	}

	order := slices.Clone(postorder)
	slices.Reverse(order)

	for _, id := range order {
		asset, ok := bg.AssetByID(id)
		if !ok {
			return nil, nil, errors.New(errors.ErrCodeInvariant, "traversed unknown asset %q", id)
		}
		to, err := g.NodeIDByContentKey(id)
		if err != nil {
			return nil, nil, invariant(err, "asset %q", id)
		}
		for _, dep := range bg.IncomingDependencies(asset) {
			if dep.IsBoundary() {
				if err := g.AddWeightedEdge(root, to, EdgeBoundary, dep); err != nil {
					return nil, nil, invariant(err, "root edge to %q", id)
				}
				continue
			}
			parent := bg.AssetWithDependency(dep)
			if parent == nil {
				return nil, nil, errors.New(errors.ErrCodeInvariant, "non entry dependency had no asset: %q", dep.ID)
			}
			from, err := g.NodeIDByContentKey(parent.ID)
			if err != nil {
				// The declaring asset is not reachable from any entry.
				continue
			}
			if err := g.AddWeightedEdge(from, to, EdgeDependency, dep); err != nil {
				return nil, nil, invariant(err, "edge %q -> %q", parent.ID, id)
			}
		}
	}
	return g, order, nil
}

func newRootedGraph() *Graph {
	g := newGraph()
	root, _ := g.AddNodeByContentKey(RootKey, RootNode())
	_ = g.SetRoot(root)
	return g
}

func newGraph() *Graph {
	return dag.New[Node, *assetgraph.Dependency]()
}
