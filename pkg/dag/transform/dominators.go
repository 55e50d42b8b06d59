package transform

import (
	"context"
	"errors"
	"slices"

	"github.com/matzehuels/domsplit/pkg/dag"
)

// ErrUnknownEntry is returned when the entry node passed to
// [ImmediateDominators] is not a live node.
var ErrUnknownEntry = errors.New("unknown dominator entry node")

// contextCheckInterval is how many nodes are processed between cancellation
// checks.
const contextCheckInterval = 256

// ReversePostOrder returns the nodes reachable from entry in reverse
// depth-first postorder over edges of type typ.
func ReversePostOrder[T, W any](g *dag.Graph[T, W], entry dag.NodeID, typ dag.EdgeType) []dag.NodeID {
	order := g.PostOrder(entry, typ)
	slices.Reverse(order)
	return order
}

// ImmediateDominators computes the immediate dominator of every node
// reachable from entry, using the iterative algorithm of Cooper, Harvey and
// Kennedy ("A Simple, Fast Dominance Algorithm", 2001).
//
// The result is indexed by NodeID and has length g.IDLimit(). The entry and
// every node unreachable from it map to [dag.NoNode].
//
// Complexity is O(E) for typical graphs and O(V²) in the worst case.
// The context is checked periodically and its error returned on cancellation.
func ImmediateDominators[T, W any](ctx context.Context, g *dag.Graph[T, W], entry dag.NodeID, typ dag.EdgeType) ([]dag.NodeID, error) {
	if !g.HasNode(entry) {
		return nil, ErrUnknownEntry
	}

	rpo := ReversePostOrder(g, entry, typ)
	order := make([]int, g.IDLimit())
	idom := make([]dag.NodeID, g.IDLimit())
	for i := range idom {
		idom[i] = dag.NoNode
		order[i] = -1
	}
	for i, id := range rpo {
		order[id] = i
	}
	idom[entry] = entry

	intersect := func(a, b dag.NodeID) dag.NodeID {
		for a != b {
			for order[a] > order[b] {
				a = idom[a]
			}
			for order[b] > order[a] {
				b = idom[b]
			}
		}
		return a
	}

	for changed := true; changed; {
		changed = false
		for i, id := range rpo[1:] {
			if i%contextCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			newIdom := dag.NoNode
			for _, p := range g.NodesConnectedTo(id, typ) {
				if order[p] < 0 || idom[p] == dag.NoNode {
					continue
				}
				if newIdom == dag.NoNode {
					newIdom = p
				} else {
					newIdom = intersect(p, newIdom)
				}
			}
			if newIdom != idom[id] {
				idom[id] = newIdom
				changed = true
			}
		}
	}

	idom[entry] = dag.NoNode
	return idom, nil
}

// Dominates reports whether a dominates b given an immediate dominator table
// produced by [ImmediateDominators]. Every node dominates itself.
func Dominates(idom []dag.NodeID, a, b dag.NodeID) bool {
	for n := b; n != dag.NoNode; n = idom[n] {
		if n == a {
			return true
		}
	}
	return false
}
