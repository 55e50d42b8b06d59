// Package dag provides an arena-backed directed graph used by the splitting
// pipeline.
//
// # Overview
//
// Nodes live in a dense arena and are addressed by [NodeID]. IDs are never
// reused: removing a node leaves a tombstone so that IDs held by callers
// (and by clones of the graph) stay meaningful. Nodes may additionally be
// bound to a content key, a string that identifies the node independently
// of insertion order:
//
//	g := dag.New[string, int]()
//	root := g.AddNode("root")
//	_ = g.SetRoot(root)
//	a, _ := g.AddNodeByContentKey("a.js", "a.js")
//	_ = g.AddWeightedEdge(root, a, dag.DefaultEdgeType, 42)
//
// # Edges and Weights
//
// Edges carry an [EdgeType]. Queries and traversals accept a concrete type or
// [AllEdgeTypes]. Weights are stored out of band, one per ordered node pair
// ([EdgeKey]), so several typed edges between the same pair share a weight.
//
// # Orphans
//
// [Graph.RemoveEdge] and [Graph.RemoveNode] can optionally remove nodes that
// were cut off by the edit. With a root set, a node is orphaned when the root
// is no longer reachable by walking incoming edges; the cascade proceeds
// through descendants on an explicit worklist.
//
// # Traversal
//
// [Graph.DFS] is iterative and drives a [Visitor] with Enter/Exit callbacks.
// Enter can prune a subtree with [SkipChildren] or end the walk with [Stop].
//
// # Concurrency
//
// Graph instances are not safe for concurrent use. [Graph.Clone] produces an
// independent copy that can be handed to another goroutine.
//
// The [transform] subpackage provides strongly connected components and
// immediate dominators on top of this structure.
//
// [transform]: github.com/matzehuels/domsplit/pkg/dag/transform
package dag
