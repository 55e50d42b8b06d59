package dag

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrDuplicateContentKey is returned by [Graph.AddNodeByContentKey] when
	// the key is already bound to a live node. The graph is left untouched.
	ErrDuplicateContentKey = errors.New("duplicate content key")

	// ErrUnknownContentKey is returned by [Graph.NodeIDByContentKey] when no
	// live node carries the key.
	ErrUnknownContentKey = errors.New("unknown content key")

	// ErrUnknownNode is returned when a node ID does not refer to a live node,
	// either because it was never allocated or because it was removed.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrUnknownEdge is returned by [Graph.RemoveEdge] when no edge of the
	// requested type connects the two nodes.
	ErrUnknownEdge = errors.New("unknown edge")

	// ErrInvalidEdgeType is returned when an edge is added with a type that
	// is not a concrete edge type (for example [AllEdgeTypes]).
	ErrInvalidEdgeType = errors.New("invalid edge type")

	// ErrMissingRoot is returned by [Graph.Validate] when no root is set or
	// the root was removed.
	ErrMissingRoot = errors.New("graph has no root")

	// ErrDanglingEdge is returned by [Graph.Validate] when an edge references
	// a removed node. This indicates graph corruption.
	ErrDanglingEdge = errors.New("edge references removed node")
)

// NodeID is a dense index into a graph's node arena. IDs are stable for the
// lifetime of a graph and are never renumbered or reused, even after removal.
// IDs are only meaningful for the graph that allocated them and its clones.
type NodeID int

// NoNode is the sentinel for "no node", e.g. the root of a graph without one.
const NoNode NodeID = -1

// EdgeType tags an edge. Concrete types are positive.
type EdgeType int

const (
	// AllEdgeTypes matches every edge type in queries and traversals.
	AllEdgeTypes EdgeType = -1

	// DefaultEdgeType is the structural edge type used when callers do not
	// distinguish between kinds of edges.
	DefaultEdgeType EdgeType = 1
)

func (t EdgeType) matches(other EdgeType) bool {
	return t == AllEdgeTypes || t == other
}

// EdgeKey identifies the ordered node pair an edge weight belongs to.
type EdgeKey struct {
	From NodeID
	To   NodeID
}

// Edge is a typed, directed connection between two nodes.
type Edge struct {
	From NodeID
	To   NodeID
	Type EdgeType
}

type adjacent struct {
	id  NodeID
	typ EdgeType
}

// Graph is a directed graph stored as an arena of node values of type T.
// Nodes may optionally be addressed by a content key, a string that stays
// valid regardless of insertion order. Edges are typed; an optional weight of
// type W is kept in a side table keyed by [EdgeKey], not on the edge itself.
//
// Removing a node leaves a tombstone in its slot so that every other NodeID
// stays valid. The zero value is not usable - use New.
// Graph is not safe for concurrent use without external synchronization.
type Graph[T, W any] struct {
	values  []T
	alive   []bool
	keys    map[string]NodeID
	keyOf   map[NodeID]string
	out     [][]adjacent
	in      [][]adjacent
	weights map[EdgeKey]W
	root    NodeID
	live    int
	edges   int
}

// New creates an empty graph without a root.
func New[T, W any]() *Graph[T, W] {
	return &Graph[T, W]{
		keys:    make(map[string]NodeID),
		keyOf:   make(map[NodeID]string),
		weights: make(map[EdgeKey]W),
		root:    NoNode,
	}
}

// AddNode appends a node without a content key and returns its ID.
func (g *Graph[T, W]) AddNode(v T) NodeID {
	id := NodeID(len(g.values))
	g.values = append(g.values, v)
	g.alive = append(g.alive, true)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	g.live++
	return id
}

// AddNodeByContentKey adds a node addressable by key. It returns
// ErrDuplicateContentKey, without mutating the graph, if the key is taken.
func (g *Graph[T, W]) AddNodeByContentKey(key string, v T) (NodeID, error) {
	if _, exists := g.keys[key]; exists {
		return NoNode, ErrDuplicateContentKey
	}
	id := g.AddNode(v)
	g.keys[key] = id
	g.keyOf[id] = key
	return id, nil
}

// AddNodeByContentKeyIfNeeded returns the node bound to key, adding v under
// that key first if no such node exists.
func (g *Graph[T, W]) AddNodeByContentKeyIfNeeded(key string, v T) NodeID {
	if id, ok := g.keys[key]; ok {
		return id
	}
	id, _ := g.AddNodeByContentKey(key, v)
	return id
}

// NodeIDByContentKey looks up the node bound to key.
func (g *Graph[T, W]) NodeIDByContentKey(key string) (NodeID, error) {
	id, ok := g.keys[key]
	if !ok {
		return NoNode, ErrUnknownContentKey
	}
	return id, nil
}

// HasContentKey reports whether a live node is bound to key.
func (g *Graph[T, W]) HasContentKey(key string) bool {
	_, ok := g.keys[key]
	return ok
}

// ContentKey returns the content key of a node, if it has one.
func (g *Graph[T, W]) ContentKey(id NodeID) (string, bool) {
	k, ok := g.keyOf[id]
	return k, ok
}

// HasNode reports whether id refers to a live node.
func (g *Graph[T, W]) HasNode(id NodeID) bool {
	return id >= 0 && int(id) < len(g.alive) && g.alive[id]
}

// Node returns the value stored at id. The second result is false for
// unallocated or removed IDs.
func (g *Graph[T, W]) Node(id NodeID) (T, bool) {
	if !g.HasNode(id) {
		var zero T
		return zero, false
	}
	return g.values[id], true
}

// UpdateNode replaces the value stored at id.
func (g *Graph[T, W]) UpdateNode(id NodeID, v T) error {
	if !g.HasNode(id) {
		return ErrUnknownNode
	}
	g.values[id] = v
	return nil
}

// SetRoot designates id as the graph root.
func (g *Graph[T, W]) SetRoot(id NodeID) error {
	if !g.HasNode(id) {
		return ErrUnknownNode
	}
	g.root = id
	return nil
}

// Root returns the root node ID, or NoNode if none is set.
func (g *Graph[T, W]) Root() NodeID { return g.root }

// AddEdge adds a typed edge. Adding an edge that already exists with the
// same type is a no-op.
func (g *Graph[T, W]) AddEdge(from, to NodeID, typ EdgeType) error {
	if typ <= 0 {
		return ErrInvalidEdgeType
	}
	if !g.HasNode(from) {
		return ErrUnknownSourceNode
	}
	if !g.HasNode(to) {
		return ErrUnknownTargetNode
	}
	if g.HasEdge(from, to, typ) {
		return nil
	}
	g.out[from] = append(g.out[from], adjacent{id: to, typ: typ})
	g.in[to] = append(g.in[to], adjacent{id: from, typ: typ})
	g.edges++
	return nil
}

// AddWeightedEdge adds a typed edge and records w as the weight of the pair.
func (g *Graph[T, W]) AddWeightedEdge(from, to NodeID, typ EdgeType, w W) error {
	if err := g.AddEdge(from, to, typ); err != nil {
		return err
	}
	g.weights[EdgeKey{From: from, To: to}] = w
	return nil
}

// EdgeWeight returns the weight recorded for the from→to pair.
func (g *Graph[T, W]) EdgeWeight(from, to NodeID) (W, bool) {
	w, ok := g.weights[EdgeKey{From: from, To: to}]
	return w, ok
}

// SetEdgeWeight records w for the from→to pair. At least one edge must
// connect the pair.
func (g *Graph[T, W]) SetEdgeWeight(from, to NodeID, w W) error {
	if !g.HasEdge(from, to, AllEdgeTypes) {
		return ErrUnknownEdge
	}
	g.weights[EdgeKey{From: from, To: to}] = w
	return nil
}

// HasEdge reports whether an edge of the given type (or any type, for
// AllEdgeTypes) connects from to to.
func (g *Graph[T, W]) HasEdge(from, to NodeID, typ EdgeType) bool {
	if !g.HasNode(from) {
		return false
	}
	for _, a := range g.out[from] {
		if a.id == to && typ.matches(a.typ) {
			return true
		}
	}
	return false
}

// RemoveEdge removes the edge from→to of the given type; AllEdgeTypes
// removes every edge between the pair. When removeOrphans is true and to is
// left orphaned (see [Graph.IsOrphaned]), to is removed as well, cascading
// to its own orphaned descendants.
func (g *Graph[T, W]) RemoveEdge(from, to NodeID, typ EdgeType, removeOrphans bool) error {
	if !g.HasEdge(from, to, typ) {
		return ErrUnknownEdge
	}
	g.unlink(from, to, typ)
	if removeOrphans && to != g.root && g.IsOrphaned(to) {
		return g.RemoveNode(to, true)
	}
	return nil
}

func (g *Graph[T, W]) unlink(from, to NodeID, typ EdgeType) {
	before := len(g.out[from])
	g.out[from] = slices.DeleteFunc(g.out[from], func(a adjacent) bool {
		return a.id == to && typ.matches(a.typ)
	})
	g.in[to] = slices.DeleteFunc(g.in[to], func(a adjacent) bool {
		return a.id == from && typ.matches(a.typ)
	})
	g.edges -= before - len(g.out[from])
	if !g.HasEdge(from, to, AllEdgeTypes) {
		delete(g.weights, EdgeKey{From: from, To: to})
	}
}

// IsOrphaned reports whether a live node has been cut off. With a root set,
// a node is orphaned when the root cannot be reached by walking incoming
// edges; without one, when it has no incoming edges. The root itself is
// never orphaned.
func (g *Graph[T, W]) IsOrphaned(id NodeID) bool {
	if !g.HasNode(id) || id == g.root {
		return false
	}
	if g.root == NoNode {
		return len(g.in[id]) == 0
	}
	seen := map[NodeID]bool{id: true}
	queue := []NodeID{id}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, a := range g.in[n] {
			if a.id == g.root {
				return false
			}
			if !seen[a.id] {
				seen[a.id] = true
				queue = append(queue, a.id)
			}
		}
	}
	return true
}

// RemoveNode detaches every edge of id and tombstones its slot. The content
// key is released and weights touching the node are dropped. When
// removeOrphans is true, children left orphaned are removed too; the cascade
// runs on an explicit worklist so deep chains cannot exhaust the stack.
func (g *Graph[T, W]) RemoveNode(id NodeID, removeOrphans bool) error {
	if !g.HasNode(id) {
		return ErrUnknownNode
	}
	pending := []NodeID{id}
	for len(pending) > 0 {
		n := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if !g.HasNode(n) {
			continue
		}
		children := g.detach(n)
		g.tombstone(n)
		if !removeOrphans {
			continue
		}
		for _, c := range children {
			if g.IsOrphaned(c) {
				pending = append(pending, c)
			}
		}
	}
	return nil
}

// detach removes all edges touching n and returns its distinct former children.
func (g *Graph[T, W]) detach(n NodeID) []NodeID {
	for _, a := range slices.Clone(g.in[n]) {
		g.unlink(a.id, n, a.typ)
	}
	var children []NodeID
	for _, a := range slices.Clone(g.out[n]) {
		g.unlink(n, a.id, a.typ)
		if !slices.Contains(children, a.id) {
			children = append(children, a.id)
		}
	}
	return children
}

func (g *Graph[T, W]) tombstone(n NodeID) {
	var zero T
	g.values[n] = zero
	g.alive[n] = false
	g.out[n] = nil
	g.in[n] = nil
	if key, ok := g.keyOf[n]; ok {
		delete(g.keys, key)
		delete(g.keyOf, n)
	}
	if n == g.root {
		g.root = NoNode
	}
	g.live--
}

// NodesConnectedFrom returns the targets of edges leaving id, in insertion
// order, without duplicates.
func (g *Graph[T, W]) NodesConnectedFrom(id NodeID, typ EdgeType) []NodeID {
	if !g.HasNode(id) {
		return nil
	}
	return collect(g.out[id], typ)
}

// NodesConnectedTo returns the sources of edges entering id, in insertion
// order, without duplicates.
func (g *Graph[T, W]) NodesConnectedTo(id NodeID, typ EdgeType) []NodeID {
	if !g.HasNode(id) {
		return nil
	}
	return collect(g.in[id], typ)
}

func collect(list []adjacent, typ EdgeType) []NodeID {
	var ids []NodeID
	for _, a := range list {
		if typ.matches(a.typ) && !slices.Contains(ids, a.id) {
			ids = append(ids, a.id)
		}
	}
	return ids
}

// NodeIDs returns the IDs of all live nodes in ascending order.
func (g *Graph[T, W]) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, g.live)
	for i, ok := range g.alive {
		if ok {
			ids = append(ids, NodeID(i))
		}
	}
	return ids
}

// Edges returns every edge, ordered by source ID then insertion order.
func (g *Graph[T, W]) Edges() []Edge {
	edges := make([]Edge, 0, g.edges)
	for from, list := range g.out {
		for _, a := range list {
			edges = append(edges, Edge{From: NodeID(from), To: a.id, Type: a.typ})
		}
	}
	return edges
}

// NodeCount returns the number of live nodes.
func (g *Graph[T, W]) NodeCount() int { return g.live }

// EdgeCount returns the number of edges.
func (g *Graph[T, W]) EdgeCount() int { return g.edges }

// IDLimit returns one past the largest NodeID ever allocated. Slices indexed
// by NodeID should have this length.
func (g *Graph[T, W]) IDLimit() int { return len(g.values) }

// ContentKeys returns all content keys in sorted order.
func (g *Graph[T, W]) ContentKeys() []string {
	return slices.Sorted(maps.Keys(g.keys))
}

// Clone returns an independent copy of the graph. Node IDs, tombstones,
// content keys, edges, weights and the root carry over unchanged. Node
// values and weights are copied by assignment.
func (g *Graph[T, W]) Clone() *Graph[T, W] {
	c := &Graph[T, W]{
		values:  slices.Clone(g.values),
		alive:   slices.Clone(g.alive),
		keys:    maps.Clone(g.keys),
		keyOf:   maps.Clone(g.keyOf),
		weights: maps.Clone(g.weights),
		out:     make([][]adjacent, len(g.out)),
		in:      make([][]adjacent, len(g.in)),
		root:    g.root,
		live:    g.live,
		edges:   g.edges,
	}
	for i := range g.out {
		c.out[i] = slices.Clone(g.out[i])
		c.in[i] = slices.Clone(g.in[i])
	}
	return c
}

// Validate checks that a root is set and that no edge references a removed
// node. Use it after a sequence of structural edits.
func (g *Graph[T, W]) Validate() error {
	if !g.HasNode(g.root) {
		return ErrMissingRoot
	}
	for from, list := range g.out {
		for _, a := range list {
			if !g.HasNode(NodeID(from)) || !g.HasNode(a.id) {
				return ErrDanglingEdge
			}
		}
	}
	return nil
}
