package split

import (
	"slices"
	"strings"

	"github.com/matzehuels/domsplit/pkg/assetgraph"
	"github.com/matzehuels/domsplit/pkg/dag"
)

// PackageKeyer derives the grouping key for chunks reached through the given
// sorted set of parent chunk keys. Chunks with equal keys end up in the same
// package. The key [RootKey] means "leave these chunks alone".
type PackageKeyer interface {
	PackageKey(parentChunks []string) string
}

// PackageKeyFunc adapts a function to [PackageKeyer].
type PackageKeyFunc func(parentChunks []string) string

// PackageKey implements PackageKeyer.
func (f PackageKeyFunc) PackageKey(parentChunks []string) string { return f(parentChunks) }

// DefaultPackageKey returns "root" for an empty set and the sorted,
// comma-joined chunk keys otherwise.
func DefaultPackageKey(parentChunks []string) string {
	if len(parentChunks) == 0 {
		return RootKey
	}
	sorted := slices.Clone(parentChunks)
	slices.Sort(sorted)
	return strings.Join(sorted, ",")
}

// DefaultKeyer groups chunks by [DefaultPackageKey].
var DefaultKeyer PackageKeyer = PackageKeyFunc(DefaultPackageKey)

// Chunks returns the direct children of the root, the top-level dominance
// roots of a dominator tree.
func Chunks(g *Graph) []dag.NodeID {
	return g.NodesConnectedFrom(g.Root(), dag.AllEdgeTypes)
}

// Ancestry records the entry chunks through which a chunk is reached.
type Ancestry struct {
	// Chunks are the sorted content keys of the entry chunks.
	Chunks []string
	// Assets are the assets of those entry chunks, grouped by chunk in the
	// order of Chunks. A component entry contributes all of its members.
	Assets []*assetgraph.Asset
}

// EntryPointAncestors walks g forward from every entry point (every child of
// the root) and records, for each reachable node that is one of chunkKeys but
// not itself an entry point, the entry points it was reached from.
//
// g must be the acyclic graph the dominator tree was built from, so that
// content keys agree.
func EntryPointAncestors(g *Graph, chunkKeys map[string]bool) map[string]*Ancestry {
	entries := g.NodesConnectedFrom(g.Root(), dag.AllEdgeTypes)
	isEntry := make(map[dag.NodeID]bool, len(entries))
	for _, e := range entries {
		isEntry[e] = true
	}

	entryAssets := make(map[string][]*assetgraph.Asset, len(entries))
	seen := make(map[string]map[string]bool)
	result := make(map[string]*Ancestry)
	for _, entry := range entries {
		entryKey := keyOf(g, entry)
		entryNode, _ := g.Node(entry)
		entryAssets[entryKey] = entryNode.Assets()
		g.DFS(entry, dag.AllEdgeTypes, dag.Visitor{Enter: func(id dag.NodeID) dag.Action {
			if id == entry || isEntry[id] {
				return dag.Continue
			}
			key := keyOf(g, id)
			if !chunkKeys[key] {
				return dag.Continue
			}
			if seen[key] == nil {
				seen[key] = make(map[string]bool)
				result[key] = &Ancestry{}
			}
			if !seen[key][entryKey] {
				seen[key][entryKey] = true
				result[key].Chunks = append(result[key].Chunks, entryKey)
			}
			return dag.Continue
		}})
	}
	for _, a := range result {
		slices.Sort(a.Chunks)
		for _, c := range a.Chunks {
			a.Assets = append(a.Assets, entryAssets[c]...)
		}
	}
	return result
}

// PackageEvent describes a package node created by [CreatePackages].
type PackageEvent struct {
	Key    string
	Chunks []string
}

// PackageResult is the output of [CreatePackages].
type PackageResult struct {
	Graph *Graph
	// Created lists new package nodes in creation order.
	Created []PackageEvent
	// Reparented counts chunks moved under a single parent chunk.
	Reparented int
}

type chunkGroup struct {
	key      string
	ancestry *Ancestry
	chunks   []dag.NodeID
}

// CreatePackages groups the chunks of a dominator tree by the entry points
// they are reached from. The tree is cloned and never modified.
//
// For each group other than [RootKey]: with a single parent chunk, every
// chunk of the group moves under that parent; with two or more, a package
// node "package:<key>" is added under the root and the chunks move under it.
// Moving a package node under a new parent also lifts its children to that
// parent and removes the emptied package. [Split] never reaches that case:
// it passes a fresh dominator tree, whose chunks are all asset or component
// nodes. It only applies to trees that already hold package nodes.
func CreatePackages(acyclic, dominators *Graph, keyer PackageKeyer) (*PackageResult, error) {
	if keyer == nil {
		keyer = DefaultKeyer
	}
	packages := dominators.Clone()
	root := packages.Root()
	if root == dag.NoNode {
		return nil, invariant(dag.ErrMissingRoot, "create packages")
	}

	chunks := Chunks(packages)
	chunkKeys := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		chunkKeys[keyOf(packages, c)] = true
	}
	ancestors := EntryPointAncestors(acyclic, chunkKeys)

	var groups []*chunkGroup
	byKey := make(map[string]*chunkGroup)
	for _, c := range chunks {
		anc := ancestors[keyOf(packages, c)]
		if anc == nil {
			anc = &Ancestry{}
		}
		key := keyer.PackageKey(anc.Chunks)
		grp, ok := byKey[key]
		if !ok {
			grp = &chunkGroup{key: key, ancestry: anc}
			byKey[key] = grp
			groups = append(groups, grp)
		}
		grp.chunks = append(grp.chunks, c)
	}

	res := &PackageResult{Graph: packages}
	var flattened []dag.NodeID
	reparent := func(chunk, parent dag.NodeID) error {
		w, hasWeight := packages.EdgeWeight(root, chunk)
		if err := packages.RemoveEdge(root, chunk, dag.AllEdgeTypes, false); err != nil {
			return invariant(err, "detach chunk %s", keyOf(packages, chunk))
		}
		if err := packages.AddEdge(parent, chunk, EdgeContains); err != nil {
			return invariant(err, "attach chunk %s", keyOf(packages, chunk))
		}
		if hasWeight {
			_ = packages.SetEdgeWeight(parent, chunk, w)
		}
		n, err := mustNode(packages, chunk)
		if err != nil {
			return err
		}
		if n.Kind != KindPackage {
			return nil
		}
		for _, child := range packages.NodesConnectedFrom(chunk, dag.AllEdgeTypes) {
			if err := packages.AddEdge(parent, child, EdgeContains); err != nil {
				return invariant(err, "lift %s", keyOf(packages, child))
			}
		}
		flattened = append(flattened, chunk)
		return nil
	}

	for _, grp := range groups {
		if grp.key == RootKey {
			continue
		}
		parents := grp.ancestry.Chunks
		switch len(parents) {
		case 0:
			continue
		case 1:
			parent, err := packages.NodeIDByContentKey(parents[0])
			if err != nil {
				return nil, invariant(err, "parent chunk %q", parents[0])
			}
			for _, c := range grp.chunks {
				if err := reparent(c, parent); err != nil {
					return nil, err
				}
				res.Reparented++
			}
		default:
			pkg := Node{
				Kind:             KindPackage,
				ID:               grp.key,
				ParentChunks:     slices.Clone(parents),
				EntryPointAssets: slices.Clone(grp.ancestry.Assets),
			}
			pid := packages.AddNodeByContentKeyIfNeeded(pkg.ContentKey(), pkg)
			if err := packages.AddEdge(root, pid, EdgeContains); err != nil {
				return nil, invariant(err, "attach %s", pkg)
			}
			ev := PackageEvent{Key: pkg.ContentKey()}
			for _, c := range grp.chunks {
				if err := reparent(c, pid); err != nil {
					return nil, err
				}
				ev.Chunks = append(ev.Chunks, keyOf(packages, c))
			}
			res.Created = append(res.Created, ev)
		}
	}

	for _, id := range flattened {
		if err := packages.RemoveNode(id, false); err != nil {
			return nil, invariant(err, "remove flattened package %d", id)
		}
	}
	return res, nil
}
