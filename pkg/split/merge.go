package split

import (
	"github.com/matzehuels/domsplit/pkg/assetgraph"
	"github.com/matzehuels/domsplit/pkg/dag"
)

// DefaultMergeThreshold is the size in bytes below which a shared package is
// duplicated into its parents instead of staying a bundle of its own.
const DefaultMergeThreshold int64 = 10 * 1024

// PackageInfo aggregates the assets under one top-level node.
type PackageInfo struct {
	Key    string
	Kind   Kind
	Size   int64
	Assets []*assetgraph.Asset
}

// MergeEvent describes a package inlined by [MergePackages].
type MergeEvent struct {
	Key     string
	Size    int64
	Parents []string
}

// MergeResult is the output of [MergePackages].
type MergeResult struct {
	Graph *Graph
	// Packages holds the aggregates of the top-level nodes that survived,
	// keyed by content key. Assets absorbed from merged packages are
	// included, so an asset may appear under several keys.
	Packages map[string]*PackageInfo
	// Merged lists inlined packages in processing order.
	Merged []MergeEvent
	// TotalSizeIncrease is the number of duplicated bytes: each merged
	// package's size times its parent count.
	TotalSizeIncrease int64
}

// MergePackages inlines small shared packages into the packages that
// depend on them. The package graph is cloned and never modified.
//
// Each top-level node under the root is a package. A package depends on
// another when an asset of the first has an edge of any type, in the rooted
// asset graph, to an asset of the second. Packages are visited in postorder
// of that dependency graph. A package with at least one parent whose size is
// below threshold is merged: every parent absorbs its size and assets. A
// merged package node is removed and its children become children of every
// parent; a merged asset or component node moves under every parent instead.
// Either way the subtree of each surviving top-level node holds exactly the
// assets of its bundle. A negative threshold disables merging.
//
// The threshold is checked against the package's own size, not against the
// total duplicated across its parents.
func MergePackages(packages, rooted *Graph, threshold int64) (*MergeResult, error) {
	g := packages.Clone()
	root := g.Root()
	if root == dag.NoNode {
		return nil, invariant(dag.ErrMissingRoot, "merge packages")
	}

	top := g.NodesConnectedFrom(root, dag.AllEdgeTypes)
	infos := make(map[string]*PackageInfo, len(top))
	owner := make(map[string]string)
	for _, t := range top {
		n, err := mustNode(g, t)
		if err != nil {
			return nil, err
		}
		if n.Kind == KindRoot {
			return nil, unexpected(n, "asset, package or component")
		}
		key := keyOf(g, t)
		info := &PackageInfo{Key: key, Kind: n.Kind}
		g.DFS(t, dag.AllEdgeTypes, dag.Visitor{Enter: func(id dag.NodeID) dag.Action {
			m, _ := g.Node(id)
			if m.Kind == KindAsset {
				info.Size += m.Asset.Stats.Size
				info.Assets = append(info.Assets, m.Asset)
				if _, ok := owner[m.ID]; !ok {
					owner[m.ID] = key
				}
			}
			return dag.Continue
		}})
		infos[key] = info
	}

	deps, err := packageDependencies(rooted, top, g, owner)
	if err != nil {
		return nil, err
	}

	res := &MergeResult{Graph: g, Packages: make(map[string]*PackageInfo)}
	if threshold >= 0 {
		for _, id := range deps.PostOrder(deps.Root(), dag.AllEdgeTypes) {
			if id == deps.Root() {
				continue
			}
			key, _ := deps.Node(id)
			info := infos[key]
			if info.Size >= threshold {
				continue
			}
			var parents []string
			for _, p := range deps.NodesConnectedTo(id, dag.AllEdgeTypes) {
				if p == deps.Root() {
					continue
				}
				pk, _ := deps.Node(p)
				if topLevel(g, pk) {
					parents = append(parents, pk)
				}
			}
			if len(parents) == 0 {
				continue
			}
			if err := mergeInto(g, key, parents); err != nil {
				return nil, err
			}
			for _, pk := range parents {
				infos[pk].Size += info.Size
				infos[pk].Assets = append(infos[pk].Assets, info.Assets...)
			}
			res.TotalSizeIncrease += info.Size * int64(len(parents))
			res.Merged = append(res.Merged, MergeEvent{Key: key, Size: info.Size, Parents: parents})
		}
	}

	for _, t := range g.NodesConnectedFrom(root, dag.AllEdgeTypes) {
		if info, ok := infos[keyOf(g, t)]; ok {
			res.Packages[info.Key] = info
		}
	}
	return res, nil
}

// packageDependencies builds a graph over the content keys of the top-level
// nodes. The root links to every package in order; package A links to B when
// an asset owned by A has an edge into an asset owned by B in rooted.
func packageDependencies(rooted *Graph, top []dag.NodeID, g *Graph, owner map[string]string) (*dag.Graph[string, struct{}], error) {
	deps := dag.New[string, struct{}]()
	root, _ := deps.AddNodeByContentKey(RootKey, RootKey)
	_ = deps.SetRoot(root)
	for _, t := range top {
		key := keyOf(g, t)
		id, err := deps.AddNodeByContentKey(key, key)
		if err != nil {
			return nil, invariant(err, "package %q", key)
		}
		_ = deps.AddEdge(root, id, EdgeContains)
	}

	rootedRoot := rooted.Root()
	for _, target := range rooted.NodeIDs() {
		targetOwner, ok := owner[keyOf(rooted, target)]
		if !ok {
			continue
		}
		for _, src := range rooted.NodesConnectedTo(target, dag.AllEdgeTypes) {
			if src == rootedRoot {
				continue
			}
			srcOwner, ok := owner[keyOf(rooted, src)]
			if !ok || srcOwner == targetOwner {
				continue
			}
			from, _ := deps.NodeIDByContentKey(srcOwner)
			to, _ := deps.NodeIDByContentKey(targetOwner)
			_ = deps.AddEdge(from, to, EdgeDependency)
		}
	}
	return deps, nil
}

// topLevel reports whether key is still a direct child of the root. Merged
// nodes are either gone or nested under their parents.
func topLevel(g *Graph, key string) bool {
	id, err := g.NodeIDByContentKey(key)
	if err != nil {
		return false
	}
	return g.HasEdge(g.Root(), id, dag.AllEdgeTypes)
}

// mergeInto inlines the top-level node key into every parent. A package
// node only groups chunks, so its children move up to the parents and the
// node is removed. Asset and component nodes carry assets themselves and are
// moved under each parent whole.
func mergeInto(g *Graph, key string, parents []string) error {
	id, err := g.NodeIDByContentKey(key)
	if err != nil {
		return invariant(err, "merge %q", key)
	}
	n, err := mustNode(g, id)
	if err != nil {
		return err
	}
	parentIDs := make([]dag.NodeID, 0, len(parents))
	for _, pk := range parents {
		pid, err := g.NodeIDByContentKey(pk)
		if err != nil {
			return invariant(err, "merge parent %q", pk)
		}
		parentIDs = append(parentIDs, pid)
	}

	if n.Kind != KindPackage {
		root := g.Root()
		w, hasWeight := g.EdgeWeight(root, id)
		if err := g.RemoveEdge(root, id, dag.AllEdgeTypes, false); err != nil {
			return invariant(err, "detach merged %q", key)
		}
		for i, pid := range parentIDs {
			if err := g.AddEdge(pid, id, EdgeContains); err != nil {
				return invariant(err, "attach %q under %q", key, parents[i])
			}
			if hasWeight {
				_ = g.SetEdgeWeight(pid, id, w)
			}
		}
		return nil
	}

	children := g.NodesConnectedFrom(id, dag.AllEdgeTypes)
	for i, pid := range parentIDs {
		for _, c := range children {
			if err := g.AddEdge(pid, c, EdgeContains); err != nil {
				return invariant(err, "re-point %s under %q", keyOf(g, c), parents[i])
			}
		}
	}
	if err := g.RemoveNode(id, false); err != nil {
		return invariant(err, "remove merged %q", key)
	}
	return nil
}
