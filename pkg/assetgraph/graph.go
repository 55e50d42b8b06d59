package assetgraph

import (
	"github.com/matzehuels/domsplit/pkg/errors"
)

// Graph is an in-memory [BundleGraph].
// Graph is not safe for concurrent mutation; once built it may be read from
// multiple goroutines.
type Graph struct {
	assets   []*Asset
	byID     map[string]*Asset
	deps     []*Dependency
	depIDs   map[string]bool
	incoming map[string][]*Dependency
	outgoing map[string][]*Dependency
	entries  []*Dependency
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		byID:     make(map[string]*Asset),
		depIDs:   make(map[string]bool),
		incoming: make(map[string][]*Dependency),
		outgoing: make(map[string][]*Dependency),
	}
}

// AddAsset registers an asset. IDs must be unique and valid content keys.
func (g *Graph) AddAsset(a Asset) (*Asset, error) {
	if err := errors.ValidateAssetID(a.ID); err != nil {
		return nil, err
	}
	if _, ok := g.byID[a.ID]; ok {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "duplicate asset id %q", a.ID)
	}
	if a.Stats.Size < 0 {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "asset %q has negative size", a.ID)
	}
	ptr := &a
	g.assets = append(g.assets, ptr)
	g.byID[a.ID] = ptr
	return ptr, nil
}

// AddDependency registers a dependency. The target asset must exist. A
// source asset, when named, must exist too. Dependencies without a source
// must be entries or async imports.
func (g *Graph) AddDependency(d Dependency) (*Dependency, error) {
	if d.ID == "" {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "dependency id cannot be empty")
	}
	if g.depIDs[d.ID] {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "duplicate dependency id %q", d.ID)
	}
	p, err := ParsePriority(string(d.Priority))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "dependency %q", d.ID)
	}
	d.Priority = p
	if _, ok := g.byID[d.TargetAssetID]; !ok {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "dependency %q targets unknown asset %q", d.ID, d.TargetAssetID)
	}
	if d.SourceAssetID != "" {
		if _, ok := g.byID[d.SourceAssetID]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidGraph, "dependency %q declared by unknown asset %q", d.ID, d.SourceAssetID)
		}
	} else if !d.IsBoundary() {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "dependency %q has no source and is neither an entry nor async", d.ID)
	}

	ptr := &d
	g.deps = append(g.deps, ptr)
	g.depIDs[d.ID] = true
	g.incoming[d.TargetAssetID] = append(g.incoming[d.TargetAssetID], ptr)
	if d.SourceAssetID != "" {
		g.outgoing[d.SourceAssetID] = append(g.outgoing[d.SourceAssetID], ptr)
	}
	if d.IsEntry {
		g.entries = append(g.entries, ptr)
	}
	return ptr, nil
}

// Assets implements [BundleGraph].
func (g *Graph) Assets() []*Asset { return g.assets }

// Dependencies returns every dependency in declaration order.
func (g *Graph) Dependencies() []*Dependency { return g.deps }

// Entries returns the entry dependencies in declaration order.
func (g *Graph) Entries() []*Dependency { return g.entries }

// AssetByID implements [BundleGraph].
func (g *Graph) AssetByID(id string) (*Asset, bool) {
	a, ok := g.byID[id]
	return a, ok
}

// IncomingDependencies implements [BundleGraph].
func (g *Graph) IncomingDependencies(a *Asset) []*Dependency {
	return g.incoming[a.ID]
}

// OutgoingDependencies returns the dependencies declared by a.
func (g *Graph) OutgoingDependencies(a *Asset) []*Dependency {
	return g.outgoing[a.ID]
}

// AssetWithDependency implements [BundleGraph].
func (g *Graph) AssetWithDependency(dep *Dependency) *Asset {
	if dep == nil || dep.SourceAssetID == "" {
		return nil
	}
	return g.byID[dep.SourceAssetID]
}

// Traverse implements [BundleGraph]. Starting from each entry in declaration
// order, assets are visited depth-first following outgoing dependencies in
// declaration order. Assets no entry can reach are not visited.
func (g *Graph) Traverse(v Visitor) {
	type frame struct {
		asset *Asset
		next  int
	}
	visited := make(map[string]bool, len(g.assets))

	for _, entry := range g.entries {
		start := g.byID[entry.TargetAssetID]
		if visited[start.ID] {
			continue
		}
		visited[start.ID] = true
		if v.Enter != nil {
			v.Enter(start)
		}
		stack := []*frame{{asset: start}}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			out := g.outgoing[top.asset.ID]
			if top.next < len(out) {
				child := g.byID[out[top.next].TargetAssetID]
				top.next++
				if visited[child.ID] {
					continue
				}
				visited[child.ID] = true
				if v.Enter != nil {
					v.Enter(child)
				}
				stack = append(stack, &frame{asset: child})
				continue
			}
			stack = stack[:len(stack)-1]
			if v.Exit != nil {
				v.Exit(top.asset)
			}
		}
	}
}

// TotalSize returns the sum of all asset sizes.
func (g *Graph) TotalSize() int64 {
	var total int64
	for _, a := range g.assets {
		total += a.Stats.Size
	}
	return total
}
