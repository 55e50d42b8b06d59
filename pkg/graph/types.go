package graph

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/domsplit/pkg/dag"
	"github.com/matzehuels/domsplit/pkg/split"
)

// Node kinds, as produced by split.Kind.String.
const (
	KindRoot    = "root"
	KindAsset   = "asset"
	KindPackage = "package"
	KindSCC     = "scc"
)

// =============================================================================
// Plan - Bundle Plan Serialization
// =============================================================================

// Plan is the canonical serialization format for a split result.
// Used for plan files, API responses, the plan cache and the plan store.
//
// Bundles lists the output assignment. Nodes and Edges describe the final
// package graph so that renderers and the browser can show the tree without
// re-running the split.
type Plan struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	Source     string    `json:"source,omitempty" bson:"source,omitempty"`
	SourceHash string    `json:"source_hash,omitempty" bson:"source_hash,omitempty"`
	Threshold  int64     `json:"threshold" bson:"threshold"`

	Bundles []Bundle `json:"bundles" bson:"bundles"`
	Nodes   []Node   `json:"nodes" bson:"nodes"`
	Edges   []Edge   `json:"edges" bson:"edges"`
	Stats   Stats    `json:"stats" bson:"stats"`
}

// Bundle is one output bundle and the assets assigned to it.
type Bundle struct {
	Key    string   `json:"key" bson:"key"`
	Kind   string   `json:"kind" bson:"kind"`
	Size   int64    `json:"size" bson:"size"`
	Assets []string `json:"assets" bson:"assets"`
}

// Node is a node of the final package graph.
type Node struct {
	ID      string   `json:"id" bson:"id"`
	Kind    string   `json:"kind" bson:"kind"`
	Label   string   `json:"label,omitempty" bson:"label,omitempty"`
	Size    int64    `json:"size,omitempty" bson:"size,omitempty"`
	Parents []string `json:"parents,omitempty" bson:"parents,omitempty"` // parent chunks of a package
	Members []string `json:"members,omitempty" bson:"members,omitempty"` // component members
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a containment edge of the package graph.
type Edge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// Stats mirrors split.Stats with durations in milliseconds.
type Stats struct {
	Assets            int                `json:"assets" bson:"assets"`
	Cycles            int                `json:"cycles" bson:"cycles"`
	Chunks            int                `json:"chunks" bson:"chunks"`
	PackagesCreated   int                `json:"packages_created" bson:"packages_created"`
	Reparented        int                `json:"reparented" bson:"reparented"`
	PackagesMerged    int                `json:"packages_merged" bson:"packages_merged"`
	TotalSizeIncrease int64              `json:"total_size_increase" bson:"total_size_increase"`
	Bundles           int                `json:"bundles" bson:"bundles"`
	DurationsMS       map[string]float64 `json:"durations_ms,omitempty" bson:"durations_ms,omitempty"`
}

// Bundle returns the bundle with the given key.
func (p *Plan) Bundle(key string) (*Bundle, bool) {
	for i := range p.Bundles {
		if p.Bundles[i].Key == key {
			return &p.Bundles[i], true
		}
	}
	return nil, false
}

// BundlesFor returns the keys of every bundle containing the asset. More than
// one key means the asset was duplicated by merging.
func (p *Plan) BundlesFor(assetID string) []string {
	var keys []string
	for _, b := range p.Bundles {
		if slices.Contains(b.Assets, assetID) {
			keys = append(keys, b.Key)
		}
	}
	return keys
}

// Children returns the targets of edges leaving id, in edge order.
func (p *Plan) Children(id string) []string {
	var out []string
	for _, e := range p.Edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// Node returns the node with the given ID.
func (p *Plan) Node(id string) (*Node, bool) {
	for i := range p.Nodes {
		if p.Nodes[i].ID == id {
			return &p.Nodes[i], true
		}
	}
	return nil, false
}

// =============================================================================
// Result → Plan Conversion
// =============================================================================

// FromResult converts a split result to its serialization format. Nodes are
// sorted by ID and edges by (from, to) for deterministic output. ID,
// CreatedAt, Source and SourceHash are left for the caller.
func FromResult(res *split.Result, threshold int64) Plan {
	p := Plan{
		Threshold: threshold,
		Bundles:   make([]Bundle, len(res.Bundles)),
		Stats:     statsFromSplit(res.Stats),
	}
	for i, b := range res.Bundles {
		p.Bundles[i] = Bundle{Key: b.Key, Kind: b.Kind.String(), Size: b.Size, Assets: b.AssetIDs()}
	}
	if res.Merge != nil {
		p.Nodes, p.Edges = fromPackageGraph(res.Merge.Graph)
	}
	return p
}

func fromPackageGraph(g *split.Graph) ([]Node, []Edge) {
	nodes := make([]Node, 0, g.NodeCount())
	for _, id := range g.NodeIDs() {
		n, _ := g.Node(id)
		key, _ := g.ContentKey(id)
		nodes = append(nodes, nodeFromSplit(key, n))
	}
	slices.SortFunc(nodes, func(a, b Node) int { return strings.Compare(a.ID, b.ID) })

	edges := make([]Edge, 0, g.EdgeCount())
	seen := make(map[Edge]bool)
	for _, e := range g.Edges() {
		from, _ := g.ContentKey(e.From)
		to, _ := g.ContentKey(e.To)
		edge := Edge{From: from, To: to}
		if seen[edge] {
			continue
		}
		seen[edge] = true
		edges = append(edges, edge)
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		return strings.Compare(a.To, b.To)
	})
	return nodes, edges
}

// nodeFromSplit is the single point of conversion for split.Node values.
func nodeFromSplit(key string, n split.Node) Node {
	out := Node{ID: key, Kind: n.Kind.String()}
	switch n.Kind {
	case split.KindAsset:
		out.Size = n.Size()
		if n.Asset != nil && n.Asset.FilePath != "" {
			out.Label = n.Asset.Name()
		}
	case split.KindPackage:
		out.Parents = slices.Clone(n.ParentChunks)
	case split.KindSCC:
		out.Size = n.Size()
		for _, m := range n.Members {
			out.Members = append(out.Members, m.ContentKey())
		}
	}
	return out
}

func statsFromSplit(s split.Stats) Stats {
	out := Stats{
		Assets:            s.Assets,
		Cycles:            s.Cycles,
		Chunks:            s.Chunks,
		PackagesCreated:   s.PackagesCreated,
		Reparented:        s.Reparented,
		PackagesMerged:    s.PackagesMerged,
		TotalSizeIncrease: s.TotalSizeIncrease,
		Bundles:           s.Bundles,
	}
	if len(s.Durations) > 0 {
		out.DurationsMS = make(map[string]float64, len(s.Durations))
		for stage, d := range s.Durations {
			out.DurationsMS[stage] = float64(d.Microseconds()) / 1000
		}
	}
	return out
}

// ToGraph rebuilds the package graph of a plan as a string-valued graph
// keyed by node ID. The "root" node, when present, becomes the root.
func ToGraph(p Plan) (*dag.Graph[Node, struct{}], error) {
	g := dag.New[Node, struct{}]()
	for _, n := range p.Nodes {
		id, err := g.AddNodeByContentKey(n.ID, n)
		if err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.ID, err)
		}
		if n.Kind == KindRoot {
			_ = g.SetRoot(id)
		}
	}
	for _, e := range p.Edges {
		from, err := g.NodeIDByContentKey(e.From)
		if err != nil {
			return nil, fmt.Errorf("edge %s→%s: %w", e.From, e.To, err)
		}
		to, err := g.NodeIDByContentKey(e.To)
		if err != nil {
			return nil, fmt.Errorf("edge %s→%s: %w", e.From, e.To, err)
		}
		if err := g.AddEdge(from, to, dag.DefaultEdgeType); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", e.From, e.To, err)
		}
	}
	return g, nil
}
