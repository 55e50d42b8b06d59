package split

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/matzehuels/domsplit/pkg/assetgraph"
	"github.com/matzehuels/domsplit/pkg/dag"
	"github.com/matzehuels/domsplit/pkg/errors"
)

// Graph is the graph type every stage consumes and produces. Edge weights
// carry the dependency that induced the edge, when there is one.
type Graph = dag.Graph[Node, *assetgraph.Dependency]

// RootKey is the content key of the synthetic root node.
const RootKey = "root"

const (
	packagePrefix = "package:"
	sccPrefix     = "StronglyConnectedComponent:"
)

// Edge types.
const (
	// EdgeDependency is a synchronous import from one asset to another.
	EdgeDependency dag.EdgeType = iota + 1
	// EdgeBoundary connects the root to an entry or async import target.
	EdgeBoundary
	// EdgeContains is structural: SCC to member, dominator to dominated,
	// package to chunk.
	EdgeContains
)

// Kind tags the variant held by a [Node].
type Kind int

const (
	KindRoot Kind = iota
	KindAsset
	KindPackage
	KindSCC
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindAsset:
		return "asset"
	case KindPackage:
		return "package"
	case KindSCC:
		return "scc"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Node is a vertex of a split graph. Which fields are set depends on Kind:
//
//   - KindRoot: nothing; ID is "root".
//   - KindAsset: Asset, with ID equal to the asset ID.
//   - KindPackage: ParentChunks and EntryPointAssets.
//   - KindSCC: MemberIDs and Members.
type Node struct {
	Kind  Kind
	ID    string
	Asset *assetgraph.Asset

	// ParentChunks are the sorted content keys of the entry chunks through
	// which the package's chunks are reached.
	ParentChunks []string
	// EntryPointAssets are the assets of those entry chunks.
	EntryPointAssets []*assetgraph.Asset

	// MemberIDs are node IDs in the graph the component was collapsed
	// from, not in the graph holding this node.
	MemberIDs []dag.NodeID
	// Members holds the member node values, index-aligned with MemberIDs.
	Members []Node
}

// RootNode returns the singleton root value.
func RootNode() Node { return Node{Kind: KindRoot, ID: RootKey} }

// AssetNode wraps an asset.
func AssetNode(a *assetgraph.Asset) Node {
	return Node{Kind: KindAsset, ID: a.ID, Asset: a}
}

// ContentKey returns the key the node is stored under.
func (n Node) ContentKey() string {
	switch n.Kind {
	case KindRoot:
		return RootKey
	case KindPackage:
		return packagePrefix + n.ID
	default:
		return n.ID
	}
}

func (n Node) String() string {
	return n.Kind.String() + "(" + n.ContentKey() + ")"
}

// Assets returns the assets carried by the node itself: the asset of an
// asset node, the member assets of a component, nothing otherwise.
func (n Node) Assets() []*assetgraph.Asset {
	switch n.Kind {
	case KindAsset:
		return []*assetgraph.Asset{n.Asset}
	case KindSCC:
		var out []*assetgraph.Asset
		for _, m := range n.Members {
			out = append(out, m.Assets()...)
		}
		return out
	default:
		return nil
	}
}

// Size is the summed size of [Node.Assets].
func (n Node) Size() int64 {
	var total int64
	for _, a := range n.Assets() {
		total += a.Stats.Size
	}
	return total
}

// SCCKey derives the content key of a collapsed component from its member
// content keys. The keys are sorted first, so the same set of members always
// yields the same key.
func SCCKey(memberKeys []string) string {
	sorted := slices.Clone(memberKeys)
	slices.Sort(sorted)
	sum := xxhash.Sum64String(strings.Join(sorted, ","))
	return sccPrefix + strconv.FormatUint(sum, 16)
}

// IsPackageKey reports whether key names a package node.
func IsPackageKey(key string) bool { return strings.HasPrefix(key, packagePrefix) }

// IsSCCKey reports whether key names a collapsed component.
func IsSCCKey(key string) bool { return strings.HasPrefix(key, sccPrefix) }

func mustNode(g *Graph, id dag.NodeID) (Node, error) {
	n, ok := g.Node(id)
	if !ok {
		return Node{}, errors.Wrap(errors.ErrCodeInvariant, dag.ErrUnknownNode, "node %d", id)
	}
	return n, nil
}

func unexpected(n Node, want string) error {
	return errors.New(errors.ErrCodeUnexpectedNode, "expected %s node, got %s", want, n)
}

func invariant(err error, format string, args ...any) error {
	return errors.Wrap(errors.ErrCodeInvariant, err, format, args...)
}

// keyOf returns the content key of id in g, falling back to the node value.
func keyOf(g *Graph, id dag.NodeID) string {
	if k, ok := g.ContentKey(id); ok {
		return k
	}
	if n, ok := g.Node(id); ok {
		return n.ContentKey()
	}
	return fmt.Sprintf("#%d", id)
}
