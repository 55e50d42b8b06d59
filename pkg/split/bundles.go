package split

import (
	"slices"
	"strings"

	"github.com/matzehuels/domsplit/pkg/assetgraph"
)

// Bundle is one output bundle: a top-level node of the merged package graph
// and every asset assigned to it.
type Bundle struct {
	Key    string
	Kind   Kind
	Size   int64
	Assets []*assetgraph.Asset
}

// Bundles returns one bundle per surviving top-level node of m, sorted by
// key. Components contribute their members individually. Assets duplicated
// into several parents by merging appear in each of those bundles.
func Bundles(m *MergeResult) []Bundle {
	bundles := make([]Bundle, 0, len(m.Packages))
	for _, info := range m.Packages {
		bundles = append(bundles, Bundle{
			Key:    info.Key,
			Kind:   info.Kind,
			Size:   info.Size,
			Assets: slices.Clone(info.Assets),
		})
	}
	slices.SortFunc(bundles, func(a, b Bundle) int { return strings.Compare(a.Key, b.Key) })
	return bundles
}

// AssetIDs returns the IDs of the bundle's assets in order.
func (b Bundle) AssetIDs() []string {
	ids := make([]string, len(b.Assets))
	for i, a := range b.Assets {
		ids[i] = a.ID
	}
	return ids
}

// Contains reports whether the bundle includes the asset.
func (b Bundle) Contains(assetID string) bool {
	return slices.ContainsFunc(b.Assets, func(a *assetgraph.Asset) bool { return a.ID == assetID })
}
