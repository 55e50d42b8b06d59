package assetgraph

import (
	"fmt"
	"strings"
)

// Priority describes when a dependency is loaded relative to the asset that
// declares it. Every priority other than [PrioritySync] marks an async
// boundary.
type Priority string

const (
	PrioritySync        Priority = "sync"
	PriorityParallel    Priority = "parallel"
	PriorityLazy        Priority = "lazy"
	PriorityConditional Priority = "conditional"
)

// ParsePriority converts a case-insensitive priority name. The empty string
// parses as [PrioritySync].
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PrioritySync, nil
	case PrioritySync, PriorityParallel, PriorityLazy, PriorityConditional:
		return p, nil
	default:
		return "", fmt.Errorf("unknown priority %q", s)
	}
}

// IsAsync reports whether the priority crosses an async boundary.
func (p Priority) IsAsync() bool {
	return p != PrioritySync && p != ""
}

// Stats holds measured properties of an asset.
type Stats struct {
	// Size is the asset's output size in bytes. Zero when unknown.
	Size int64 `json:"size" yaml:"size" bson:"size"`
	// Time is how long the asset took to build, in milliseconds.
	Time int64 `json:"time,omitempty" yaml:"time,omitempty" bson:"time,omitempty"`
}

// Asset is a single source file in the bundle graph.
type Asset struct {
	ID       string `json:"id" yaml:"id" bson:"id"`
	FilePath string `json:"file_path,omitempty" yaml:"file_path,omitempty" bson:"file_path,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty" bson:"type,omitempty"`
	Stats    Stats  `json:"stats" yaml:"stats" bson:"stats"`
}

// Name returns the file path if set, otherwise the asset ID.
func (a *Asset) Name() string {
	if a.FilePath != "" {
		return a.FilePath
	}
	return a.ID
}

// Dependency is an import edge. SourceAssetID names the asset that declares
// the import and is empty for entry dependencies.
type Dependency struct {
	ID            string   `json:"id" yaml:"id" bson:"id"`
	Specifier     string   `json:"specifier,omitempty" yaml:"specifier,omitempty" bson:"specifier,omitempty"`
	SourceAssetID string   `json:"source,omitempty" yaml:"source,omitempty" bson:"source,omitempty"`
	TargetAssetID string   `json:"target" yaml:"target" bson:"target"`
	Priority      Priority `json:"priority,omitempty" yaml:"priority,omitempty" bson:"priority,omitempty"`
	IsEntry       bool     `json:"entry,omitempty" yaml:"entry,omitempty" bson:"entry,omitempty"`
}

// IsBoundary reports whether the dependency should be loaded from the root
// of the bundle graph: either a build entry point or an async import.
func (d *Dependency) IsBoundary() bool {
	return d.IsEntry || d.Priority.IsAsync()
}

// Visitor receives assets during [BundleGraph.Traverse]. Enter runs when an
// asset is first reached and Exit after all of its dependencies have been
// traversed. Either may be nil.
type Visitor struct {
	Enter func(a *Asset)
	Exit  func(a *Asset)
}

// BundleGraph is the read side of an asset graph as the splitting pipeline
// consumes it.
type BundleGraph interface {
	// Assets returns every asset in declaration order.
	Assets() []*Asset
	// Traverse visits every asset reachable from an entry dependency once,
	// depth-first, in document order.
	Traverse(v Visitor)
	// IncomingDependencies returns the dependencies that resolve to a.
	IncomingDependencies(a *Asset) []*Dependency
	// AssetWithDependency returns the asset that declares dep, or nil for
	// entry dependencies and dangling sources.
	AssetWithDependency(dep *Dependency) *Asset
	// AssetByID looks up an asset.
	AssetByID(id string) (*Asset, bool)
}
