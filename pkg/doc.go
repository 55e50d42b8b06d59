// Package pkg provides the libraries behind domsplit, a code-splitting
// planner for web bundlers.
//
// # Overview
//
// domsplit reads an asset graph (modules and the imports between them) and
// decides which output bundle each module belongs to. Code reachable from
// a single entry point stays with that entry; code shared by several entry
// points is grouped into packages; packages too small to justify a request
// of their own are inlined into the bundles that need them.
//
// The pkg directory is organized as:
//
//  1. [assetgraph] - Input model and JSON/YAML document format
//  2. [dag] and [dag/transform] - Graph structure, SCCs and dominators
//  3. [split] - The splitting stages and bundle extraction
//  4. [graph] - Serializable bundle plans
//  5. [render/nodelink] - DOT and SVG rendering of plans
//  6. [pipeline] - Orchestration (load → split → store → render)
//  7. [cache], [storage] - Plan cache (file, Redis) and plan history (memory, MongoDB)
//  8. [server], [config], [observability] - HTTP API, TOML configuration and metrics hooks
//
// # Architecture
//
//	Asset graph (JSON/YAML)
//	         ↓
//	    [assetgraph] package (decode + validate)
//	         ↓
//	    [split] package (rooted graph → acyclic → dominator tree → packages → merge)
//	         ↓
//	    [graph] package (plan)
//	         ↓
//	    [render/nodelink] package (DOT/SVG)
//
// # Quick Start
//
//	g, _, err := assetgraph.ReadFile("assets.json")
//	if err != nil {
//	    return err
//	}
//	res, err := split.Split(ctx, g, split.Options{})
//	if err != nil {
//	    return err
//	}
//	for _, b := range res.Bundles {
//	    fmt.Println(b.Key, b.AssetIDs())
//	}
//
// Most callers should go through [pipeline.Runner], which adds caching and
// plan history and is shared by the CLI and the HTTP server.
//
// [assetgraph]: github.com/matzehuels/domsplit/pkg/assetgraph
// [dag]: github.com/matzehuels/domsplit/pkg/dag
// [dag/transform]: github.com/matzehuels/domsplit/pkg/dag/transform
// [split]: github.com/matzehuels/domsplit/pkg/split
// [graph]: github.com/matzehuels/domsplit/pkg/graph
// [render/nodelink]: github.com/matzehuels/domsplit/pkg/render/nodelink
// [pipeline]: github.com/matzehuels/domsplit/pkg/pipeline
// [pipeline.Runner]: github.com/matzehuels/domsplit/pkg/pipeline.Runner
// [cache]: github.com/matzehuels/domsplit/pkg/cache
// [storage]: github.com/matzehuels/domsplit/pkg/storage
// [server]: github.com/matzehuels/domsplit/pkg/server
// [config]: github.com/matzehuels/domsplit/pkg/config
// [observability]: github.com/matzehuels/domsplit/pkg/observability
package pkg
