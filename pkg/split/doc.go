// Package split decides how the assets of a bundle graph are partitioned
// into output bundles, using the dominator tree of the import graph.
//
// # Pipeline
//
// Each stage reads the previous stage's graph and returns a new one:
//
//  1. [RootedGraph] keeps one node per asset and adds a synthetic root.
//     Entry and async dependencies become edges from the root.
//  2. [Acyclic] collapses every import cycle into one component node whose
//     members hang below it.
//  3. [DominatorTree] builds the immediate-dominator tree. The root's
//     children are the chunks: code not owned by any single other asset.
//  4. [CreatePackages] groups chunks by the set of entry points that reach
//     them and moves each group under its single parent or a new package.
//  5. [MergePackages] inlines packages smaller than a threshold into every
//     package that depends on them.
//
// [Split] runs the stages in order and extracts [Bundles]: one per
// top-level node of the final graph.
//
// # Node Identity
//
// All graphs are [dag.Graph] values over [Node]. Nodes are addressed by
// content key across stages: an asset ID, "root", "package:<key>" or
// "StronglyConnectedComponent:<hash>". NodeIDs are only meaningful within
// one graph, except that a clone keeps the IDs of its source. Component
// members record NodeIDs of the graph they were collapsed from.
//
// # Errors
//
// Broken invariants surface as errors carrying the INVARIANT_VIOLATION or
// UNEXPECTED_NODE codes from [errors]. They indicate a bug or corrupt input
// and abort the run.
//
// [dag.Graph]: github.com/matzehuels/domsplit/pkg/dag.Graph
// [errors]: github.com/matzehuels/domsplit/pkg/errors
package split
