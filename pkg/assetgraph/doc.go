// Package assetgraph models the bundle graph that the splitting pipeline
// reads: source assets, the dependencies between them, and the load
// priority of each dependency.
//
// A [Graph] is usually loaded from a [Document]:
//
//	assets:
//	  - id: index
//	    file_path: src/index.js
//	    stats: {size: 2048}
//	  - id: lazy
//	    stats: {size: 512}
//	dependencies:
//	  - {id: e1, target: index, entry: true}
//	  - {id: d1, source: index, target: lazy, priority: lazy}
//
// Asset IDs become content keys in the split graphs, so "root" and the
// "package:" and "StronglyConnectedComponent:" prefixes are reserved.
package assetgraph
