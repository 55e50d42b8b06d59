// Package graph provides the serialization types for bundle plans.
//
// A [Plan] is the wire format for a split result, used for plan files, API
// responses, the plan cache and the plan history store. It carries the
// bundle assignment, the final package graph and run statistics:
//
//	{
//	  "created_at": "2026-01-01T00:00:00Z",
//	  "threshold": 10240,
//	  "bundles": [{"key": "app", "kind": "asset", "size": 120, "assets": ["app", "util"]}],
//	  "nodes": [{"id": "app", "kind": "asset", "size": 100}, {"id": "root", "kind": "root"}],
//	  "edges": [{"from": "root", "to": "app"}],
//	  "stats": {"assets": 2, "bundles": 1}
//	}
//
// Use [FromResult] to build a plan from a split.Result, and [WritePlanFile],
// [ReadPlanFile], [MarshalPlan] or [UnmarshalPlan] to move it in and out of
// bytes. [ToGraph] rebuilds the package graph for renderers.
//
// Plans are plain values; concurrent reads are safe.
package graph
