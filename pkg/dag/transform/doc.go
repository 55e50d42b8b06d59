// Package transform provides graph algorithms over [dag.Graph] that the
// splitting pipeline builds on.
//
// # Strongly Connected Components
//
// [StronglyConnectedComponents] runs Tarjan's algorithm with an explicit
// stack. It reports every component, singletons included, in reverse
// topological order of the condensation.
//
// # Dominators
//
// A node D dominates N when every path from the entry to N passes through D.
// [ImmediateDominators] computes, for every reachable node, the closest
// strict dominator using the Cooper-Harvey-Kennedy iteration over reverse
// postorder. [Dominates] answers ancestry queries against the result.
//
// Both algorithms operate on NodeIDs and never mutate the graph.
//
// [dag.Graph]: github.com/matzehuels/domsplit/pkg/dag.Graph
package transform
