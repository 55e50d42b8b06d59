package transform

import "github.com/matzehuels/domsplit/pkg/dag"

type tarjanFrame struct {
	id       dag.NodeID
	children []dag.NodeID
	next     int
}

// StronglyConnectedComponents returns the strongly connected components of g
// over edges of type typ using Tarjan's algorithm. Every live node belongs to
// exactly one component; singletons are included. Components are emitted in
// reverse topological order of the condensation (a component appears before
// any component that has an edge into it), and members are listed in the
// order Tarjan pops them off its stack.
//
// Roots are tried in ascending NodeID order. The search keeps an explicit
// call stack, so the depth of the graph is unbounded.
func StronglyConnectedComponents[T, W any](g *dag.Graph[T, W], typ dag.EdgeType) [][]dag.NodeID {
	n := g.IDLimit()
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}

	var (
		counter    int
		stack      []dag.NodeID
		components [][]dag.NodeID
	)

	visit := func(id dag.NodeID) *tarjanFrame {
		index[id] = counter
		low[id] = counter
		counter++
		stack = append(stack, id)
		onStack[id] = true
		return &tarjanFrame{id: id, children: g.NodesConnectedFrom(id, typ)}
	}

	for _, start := range g.NodeIDs() {
		if index[start] != -1 {
			continue
		}
		call := []*tarjanFrame{visit(start)}
		for len(call) > 0 {
			top := call[len(call)-1]
			if top.next < len(top.children) {
				w := top.children[top.next]
				top.next++
				switch {
				case index[w] == -1:
					call = append(call, visit(w))
				case onStack[w]:
					low[top.id] = min(low[top.id], index[w])
				}
				continue
			}

			call = call[:len(call)-1]
			if len(call) > 0 {
				parent := call[len(call)-1].id
				low[parent] = min(low[parent], low[top.id])
			}
			if low[top.id] != index[top.id] {
				continue
			}
			var component []dag.NodeID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				component = append(component, w)
				if w == top.id {
					break
				}
			}
			components = append(components, component)
		}
	}
	return components
}
