package dag

// Action tells a depth-first traversal how to proceed after entering a node.
type Action int

const (
	// Continue descends into the node's children.
	Continue Action = iota
	// SkipChildren leaves the node's children unvisited from this node.
	SkipChildren
	// Stop ends the traversal immediately. No further Exit calls are made.
	Stop
)

// Visitor receives callbacks during [Graph.DFS]. Either field may be nil.
// Enter is called in preorder; Exit is called in postorder once all of the
// node's children have been handled.
type Visitor struct {
	Enter func(id NodeID) Action
	Exit  func(id NodeID)
}

type frame struct {
	id       NodeID
	children []NodeID
	next     int
}

// DFS walks every node reachable from start along edges of type typ, visiting
// each node at most once. Children are visited in edge insertion order. The
// walk keeps its own stack, so graph depth is not bounded by the goroutine
// stack size.
func (g *Graph[T, W]) DFS(start NodeID, typ EdgeType, v Visitor) {
	if !g.HasNode(start) {
		return
	}
	visited := make([]bool, g.IDLimit())

	enter := func(id NodeID) (Action, *frame) {
		visited[id] = true
		act := Continue
		if v.Enter != nil {
			act = v.Enter(id)
		}
		f := &frame{id: id}
		if act == Continue {
			f.children = g.NodesConnectedFrom(id, typ)
		}
		return act, f
	}

	act, f := enter(start)
	if act == Stop {
		return
	}
	stack := []*frame{f}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.children) {
			child := top.children[top.next]
			top.next++
			if visited[child] {
				continue
			}
			act, f := enter(child)
			if act == Stop {
				return
			}
			stack = append(stack, f)
			continue
		}
		stack = stack[:len(stack)-1]
		if v.Exit != nil {
			v.Exit(top.id)
		}
	}
}

// PostOrder returns the nodes reachable from start in depth-first postorder.
func (g *Graph[T, W]) PostOrder(start NodeID, typ EdgeType) []NodeID {
	var order []NodeID
	g.DFS(start, typ, Visitor{Exit: func(id NodeID) {
		order = append(order, id)
	}})
	return order
}

// Reachable returns the set of nodes reachable from start, start included.
func (g *Graph[T, W]) Reachable(start NodeID, typ EdgeType) map[NodeID]bool {
	seen := make(map[NodeID]bool)
	g.DFS(start, typ, Visitor{Enter: func(id NodeID) Action {
		seen[id] = true
		return Continue
	}})
	return seen
}
