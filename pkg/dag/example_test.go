package dag_test

import (
	"fmt"

	"github.com/matzehuels/domsplit/pkg/dag"
)

func ExampleGraph_basic() {
	// app → lib → core
	g := dag.New[string, int]()
	app := g.AddNode("app")
	_ = g.SetRoot(app)
	lib, _ := g.AddNodeByContentKey("lib", "lib")
	core, _ := g.AddNodeByContentKey("core", "core")
	_ = g.AddEdge(app, lib, dag.DefaultEdgeType)
	_ = g.AddWeightedEdge(lib, core, dag.DefaultEdgeType, 7)

	w, _ := g.EdgeWeight(lib, core)
	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Weight:", w)
	// Output:
	// Nodes: 3
	// Edges: 2
	// Weight: 7
}

func ExampleGraph_RemoveNode() {
	// Removing lib with orphan removal also drops core, which is only
	// reachable through lib.
	g := dag.New[string, struct{}]()
	app := g.AddNode("app")
	_ = g.SetRoot(app)
	lib := g.AddNode("lib")
	core := g.AddNode("core")
	_ = g.AddEdge(app, lib, dag.DefaultEdgeType)
	_ = g.AddEdge(lib, core, dag.DefaultEdgeType)

	_ = g.RemoveNode(lib, true)
	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("core alive:", g.HasNode(core))
	// Output:
	// Nodes: 1
	// core alive: false
}

func ExampleGraph_DFS() {
	g := dag.New[string, struct{}]()
	a := g.AddNode("a")
	b := g.AddNode("b")
	c := g.AddNode("c")
	_ = g.AddEdge(a, b, dag.DefaultEdgeType)
	_ = g.AddEdge(b, c, dag.DefaultEdgeType)

	g.DFS(a, dag.AllEdgeTypes, dag.Visitor{
		Enter: func(id dag.NodeID) dag.Action {
			v, _ := g.Node(id)
			fmt.Println("enter", v)
			return dag.Continue
		},
		Exit: func(id dag.NodeID) {
			v, _ := g.Node(id)
			fmt.Println("exit", v)
		},
	})
	// Output:
	// enter a
	// enter b
	// enter c
	// exit c
	// exit b
	// exit a
}
