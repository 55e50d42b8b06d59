package graph_test

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/domsplit/pkg/graph"
)

func ExampleWritePlan() {
	p := graph.Plan{
		Threshold: 10240,
		Bundles:   []graph.Bundle{{Key: "app", Kind: graph.KindAsset, Size: 120, Assets: []string{"app", "util"}}},
		Nodes:     []graph.Node{{ID: "app", Kind: graph.KindAsset, Size: 100}, {ID: "root", Kind: graph.KindRoot}},
		Edges:     []graph.Edge{{From: "root", To: "app"}},
	}

	var buf bytes.Buffer
	if err := graph.WritePlan(p, &buf); err != nil {
		fmt.Println("Error:", err)
		return
	}
	back, err := graph.UnmarshalPlan(buf.Bytes())
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(back.BundlesFor("util"))
	fmt.Println(back.Children("root"))
	// Output:
	// [app]
	// [app]
}
