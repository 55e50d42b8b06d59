// Package nodelink renders bundle plans as node-link diagrams.
//
// [ToDOT] turns the package graph of a [graph.Plan] into Graphviz DOT source:
// assets are rounded boxes, packages dashed grey boxes, import cycles double
// octagons, and the synthetic root a point. With Options.Bundles every
// bundle is drawn as a cluster labelled with its size.
//
//	dot := nodelink.ToDOT(plan, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// SVG rendering runs Graphviz in-process through
// [github.com/goccy/go-graphviz]; no system Graphviz install is needed.
//
// [graph.Plan]: github.com/matzehuels/domsplit/pkg/graph.Plan
package nodelink
