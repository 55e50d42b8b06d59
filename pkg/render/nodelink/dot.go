package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/domsplit/pkg/graph"
)

// Options configures package-graph rendering.
type Options struct {
	// Detailed adds size, parent chunks and component members to labels.
	// When false, only the node label is shown.
	Detailed bool

	// Bundles draws each bundle as a cluster around its top-level node.
	Bundles bool
}

// ToDOT converts the package graph of a plan to Graphviz DOT format.
// The result can be rendered with [RenderSVG].
//
// Packages are drawn dashed and grey, strongly connected components as
// double octagons, and the synthetic root as a point.
func ToDOT(p graph.Plan, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	clustered := make(map[string]bool)
	if opts.Bundles {
		for i, b := range p.Bundles {
			fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
			fmt.Fprintf(&buf, "    label=%q;\n", fmt.Sprintf("%s (%s)", b.Key, humanize.IBytes(uint64(max(b.Size, 0)))))
			buf.WriteString("    style=\"rounded,dotted\";\n")
			if n, ok := p.Node(b.Key); ok {
				writeNode(&buf, "    ", *n, opts.Detailed)
				clustered[n.ID] = true
			}
			buf.WriteString("  }\n")
		}
	}

	for _, n := range p.Nodes {
		if clustered[n.ID] {
			continue
		}
		writeNode(&buf, "  ", n, opts.Detailed)
	}

	buf.WriteString("\n")
	for _, e := range p.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeNode(buf *bytes.Buffer, indent string, n graph.Node, detailed bool) {
	fmt.Fprintf(buf, "%s%q [%s];\n", indent, n.ID, strings.Join(fmtAttrs(n, fmtLabel(n, detailed)), ", "))
}

func fmtLabel(n graph.Node, detailed bool) string {
	label := n.DisplayLabel()
	if !detailed {
		return label
	}
	var parts []string
	if n.Size > 0 {
		parts = append(parts, "size: "+humanize.IBytes(uint64(n.Size)))
	}
	if len(n.Parents) > 0 {
		parts = append(parts, "parents: "+strings.Join(n.Parents, ", "))
	}
	if len(n.Members) > 0 {
		parts = append(parts, "members: "+strings.Join(n.Members, ", "))
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n graph.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Kind {
	case graph.KindRoot:
		attrs = []string{"shape=point", "width=0.15"}
	case graph.KindPackage:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	case graph.KindSCC:
		attrs = append(attrs, "shape=doubleoctagon", "fillcolor=lightyellow")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based <svg> header with one
// whose width and height match the viewBox, so the SVG scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
