package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/matzehuels/domsplit/pkg/graph"
	"github.com/matzehuels/domsplit/pkg/pipeline"
)

// stdout is the output path that writes to standard output.
const stdout = "-"

// extensions maps formats to output file suffixes. The plan suffix keeps
// the plan from overwriting a JSON input document.
var extensions = map[string]string{
	pipeline.FormatJSON: ".plan.json",
	pipeline.FormatDOT:  ".dot",
	pipeline.FormatSVG:  ".svg",
}

// basePath derives the base output path from the output and input file
// paths. Known format extensions are stripped from either.
func basePath(output, input string) string {
	p := output
	if p == "" {
		p = input
	}
	for _, suffix := range []string{".plan.json", ".json", ".yaml", ".yml", ".dot", ".svg"} {
		if strings.HasSuffix(p, suffix) {
			return strings.TrimSuffix(p, suffix)
		}
	}
	return strings.TrimSuffix(p, filepath.Ext(p))
}

// outputPaths decides where each format is written. A single format goes to
// output verbatim when one is given; otherwise every format gets the base
// path plus its extension.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + extensions[f]
	}
	return paths
}

// writeArtifacts writes rendered artifacts and reports each file.
func writeArtifacts(artifacts map[string][]byte, paths map[string]string) error {
	for format, path := range paths {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		if path == stdout {
			if _, err := os.Stdout.Write(data); err != nil {
				return err
			}
			continue
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// bundleTable renders the bundles of p as a table, largest first.
func bundleTable(p graph.Plan) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, 0, len(p.Bundles))
	for _, b := range sortedBundles(p) {
		rows = append(rows, []string{
			b.Key,
			b.Kind,
			humanize.IBytes(uint64(b.Size)),
			humanize.Comma(int64(len(b.Assets))),
		})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Bundle", "Kind", "Size", "Assets").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleValue
			case col >= 2:
				return StyleNumber.Align(lipgloss.Right)
			}
			return StyleDim
		})
	return t.Render()
}

// printPlanSummary prints the headline numbers of a plan.
func printPlanSummary(p graph.Plan, cached bool) {
	printSuccess("Split %s assets into %s bundles",
		humanize.Comma(int64(p.Stats.Assets)), humanize.Comma(int64(len(p.Bundles))))
	printStats(p.Stats.Assets, len(p.Bundles), cached)
	if p.Stats.PackagesMerged > 0 {
		printDetail("%d packages merged, %s duplicated",
			p.Stats.PackagesMerged, humanize.IBytes(uint64(p.Stats.TotalSizeIncrease)))
	}
	if p.Stats.Cycles > 0 {
		printDetail("%d import cycles collapsed", p.Stats.Cycles)
	}
	if p.ID != "" {
		printKeyValue("Plan", p.ID)
	}
}
