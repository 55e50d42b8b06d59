package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/domsplit/pkg/errors"
	"github.com/matzehuels/domsplit/pkg/graph"
	"github.com/matzehuels/domsplit/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string
	formats  string
	detailed bool
	clusters bool
	noCache  bool
}

// renderCommand creates the render command, which draws a saved plan.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [plan.json]",
		Short: "Render a saved plan as DOT or SVG",
		Example: `  domsplit render assets.plan.json --clusters
  domsplit render assets.plan.json -f dot -o -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format), base path (several) or - for stdout")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", pipeline.FormatSVG, "output format(s): svg, dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label nodes with sizes")
	cmd.Flags().BoolVar(&opts.clusters, "clusters", false, "draw each bundle as a cluster")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts renderOpts) error {
	ctx := cmd.Context()
	formats := parseFormats(opts.formats)
	if len(formats) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one format is required")
	}
	for _, f := range formats {
		if f == pipeline.FormatJSON {
			return errors.New(errors.ErrCodeInvalidInput, "the input is already a JSON plan")
		}
	}

	p, err := graph.ReadPlanFile(input)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "read plan %s", input)
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close(ctx)

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	artifacts, cached, err := runner.RenderWithCacheInfo(ctx, p, pipeline.Options{
		Formats:  formats,
		Detailed: opts.detailed,
		Clusters: opts.clusters,
	})
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	if cached {
		prog.done("Rendered " + input + " (cached)")
	} else {
		prog.done("Rendered " + input)
	}
	return writeArtifacts(artifacts, outputPaths(opts.output, input, formats))
}
