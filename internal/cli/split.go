package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/domsplit/pkg/errors"
	"github.com/matzehuels/domsplit/pkg/pipeline"
)

// splitOpts holds the command-line flags for the split command.
type splitOpts struct {
	output     string
	formats    string
	threshold  string // byte size, e.g. "10KiB" or "4096"
	noMerge    bool
	packageKey string
	refresh    bool
	noCache    bool
	detailed   bool
	clusters   bool
	quiet      bool
}

// splitCommand creates the split command.
func (c *CLI) splitCommand() *cobra.Command {
	var opts splitOpts

	cmd := &cobra.Command{
		Use:   "split [file]",
		Short: "Compute a bundle plan from an asset graph (JSON or YAML)",
		Long: `Compute a bundle plan from an asset graph.

The plan is written as JSON next to the input (assets.json becomes
assets.plan.json) unless --output is given. Add dot or svg to --format to
also render the bundle graph.`,
		Example: `  domsplit split assets.json
  domsplit split assets.yaml -f json,svg --clusters
  domsplit split assets.json --threshold 20KiB -o - -f dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSplit(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format), base path (several) or - for stdout")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", pipeline.FormatJSON, "output format(s): json, dot, svg (comma-separated)")
	cmd.Flags().StringVar(&opts.threshold, "threshold", "", "merge packages smaller than this size (default from config, 10KiB)")
	cmd.Flags().BoolVar(&opts.noMerge, "no-merge", false, "keep every shared package as its own bundle")
	cmd.Flags().StringVar(&opts.packageKey, "package-key", "", "package naming: parents (default), hash")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when a cached plan exists")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the plan and render cache")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label nodes with sizes")
	cmd.Flags().BoolVar(&opts.clusters, "clusters", false, "draw each bundle as a cluster")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print the bundle table")

	return cmd
}

func (c *CLI) runSplit(cmd *cobra.Command, input string, opts splitOpts) error {
	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	popts := cfg.PipelineOptions()
	popts.Input = input
	popts.Logger = c.Logger
	popts.Formats = parseFormats(opts.formats)
	popts.Refresh = opts.refresh
	popts.Detailed = opts.detailed
	popts.Clusters = opts.clusters
	if opts.threshold != "" {
		n, err := parseSize(opts.threshold)
		if err != nil {
			return err
		}
		popts.Threshold = n
	}
	if cmd.Flags().Changed("no-merge") {
		popts.NoMerge = opts.noMerge
	}
	if opts.packageKey != "" {
		popts.PackageKey = opts.packageKey
	}
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close(ctx)

	prog := newProgress(c.Logger)
	var spinner *Spinner
	if popts.HasFormat(pipeline.FormatSVG) {
		spinner = newSpinnerWithContext(ctx, "Rendering SVG...")
		spinner.Start()
	}
	res, err := runner.Execute(ctx, popts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Split %s", input))

	paths := outputPaths(opts.output, input, popts.Formats)
	toStdout := false
	for _, p := range paths {
		toStdout = toStdout || p == stdout
	}
	if !toStdout {
		printPlanSummary(res.Plan, res.CacheInfo.PlanHit)
		if !opts.quiet {
			fmt.Fprintln(os.Stdout, bundleTable(res.Plan))
		}
	}
	if err := writeArtifacts(res.Artifacts, paths); err != nil {
		return err
	}
	if path, ok := paths[pipeline.FormatJSON]; ok && !toStdout {
		printNextStep("Explore the bundles", "domsplit browse "+path)
	}
	return nil
}

// parseSize parses a byte size such as "4096", "10KiB" or "1.5 MB".
func parseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid size %q", s)
	}
	return int64(n), nil
}
