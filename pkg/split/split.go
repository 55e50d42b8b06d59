package split

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/domsplit/pkg/assetgraph"
	"github.com/matzehuels/domsplit/pkg/observability"
)

// Stage names reported to hooks and recorded in [Stats.Durations].
const (
	StageRooted     = "rooted"
	StageAcyclic    = "acyclic"
	StageDominators = "dominators"
	StagePackages   = "packages"
	StageMerge      = "merge"
)

// Options configures [Split]. The zero value is usable.
type Options struct {
	// MergeThreshold is the package size in bytes below which shared
	// packages are inlined into their parents. Zero selects
	// DefaultMergeThreshold; a negative value disables merging.
	MergeThreshold int64

	// Keyer groups chunks into packages. Nil selects DefaultKeyer.
	Keyer PackageKeyer

	// Logger receives stage timings at debug level and a summary at info
	// level. Nil discards.
	Logger *log.Logger

	// Hooks receives stage and package events. Nil selects the globally
	// registered observability.Split() hooks.
	Hooks observability.SplitHooks
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.MergeThreshold == 0 {
		o.MergeThreshold = DefaultMergeThreshold
	}
	if o.Keyer == nil {
		o.Keyer = DefaultKeyer
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Hooks == nil {
		o.Hooks = observability.Split()
	}
}

// Stats summarizes a split run.
type Stats struct {
	Assets            int
	Cycles            int
	Chunks            int
	PackagesCreated   int
	Reparented        int
	PackagesMerged    int
	TotalSizeIncrease int64
	Bundles           int
	Durations         map[string]time.Duration
}

// Result holds every intermediate graph of a split run along with the
// final bundles.
type Result struct {
	// Rooted is the asset graph with async and entry edges moved to the root.
	Rooted *Graph
	// Order lists asset IDs in reverse postorder.
	Order []string
	// Acyclic is Rooted with cycles collapsed.
	Acyclic *Graph
	// Dominators is the immediate-dominator tree of Acyclic.
	Dominators *Graph
	// Packages is the dominator tree after chunk grouping.
	Packages *PackageResult
	// Merge is the final package graph after small packages were inlined.
	Merge *MergeResult

	Bundles []Bundle
	Stats   Stats
}

// Split runs the full pipeline over bg: rooted graph, cycle collapse,
// dominator tree, package creation and package merging. Any failure aborts
// the run; there is no partial result.
func Split(ctx context.Context, bg assetgraph.BundleGraph, opts Options) (*Result, error) {
	opts.SetDefaults()
	res := &Result{Stats: Stats{Durations: make(map[string]time.Duration)}}

	stage := func(name string, fn func() (int, error)) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		opts.Hooks.OnStageStart(ctx, name)
		start := time.Now()
		nodes, err := fn()
		d := time.Since(start)
		res.Stats.Durations[name] = d
		opts.Hooks.OnStageComplete(ctx, name, nodes, d, err)
		if err != nil {
			return err
		}
		opts.Logger.Debug("split stage complete", "stage", name, "nodes", nodes, "duration", d)
		return nil
	}

	if err := stage(StageRooted, func() (int, error) {
		g, order, err := RootedGraph(bg)
		if err != nil {
			return 0, err
		}
		res.Rooted, res.Order = g, order
		res.Stats.Assets = len(order)
		return g.NodeCount(), nil
	}); err != nil {
		return nil, err
	}

	if err := stage(StageAcyclic, func() (int, error) {
		g, cycles, err := Acyclic(res.Rooted)
		if err != nil {
			return 0, err
		}
		res.Acyclic = g
		res.Stats.Cycles = cycles
		return g.NodeCount(), nil
	}); err != nil {
		return nil, err
	}

	if err := stage(StageDominators, func() (int, error) {
		tree, _, err := DominatorTree(ctx, res.Acyclic)
		if err != nil {
			return 0, err
		}
		res.Dominators = tree
		res.Stats.Chunks = len(Chunks(tree))
		return tree.NodeCount(), nil
	}); err != nil {
		return nil, err
	}

	if err := stage(StagePackages, func() (int, error) {
		pr, err := CreatePackages(res.Acyclic, res.Dominators, opts.Keyer)
		if err != nil {
			return 0, err
		}
		res.Packages = pr
		res.Stats.PackagesCreated = len(pr.Created)
		res.Stats.Reparented = pr.Reparented
		for _, ev := range pr.Created {
			opts.Hooks.OnPackageCreated(ctx, ev.Key, len(ev.Chunks))
			opts.Logger.Debug("created package", "key", ev.Key, "chunks", len(ev.Chunks))
		}
		return pr.Graph.NodeCount(), nil
	}); err != nil {
		return nil, err
	}

	if err := stage(StageMerge, func() (int, error) {
		mr, err := MergePackages(res.Packages.Graph, res.Rooted, opts.MergeThreshold)
		if err != nil {
			return 0, err
		}
		res.Merge = mr
		res.Stats.PackagesMerged = len(mr.Merged)
		res.Stats.TotalSizeIncrease = mr.TotalSizeIncrease
		for _, ev := range mr.Merged {
			opts.Hooks.OnPackageMerged(ctx, ev.Key, ev.Size, len(ev.Parents))
			opts.Logger.Debug("merged package", "key", ev.Key, "size", ev.Size, "parents", len(ev.Parents))
		}
		return mr.Graph.NodeCount(), nil
	}); err != nil {
		return nil, err
	}

	res.Bundles = Bundles(res.Merge)
	res.Stats.Bundles = len(res.Bundles)

	opts.Logger.Info("split complete",
		"assets", res.Stats.Assets,
		"cycles", res.Stats.Cycles,
		"bundles", res.Stats.Bundles,
		"merged", res.Stats.PackagesMerged,
		"size_increase", res.Stats.TotalSizeIncrease)
	return res, nil
}
