package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/domsplit/pkg/assetgraph"
	"github.com/matzehuels/domsplit/pkg/cache"
	"github.com/matzehuels/domsplit/pkg/errors"
	"github.com/matzehuels/domsplit/pkg/graph"
	"github.com/matzehuels/domsplit/pkg/observability"
	"github.com/matzehuels/domsplit/pkg/split"
	"github.com/matzehuels/domsplit/pkg/storage"
)

// Cache key types reported to cache hooks.
const (
	keyTypePlan   = "plan"
	keyTypeRender = "render"
)

// Runner encapsulates pipeline execution with caching and plan history.
// Both CLI and API use it so that caching and persistence behave the same.
//
// The Runner holds no per-run state; multiple goroutines can share one
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  storage.Store // optional
	Logger *log.Logger
}

// NewRunner creates a runner. A nil keyer selects DefaultKeyer, a nil cache
// disables caching, and a nil store disables plan history.
func NewRunner(c cache.Cache, keyer cache.Keyer, store storage.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Store: store, Logger: logger}
}

// Execute runs the complete load → split → store → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Load
	loadStart := time.Now()
	loaded, err := Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.DocumentHash = loaded.Hash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.AssetCount = len(loaded.Graph.Assets())
	result.Stats.DependencyCount = len(loaded.Graph.Dependencies())

	// Stage 2: Split
	splitStart := time.Now()
	plan, planHit, err := r.SplitWithCacheInfo(ctx, loaded, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.SplitTime = time.Since(splitStart)
	result.CacheInfo.PlanHit = planHit

	r.Logger.Info("split assets",
		"assets", plan.Stats.Assets,
		"bundles", len(plan.Bundles),
		"cached", planHit,
		"duration", result.Stats.SplitTime)

	// Stage 3: Store
	if r.Store != nil {
		if err := r.Store.SavePlan(ctx, &plan); err != nil {
			return nil, err
		}
		r.Logger.Debug("stored plan", "id", plan.ID)
	}
	result.Plan = plan

	// Stage 4: Render
	if len(opts.Formats) > 0 {
		renderStart := time.Now()
		artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, plan, opts)
		if err != nil {
			return nil, err
		}
		result.Artifacts = artifacts
		result.Stats.RenderTime = time.Since(renderStart)
		result.CacheInfo.RenderHit = renderHit

		r.Logger.Info("rendered outputs",
			"formats", opts.Formats,
			"duration", result.Stats.RenderTime)
	}
	return result, nil
}

// SplitWithCacheInfo computes the plan for a loaded graph, reusing a cached
// plan for the same document and options unless opts.Refresh is set. The
// returned plan has Source, SourceHash and CreatedAt filled but no ID.
func (r *Runner) SplitWithCacheInfo(ctx context.Context, loaded *Loaded, opts Options) (graph.Plan, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForSplit(); err != nil {
		return graph.Plan{}, false, err
	}

	key := r.Keyer.PlanKey(loaded.Hash, opts.PlanKeyOpts())
	hooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if p, err := graph.UnmarshalPlan(data); err == nil {
				hooks.OnCacheHit(ctx, keyTypePlan)
				p.Source = loaded.Source
				p.CreatedAt = time.Now().UTC()
				return p, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("plan cache lookup failed", "error", err)
		}
		hooks.OnCacheMiss(ctx, keyTypePlan)
	}

	p, err := r.Split(ctx, loaded.Graph, opts)
	if err != nil {
		return graph.Plan{}, false, err
	}
	p.SourceHash = loaded.Hash

	if data, err := graph.MarshalPlan(p); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.PlanTTL); err != nil {
			r.Logger.Warn("plan cache write failed", "error", err)
		} else {
			hooks.OnCacheSet(ctx, keyTypePlan, len(data))
		}
	}

	p.Source = loaded.Source
	p.CreatedAt = time.Now().UTC()
	return p, false, nil
}

// Split runs the splitter over bg without caching.
func (r *Runner) Split(ctx context.Context, bg assetgraph.BundleGraph, opts Options) (graph.Plan, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForSplit(); err != nil {
		return graph.Plan{}, err
	}
	opts.Logger.Debug("splitting", "options", opts.describe())

	hooks := observability.Pipeline()
	hooks.OnSplitStart(ctx, len(bg.Assets()))
	start := time.Now()
	res, err := split.Split(ctx, bg, split.Options{
		MergeThreshold: opts.MergeThreshold(),
		Keyer:          opts.Keyer(),
		Logger:         opts.Logger,
	})
	if err != nil {
		hooks.OnSplitComplete(ctx, 0, time.Since(start), err)
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeInternal, err, "split")
		}
		return graph.Plan{}, err
	}
	hooks.OnSplitComplete(ctx, len(res.Bundles), time.Since(start), nil)
	return graph.FromResult(res, opts.MergeThreshold()), nil
}

// RenderWithCacheInfo renders the plan with caching. It reports a hit only
// when every requested format came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, p graph.Plan, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	planHash, err := contentHash(p)
	if err != nil {
		return nil, false, err
	}
	hooks := observability.Cache()

	artifacts := make(map[string][]byte, len(opts.Formats))
	var missing []string
	for _, format := range opts.Formats {
		key := r.Keyer.RenderKey(planHash, opts.RenderKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit && format != FormatJSON {
			hooks.OnCacheHit(ctx, keyTypeRender)
			artifacts[format] = data
			continue
		}
		hooks.OnCacheMiss(ctx, keyTypeRender)
		missing = append(missing, format)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	renderOpts := opts
	renderOpts.Formats = missing
	renderOpts.validated = false
	rendered, err := Render(ctx, p, renderOpts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		artifacts[format] = data
		// JSON embeds the plan ID and timestamp, so it is never cached.
		if format == FormatJSON {
			continue
		}
		key := r.Keyer.RenderKey(planHash, opts.RenderKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.RenderTTL); err == nil {
			hooks.OnCacheSet(ctx, keyTypeRender, len(data))
		}
	}
	return artifacts, false, nil
}

// Close releases resources held by the runner.
func (r *Runner) Close(ctx context.Context) error {
	var first error
	if r.Cache != nil {
		first = r.Cache.Close()
	}
	if r.Store != nil {
		if err := r.Store.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// contentHash hashes the parts of a plan that affect rendering.
func contentHash(p graph.Plan) (string, error) {
	p.ID, p.CreatedAt, p.Source = "", time.Time{}, ""
	p.Stats.DurationsMS = nil
	data, err := graph.MarshalPlan(p)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "serialize plan for cache key")
	}
	return cache.Hash(data), nil
}
