package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/domsplit/pkg/errors"
	"github.com/matzehuels/domsplit/pkg/graph"
	"github.com/matzehuels/domsplit/pkg/render/nodelink"
)

// Render generates output artifacts for the plan in the requested formats.
// Formats are rendered concurrently.
func Render(ctx context.Context, p graph.Plan, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	var (
		mu        sync.Mutex
		artifacts = make(map[string][]byte, len(opts.Formats))
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, format := range opts.Formats {
		g.Go(func() error {
			data, err := RenderFormat(ctx, p, format, opts)
			if err != nil {
				return err
			}
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// RenderFormat renders a single format.
func RenderFormat(ctx context.Context, p graph.Plan, format string, opts Options) ([]byte, error) {
	nlOpts := nodelink.Options{Detailed: opts.Detailed, Bundles: opts.Clusters}
	switch format {
	case FormatDOT:
		return []byte(nodelink.ToDOT(p, nlOpts)), nil
	case FormatSVG:
		data, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(p, nlOpts))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
		}
		return data, nil
	case FormatJSON:
		return graph.MarshalPlan(p)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
	}
}
