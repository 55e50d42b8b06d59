package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/matzehuels/domsplit/pkg/assetgraph"
	"github.com/matzehuels/domsplit/pkg/cache"
	"github.com/matzehuels/domsplit/pkg/observability"
)

// Loaded is a decoded asset graph together with the hash of the bytes it
// was decoded from.
type Loaded struct {
	Graph  *assetgraph.Graph
	Hash   string
	Source string
}

// Load decodes the asset graph named by opts: the Input file, or the raw
// Document bytes in DocumentFormat.
func Load(ctx context.Context, opts Options) (*Loaded, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	source := opts.Input
	if source == "" {
		source = "document"
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	var (
		g    *assetgraph.Graph
		data []byte
		err  error
	)
	if opts.Input != "" {
		g, data, err = assetgraph.ReadFile(opts.Input)
	} else {
		data = opts.Document
		var doc *assetgraph.Document
		doc, err = assetgraph.Decode(bytes.NewReader(data), opts.DocumentFormat)
		if err == nil {
			g, err = assetgraph.FromDocument(doc)
		}
	}
	if err != nil {
		hooks.OnLoadComplete(ctx, source, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnLoadComplete(ctx, source, len(g.Assets()), time.Since(start), nil)

	opts.Logger.Debug("loaded asset graph", "source", source, "assets", len(g.Assets()), "dependencies", len(g.Dependencies()))
	return &Loaded{Graph: g, Hash: cache.Hash(data), Source: opts.Input}, nil
}
