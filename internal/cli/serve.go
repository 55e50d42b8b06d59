package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/domsplit/pkg/observability"
	"github.com/matzehuels/domsplit/pkg/server"
	"github.com/matzehuels/domsplit/pkg/storage"
)

// serveCommand creates the serve command, which runs the HTTP API until
// interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

The server accepts asset graphs on POST /v1/split and keeps every plan it
computes in the plan history (in memory unless store.backend = "mongo").
Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			if runner.Store == nil {
				runner.Store = storage.NewMemoryStore()
			}

			opts := server.Options{
				Runner:       runner,
				Defaults:     cfg.PipelineOptions(),
				MaxBodyBytes: cfg.Server.MaxBodyBytes,
				Logger:       c.Logger,
			}
			if !noMetrics {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				metrics := observability.NewPrometheus(reg)
				observability.SetPipelineHooks(metrics)
				observability.SetSplitHooks(metrics)
				observability.SetCacheHooks(metrics)
				observability.SetHTTPHooks(metrics)
				defer observability.Reset()
				opts.Metrics = metrics.Handler()
			}

			printInfo("Serving on %s", StyleHighlight.Render(addr))
			return server.New(opts).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not serve /metrics")
	return cmd
}
