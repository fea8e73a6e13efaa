package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/starmap/internal/api"
)

// serveCommand creates the serve command that exposes the pipeline over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve diagrams and renders over HTTP",
		Long: `Serve the render pipeline over HTTP.

Endpoints:
  GET  /healthz       liveness and build version
  POST /v1/diagram    JSON request in, cells and territory layers out
  POST /v1/render     match log in, rendered turn out (?format=svg&turn=-1)

Render options from the config file fill whatever a request leaves unset.`,
		Example: `  starmap serve
  starmap serve --addr 127.0.0.1:9000 --config deploy/starmap.toml
  curl --data-binary @match.json 'localhost:8080/v1/render?format=png&planets=true'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			cfg := c.Config.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			srv := api.New(runner, c.Logger, api.Options{
				Addr:         cfg.Addr,
				ReadTimeout:  cfg.ReadTimeout,
				WriteTimeout: cfg.WriteTimeout,
				MaxBodyBytes: cfg.MaxBodyBytes,
				Defaults:     c.Config.Render.Apply,
			})
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, then :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
