package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/genq/internal/api"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr       string
	PathPrefix string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search API over HTTP",
		Long: `Start the HTTP API:

  POST  <prefix>/search/{entity}
  PATCH <prefix>/patch/{table}/{pk}/{value}
  GET   <prefix>/meta
  GET   <prefix>/metrics
  GET   <prefix>/healthz

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&opts.PathPrefix, "path-prefix", "", "routing prefix (overrides server.path_prefix)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Server.Addr
	if cmd.Flags().Changed("addr") {
		addr = opts.Addr
	}
	prefix := a.cfg.Server.PathPrefix
	if cmd.Flags().Changed("path-prefix") {
		prefix = opts.PathPrefix
	}

	router, err := api.NewRouter(a.svc, api.Options{PathPrefix: prefix, Logger: a.logger})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build router", err)
	}

	a.logger.Info("serving", "addr", addr, "prefix", prefix, "driver", a.engine.Driver(), "types", len(a.svc.Registry().Types()))
	if err := api.Serve(ctx, addr, router, a.logger); err != nil {
		return WrapExitError(ExitCommandError, "server failed", err)
	}
	return nil
}
