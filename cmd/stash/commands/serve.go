// ABOUTME: Serve command runs the HTTP API
// ABOUTME: Shuts down gracefully on interrupt
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/stash/internal/api"
)

var serveAddr string

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API over the same store the CLI uses.

Exposes /api routes for items, search, export, and declutter tasks,
plus /healthz and Prometheus metrics on /metrics.

Examples:
  stash serve
  stash serve --addr :9000`,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config http.addr)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	srv, err := api.New(api.Services{Items: a.Items, Search: a.Search, Declutter: a.Declutter}, a.Registry, a.Logger)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = a.Config.HTTP.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(addr)
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	case err := <-serverErr:
		return err
	}
}
