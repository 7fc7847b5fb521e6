package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"souschef/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	Long: `Serve the answering API over HTTP.

Endpoints:
  POST /api/ask     {"prompt": "..."} -> grounded answer with citations
  GET  /api/stats   index and cache summary
  GET  /healthz     liveness and index state

The index is warmed in the background at startup; until it is ready the
first queries wait on the shared build.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := newApp(nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Warm the index so the first query doesn't pay for the build. A
	// failure here is not fatal: the next query retries the build.
	go func() {
		if _, err := app.manager.Index(ctx); err != nil {
			app.logger.Warn("index warmup failed", "error", err)
		}
	}()

	addr := serveAddr
	if addr == "" {
		addr = app.cfg.Server.Addr
	}

	srv := server.New(app.answerer, app.manager, app.logger)
	return srv.Run(ctx, addr)
}
