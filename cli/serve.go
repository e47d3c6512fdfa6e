// ABOUTME: Serve CLI command
// ABOUTME: Runs the dashboard and submission API alongside the sync daemon
package cli

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/purpledash/fieldsync/engine"
	"github.com/purpledash/fieldsync/web"
)

// ServeCommand starts the HTTP server. The sync loop runs in the
// background so queued submissions drain while serving.
func ServeCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", app.Config.ListenAddr, "Listen address")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if probe, ok := app.Monitor.(*engine.ProbeMonitor); ok {
		go probe.Run(ctx)
	}
	go app.Syncer.Run(ctx)

	server := web.NewServer(app.Store, app.Queue, app.Syncer, app.Metrics)
	return server.Start(*addr)
}
