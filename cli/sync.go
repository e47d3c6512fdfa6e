// ABOUTME: Sync CLI commands
// ABOUTME: Immediate drain, long-running daemon, and status reporting
package cli

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/purpledash/fieldsync/engine"
)

// SyncNowCommand runs one drain pass and reports the result.
func SyncNowCommand(app *App, args []string) error {
	if probe, ok := app.Monitor.(*engine.ProbeMonitor); ok {
		probe.Check(context.Background())
	}

	result := app.Syncer.Drain(context.Background())
	if result.Skipped {
		if !app.Monitor.Online() {
			fmt.Println("Offline; queue left untouched")
			return nil
		}
		fmt.Println("A sync is already running")
		return nil
	}

	fmt.Printf("Applied %d, buried %d", result.Applied, result.Buried)
	if result.Stopped {
		remaining, _ := app.Queue.Count()
		fmt.Printf("; stopped on a transient failure with %d remaining", remaining)
	}
	fmt.Println()
	return nil
}

// SyncDaemonCommand runs the connectivity probe and drain loop until
// interrupted.
func SyncDaemonCommand(app *App, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Sync daemon started (queue backend: %s)", app.Config.QueueBackend)

	if probe, ok := app.Monitor.(*engine.ProbeMonitor); ok {
		go probe.Run(ctx)
	}
	app.Syncer.Run(ctx)

	log.Println("Sync daemon stopped")
	return nil
}

// SyncStatusCommand prints a one-line status summary.
func SyncStatusCommand(app *App, args []string) error {
	queued, dead, online, syncing := app.Syncer.Status()

	state := "offline"
	if online {
		state = "online"
	}
	fmt.Printf("%s, %d queued, %d dead", state, queued, dead)
	if syncing {
		fmt.Print(", sync in progress")
	}
	fmt.Println()
	return nil
}
