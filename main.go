// ABOUTME: Entry point for the field capture CLI, daemon, and MCP server
// ABOUTME: Routes subcommands and builds the shared application wiring
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/purpledash/fieldsync/cli"
	"github.com/purpledash/fieldsync/config"
)

const version = "0.1.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	offline := flag.Bool("offline", false, "Force offline mode; every submit goes to the queue")
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("fieldsync version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	command := args[0]
	commandArgs := args[1:]

	// Login only needs the config, not the full wiring.
	if command == "login" {
		if err := cli.LoginCommand(cfg, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	app, err := cli.NewApp(cfg, *offline)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer app.Close()

	switch command {
	case "submit":
		if err := cli.SubmitCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "queue":
		sub := "list"
		if len(commandArgs) > 0 {
			sub = commandArgs[0]
			commandArgs = commandArgs[1:]
		}
		var err error
		switch sub {
		case "list":
			err = cli.QueueListCommand(app, commandArgs)
		case "dead":
			err = cli.QueueDeadCommand(app, commandArgs)
		case "count":
			err = cli.QueueCountCommand(app, commandArgs)
		default:
			err = fmt.Errorf("unknown queue subcommand %q", sub)
		}
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "sync":
		sub := "now"
		if len(commandArgs) > 0 {
			sub = commandArgs[0]
			commandArgs = commandArgs[1:]
		}
		var err error
		switch sub {
		case "now":
			err = cli.SyncNowCommand(app, commandArgs)
		case "daemon":
			err = cli.SyncDaemonCommand(app, commandArgs)
		case "status":
			err = cli.SyncStatusCommand(app, commandArgs)
		default:
			err = fmt.Errorf("unknown sync subcommand %q", sub)
		}
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "serve":
		if err := cli.ServeCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "import":
		if len(commandArgs) == 0 {
			log.Fatal("Error: import requires a subcommand (customers or history)")
		}
		sub := commandArgs[0]
		commandArgs = commandArgs[1:]
		var err error
		switch sub {
		case "customers":
			err = cli.ImportCustomersCommand(app, commandArgs)
		case "history":
			err = cli.ImportHistoryCommand(app, commandArgs)
		default:
			err = fmt.Errorf("unknown import subcommand %q", sub)
		}
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "decode":
		if err := cli.DecodeCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "status":
		if err := cli.StatusCommand(app, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}

	case "mcp":
		if err := cli.MCPCommand(app); err != nil {
			log.Fatalf("MCP server failed: %v", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`fieldsync - offline-capable field capture for detailing jobs

Usage:
  fieldsync [flags] <command> [args]

Commands:
  submit          Record a completed job (see submit -h for fields)
  queue list      Show pending queue entries
  queue dead      Show dead-letter entries
  queue count     Print the pending entry count
  sync now        Drain the queue once
  sync daemon     Run the background sync loop
  sync status     Print a one-line status summary
  status          Open the live status TUI
  serve           Run the dashboard and submission API
  import          Load Customer_Data or Service_History CSV exports
  decode <vin>    Look up year/make/model/trim for a VIN
  login           Store server URL and API token
  mcp             Run the MCP server on stdio

Flags:
  -version        Show version and exit
  -offline        Force offline mode
`)
}
