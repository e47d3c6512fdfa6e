// ABOUTME: Login CLI command
// ABOUTME: Stores the server URL and API token after verifying reachability
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/purpledash/fieldsync/config"
	"github.com/purpledash/fieldsync/store"
)

// LoginCommand prompts for an API token, verifies it against the server,
// and saves the config.
func LoginCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	server := fs.String("server", cfg.ServerURL, "Server base URL (required)")
	_ = fs.Parse(args)

	if *server == "" {
		return fmt.Errorf("--server is required")
	}

	fmt.Print("API token: ")
	tokenBytes, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(string(tokenBytes))
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	remote := store.NewRemoteStore(*server, token)
	if err := remote.Ping(ctx); err != nil {
		return fmt.Errorf("server check failed: %w", err)
	}

	cfg.ServerURL = *server
	cfg.APIToken = token
	if err := cfg.Save(); err != nil {
		return err
	}

	fmt.Printf("Logged in to %s; config saved to %s\n", *server, config.Path())
	return nil
}
