// ABOUTME: Status CLI command
// ABOUTME: Opens the live TUI status view
package cli

import (
	"github.com/purpledash/fieldsync/tui"
)

// StatusCommand opens the interactive status screen.
func StatusCommand(app *App, args []string) error {
	return tui.Run(app.Syncer)
}
