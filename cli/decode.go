// ABOUTME: Decode CLI command
// ABOUTME: Looks up year, make, model, and trim for a VIN
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/purpledash/fieldsync/normalize"
)

// DecodeCommand resolves a VIN through the configured decoder.
func DecodeCommand(app *App, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: decode <vin>")
	}
	if app.Decoder == nil {
		return fmt.Errorf("no VIN decode service configured (set vin_decode_url)")
	}

	vin := normalize.VIN(args[0])
	if !normalize.IsValidVIN(vin) {
		return fmt.Errorf("%q is not a valid 17-character VIN", args[0])
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	identity, err := app.Decoder.Decode(ctx, vin)
	if err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}

	fmt.Printf("VIN:   %s\n", vin)
	fmt.Printf("Year:  %d\n", identity.Year)
	fmt.Printf("Make:  %s\n", identity.Make)
	fmt.Printf("Model: %s\n", identity.Model)
	fmt.Printf("Trim:  %s\n", identity.Trim)
	return nil
}
