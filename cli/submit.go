// ABOUTME: Submit CLI command
// ABOUTME: Captures one completed detailing job from flags and submits or queues it
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/purpledash/fieldsync/models"
)

// SubmitCommand records one completed job.
func SubmitCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	vin := fs.String("vin", "", "Vehicle VIN, 17 characters (required)")
	year := fs.Int("year", 0, "Model year")
	mk := fs.String("make", "", "Vehicle make")
	model := fs.String("model", "", "Vehicle model")
	trim := fs.String("trim", "", "Vehicle trim")
	nickname := fs.String("nickname", "", "Vehicle nickname")
	plate := fs.String("plate", "", "License plate")
	odometer := fs.String("odometer", "", "Odometer reading")
	leaseOwned := fs.String("lease-or-owned", "", "Lease or Owned")
	primaryUse := fs.String("primary-use", "", "Primary use")
	historyLink := fs.String("history-link", "", "Service history folder link")
	name := fs.String("customer", "", "Customer name (required)")
	phone := fs.String("phone", "", "Customer phone")
	email := fs.String("email", "", "Customer email")
	address := fs.String("address", "", "Customer address")
	zip := fs.String("zip", "", "Customer zip code")
	pkg := fs.String("package", "", "Detailing package id (required)")
	addons := fs.String("addons", "", "Comma-separated add-on ids")
	total := fs.String("total", "", "Total charged, free-text dollars")
	notes := fs.String("notes", "", "Job notes")
	_ = fs.Parse(args)

	if *vin == "" {
		return fmt.Errorf("--vin is required")
	}
	if *name == "" {
		return fmt.Errorf("--customer is required")
	}
	if *pkg == "" {
		return fmt.Errorf("--package is required")
	}

	var addonIDs []string
	for _, id := range strings.Split(*addons, ",") {
		if id = strings.TrimSpace(id); id != "" {
			addonIDs = append(addonIDs, id)
		}
	}

	payload := models.SubmissionPayload{
		VIN:                *vin,
		Year:               *year,
		Make:               *mk,
		Model:              *model,
		Trim:               *trim,
		Nickname:           *nickname,
		LicensePlate:       *plate,
		Odometer:           *odometer,
		LeaseOrOwned:       *leaseOwned,
		PrimaryUse:         *primaryUse,
		ServiceHistoryLink: *historyLink,
		CustomerName:       *name,
		Phone:              *phone,
		Email:              *email,
		Address:            *address,
		Zip:                *zip,
		PackageID:          *pkg,
		AddOnIDs:           addonIDs,
		TotalCharged:       *total,
		Notes:              *notes,
		PerformedAt:        time.Now(),
	}

	res, err := app.Syncer.SubmitOrQueue(context.Background(), payload)
	if err != nil {
		return err
	}

	switch res.Outcome {
	case models.SubmitOutcomeSaved:
		fmt.Printf("Saved job for %s\n", res.VIN)
	case models.SubmitOutcomeQueued:
		fmt.Printf("Queued job for %s (entry %s); it will sync when the server is reachable\n", res.VIN, res.JobID)
	}
	return nil
}
