// ABOUTME: Import CLI commands
// ABOUTME: Loads the historical Customer_Data and Service_History CSV exports
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/purpledash/fieldsync/importer"
)

// ImportCustomersCommand loads a Customer_Data.csv export.
func ImportCustomersCommand(app *App, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: import customers <file.csv>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	res, err := importer.ImportCustomerData(context.Background(), app.Store, f)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d rows, skipped %d\n", res.Imported, res.Skipped)
	return nil
}

// ImportHistoryCommand loads a Service_History.csv export.
func ImportHistoryCommand(app *App, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: import history <file.csv>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	res, err := importer.ImportServiceHistory(context.Background(), app.Store, f)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d rows, skipped %d\n", res.Imported, res.Skipped)
	return nil
}
