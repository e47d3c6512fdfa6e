// ABOUTME: Queue CLI commands
// ABOUTME: Lists pending and dead-letter entries and reports the queue count
package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
)

// QueueListCommand prints pending entries, newest first.
func QueueListCommand(app *App, args []string) error {
	jobs, err := app.Queue.ListAll()
	if err != nil {
		return fmt.Errorf("list queue: %w", err)
	}
	if len(jobs) == 0 {
		fmt.Println("Queue is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVIN\tCUSTOMER\tATTEMPTS\tCAPTURED")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			j.ID, j.Payload.VIN, j.Payload.CustomerName, j.Attempts,
			j.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

// QueueDeadCommand prints buried entries with their burial reason.
func QueueDeadCommand(app *App, args []string) error {
	dead, err := app.Queue.ListDead()
	if err != nil {
		return fmt.Errorf("list dead letters: %w", err)
	}
	if len(dead) == 0 {
		fmt.Println("No dead-letter entries")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVIN\tREASON\tBURIED")
	for _, d := range dead {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			d.ID, d.Payload.VIN, d.Reason, d.BuriedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

// QueueCountCommand prints the pending entry count.
func QueueCountCommand(app *App, args []string) error {
	n, err := app.Queue.Count()
	if err != nil {
		return fmt.Errorf("count queue: %w", err)
	}
	fmt.Println(n)
	return nil
}
