package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"
)

func newCleanupCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete every upcoming event tagged with the source marker, tracked or not",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cleanupCalendars(cmd.Context(), root, cmd.OutOrStdout())
		},
	}
}

func cleanupCalendars(ctx context.Context, root *rootOptions, out io.Writer) error {
	config, err := root.loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(defaultDBFile)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	defer db.Close()

	calendars, err := NewCalendarFactory(ctx, config, db).Calendars()
	if err != nil {
		return fmt.Errorf("error initializing calendar providers: %w", err)
	}

	res, err := cleanupCalendar(ctx, calendars, calendars.IDs(), newDBJournal(db))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "🧹 %d managed events deleted, %d failed\n", res.Deleted, res.Failed())
	return res.Err()
}

// cleanupCalendar removes every upcoming managed event by applying a plan with no
// desired events.
func cleanupCalendar(ctx context.Context, src CalendarSource, ids []string, journal Journal) (ApplyResult, error) {
	var total ApplyResult
	for _, id := range ids {
		existing, err := src.ListUpcomingManagedEvents(ctx, id)
		if err != nil {
			log.Printf("Error retrieving events for %s: %v", id, err)
			return total, &TransportError{Op: "list events", Target: id, Err: err}
		}
		total.add(Apply(ctx, src, Plan{CalendarID: id, Deletes: existing}, journal))
	}
	return total, nil
}
