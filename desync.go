package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spf13/cobra"
)

func newDesyncCommand(root *rootOptions) *cobra.Command {
	var calendarKey string
	cmd := &cobra.Command{
		Use:   "desync",
		Short: "Remove every event sheetcal has recorded as written",
		RunE: func(cmd *cobra.Command, args []string) error {
			return desyncCalendars(cmd.Context(), root, calendarKey, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&calendarKey, "calendar", "", "only desync this calendar (config key)")
	return cmd
}

func desyncCalendars(ctx context.Context, root *rootOptions, calendarKey string, out io.Writer) error {
	config, err := root.loadConfig()
	if err != nil {
		return err
	}

	calendarID := ""
	if calendarKey != "" {
		cal, ok := config.Calendars[calendarKey]
		if !ok {
			return fmt.Errorf("calendar %q is not configured", calendarKey)
		}
		calendarID = cal.ID
	}

	db, err := openDB(defaultDBFile)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	defer db.Close()

	fmt.Fprintln(out, "🚀 Starting calendar desynchronization...")

	calendars, err := NewCalendarFactory(ctx, config, db).Calendars()
	if err != nil {
		return fmt.Errorf("error initializing calendar providers: %w", err)
	}
	journal := newDBJournal(db)
	entries, err := journal.Entries(calendarID)
	if err != nil {
		return fmt.Errorf("error retrieving managed events from database: %w", err)
	}

	failed := 0
	for _, e := range entries {
		err := calendars.Delete(ctx, e.CalendarID, e.EventID)
		switch {
		case err == nil:
			fmt.Fprintf(out, "  ✅ Event deleted: %s %s\n", e.Start, e.Summary)
		case strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "410"):
			fmt.Fprintf(out, "  ⚠️ Event not found in calendar: %s\n", e.EventID)
		default:
			log.Printf("❌ Error deleting event %s: %v", e.EventID, err)
			failed++
			continue
		}
		if err := journal.Forget(e.CalendarID, e.EventID); err != nil {
			return fmt.Errorf("error deleting event from database: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d events could not be deleted", failed)
	}
	fmt.Fprintln(out, "Calendars desynced successfully")
	return nil
}
