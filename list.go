package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCommand(root *rootOptions) *cobra.Command {
	var detailed bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the calendars and events written by sheetcal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := root.loadConfig(); err != nil {
				return err
			}
			db, err := openDB(defaultDBFile)
			if err != nil {
				return fmt.Errorf("error opening database: %w", err)
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			journal := newDBJournal(db)
			counts, err := journal.Counts()
			if err != nil {
				return fmt.Errorf("error retrieving managed events from database: %w", err)
			}
			if len(counts) == 0 {
				fmt.Fprintln(out, "📋 No events have been synced yet")
				return nil
			}

			fmt.Fprintln(out, "📋 Here's the list of calendars you are syncing:")
			for _, c := range counts {
				fmt.Fprintf(out, "  📅 %s - %d events (last synced %s)\n", c.CalendarID, c.Events, c.LastSynced)
				if !detailed {
					continue
				}
				entries, err := journal.Entries(c.CalendarID)
				if err != nil {
					return fmt.Errorf("error retrieving managed events from database: %w", err)
				}
				for _, e := range entries {
					fmt.Fprintf(out, "    %s %s (%s)\n", e.Start, e.Summary, e.EventID)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&detailed, "events", "e", false, "also list every tracked event")
	return cmd
}
