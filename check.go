package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

func newCheckCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the config and access to every calendar and spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkSetup(cmd.Context(), root, cmd.OutOrStdout())
		},
	}
}

func checkSetup(ctx context.Context, root *rootOptions, out io.Writer) error {
	config, err := root.loadConfig()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "✅ Configuration is valid")

	db, err := openDB(defaultDBFile)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	defer db.Close()

	factory := NewCalendarFactory(ctx, config, db)
	calendars, err := factory.Calendars()
	if err != nil {
		return fmt.Errorf("error initializing calendar providers: %w", err)
	}
	failed := 0
	for _, id := range calendars.IDs() {
		if err := calendars.CheckCalendar(ctx, id); err != nil {
			fmt.Fprintf(out, "  ❌ Calendar %s (%s): %v\n", calendars.Key(id), id, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "  📅 Calendar %s (%s) is accessible\n", calendars.Key(id), id)
	}

	sheets, err := factory.Spreadsheets()
	if err != nil {
		return fmt.Errorf("error initializing spreadsheet sources: %w", err)
	}
	opts := RowOptions{TimeColumn: config.TimeParsing.Column, Parser: config.parser, Now: time.Now()}
	for _, ref := range config.neededSheets() {
		raw, err := sheets.FetchRows(ctx, ref.Table, ref.Sheet)
		if err != nil {
			fmt.Fprintf(out, "  ❌ Sheet %s / %s: %v\n", ref.Table, ref.Sheet, err)
			failed++
			continue
		}
		rows := ParseRows(ref.Table, ref.Sheet, raw, opts)
		fmt.Fprintf(out, "  📄 Sheet %s / %s: %d lines, %d upcoming\n", ref.Table, ref.Sheet, len(raw), len(rows))
	}

	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	return nil
}
