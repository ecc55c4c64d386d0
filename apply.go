package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"
)

// Journal remembers which events sheetcal has written.
type Journal interface {
	Record(calendarID string, event ExistingEvent) error
	Forget(calendarID string, eventID string) error
}

type nopJournal struct{}

func (nopJournal) Record(string, ExistingEvent) error { return nil }
func (nopJournal) Forget(string, string) error        { return nil }

type ApplyResult struct {
	Inserted int
	Updated  int
	Deleted  int
	Errors   []error
}

func (r *ApplyResult) add(o ApplyResult) {
	r.Inserted += o.Inserted
	r.Updated += o.Updated
	r.Deleted += o.Deleted
	r.Errors = append(r.Errors, o.Errors...)
}

func (r ApplyResult) Failed() int {
	return len(r.Errors)
}

func (r ApplyResult) Err() error {
	return errors.Join(r.Errors...)
}

// Apply executes plan against src one operation at a time. A failed operation is
// logged and counted; the remaining operations still run.
func Apply(ctx context.Context, src CalendarSource, plan Plan, journal Journal) ApplyResult {
	if journal == nil {
		journal = nopJournal{}
	}
	var res ApplyResult
	fail := func(op string, start time.Time, id string, err error) {
		err = &TransportError{Op: op, Target: fmt.Sprintf("%s %s %s", plan.CalendarID, start.Format(time.RFC3339), id), Err: err}
		log.Printf("❌ %v", err)
		res.Errors = append(res.Errors, err)
	}

	for _, ev := range plan.Inserts {
		created, err := src.Insert(ctx, plan.CalendarID, ev)
		if err != nil {
			fail("insert", ev.Start, "", err)
			continue
		}
		printVerbosely(2, "    ➕ Inserted %s %q\n", ev.Start.Format(time.RFC3339), ev.Summary)
		if err := journal.Record(plan.CalendarID, created); err != nil {
			log.Printf("Error recording event %s: %v", created.ID, err)
		}
		res.Inserted++
	}

	for _, u := range plan.Updates {
		if err := src.Update(ctx, plan.CalendarID, u.Existing.ID, u.Desired); err != nil {
			fail("update", u.Desired.Start, u.Existing.ID, err)
			continue
		}
		printVerbosely(2, "    ✏️ Updated %s %q\n", u.Desired.Start.Format(time.RFC3339), u.Desired.Summary)
		if err := journal.Record(plan.CalendarID, ExistingEvent{CandidateEvent: u.Desired, ID: u.Existing.ID}); err != nil {
			log.Printf("Error recording event %s: %v", u.Existing.ID, err)
		}
		res.Updated++
	}

	for _, ev := range plan.Deletes {
		if err := src.Delete(ctx, plan.CalendarID, ev.ID); err != nil {
			fail("delete", ev.Start, ev.ID, err)
			continue
		}
		printVerbosely(2, "    🗑 Deleted %s %q\n", ev.Start.Format(time.RFC3339), ev.Summary)
		if err := journal.Forget(plan.CalendarID, ev.ID); err != nil {
			log.Printf("Error forgetting event %s: %v", ev.ID, err)
		}
		res.Deleted++
	}
	return res
}

// WritePlan prints plans in a human readable form, used by dry runs.
func WritePlan(w io.Writer, plans []Plan) error {
	for _, p := range plans {
		if _, err := fmt.Fprintf(w, "📅 %s\n", p.CalendarID); err != nil {
			return err
		}
		if p.Empty() {
			if _, err := fmt.Fprintln(w, "  ✅ up to date"); err != nil {
				return err
			}
			continue
		}
		for _, ev := range p.Inserts {
			fmt.Fprintf(w, "  ➕ insert %s %q\n", ev.Start.Format(time.RFC3339), ev.Summary)
		}
		for _, u := range p.Updates {
			fmt.Fprintf(w, "  ✏️ update %s %q (was %q, id %s)\n", u.Desired.Start.Format(time.RFC3339), u.Desired.Summary, u.Existing.Summary, u.Existing.ID)
		}
		for _, ev := range p.Deletes {
			fmt.Fprintf(w, "  🗑 delete %s %q (id %s)\n", ev.Start.Format(time.RFC3339), ev.Summary, ev.ID)
		}
		if _, err := fmt.Fprintf(w, "  = %d insert, %d update, %d delete\n", len(p.Inserts), len(p.Updates), len(p.Deletes)); err != nil {
			return err
		}
	}
	return nil
}
