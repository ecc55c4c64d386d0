package main

import (
	"database/sql"
	"time"
)

// dbJournal keeps track of written events in the managed_events table.
type dbJournal struct {
	db  *sql.DB
	now func() time.Time
}

func newDBJournal(db *sql.DB) *dbJournal {
	return &dbJournal{db: db, now: time.Now}
}

func (j *dbJournal) Record(calendarID string, event ExistingEvent) error {
	_, err := j.db.Exec(`INSERT OR REPLACE INTO managed_events
		(calendar_id, event_id, start_time, summary, synced_at)
		VALUES (?, ?, ?, ?, ?)`,
		calendarID, event.ID, event.Start.Format(time.RFC3339), event.Summary, j.now().Format(time.RFC3339))
	return err
}

func (j *dbJournal) Forget(calendarID string, eventID string) error {
	_, err := j.db.Exec("DELETE FROM managed_events WHERE calendar_id = ? AND event_id = ?", calendarID, eventID)
	return err
}

type journalEntry struct {
	CalendarID string
	EventID    string
	Start      string
	Summary    string
}

// Entries returns the tracked events of calendarID, or of every calendar when empty.
func (j *dbJournal) Entries(calendarID string) ([]journalEntry, error) {
	query := "SELECT calendar_id, event_id, start_time, summary FROM managed_events"
	var args []interface{}
	if calendarID != "" {
		query += " WHERE calendar_id = ?"
		args = append(args, calendarID)
	}
	query += " ORDER BY calendar_id, start_time"

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []journalEntry
	for rows.Next() {
		var e journalEntry
		if err := rows.Scan(&e.CalendarID, &e.EventID, &e.Start, &e.Summary); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type calendarCount struct {
	CalendarID string
	Events     int
	LastSynced string
}

func (j *dbJournal) Counts() ([]calendarCount, error) {
	rows, err := j.db.Query("SELECT calendar_id, count(1), max(synced_at) FROM managed_events GROUP BY 1 ORDER BY 1")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []calendarCount
	for rows.Next() {
		var c calendarCount
		if err := rows.Scan(&c.CalendarID, &c.Events, &c.LastSynced); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
