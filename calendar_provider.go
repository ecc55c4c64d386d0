package main

import (
	"context"
	"time"
)

// CalendarSource is implemented by every calendar backend sheetcal can write to.
type CalendarSource interface {
	// ListUpcomingManagedEvents returns events that start now or later and carry
	// the configured source marker.
	ListUpcomingManagedEvents(ctx context.Context, calendarID string) ([]ExistingEvent, error)
	Insert(ctx context.Context, calendarID string, event CandidateEvent) (ExistingEvent, error)
	Update(ctx context.Context, calendarID string, eventID string, event CandidateEvent) error
	Delete(ctx context.Context, calendarID string, eventID string) error
}

// CalendarChecker verifies that a calendar is reachable with the current credentials.
type CalendarChecker interface {
	CheckCalendar(ctx context.Context, calendarID string) error
}

// CandidateEvent is an event generated from spreadsheet data.
type CandidateEvent struct {
	CalendarID   string
	Start        time.Time
	End          time.Time
	Summary      string
	Description  string
	Location     string
	SourceMarker string
}

// ExistingEvent is an event read back from a calendar.
type ExistingEvent struct {
	CandidateEvent
	ID string
}
