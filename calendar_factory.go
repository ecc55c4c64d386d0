package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sort"
)

// CalendarFactory handles creation of calendar and spreadsheet backends
type CalendarFactory struct {
	config *Config
	db     *sql.DB
	ctx    context.Context

	httpClient *http.Client
}

// NewCalendarFactory creates a new calendar factory instance
func NewCalendarFactory(ctx context.Context, config *Config, db *sql.DB) *CalendarFactory {
	return &CalendarFactory{
		config: config,
		db:     db,
		ctx:    ctx,
	}
}

func (cf *CalendarFactory) googleClient() (*http.Client, error) {
	if cf.httpClient == nil {
		client, err := getClient(cf.ctx, oauthConfig, cf.db, cf.config.Account)
		if err != nil {
			return nil, err
		}
		cf.httpClient = client
	}
	return cf.httpClient, nil
}

// Calendars builds one provider per backend and routes every configured calendar to it
func (cf *CalendarFactory) Calendars() (*calendarRouter, error) {
	router := &calendarRouter{
		sources: make(map[string]CalendarSource),
		keys:    make(map[string]string),
	}
	providers := make(map[string]CalendarSource)
	horizon := cf.config.Horizon()

	for key, cal := range cf.config.Calendars {
		providerKey := cal.Provider
		if cal.Provider == "caldav" {
			providerKey = "caldav-" + cal.Server
		}

		if _, exists := providers[providerKey]; !exists {
			switch cal.Provider {
			case "google":
				client, err := cf.googleClient()
				if err != nil {
					return nil, err
				}
				provider, err := NewGoogleCalendarProvider(cf.ctx, client, cf.config.Source, cf.config.Location(), horizon)
				if err != nil {
					return nil, fmt.Errorf("error creating Google calendar provider: %w", err)
				}
				providers[providerKey] = provider
			case "caldav":
				server, ok := cf.config.CalDAVs[cal.Server]
				if !ok {
					return nil, fmt.Errorf("CalDAV server '%s' not found in configuration", cal.Server)
				}
				provider, err := NewCalDAVProvider(cf.ctx, server, cf.config.Source, cf.config.Location(), horizon)
				if err != nil {
					return nil, fmt.Errorf("error connecting to CalDAV server %s: %w", cal.Server, err)
				}
				providers[providerKey] = provider
			default:
				return nil, fmt.Errorf("unsupported provider type: %s", cal.Provider)
			}
		}

		router.sources[cal.ID] = providers[providerKey]
		router.keys[cal.ID] = key
	}
	return router, nil
}

// Spreadsheets routes every configured spreadsheet name to its backend
func (cf *CalendarFactory) Spreadsheets() (*spreadsheetRouter, error) {
	router := &spreadsheetRouter{tables: make(map[string]routedTable)}
	var google *GoogleSheetsSource

	for name, sheet := range cf.config.Spreadsheets {
		switch sheet.Provider {
		case "google":
			if google == nil {
				client, err := cf.googleClient()
				if err != nil {
					return nil, err
				}
				google, err = NewGoogleSheetsSource(cf.ctx, client)
				if err != nil {
					return nil, err
				}
			}
			router.tables[name] = routedTable{source: google, id: sheet.ID}
		case "xlsx":
			router.tables[name] = routedTable{source: XLSXSource{}, id: sheet.ID}
		default:
			return nil, fmt.Errorf("unsupported provider type: %s", sheet.Provider)
		}
	}
	return router, nil
}

// calendarRouter dispatches calls to the provider that owns each calendar ID.
type calendarRouter struct {
	sources map[string]CalendarSource
	keys    map[string]string
}

func (r *calendarRouter) source(calendarID string) (CalendarSource, error) {
	src, ok := r.sources[calendarID]
	if !ok {
		return nil, fmt.Errorf("calendar %s is not configured", calendarID)
	}
	return src, nil
}

// IDs returns the configured calendar IDs in a stable order.
func (r *calendarRouter) IDs() []string {
	ids := make([]string, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *calendarRouter) Key(calendarID string) string {
	return r.keys[calendarID]
}

func (r *calendarRouter) ListUpcomingManagedEvents(ctx context.Context, calendarID string) ([]ExistingEvent, error) {
	src, err := r.source(calendarID)
	if err != nil {
		return nil, err
	}
	return src.ListUpcomingManagedEvents(ctx, calendarID)
}

func (r *calendarRouter) Insert(ctx context.Context, calendarID string, event CandidateEvent) (ExistingEvent, error) {
	src, err := r.source(calendarID)
	if err != nil {
		return ExistingEvent{}, err
	}
	return src.Insert(ctx, calendarID, event)
}

func (r *calendarRouter) Update(ctx context.Context, calendarID string, eventID string, event CandidateEvent) error {
	src, err := r.source(calendarID)
	if err != nil {
		return err
	}
	return src.Update(ctx, calendarID, eventID, event)
}

func (r *calendarRouter) Delete(ctx context.Context, calendarID string, eventID string) error {
	src, err := r.source(calendarID)
	if err != nil {
		return err
	}
	return src.Delete(ctx, calendarID, eventID)
}

func (r *calendarRouter) CheckCalendar(ctx context.Context, calendarID string) error {
	src, err := r.source(calendarID)
	if err != nil {
		return err
	}
	checker, ok := src.(CalendarChecker)
	if !ok {
		return nil
	}
	return checker.CheckCalendar(ctx, calendarID)
}
