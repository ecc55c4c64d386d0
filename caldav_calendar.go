package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
)

// propSource carries the source marker on CalDAV events, which have no native
// equivalent of Google's event source.
const propSource = "X-SHEETCAL-SOURCE"

type CalDAVProvider struct {
	client   *caldav.Client
	source   SourceConfig
	location *time.Location
	horizon  time.Duration
	now      func() time.Time
}

func NewCalDAVProvider(ctx context.Context, server CalDAVConfig, source SourceConfig, loc *time.Location, horizon time.Duration) (*CalDAVProvider, error) {
	baseURL, err := url.Parse(server.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid CalDAV server URL: %w", err)
	}

	var httpClient webdav.HTTPClient = http.DefaultClient
	if server.Username != "" && server.Password != "" {
		httpClient = webdav.HTTPClientWithBasicAuth(httpClient, server.Username, server.Password)
	}

	c, err := caldav.NewClient(httpClient, baseURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create CalDAV client: %w", err)
	}

	// Test connection
	if _, err := c.FindCalendars(ctx, ""); err != nil {
		return nil, fmt.Errorf("failed to connect to CalDAV server: %w", err)
	}

	if loc == nil {
		loc = time.Local
	}
	return &CalDAVProvider{
		client:   c,
		source:   source,
		location: loc,
		horizon:  horizon,
		now:      time.Now,
	}, nil
}

func calendarPath(calendarID string) (string, error) {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return "", fmt.Errorf("invalid calendar URL: %w", err)
	}
	return strings.TrimRight(calURL.Path, "/"), nil
}

func objectPath(calendarID, uid string) (string, error) {
	path, err := calendarPath(calendarID)
	if err != nil {
		return "", err
	}
	return path + "/" + uid + ".ics", nil
}

func (c *CalDAVProvider) CheckCalendar(ctx context.Context, calendarID string) error {
	path, err := calendarPath(calendarID)
	if err != nil {
		return err
	}

	// The calendar home set is usually the parent collection
	homeSetPath := "/"
	if i := strings.LastIndex(path, "/"); i > 0 {
		homeSetPath = path[:i]
	}

	calendars, err := c.client.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return fmt.Errorf("failed to find calendars: %w", err)
	}
	for _, cal := range calendars {
		if strings.TrimRight(cal.Path, "/") == path {
			return nil
		}
	}
	return fmt.Errorf("calendar not found at path: %s", path)
}

// toICalCalendar wraps event in a VCALENDAR ready to be stored under uid.
func toICalCalendar(uid string, event CandidateEvent, source SourceConfig, stamp time.Time) *ical.Calendar {
	icalEvent := ical.NewEvent()
	icalEvent.Props.SetText(ical.PropUID, uid)
	icalEvent.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	icalEvent.Props.SetText(ical.PropSummary, event.Summary)
	if event.Description != "" {
		icalEvent.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Location != "" {
		icalEvent.Props.SetText(ical.PropLocation, event.Location)
	}
	icalEvent.Props.SetDateTime(ical.PropDateTimeStart, event.Start)
	icalEvent.Props.SetDateTime(ical.PropDateTimeEnd, event.End)
	icalEvent.Props.SetText(ical.PropStatus, "CONFIRMED")
	setRawProp(icalEvent.Props, propSource, source.Title)
	if source.URL != "" {
		setRawProp(icalEvent.Props, ical.PropURL, source.URL)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//bobuk//sheetcal//EN")
	cal.Children = append(cal.Children, icalEvent.Component)
	return cal
}

// eventFromComponent reads a VEVENT back. Events without a start are reported as not ok.
func eventFromComponent(comp *ical.Component, calendarID string, loc *time.Location) (ExistingEvent, bool) {
	start, err := comp.Props.DateTime(ical.PropDateTimeStart, loc)
	if err != nil || start.IsZero() {
		return ExistingEvent{}, false
	}
	end, err := comp.Props.DateTime(ical.PropDateTimeEnd, loc)
	if err != nil {
		printVerbosely(1, "    ❗️ Event %s has an unreadable end: %v\n", getTextProp(comp.Props, ical.PropUID), err)
	}

	return ExistingEvent{
		CandidateEvent: CandidateEvent{
			CalendarID:   calendarID,
			Start:        start.In(loc),
			End:          end.In(loc),
			Summary:      getTextProp(comp.Props, ical.PropSummary),
			Description:  getTextProp(comp.Props, ical.PropDescription),
			Location:     getTextProp(comp.Props, ical.PropLocation),
			SourceMarker: getTextProp(comp.Props, propSource),
		},
		ID: getTextProp(comp.Props, ical.PropUID),
	}, true
}

func (c *CalDAVProvider) Insert(ctx context.Context, calendarID string, event CandidateEvent) (ExistingEvent, error) {
	uid := "sheetcal-" + uuid.NewString()
	path, err := objectPath(calendarID, uid)
	if err != nil {
		return ExistingEvent{}, err
	}

	if _, err := c.client.PutCalendarObject(ctx, path, toICalCalendar(uid, event, c.source, c.now())); err != nil {
		return ExistingEvent{}, fmt.Errorf("failed to create event: %w", err)
	}

	event.CalendarID = calendarID
	return ExistingEvent{CandidateEvent: event, ID: uid}, nil
}

func (c *CalDAVProvider) Update(ctx context.Context, calendarID string, eventID string, event CandidateEvent) error {
	path, err := objectPath(calendarID, eventID)
	if err != nil {
		return err
	}

	// PutCalendarObject creates or replaces
	if _, err := c.client.PutCalendarObject(ctx, path, toICalCalendar(eventID, event, c.source, c.now())); err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

func (c *CalDAVProvider) Delete(ctx context.Context, calendarID string, eventID string) error {
	path, err := objectPath(calendarID, eventID)
	if err != nil {
		return err
	}

	if err := c.client.Client.RemoveAll(ctx, path); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func (c *CalDAVProvider) ListUpcomingManagedEvents(ctx context.Context, calendarID string) ([]ExistingEvent, error) {
	path, err := calendarPath(calendarID)
	if err != nil {
		return nil, err
	}

	now := c.now()
	query := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: now,
				End:   now.Add(c.horizon),
			}},
		},
	}

	objects, err := c.client.QueryCalendar(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var result []ExistingEvent
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		for _, comp := range obj.Data.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			ev, ok := eventFromComponent(comp, calendarID, c.location)
			if !ok || ev.SourceMarker != c.source.Title || ev.Start.Before(now) {
				continue
			}
			result = append(result, ev)
		}
	}
	return result, nil
}

// setRawProp stores value without a VALUE parameter, so URL stays a URI and the
// marker is written as NAME:value.
func setRawProp(props ical.Props, name, value string) {
	prop := ical.NewProp(name)
	prop.Value = value
	props.Set(prop)
}

func getTextProp(props ical.Props, name string) string {
	prop := props.Get(name)
	if prop == nil {
		return ""
	}
	text, err := prop.Text()
	if err != nil {
		return prop.Value
	}
	return text
}
