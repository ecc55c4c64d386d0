package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type GoogleCalendarProvider struct {
	service  *calendar.Service
	source   SourceConfig
	location *time.Location
	horizon  time.Duration
	now      func() time.Time
}

func NewGoogleCalendarProvider(ctx context.Context, client *http.Client, source SourceConfig, loc *time.Location, horizon time.Duration) (*GoogleCalendarProvider, error) {
	return newGoogleCalendarProvider(ctx, source, loc, horizon, option.WithHTTPClient(client))
}

func newGoogleCalendarProvider(ctx context.Context, source SourceConfig, loc *time.Location, horizon time.Duration, opts ...option.ClientOption) (*GoogleCalendarProvider, error) {
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &GoogleCalendarProvider{
		service:  service,
		source:   source,
		location: loc,
		horizon:  horizon,
		now:      time.Now,
	}, nil
}

func (g *GoogleCalendarProvider) CheckCalendar(ctx context.Context, calendarID string) error {
	_, err := g.service.CalendarList.Get(calendarID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get calendar: %w", err)
	}
	return nil
}

func (g *GoogleCalendarProvider) toGoogleEvent(event CandidateEvent) *calendar.Event {
	return &calendar.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Start: &calendar.EventDateTime{
			DateTime: event.Start.In(g.location).Format(time.RFC3339),
			TimeZone: g.location.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: event.End.In(g.location).Format(time.RFC3339),
			TimeZone: g.location.String(),
		},
		Source: &calendar.EventSource{
			Title: g.source.Title,
			Url:   g.source.URL,
		},
	}
}

func (g *GoogleCalendarProvider) Insert(ctx context.Context, calendarID string, event CandidateEvent) (ExistingEvent, error) {
	created, err := g.service.Events.Insert(calendarID, g.toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		return ExistingEvent{}, fmt.Errorf("failed to create event: %w", err)
	}
	event.CalendarID = calendarID
	return ExistingEvent{CandidateEvent: event, ID: created.Id}, nil
}

func (g *GoogleCalendarProvider) Update(ctx context.Context, calendarID string, eventID string, event CandidateEvent) error {
	_, err := g.service.Events.Update(calendarID, eventID, g.toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

func (g *GoogleCalendarProvider) Delete(ctx context.Context, calendarID string, eventID string) error {
	err := g.service.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func (g *GoogleCalendarProvider) ListUpcomingManagedEvents(ctx context.Context, calendarID string) ([]ExistingEvent, error) {
	var result []ExistingEvent
	pageToken := ""
	now := g.now()

	for {
		// timeMin bounds the end of an event, timeMax its start
		events, err := g.service.Events.List(calendarID).
			TimeMin(now.Format(time.RFC3339)).
			TimeMax(now.Add(g.horizon).Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			PageToken(pageToken).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list events: %w", err)
		}

		for _, item := range events.Items {
			// only events written by sheetcal
			if item.Source == nil || item.Source.Title != g.source.Title {
				continue
			}
			// all-day events have no DateTime and are never written by sheetcal
			if item.Start == nil || item.Start.DateTime == "" {
				continue
			}
			start, err := time.Parse(time.RFC3339, item.Start.DateTime)
			if err != nil {
				printVerbosely(1, "    ❗️ Event %s has an unreadable start %q\n", item.Id, item.Start.DateTime)
				continue
			}
			// already running, no longer upcoming
			if start.Before(now) {
				continue
			}
			var end time.Time
			if item.End != nil {
				end, err = time.Parse(time.RFC3339, item.End.DateTime)
				if err != nil {
					printVerbosely(1, "    ❗️ Event %s has an unreadable end %q\n", item.Id, item.End.DateTime)
				}
			}

			result = append(result, ExistingEvent{
				CandidateEvent: CandidateEvent{
					CalendarID:   calendarID,
					Start:        start.In(g.location),
					End:          end.In(g.location),
					Summary:      item.Summary,
					Description:  item.Description,
					Location:     item.Location,
					SourceMarker: item.Source.Title,
				},
				ID: item.Id,
			})
		}

		pageToken = events.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return result, nil
}
