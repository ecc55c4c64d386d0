package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memJournal struct {
	recorded []string
	forgot   []string
}

func (j *memJournal) Record(calendarID string, event ExistingEvent) error {
	j.recorded = append(j.recorded, event.ID)
	return nil
}

func (j *memJournal) Forget(calendarID string, eventID string) error {
	j.forgot = append(j.forgot, eventID)
	return nil
}

func TestApply(t *testing.T) {
	cal := newFakeCalendar()
	cal.events[testCalendarID] = []ExistingEvent{managed("old1", slotT, "Old"), managed("old2", slotT2, "Stale")}
	cal.nextID = 2

	plan := Plan{
		CalendarID: testCalendarID,
		Inserts:    []CandidateEvent{desiredAt(slotT.Add(48*time.Hour), "New")},
		Updates:    []Update{{Existing: managed("old1", slotT, "Old"), Desired: desiredAt(slotT, "Fresh")}},
		Deletes:    []ExistingEvent{managed("old2", slotT2, "Stale")},
	}
	journal := &memJournal{}

	res := Apply(context.Background(), cal, plan, journal)
	assert.Equal(t, ApplyResult{Inserted: 1, Updated: 1, Deleted: 1}, res)
	assert.NoError(t, res.Err())
	assert.Equal(t, []string{"insert New", "update old1", "delete old2"}, cal.calls)
	assert.Equal(t, []string{"ev3", "old1"}, journal.recorded)
	assert.Equal(t, []string{"old2"}, journal.forgot)

	events := cal.events[testCalendarID]
	require.Len(t, events, 2)
	assert.Equal(t, "Fresh", events[0].Summary)
	assert.Equal(t, "New", events[1].Summary)
}

func TestApply_FailuresDoNotStopTheRest(t *testing.T) {
	cal := newFakeCalendar()
	cal.events[testCalendarID] = []ExistingEvent{managed("u1", slotT, "Old"), managed("d1", slotT2, "Stale")}
	cal.fail["u1"] = true
	cal.failOn = func(op string, ev CandidateEvent) bool { return ev.Summary == "A" }

	plan := Plan{
		CalendarID: testCalendarID,
		Inserts: []CandidateEvent{
			desiredAt(slotT.Add(24*time.Hour), "A"),
			desiredAt(slotT.Add(48*time.Hour), "B"),
		},
		Updates: []Update{{Existing: managed("u1", slotT, "Old"), Desired: desiredAt(slotT, "Fresh")}},
		Deletes: []ExistingEvent{managed("d1", slotT2, "Stale")},
	}

	res := Apply(context.Background(), cal, plan, nil)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 2, res.Failed())
	assert.Equal(t, []string{"insert A", "insert B", "update u1", "delete d1"}, cal.calls)

	var transportErr *TransportError
	require.ErrorAs(t, res.Errors[0], &transportErr)
	assert.Equal(t, "insert", transportErr.Op)
	require.ErrorAs(t, res.Errors[1], &transportErr)
	assert.Equal(t, "update", transportErr.Op)
	assert.Contains(t, res.Err().Error(), "backend unavailable")
}

func TestApplyResult_Add(t *testing.T) {
	var total ApplyResult
	total.add(ApplyResult{Inserted: 2, Deleted: 1})
	total.add(ApplyResult{Updated: 3, Errors: []error{assert.AnError}})
	assert.Equal(t, 2, total.Inserted)
	assert.Equal(t, 3, total.Updated)
	assert.Equal(t, 1, total.Deleted)
	assert.Equal(t, 1, total.Failed())
}

func TestWritePlan(t *testing.T) {
	slotT3 := time.Date(2026, 11, 16, 18, 0, 0, 0, time.UTC)
	plans := []Plan{
		{
			CalendarID: testCalendarID,
			Inserts:    []CandidateEvent{desiredAt(slotT, "Meetup: Go")},
			Updates:    []Update{{Existing: managed("ev2", slotT2, "Meetup: Zig"), Desired: desiredAt(slotT2, "Meetup: Rust")}},
			Deletes:    []ExistingEvent{managed("ev3", slotT3, "Cancelled")},
		},
		{CalendarID: "idle"},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePlan(&buf, plans))

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "write_plan", buf.Bytes())
}
