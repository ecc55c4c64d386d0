package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	slotT  = time.Date(2026, 11, 2, 18, 0, 0, 0, time.UTC)
	slotT2 = time.Date(2026, 11, 9, 18, 0, 0, 0, time.UTC)
)

func TestReconcile_InsertIntoEmptyCalendar(t *testing.T) {
	plan := Reconcile([]CandidateEvent{desiredAt(slotT, "S1")}, nil, "sheetcal")

	require.Len(t, plan.Inserts, 1)
	assert.Equal(t, "S1", plan.Inserts[0].Summary)
	assert.Empty(t, plan.Updates)
	assert.Empty(t, plan.Deletes)
}

func TestReconcile_IdenticalEventIsNoop(t *testing.T) {
	want := desiredAt(slotT, "S1")
	want.Description = "D"
	want.Location = "L"
	have := managed("e1", slotT, "S1")
	have.Description = "D"
	have.Location = "L"

	plan := Reconcile([]CandidateEvent{want}, []ExistingEvent{have}, "sheetcal")
	assert.True(t, plan.Empty())
}

func TestReconcile_ChangedFieldIsUpdate(t *testing.T) {
	for _, change := range []func(*CandidateEvent){
		func(e *CandidateEvent) { e.Summary = "S2" },
		func(e *CandidateEvent) { e.Description = "new" },
		func(e *CandidateEvent) { e.Location = "elsewhere" },
	} {
		want := desiredAt(slotT, "S1")
		change(&want)

		plan := Reconcile([]CandidateEvent{want}, []ExistingEvent{managed("e1", slotT, "S1")}, "sheetcal")
		require.Len(t, plan.Updates, 1)
		assert.Equal(t, "e1", plan.Updates[0].Existing.ID)
		assert.Equal(t, want, plan.Updates[0].Desired)
		assert.Empty(t, plan.Inserts)
		assert.Empty(t, plan.Deletes)
	}
}

func TestReconcile_EndTimeAloneDoesNotUpdate(t *testing.T) {
	want := desiredAt(slotT, "S1")
	want.End = slotT.Add(3 * time.Hour)

	plan := Reconcile([]CandidateEvent{want}, []ExistingEvent{managed("e1", slotT, "S1")}, "sheetcal")
	assert.True(t, plan.Empty())
}

func TestReconcile_StaleManagedEventIsDeleted(t *testing.T) {
	plan := Reconcile([]CandidateEvent{desiredAt(slotT, "S1")},
		[]ExistingEvent{managed("e1", slotT, "S1"), managed("e2", slotT2, "Old")}, "sheetcal")

	require.Len(t, plan.Deletes, 1)
	assert.Equal(t, "e2", plan.Deletes[0].ID)
	assert.Empty(t, plan.Inserts)
	assert.Empty(t, plan.Updates)
}

func TestReconcile_ForeignEventsUntouched(t *testing.T) {
	foreign := managed("mine", slotT, "Dentist")
	foreign.SourceMarker = ""
	other := managed("theirs", slotT2, "Standup")
	other.SourceMarker = "another-tool"

	plan := Reconcile([]CandidateEvent{desiredAt(slotT, "S1")}, []ExistingEvent{foreign, other}, "sheetcal")

	require.Len(t, plan.Inserts, 1)
	assert.Empty(t, plan.Updates)
	assert.Empty(t, plan.Deletes)
}

func TestReconcile_MatchesAcrossTimeZones(t *testing.T) {
	helsinki := time.FixedZone("EET", 2*60*60)
	have := managed("e1", slotT.In(helsinki).Add(400*time.Millisecond), "S1")

	plan := Reconcile([]CandidateEvent{desiredAt(slotT, "S1")}, []ExistingEvent{have}, "sheetcal")
	assert.True(t, plan.Empty())
}

func TestReconcile_DuplicatesLeftUntouched(t *testing.T) {
	plan := Reconcile([]CandidateEvent{desiredAt(slotT, "S2")},
		[]ExistingEvent{managed("e1", slotT, "S1"), managed("e2", slotT, "S1")}, "sheetcal")

	require.Len(t, plan.Updates, 1)
	assert.Equal(t, "e1", plan.Updates[0].Existing.ID)
	assert.Empty(t, plan.Deletes)
	assert.Empty(t, plan.Inserts)
}

func TestPlanCalendars(t *testing.T) {
	const other = "other@group.calendar.google.com"
	otherEvent := desiredAt(slotT, "Elsewhere")
	otherEvent.CalendarID = other

	existing := map[string][]ExistingEvent{
		testCalendarID: {managed("e1", slotT, "S1")},
		"idle":         {managed("e9", slotT2, "Stale")},
	}
	plans := PlanCalendars([]CandidateEvent{desiredAt(slotT, "S1"), otherEvent}, existing, "sheetcal")
	require.Len(t, plans, 3)

	assert.Equal(t, testCalendarID, plans[0].CalendarID)
	assert.True(t, plans[0].Empty())

	assert.Equal(t, "idle", plans[1].CalendarID)
	require.Len(t, plans[1].Deletes, 1)
	assert.Equal(t, "e9", plans[1].Deletes[0].ID)

	assert.Equal(t, other, plans[2].CalendarID)
	require.Len(t, plans[2].Inserts, 1)
}
