package main

import (
	"sort"
	"time"
)

// Plan lists the operations that bring one calendar in line with the desired events.
type Plan struct {
	CalendarID string
	Inserts    []CandidateEvent
	Updates    []Update
	Deletes    []ExistingEvent
}

// Update replaces the fields of Existing with those of Desired, keeping its ID.
type Update struct {
	Existing ExistingEvent
	Desired  CandidateEvent
}

func (p Plan) Empty() bool {
	return len(p.Inserts) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// sameSlot reports whether two events are the same managed occurrence: both carry
// marker and they start in the same second.
func sameSlot(a, b CandidateEvent, marker string) bool {
	return a.SourceMarker == marker && b.SourceMarker == marker &&
		a.Start.Truncate(time.Second).Equal(b.Start.Truncate(time.Second))
}

func sameContent(a, b CandidateEvent) bool {
	return a.Summary == b.Summary && a.Description == b.Description && a.Location == b.Location
}

// Reconcile diffs the desired events of one calendar against the events already in it.
// Only the first existing event matching a desired event is considered; further
// managed events at the same start are left alone.
func Reconcile(desired []CandidateEvent, existing []ExistingEvent, marker string) Plan {
	var plan Plan
	for _, want := range desired {
		match := -1
		for i := range existing {
			if sameSlot(existing[i].CandidateEvent, want, marker) {
				match = i
				break
			}
		}
		switch {
		case match < 0:
			plan.Inserts = append(plan.Inserts, want)
		case !sameContent(existing[match].CandidateEvent, want):
			plan.Updates = append(plan.Updates, Update{Existing: existing[match], Desired: want})
		}
	}

	claimed := make(map[int]bool)
	for _, have := range existing {
		if have.SourceMarker != marker {
			continue
		}
		found := -1
		for j := range desired {
			if sameSlot(desired[j], have.CandidateEvent, marker) {
				found = j
				break
			}
		}
		if found < 0 {
			plan.Deletes = append(plan.Deletes, have)
			continue
		}
		if claimed[found] {
			printVerbosely(1, "    ⚠️ duplicate managed event %s at %s left untouched\n", have.ID, have.Start.Format(time.RFC3339))
		}
		claimed[found] = true
	}
	return plan
}

// PartitionByCalendar groups desired events by calendar ID.
func PartitionByCalendar(events []CandidateEvent) map[string][]CandidateEvent {
	byCalendar := make(map[string][]CandidateEvent)
	for _, ev := range events {
		byCalendar[ev.CalendarID] = append(byCalendar[ev.CalendarID], ev)
	}
	return byCalendar
}

// PlanCalendars reconciles each calendar independently. Calendars appearing only in
// existing still get a plan so that stale managed events are removed.
func PlanCalendars(desired []CandidateEvent, existing map[string][]ExistingEvent, marker string) []Plan {
	byCalendar := PartitionByCalendar(desired)
	ids := make(map[string]bool)
	for id := range byCalendar {
		ids[id] = true
	}
	for id := range existing {
		ids[id] = true
	}

	plans := make([]Plan, 0, len(ids))
	for id := range ids {
		plan := Reconcile(byCalendar[id], existing[id], marker)
		plan.CalendarID = id
		plans = append(plans, plan)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].CalendarID < plans[j].CalendarID })
	return plans
}
