package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

func compileWhen(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
}

func evalWhen(program *vm.Program, vars Bindings) (bool, error) {
	env := make(map[string]interface{}, len(vars))
	for k, v := range vars {
		env[k] = v
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	ok, _ := out.(bool)
	return ok, nil
}

// GenerateEvents renders every event template for each time slot bound by its
// variables. Templates without variables produce nothing, and only slots strictly
// after now and before the horizon are used, matching what calendars list back.
func GenerateEvents(config *Config, rows []Row, now time.Time) ([]CandidateEvent, error) {
	var events []CandidateEvent
	limit := now.Add(config.Horizon())
	for i, tmpl := range config.Events {
		cal, ok := config.Calendars[tmpl.Calendar]
		if !ok {
			return nil, &ConfigError{Problems: []string{fmt.Sprintf("events[%d]: unknown calendar %q", i, tmpl.Calendar)}}
		}

		specs := make(map[string]VariableSpec)
		for _, text := range []string{tmpl.Summary, tmpl.Description, tmpl.Location} {
			for _, name := range FindVariables(text) {
				spec, ok := config.Variables[name]
				if !ok {
					printVerbosely(4, "    ⚠️ events[%d]: variable %q is not declared, ignoring\n", i, name)
					continue
				}
				specs[name] = spec
			}
		}
		if len(specs) == 0 {
			printVerbosely(3, "    ⚠️ events[%d]: template uses no declared variables, nothing to generate\n", i)
			continue
		}

		for _, slot := range BuildBindingsByTime(specs, rows).Slots() {
			if !slot.Time.After(now) {
				continue
			}
			if !slot.Time.Before(limit) {
				printVerbosely(4, "    ⏭ events[%d] at %s is past the horizon\n", i, slot.Time.Format(time.RFC3339))
				continue
			}
			if tmpl.when != nil {
				keep, err := evalWhen(tmpl.when, slot.Vars)
				if err != nil {
					printVerbosely(1, "    ❗️ events[%d] at %s: when: %v\n", i, slot.Time.Format(time.RFC3339), err)
					continue
				}
				if !keep {
					continue
				}
			}
			events = append(events, CandidateEvent{
				CalendarID:   cal.ID,
				Start:        slot.Time,
				End:          slot.Time.Add(tmpl.Duration.Duration),
				Summary:      Render(tmpl.Summary, slot.Vars),
				Description:  Render(tmpl.Description, slot.Vars),
				Location:     Render(tmpl.Location, slot.Vars),
				SourceMarker: config.Source.Title,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].CalendarID != events[j].CalendarID {
			return events[i].CalendarID < events[j].CalendarID
		}
		return events[i].Start.Before(events[j].Start)
	})
	for _, ev := range collidingEvents(events) {
		printVerbosely(1, "    ⚠️ several templates target %s at %s, %q will overwrite the other\n",
			ev.CalendarID, ev.Start.Format(time.RFC3339), ev.Summary)
	}
	return events, nil
}

// collidingEvents returns the events that share calendar and start second with an
// earlier event in the sorted list. Only one of them can exist in the calendar.
func collidingEvents(events []CandidateEvent) []CandidateEvent {
	var out []CandidateEvent
	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1], events[i]
		if prev.CalendarID == cur.CalendarID && prev.Start.Unix() == cur.Start.Unix() {
			out = append(out, cur)
		}
	}
	return out
}
