package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
client_id = "id"
client_secret = "secret"
verbosity_level = 2
time_zone = "Europe/Helsinki"

[source]
title = "sheetcal"
url = "https://example.com"

[time_parsing]
pattern = '(\d+)\.(\d+)\.(\d+) klo (\d+)\.(\d+)\.(\d+)'
fields = ["day", "month", "year", "hour", "min", "sec"]
column = 0

[calendars.club]
id = "club@group.calendar.google.com"

[calendars.board]
provider = "caldav"
id = "https://dav.example.com/calendars/board/"
server = "home"

[caldav.home]
server_url = "https://dav.example.com/"
username = "me"
password = "pw"

[spreadsheets.schedule]
id = "1AbCdEf"

[spreadsheets.local]
provider = "xlsx"
id = "board.xlsx"

[variables.place]
table = "schedule"
sheet = "English"
column = 1

[variables.agenda]
table = "local"
sheet = "Board"
column = 2

[[events]]
calendar = "club"
summary = "Meetup at {{ place }}"
duration = "1h45m"
when = 'place != "TBD"'

[[events]]
calendar = "board"
summary = "Board: {{ agenda }}"
duration = 3600
`

const sampleYAML = `
client_id: id
client_secret: secret
source:
  title: sheetcal
time_parsing:
  pattern: '(\d+)-(\d+)-(\d+)'
  fields: [year, month, day]
calendars:
  club:
    id: club@group.calendar.google.com
spreadsheets:
  schedule:
    id: 1AbCdEf
variables:
  place:
    table: schedule
    sheet: English
    column: 1
events:
  - calendar: club
    summary: "Meetup at {{ place }}"
    duration: 90m
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadConfig_TOML(t *testing.T) {
	t.Cleanup(func() { verbosityLevel = 1; configDir = "" })
	path := writeConfig(t, ".sheetcal.toml", sampleTOML)

	config, err := readConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2, verbosityLevel)
	assert.Equal(t, filepath.Dir(path), configDir)
	assert.Equal(t, "default", config.Account)
	assert.Equal(t, 365, config.HorizonDays)
	assert.Equal(t, "Europe/Helsinki", config.Location().String())
	assert.Equal(t, "google", config.Calendars["club"].Provider)
	assert.Equal(t, "caldav", config.Calendars["board"].Provider)
	assert.Equal(t, "google", config.Spreadsheets["schedule"].Provider)
	assert.Equal(t, VariableSpec{Table: "local", Sheet: "Board", Column: 2}, config.Variables["agenda"])
	require.Len(t, config.Events, 2)
	assert.Equal(t, 105*time.Minute, config.Events[0].Duration.Duration)
	assert.Equal(t, time.Hour, config.Events[1].Duration.Duration)
	assert.NotNil(t, config.Events[0].when)
	assert.Nil(t, config.Events[1].when)
	assert.Equal(t, []sheetRef{{Table: "local", Sheet: "Board"}, {Table: "schedule", Sheet: "English"}}, config.neededSheets())
}

func TestReadConfig_YAML(t *testing.T) {
	t.Cleanup(func() { verbosityLevel = 1; configDir = "" })
	path := writeConfig(t, "sheetcal.yaml", sampleYAML)

	config, err := readConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sheetcal", config.Source.Title)
	assert.Equal(t, 90*time.Minute, config.Events[0].Duration.Duration)
	assert.Equal(t, []string{"year", "month", "day"}, config.TimeParsing.Fields)
}

func TestReadConfig_Missing(t *testing.T) {
	_, err := readConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestConfigValidate_CollectsProblems(t *testing.T) {
	config := &Config{
		TimeZone:    "Mars/Olympus",
		TimeParsing: TimeParsingConfig{Pattern: `(\d+)`, Fields: []string{"day"}},
		Calendars: map[string]CalendarConfig{
			"a": {Provider: "outlook", ID: "x"},
			"b": {Provider: "caldav", ID: "y", Server: "missing"},
		},
		Spreadsheets: map[string]SpreadsheetConfig{"s": {Provider: "xlsx"}},
		Variables:    map[string]VariableSpec{"v": {Table: "nope", Column: -1}},
		Events: []EventTemplate{
			{Calendar: "zzz", Summary: "{{ v }}"},
			{Calendar: "a", Summary: "{{ v }}", Duration: Duration{time.Hour}, When: "v ==="},
		},
	}

	err := config.Validate()
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)

	for _, want := range []string{
		"source.title is required to tag managed events",
		`calendars.a: unsupported provider type "outlook"`,
		`calendars.b: CalDAV server "missing" not found in configuration`,
		"spreadsheets.s.id is required",
		`variables.v: unknown spreadsheet "nope"`,
		"variables.v.sheet is required",
		"variables.v.column must not be negative",
		`events[0]: unknown calendar "zzz"`,
		"events[0].duration must be positive",
	} {
		assert.Contains(t, cfgErr.Problems, want)
	}
	assert.Contains(t, err.Error(), "time_zone")
	assert.Contains(t, err.Error(), "time_parsing")
	assert.Contains(t, err.Error(), "events[1].when")
}

func TestConfigValidate_GoogleNeedsClient(t *testing.T) {
	config := newTestConfig(t)
	config.Calendars["main"] = CalendarConfig{ID: "main@group.calendar.google.com"}

	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client_id and client_secret are required")
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("6300")))
	assert.Equal(t, 105*time.Minute, d.Duration)
	require.NoError(t, d.UnmarshalText([]byte("2h")))
	assert.Equal(t, 2*time.Hour, d.Duration)
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
