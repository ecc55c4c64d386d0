package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".sheetcal.toml"

type Config struct {
	ClientID       string `toml:"client_id" yaml:"client_id"`
	ClientSecret   string `toml:"client_secret" yaml:"client_secret"`
	Account        string `toml:"account" yaml:"account"`
	VerbosityLevel int    `toml:"verbosity_level" yaml:"verbosity_level"`
	TimeZone       string `toml:"time_zone" yaml:"time_zone"`
	HorizonDays    int    `toml:"horizon_days" yaml:"horizon_days"`

	Source       SourceConfig                 `toml:"source" yaml:"source"`
	TimeParsing  TimeParsingConfig            `toml:"time_parsing" yaml:"time_parsing"`
	Calendars    map[string]CalendarConfig    `toml:"calendars" yaml:"calendars"`
	CalDAVs      map[string]CalDAVConfig      `toml:"caldav" yaml:"caldav"`
	Spreadsheets map[string]SpreadsheetConfig `toml:"spreadsheets" yaml:"spreadsheets"`
	Variables    map[string]VariableSpec      `toml:"variables" yaml:"variables"`
	Events       []EventTemplate              `toml:"events" yaml:"events"`

	location *time.Location
	parser   *TimeParser
}

// SourceConfig tags the events owned by sheetcal.
type SourceConfig struct {
	Title string `toml:"title" yaml:"title"`
	URL   string `toml:"url" yaml:"url"`
}

type TimeParsingConfig struct {
	Pattern string   `toml:"pattern" yaml:"pattern"`
	Fields  []string `toml:"fields" yaml:"fields"`
	Column  int      `toml:"column" yaml:"column"`
}

type CalendarConfig struct {
	Provider string `toml:"provider" yaml:"provider"`
	ID       string `toml:"id" yaml:"id"`
	Server   string `toml:"server" yaml:"server"`
}

type CalDAVConfig struct {
	Name      string `toml:"name" yaml:"name"`
	ServerURL string `toml:"server_url" yaml:"server_url"`
	Username  string `toml:"username" yaml:"username"`
	Password  string `toml:"password" yaml:"password"`
}

type SpreadsheetConfig struct {
	Provider string `toml:"provider" yaml:"provider"`
	ID       string `toml:"id" yaml:"id"`
}

// EventTemplate describes the events generated for every time slot.
type EventTemplate struct {
	Calendar    string   `toml:"calendar" yaml:"calendar"`
	Summary     string   `toml:"summary" yaml:"summary"`
	Description string   `toml:"description" yaml:"description"`
	Location    string   `toml:"location" yaml:"location"`
	Duration    Duration `toml:"duration" yaml:"duration"`
	When        string   `toml:"when" yaml:"when"`

	when *vm.Program
}

// Duration accepts Go duration strings ("1h45m") or a plain number of seconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if secs, err := strconv.Atoi(s); err == nil {
		d.Duration = time.Duration(secs) * time.Second
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

var configDir string

func readConfig(filename string) (*Config, error) {
	// Try first current dir, then `$HOME/.config/sheetcal/`
	data, err := os.ReadFile(filename)
	if err != nil {
		if filepath.IsAbs(filename) {
			return nil, err
		}
		alt := filepath.Join(os.Getenv("HOME"), ".config", "sheetcal", filename)
		data, err = os.ReadFile(alt)
		if err != nil {
			return nil, err
		}
		configDir = filepath.Dir(alt)
	} else {
		configDir = filepath.Dir(filename)
	}

	config, err := parseConfig(filename, data)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	verbosityLevel = config.VerbosityLevel

	return config, nil
}

func parseConfig(filename string, data []byte) (*Config, error) {
	var config Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("decode %s: %w", filename, err)
		}
	default:
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("decode %s: %w", filename, err)
		}
	}
	return &config, nil
}

// Validate fills defaults and reports every problem as a single *ConfigError.
func (c *Config) Validate() error {
	problems := &ConfigError{}

	if c.Account == "" {
		c.Account = "default"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 365
	}
	if c.Source.Title == "" {
		problems.addf("source.title is required to tag managed events")
	}

	c.location = time.Local
	if c.TimeZone != "" {
		loc, err := time.LoadLocation(c.TimeZone)
		if err != nil {
			problems.addf("time_zone: %v", err)
		} else {
			c.location = loc
		}
	}

	if c.TimeParsing.Pattern == "" {
		problems.addf("time_parsing.pattern is required")
	} else {
		parser, err := NewTimeParser(c.TimeParsing.Pattern, c.TimeParsing.Fields, c.location)
		if err != nil {
			problems.addf("time_parsing: %v", err)
		}
		c.parser = parser
	}
	if c.TimeParsing.Column < 0 {
		problems.addf("time_parsing.column must not be negative")
	}

	usesGoogle := false
	for key, cal := range c.Calendars {
		if cal.Provider == "" {
			cal.Provider = "google"
			c.Calendars[key] = cal
		}
		if cal.ID == "" {
			problems.addf("calendars.%s.id is required", key)
		}
		switch cal.Provider {
		case "google":
			usesGoogle = true
		case "caldav":
			if _, ok := c.CalDAVs[cal.Server]; !ok {
				problems.addf("calendars.%s: CalDAV server %q not found in configuration", key, cal.Server)
			}
		default:
			problems.addf("calendars.%s: unsupported provider type %q", key, cal.Provider)
		}
	}

	for name, sheet := range c.Spreadsheets {
		if sheet.Provider == "" {
			sheet.Provider = "google"
			c.Spreadsheets[name] = sheet
		}
		if sheet.ID == "" {
			problems.addf("spreadsheets.%s.id is required", name)
		}
		switch sheet.Provider {
		case "google":
			usesGoogle = true
		case "xlsx":
		default:
			problems.addf("spreadsheets.%s: unsupported provider type %q", name, sheet.Provider)
		}
	}

	if usesGoogle && (c.ClientID == "" || c.ClientSecret == "") {
		problems.addf("client_id and client_secret are required for google providers")
	}

	for name, v := range c.Variables {
		if strings.TrimSpace(name) == "" {
			problems.addf("variables: empty variable name")
		}
		if _, ok := c.Spreadsheets[v.Table]; !ok {
			problems.addf("variables.%s: unknown spreadsheet %q", name, v.Table)
		}
		if v.Sheet == "" {
			problems.addf("variables.%s.sheet is required", name)
		}
		if v.Column < 0 {
			problems.addf("variables.%s.column must not be negative", name)
		}
	}

	if len(c.Events) == 0 {
		problems.addf("at least one [[events]] template is required")
	}
	for i := range c.Events {
		ev := &c.Events[i]
		if _, ok := c.Calendars[ev.Calendar]; !ok {
			problems.addf("events[%d]: unknown calendar %q", i, ev.Calendar)
		}
		if ev.Duration.Duration <= 0 {
			problems.addf("events[%d].duration must be positive", i)
		}
		if ev.When != "" {
			program, err := compileWhen(ev.When)
			if err != nil {
				problems.addf("events[%d].when: %v", i, err)
			}
			ev.when = program
		}
	}

	if len(problems.Problems) > 0 {
		return problems
	}
	return nil
}

// Location is the time zone used for parsing sheet times and writing events.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// Horizon is how far ahead events are generated and listed.
func (c *Config) Horizon() time.Duration {
	return time.Duration(c.HorizonDays) * 24 * time.Hour
}

// neededSheets lists every (spreadsheet, sheet) pair referenced by a variable.
func (c *Config) neededSheets() []sheetRef {
	seen := make(map[sheetRef]bool)
	var refs []sheetRef
	for _, v := range c.Variables {
		ref := sheetRef{Table: v.Table, Sheet: v.Sheet}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	sortSheetRefs(refs)
	return refs
}
