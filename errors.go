package main

import (
	"fmt"
	"strings"
)

// TimeParseError is returned when a time cell does not match the configured pattern.
type TimeParseError struct {
	Value   string
	Pattern string
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("invalid time value %q (pattern %s)", e.Value, e.Pattern)
}

// TransportError wraps a failed call to a spreadsheet or calendar backend.
type TransportError struct {
	Op     string
	Target string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ConfigError collects every problem found while validating a configuration.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid configuration: " + e.Problems[0]
	}
	return "invalid configuration:\n  - " + strings.Join(e.Problems, "\n  - ")
}

func (e *ConfigError) addf(format string, a ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, a...))
}
