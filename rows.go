package main

import (
	"log"
	"sort"
	"time"
)

// Row is one data line of a sheet with its parsed time.
type Row struct {
	Table  string
	Sheet  string
	Time   time.Time
	Values []string
}

// VariableSpec locates the value of a template variable inside the source data.
type VariableSpec struct {
	Table  string `toml:"table" yaml:"table"`
	Sheet  string `toml:"sheet" yaml:"sheet"`
	Column int    `toml:"column" yaml:"column"`
}

// RowOptions controls how raw sheet rows become Rows.
type RowOptions struct {
	TimeColumn int
	Parser     *TimeParser
	Now        time.Time
}

// Eligible reports whether the row lies after now and carries a value outside the
// time column.
func (r Row) Eligible(now time.Time, timeColumn int) bool {
	if !r.Time.After(now) {
		return false
	}
	for i, v := range r.Values {
		if i != timeColumn && v != "" {
			return true
		}
	}
	return false
}

func (r Row) cell(i int) string {
	if i < 0 || i >= len(r.Values) {
		return ""
	}
	return r.Values[i]
}

// ParseRows converts the raw cells of one sheet into eligible rows. The first line is
// a header and is skipped. Rows whose time cell cannot be parsed are logged and skipped.
func ParseRows(table, sheet string, raw [][]string, opts RowOptions) []Row {
	var rows []Row
	for i, values := range raw {
		if i == 0 {
			continue
		}
		line := i + 1
		if opts.TimeColumn >= len(values) || values[opts.TimeColumn] == "" {
			printVerbosely(5, "      ⏭ %s/%s row %d: no time value\n", table, sheet, line)
			continue
		}
		t, err := opts.Parser.Parse(values[opts.TimeColumn])
		if err != nil {
			log.Printf("❗️ %s/%s row %d skipped: %v", table, sheet, line, err)
			continue
		}
		row := Row{Table: table, Sheet: sheet, Time: t, Values: values}
		if !row.Eligible(opts.Now, opts.TimeColumn) {
			printVerbosely(5, "      ⏭ %s/%s row %d: past or empty\n", table, sheet, line)
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// Slot holds the bindings collected for one point in time.
type Slot struct {
	Time time.Time
	Vars Bindings
}

// Timeline groups bindings by time, keyed by Unix seconds.
type Timeline map[int64]*Slot

// Slots returns the slots ordered by time.
func (tl Timeline) Slots() []*Slot {
	slots := make([]*Slot, 0, len(tl))
	for _, s := range tl {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Time.Before(slots[j].Time) })
	return slots
}

// BuildBindingsByTime collects, for every declared variable, the non-empty values found
// in its table, sheet and column. When several rows bind the same variable at the same
// time the last row in scan order wins.
func BuildBindingsByTime(specs map[string]VariableSpec, rows []Row) Timeline {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	tl := make(Timeline)
	for _, name := range names {
		spec := specs[name]
		for _, row := range rows {
			if row.Table != spec.Table || row.Sheet != spec.Sheet {
				continue
			}
			value := row.cell(spec.Column)
			if value == "" {
				continue
			}
			key := row.Time.Unix()
			slot, ok := tl[key]
			if !ok {
				slot = &Slot{Time: row.Time, Vars: make(Bindings)}
				tl[key] = slot
			}
			slot.Vars[name] = value
		}
	}
	return tl
}
