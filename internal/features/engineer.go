// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

// Package features derives model-ready columns from the raw visit frame:
// calendar parts from the visit date, an hour-of-day from the epoch-seconds
// visit start, numeric coercion with stable category codes, and the
// missing-value policy ("Unknown" for geographic labels, -1 elsewhere).
package features

import (
	"fmt"
	"strconv"
	"time"

	"github.com/revenuescope/revenuescope/internal/dataset"
	"github.com/revenuescope/revenuescope/internal/logging"
)

// Derived column names added by Engineer.
const (
	ColWeekday   = "_weekday"
	ColDay       = "_day"
	ColMonth     = "_month"
	ColYear      = "_year"
	ColVisitHour = "_visitHour"
)

// Options configures feature engineering.
type Options struct {
	// GeographicColumns keep string labels and get the "Unknown" sentinel
	// for missing values. Everything else becomes numeric.
	GeographicColumns []string

	// DateColumn is the parsed calendar date column. Default "date".
	DateColumn string

	// VisitStartColumn holds epoch seconds for the visit start.
	// Default "visitStartTime".
	VisitStartColumn string
}

func (o *Options) applyDefaults() {
	if o.DateColumn == "" {
		o.DateColumn = "date"
	}
	if o.VisitStartColumn == "" {
		o.VisitStartColumn = "visitStartTime"
	}
}

// Engineer returns a new frame with derived calendar columns, all
// non-geographic columns coerced to numeric, and missing values filled.
// The returned Encoding captures every category-coded column.
//
// Post-conditions: no null cells remain anywhere; every column outside the
// geographic allowlist (and the date column) is numeric.
func Engineer(f *dataset.Frame, opts Options) (*dataset.Frame, *Encoding, error) {
	opts.applyDefaults()

	dateCol := f.Column(opts.DateColumn)
	if dateCol == nil {
		return nil, nil, fmt.Errorf("date column %q not found", opts.DateColumn)
	}
	if dateCol.Kind != dataset.KindTime {
		return nil, nil, fmt.Errorf("date column %q is not a parsed timestamp column", opts.DateColumn)
	}

	out := f.Clone()
	geo := make(map[string]bool, len(opts.GeographicColumns))
	for _, name := range opts.GeographicColumns {
		geo[name] = true
	}

	if err := addCalendarColumns(out, dateCol); err != nil {
		return nil, nil, err
	}
	if err := addVisitHour(out, opts.VisitStartColumn); err != nil {
		return nil, nil, err
	}

	encoding := NewEncoding()
	for _, name := range out.ColumnNames() {
		if name == opts.DateColumn || geo[name] {
			continue
		}
		col := out.Column(name)
		if col.Kind != dataset.KindString {
			continue
		}
		coerceColumn(col, encoding)
	}

	fillMissing(out, geo, opts.DateColumn)

	logging.Debug().
		Int("rows", out.NumRows()).
		Int("columns", out.NumCols()).
		Int("encoded_columns", len(encoding.Columns)).
		Msg("Feature engineering complete")

	return out, encoding, nil
}

// addCalendarColumns derives _weekday/_day/_month/_year from the date
// column. Weekday is zero-indexed with Monday=0.
func addCalendarColumns(f *dataset.Frame, dateCol *dataset.Column) error {
	n := len(dateCol.Times)
	weekday := make([]float64, n)
	day := make([]float64, n)
	month := make([]float64, n)
	year := make([]float64, n)

	for i, t := range dateCol.Times {
		weekday[i] = float64((int(t.Weekday()) + 6) % 7)
		day[i] = float64(t.Day())
		month[i] = float64(int(t.Month()))
		year[i] = float64(t.Year())
	}

	for _, c := range []*dataset.Column{
		{Name: ColWeekday, Kind: dataset.KindNumeric, Num: weekday, Null: make([]bool, n)},
		{Name: ColDay, Kind: dataset.KindNumeric, Num: day, Null: make([]bool, n)},
		{Name: ColMonth, Kind: dataset.KindNumeric, Num: month, Null: make([]bool, n)},
		{Name: ColYear, Kind: dataset.KindNumeric, Num: year, Null: make([]bool, n)},
	} {
		if err := f.AddColumn(c); err != nil {
			return fmt.Errorf("failed to add derived column: %w", err)
		}
	}
	return nil
}

// addVisitHour derives _visitHour (UTC) from the epoch-seconds visit start
// column. Cells that don't parse as epoch seconds stay null and pick up the
// -1 fill later.
func addVisitHour(f *dataset.Frame, visitStartName string) error {
	src := f.Column(visitStartName)
	if src == nil {
		return fmt.Errorf("visit start column %q not found", visitStartName)
	}

	n := src.Len()
	hours := make([]float64, n)
	nulls := make([]bool, n)

	for i := 0; i < n; i++ {
		var epoch float64
		ok := false
		switch src.Kind {
		case dataset.KindNumeric:
			epoch, ok = src.Float(i)
		case dataset.KindString:
			if !src.Null[i] {
				if v, err := strconv.ParseFloat(src.Str[i], 64); err == nil {
					epoch, ok = v, true
				}
			}
		}
		if !ok {
			nulls[i] = true
			continue
		}
		hours[i] = float64(time.Unix(int64(epoch), 0).UTC().Hour())
	}

	col := &dataset.Column{Name: ColVisitHour, Kind: dataset.KindNumeric, Num: hours, Null: nulls}
	if err := f.AddColumn(col); err != nil {
		return fmt.Errorf("failed to add %s: %w", ColVisitHour, err)
	}
	return nil
}

// coerceColumn converts a string column to numeric in place: direct parse
// when every non-null cell is numeric, first-appearance category codes
// otherwise.
func coerceColumn(col *dataset.Column, encoding *Encoding) {
	n := len(col.Str)
	nums := make([]float64, n)

	allNumeric := true
	for i := 0; i < n; i++ {
		if col.Null[i] {
			continue
		}
		v, err := strconv.ParseFloat(col.Str[i], 64)
		if err != nil {
			allNumeric = false
			break
		}
		nums[i] = v
	}

	if !allNumeric {
		codes := make(map[string]int)
		var categories []string
		for i := 0; i < n; i++ {
			if col.Null[i] {
				continue
			}
			code, seen := codes[col.Str[i]]
			if !seen {
				code = len(categories)
				codes[col.Str[i]] = code
				categories = append(categories, col.Str[i])
			}
			nums[i] = float64(code)
		}
		encoding.Columns[col.Name] = categories
	}

	col.Kind = dataset.KindNumeric
	col.Num = nums
	col.Str = nil
}

// fillMissing applies the missing-value policy: "Unknown" for geographic
// columns, -1 for everything else.
func fillMissing(f *dataset.Frame, geo map[string]bool, dateColumn string) {
	for _, name := range f.ColumnNames() {
		col := f.Column(name)
		if name == dateColumn {
			continue
		}
		for i := range col.Null {
			if !col.Null[i] {
				continue
			}
			if geo[name] {
				col.Str[i] = "Unknown"
			} else {
				col.Num[i] = -1
			}
			col.Null[i] = false
		}
	}
}
