// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package features

import (
	"strings"
	"testing"

	"github.com/revenuescope/revenuescope/internal/dataset"
)

var geoCols = []string{"geoNetwork.country", "geoNetwork.city"}

const rawCSV = `date,visitNumber,visitStartTime,device.browser,geoNetwork.country,geoNetwork.city,totals.transactionRevenue
20160905,1,1473066185,Chrome,United States,New York,120000000
20160906,2,1473152585,Firefox,,London,
20160907,3,1473238985,Chrome,Canada,,5000000
20160908,1,,Safari,United States,New York,
`

func loadRaw(t *testing.T) *dataset.Frame {
	t.Helper()
	frame, err := dataset.ReadCSV(strings.NewReader(rawCSV), dataset.ReadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	return frame
}

func TestEngineerCalendarColumns(t *testing.T) {
	frame := loadRaw(t)

	out, _, err := Engineer(frame, Options{GeographicColumns: geoCols})
	if err != nil {
		t.Fatalf("Engineer failed: %v", err)
	}

	// 2016-09-05 was a Monday
	weekday := out.Column(ColWeekday)
	if weekday == nil {
		t.Fatal("Expected _weekday column")
	}
	if v, _ := weekday.Float(0); v != 0 {
		t.Errorf("Expected Monday=0 for 2016-09-05, got %v", v)
	}
	if v, _ := weekday.Float(2); v != 2 {
		t.Errorf("Expected Wednesday=2 for 2016-09-07, got %v", v)
	}

	for _, tc := range []struct {
		col  string
		want float64
	}{
		{ColDay, 5},
		{ColMonth, 9},
		{ColYear, 2016},
	} {
		if v, _ := out.Column(tc.col).Float(0); v != tc.want {
			t.Errorf("Expected %s=%v, got %v", tc.col, tc.want, v)
		}
	}

	// 1473066185 = 2016-09-05 09:03:05 UTC
	if v, _ := out.Column(ColVisitHour).Float(0); v != 9 {
		t.Errorf("Expected _visitHour=9, got %v", v)
	}
	// Missing visitStartTime falls back to -1
	if v, _ := out.Column(ColVisitHour).Float(3); v != -1 {
		t.Errorf("Expected _visitHour=-1 for missing epoch, got %v", v)
	}
}

func TestEngineerCategoryCodesFirstAppearance(t *testing.T) {
	frame := loadRaw(t)

	out, enc, err := Engineer(frame, Options{GeographicColumns: geoCols})
	if err != nil {
		t.Fatalf("Engineer failed: %v", err)
	}

	browser := out.Column("device.browser")
	if browser.Kind != dataset.KindNumeric {
		t.Fatal("Expected device.browser coerced to numeric")
	}
	// Chrome first, Firefox second, Safari third
	wantCodes := []float64{0, 1, 0, 2}
	for i, want := range wantCodes {
		if v, _ := browser.Float(i); v != want {
			t.Errorf("Row %d: expected code %v, got %v", i, want, v)
		}
	}

	if !enc.HasColumn("device.browser") {
		t.Fatal("Expected encoding entry for device.browser")
	}
	if code, ok := enc.Code("device.browser", "Firefox"); !ok || code != 1 {
		t.Errorf("Expected Firefox code 1, got %d (ok=%v)", code, ok)
	}
	if enc.Cardinality("device.browser") != 3 {
		t.Errorf("Expected 3 browser categories, got %d", enc.Cardinality("device.browser"))
	}

	// Purely numeric columns parse directly and are not encoded
	if enc.HasColumn("visitNumber") {
		t.Error("visitNumber should parse numerically, not be category-coded")
	}
}

func TestEngineerMissingValuePolicy(t *testing.T) {
	frame := loadRaw(t)

	out, _, err := Engineer(frame, Options{GeographicColumns: geoCols})
	if err != nil {
		t.Fatalf("Engineer failed: %v", err)
	}

	country := out.Column("geoNetwork.country")
	if country.Kind != dataset.KindString {
		t.Fatal("Geographic columns must keep string labels")
	}
	if country.Str[1] != "Unknown" {
		t.Errorf("Expected Unknown for missing country, got %q", country.Str[1])
	}

	revenue := out.Column("totals.transactionRevenue")
	if v, ok := revenue.Float(1); !ok || v != -1 {
		t.Errorf("Expected -1 fill for missing revenue, got %v (ok=%v)", v, ok)
	}

	// Invariant: no nulls anywhere after engineering
	for _, name := range out.ColumnNames() {
		col := out.Column(name)
		for i := range col.Null {
			if col.Null[i] {
				t.Errorf("Column %s still has a null at row %d", name, i)
			}
		}
	}

	// Invariant: every non-geographic, non-date column is numeric
	geoSet := map[string]bool{"geoNetwork.country": true, "geoNetwork.city": true}
	for _, name := range out.ColumnNames() {
		if name == "date" || geoSet[name] {
			continue
		}
		if out.Column(name).Kind != dataset.KindNumeric {
			t.Errorf("Column %s should be numeric after engineering", name)
		}
	}
}

func TestEngineerDeterministicEncoding(t *testing.T) {
	frame := loadRaw(t)

	_, enc1, err := Engineer(frame, Options{GeographicColumns: geoCols})
	if err != nil {
		t.Fatalf("Engineer failed: %v", err)
	}
	_, enc2, err := Engineer(frame, Options{GeographicColumns: geoCols})
	if err != nil {
		t.Fatalf("Engineer failed: %v", err)
	}

	for col, cats := range enc1.Columns {
		other := enc2.Columns[col]
		if len(other) != len(cats) {
			t.Fatalf("Encoding cardinality differs for %s", col)
		}
		for i := range cats {
			if cats[i] != other[i] {
				t.Errorf("Encoding for %s differs at %d: %q vs %q", col, i, cats[i], other[i])
			}
		}
	}
}

func TestEngineerMissingDateColumn(t *testing.T) {
	frame := dataset.NewFrame()
	col := &dataset.Column{Name: "x", Kind: dataset.KindString, Str: []string{"a"}, Null: []bool{false}}
	if err := frame.AddColumn(col); err != nil {
		t.Fatalf("AddColumn failed: %v", err)
	}

	if _, _, err := Engineer(frame, Options{}); err == nil {
		t.Fatal("Expected error for missing date column")
	}
}
