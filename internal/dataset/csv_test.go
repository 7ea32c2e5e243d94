// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package dataset

import (
	"strings"
	"testing"
	"time"
)

const sampleCSV = `date,visitNumber,visitStartTime,device.browser,geoNetwork.country,totals.transactionRevenue
20160902,1,1472830385,Chrome,United States,120000000
20160903,2,1472916785,Firefox,,
2016-09-04,1,1473003185,Safari,Canada,5000000
`

func TestReadCSVBasic(t *testing.T) {
	frame, err := ReadCSV(strings.NewReader(sampleCSV), ReadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	if frame.NumRows() != 3 {
		t.Errorf("Expected 3 rows, got %d", frame.NumRows())
	}
	if frame.NumCols() != 6 {
		t.Errorf("Expected 6 columns, got %d", frame.NumCols())
	}

	dateCol := frame.Column("date")
	if dateCol == nil || dateCol.Kind != KindTime {
		t.Fatal("Expected date column parsed as timestamps")
	}
	want := time.Date(2016, 9, 2, 0, 0, 0, 0, time.UTC)
	if !dateCol.Times[0].Equal(want) {
		t.Errorf("Expected first date %v, got %v", want, dateCol.Times[0])
	}
	// Both YYYYMMDD and YYYY-MM-DD layouts parse
	want3 := time.Date(2016, 9, 4, 0, 0, 0, 0, time.UTC)
	if !dateCol.Times[2].Equal(want3) {
		t.Errorf("Expected third date %v, got %v", want3, dateCol.Times[2])
	}
}

func TestReadCSVNullMask(t *testing.T) {
	frame, err := ReadCSV(strings.NewReader(sampleCSV), ReadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	country := frame.Column("geoNetwork.country")
	if country == nil {
		t.Fatal("Expected geoNetwork.country column")
	}
	if country.Null[0] || !country.Null[1] || country.Null[2] {
		t.Errorf("Expected null mask [false true false], got %v", country.Null)
	}

	revenue := frame.Column("totals.transactionRevenue")
	if !revenue.Null[1] {
		t.Error("Expected empty revenue cell to be null")
	}
}

func TestReadCSVMissingDateColumn(t *testing.T) {
	csv := "a,b\n1,2\n"
	if _, err := ReadCSV(strings.NewReader(csv), ReadOptions{}); err == nil {
		t.Fatal("Expected error for missing date column")
	}
}

func TestReadCSVMalformedDateFatal(t *testing.T) {
	csv := "date,x\nnot-a-date,1\n"
	_, err := ReadCSV(strings.NewReader(csv), ReadOptions{})
	if err == nil {
		t.Fatal("Expected error for malformed date")
	}
	if !strings.Contains(err.Error(), "unparseable date") {
		t.Errorf("Expected descriptive date error, got: %v", err)
	}
}

func TestFrameDrop(t *testing.T) {
	frame, err := ReadCSV(strings.NewReader(sampleCSV), ReadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	dropped := frame.Drop("date", "totals.transactionRevenue")
	if dropped.HasColumn("date") || dropped.HasColumn("totals.transactionRevenue") {
		t.Error("Expected dropped columns absent")
	}
	if dropped.NumCols() != 4 {
		t.Errorf("Expected 4 columns after drop, got %d", dropped.NumCols())
	}
	// Original untouched
	if !frame.HasColumn("date") {
		t.Error("Drop must not mutate the source frame")
	}
}

func TestNumericMatrixRejectsStringColumns(t *testing.T) {
	frame, err := ReadCSV(strings.NewReader(sampleCSV), ReadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if _, err := frame.NumericMatrix([]string{"device.browser"}); err == nil {
		t.Fatal("Expected error extracting a string column as numeric")
	}
	if _, err := frame.NumericMatrix([]string{"nope"}); err == nil {
		t.Fatal("Expected error for unknown column")
	}
}
