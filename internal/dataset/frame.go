// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

// Package dataset provides the in-memory visit table (Frame) and the
// ingestion pipeline that produces it: archive extraction, CSV parsing and
// optional remote fetch.
//
// A Frame is column-oriented: each column holds either raw string labels,
// numeric values or parsed timestamps, plus a null mask. Frames are treated
// as immutable once loaded; transformations return new frames.
package dataset

import (
	"fmt"
	"time"
)

// ColumnKind discriminates the storage type of a column.
type ColumnKind int

const (
	// KindString columns hold raw string labels.
	KindString ColumnKind = iota
	// KindNumeric columns hold float64 values.
	KindNumeric
	// KindTime columns hold parsed timestamps.
	KindTime
)

// Column is a single named column with a null mask. Exactly one of Str, Num
// or Times is populated, matching Kind.
type Column struct {
	Name  string
	Kind  ColumnKind
	Str   []string
	Num   []float64
	Times []time.Time
	Null  []bool
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	switch c.Kind {
	case KindNumeric:
		return len(c.Num)
	case KindTime:
		return len(c.Times)
	default:
		return len(c.Str)
	}
}

// Float returns the numeric value at row i and whether it is non-null.
// Calling Float on a non-numeric column always reports false.
func (c *Column) Float(i int) (float64, bool) {
	if c.Kind != KindNumeric || c.Null[i] {
		return 0, false
	}
	return c.Num[i], true
}

// Clone deep-copies the column.
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	out.Null = append([]bool(nil), c.Null...)
	switch c.Kind {
	case KindNumeric:
		out.Num = append([]float64(nil), c.Num...)
	case KindTime:
		out.Times = append([]time.Time(nil), c.Times...)
	default:
		out.Str = append([]string(nil), c.Str...)
	}
	return out
}

// Frame is an ordered collection of equal-length columns.
type Frame struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// NewFrame creates an empty frame.
func NewFrame() *Frame {
	return &Frame{index: make(map[string]int)}
}

// AddColumn appends a column. The first column fixes the row count; later
// columns must match it.
func (f *Frame) AddColumn(c *Column) error {
	if _, exists := f.index[c.Name]; exists {
		return fmt.Errorf("duplicate column %q", c.Name)
	}
	if len(f.cols) > 0 && c.Len() != f.rows {
		return fmt.Errorf("column %q has %d rows, frame has %d", c.Name, c.Len(), f.rows)
	}
	if len(f.cols) == 0 {
		f.rows = c.Len()
	}
	f.index[c.Name] = len(f.cols)
	f.cols = append(f.cols, c)
	return nil
}

// Column returns the named column, or nil when absent.
func (f *Frame) Column(name string) *Column {
	i, ok := f.index[name]
	if !ok {
		return nil
	}
	return f.cols[i]
}

// HasColumn reports whether the frame contains the named column.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// ColumnNames returns column names in frame order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

// NumRows returns the row count.
func (f *Frame) NumRows() int { return f.rows }

// NumCols returns the column count.
func (f *Frame) NumCols() int { return len(f.cols) }

// Clone deep-copies the frame.
func (f *Frame) Clone() *Frame {
	out := NewFrame()
	for _, c := range f.cols {
		// AddColumn cannot fail on a clone of a valid frame
		_ = out.AddColumn(c.Clone())
	}
	return out
}

// Drop returns a copy of the frame without the named columns. Unknown names
// are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	dropped := make(map[string]bool, len(names))
	for _, n := range names {
		dropped[n] = true
	}
	out := NewFrame()
	for _, c := range f.cols {
		if dropped[c.Name] {
			continue
		}
		_ = out.AddColumn(c.Clone())
	}
	if len(out.cols) == 0 {
		out.rows = f.rows
	}
	return out
}

// NumericMatrix extracts the named numeric columns into a row-major matrix.
// Null cells surface as an error; callers are expected to run the frame
// through feature engineering first, which eliminates nulls.
func (f *Frame) NumericMatrix(names []string) ([][]float64, error) {
	cols := make([]*Column, len(names))
	for i, name := range names {
		c := f.Column(name)
		if c == nil {
			return nil, fmt.Errorf("column %q not found", name)
		}
		if c.Kind != KindNumeric {
			return nil, fmt.Errorf("column %q is not numeric", name)
		}
		cols[i] = c
	}

	matrix := make([][]float64, f.rows)
	for r := 0; r < f.rows; r++ {
		row := make([]float64, len(cols))
		for i, c := range cols {
			v, ok := c.Float(r)
			if !ok {
				return nil, fmt.Errorf("column %q has a null at row %d", c.Name, r)
			}
			row[i] = v
		}
		matrix[r] = row
	}
	return matrix, nil
}
