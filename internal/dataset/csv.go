// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/revenuescope/revenuescope/internal/logging"
)

// ReadOptions controls CSV parsing.
type ReadOptions struct {
	// DateColumn is parsed into timestamps; rows with malformed dates fail
	// the whole load. Default "date".
	DateColumn string

	// NullTokens are cell values treated as missing. Defaults cover the
	// empty string and the dataset's NA spellings.
	NullTokens []string
}

func (o *ReadOptions) applyDefaults() {
	if o.DateColumn == "" {
		o.DateColumn = "date"
	}
	if o.NullTokens == nil {
		o.NullTokens = []string{"", "NA", "NaN"}
	}
}

// dateLayouts are the accepted calendar date formats for the date column.
var dateLayouts = []string{"2006-01-02", "20060102", time.RFC3339}

// ReadCSV parses a delimited visit table into a Frame. Every column is
// loaded as a string column except the date column, which is parsed into
// timestamps. Cell-level type coercion is the feature engineering step's
// concern, mirroring how the raw dataset is handled downstream.
func ReadCSV(r io.Reader, opts ReadOptions) (*Frame, error) {
	opts.applyDefaults()

	reader := csv.NewReader(r)
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("CSV has no columns")
	}

	dateIdx := -1
	for i, name := range header {
		if name == opts.DateColumn {
			dateIdx = i
		}
	}
	if dateIdx == -1 {
		return nil, fmt.Errorf("required column %q not found in CSV header", opts.DateColumn)
	}

	nullSet := make(map[string]bool, len(opts.NullTokens))
	for _, tok := range opts.NullTokens {
		nullSet[tok] = true
	}

	strCells := make([][]string, len(header))
	nulls := make([][]bool, len(header))
	var dates []time.Time

	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", row+2, err)
		}

		for i, cell := range record {
			if i == dateIdx {
				parsed, perr := parseDate(cell)
				if perr != nil {
					return nil, fmt.Errorf("row %d: %w", row+2, perr)
				}
				dates = append(dates, parsed)
				nulls[i] = append(nulls[i], false)
				continue
			}
			isNull := nullSet[cell]
			strCells[i] = append(strCells[i], cell)
			nulls[i] = append(nulls[i], isNull)
		}
		row++
	}

	frame := NewFrame()
	for i, name := range header {
		var col *Column
		if i == dateIdx {
			col = &Column{Name: name, Kind: KindTime, Times: dates, Null: nulls[i]}
		} else {
			col = &Column{Name: name, Kind: KindString, Str: strCells[i], Null: nulls[i]}
		}
		if err := frame.AddColumn(col); err != nil {
			return nil, fmt.Errorf("failed to build frame: %w", err)
		}
	}

	logging.Debug().
		Int("rows", frame.NumRows()).
		Int("columns", frame.NumCols()).
		Msg("CSV parsed into frame")

	return frame, nil
}

// ReadCSVFile opens path and parses it via ReadCSV.
func ReadCSVFile(path string, opts ReadOptions) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset CSV %s: %w", path, err)
	}
	defer f.Close()

	frame, err := ReadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return frame, nil
}

// parseDate tries the accepted calendar layouts in order.
func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}
