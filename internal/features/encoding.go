// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package features

import (
	"fmt"
	"sync"
)

// Encoding is the explicit category-to-code mapping produced by feature
// engineering. Codes are assigned in order of first appearance, so the same
// frame always yields the same mapping. The encoding is persisted alongside
// the model artifacts and reapplied at serving time; recomputing it on a
// differently-ordered frame would silently remap categories.
type Encoding struct {
	// Columns maps a column name to its ordered category list; a value's
	// code is its index in the list.
	Columns map[string][]string `json:"columns"`

	mu    sync.Mutex
	index map[string]map[string]int
}

// NewEncoding creates an empty encoding.
func NewEncoding() *Encoding {
	return &Encoding{Columns: make(map[string][]string)}
}

// Code returns the integer code for value in the named column. Unknown
// values and unknown columns report false.
func (e *Encoding) Code(column, value string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ensureIndexLocked()
	codes, ok := e.index[column]
	if !ok {
		return 0, false
	}
	code, ok := codes[value]
	return code, ok
}

// HasColumn reports whether the column was category-encoded.
func (e *Encoding) HasColumn(column string) bool {
	_, ok := e.Columns[column]
	return ok
}

// Cardinality returns the number of distinct categories in the column.
func (e *Encoding) Cardinality(column string) int {
	return len(e.Columns[column])
}

// Validate checks internal consistency, catching corrupt persisted
// encodings before they reach serving.
func (e *Encoding) Validate() error {
	for column, categories := range e.Columns {
		seen := make(map[string]bool, len(categories))
		for _, v := range categories {
			if seen[v] {
				return fmt.Errorf("encoding for column %q has duplicate category %q", column, v)
			}
			seen[v] = true
		}
	}
	return nil
}

func (e *Encoding) ensureIndexLocked() {
	if e.index != nil {
		return
	}
	e.index = make(map[string]map[string]int, len(e.Columns))
	for column, categories := range e.Columns {
		codes := make(map[string]int, len(categories))
		for i, v := range categories {
			codes[v] = i
		}
		e.index[column] = codes
	}
}
