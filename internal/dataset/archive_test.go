// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package dataset

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeZip builds a zip at path containing the given name -> content entries.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create entry %s: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
}

func TestExtractZipSingleCSV(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "data.zip")
	writeZip(t, archive, map[string]string{
		"visits.csv": "date,x\n20160902,1\n",
		"readme.txt": "notes",
	})

	csvPath, err := ExtractZip(archive, filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("ExtractZip failed: %v", err)
	}
	if filepath.Base(csvPath) != "visits.csv" {
		t.Errorf("Expected visits.csv, got %s", csvPath)
	}

	content, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("Failed to read extracted CSV: %v", err)
	}
	if !strings.HasPrefix(string(content), "date,x") {
		t.Errorf("Unexpected CSV content: %s", content)
	}
}

func TestExtractZipNoCSV(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "data.zip")
	writeZip(t, archive, map[string]string{"readme.txt": "no data here"})

	if _, err := ExtractZip(archive, filepath.Join(dir, "out")); err == nil {
		t.Fatal("Expected error for archive without CSV")
	}
}

func TestExtractZipMultipleCSVs(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "data.zip")
	writeZip(t, archive, map[string]string{
		"a.csv": "date\n",
		"b.csv": "date\n",
	})

	_, err := ExtractZip(archive, filepath.Join(dir, "out"))
	if err == nil {
		t.Fatal("Expected error for archive with multiple CSVs")
	}
	if !strings.Contains(err.Error(), "expected exactly one") {
		t.Errorf("Expected descriptive error, got: %v", err)
	}
}

func TestExtractZipRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "data.zip")
	writeZip(t, archive, map[string]string{"../escape.csv": "date\n"})

	if _, err := ExtractZip(archive, filepath.Join(dir, "out")); err == nil {
		t.Fatal("Expected error for path traversal entry")
	}
}
