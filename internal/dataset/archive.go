// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package dataset

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/revenuescope/revenuescope/internal/logging"
)

// maxExtractedSize caps a single extracted file at 4GB to bound zip bombs.
const maxExtractedSize = 4 << 30

// ExtractZip unpacks the dataset archive into dir and returns the path of
// the contained CSV. The archive must hold exactly one CSV file; anything
// else is an input error surfaced to the caller.
func ExtractZip(archivePath, dir string) (string, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open dataset archive %s: %w", archivePath, err)
	}
	defer zr.Close()

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create extract dir %s: %w", dir, err)
	}

	var csvPath string
	csvCount := 0

	for _, file := range zr.File {
		if file.FileInfo().IsDir() {
			continue
		}

		dest, err := safeJoin(dir, file.Name)
		if err != nil {
			return "", err
		}

		if err := extractFile(file, dest); err != nil {
			return "", err
		}

		if strings.EqualFold(filepath.Ext(file.Name), ".csv") {
			csvCount++
			csvPath = dest
		}
	}

	switch csvCount {
	case 0:
		return "", fmt.Errorf("archive %s contains no CSV file", archivePath)
	case 1:
		logging.Info().Str("csv", csvPath).Msg("Dataset archive extracted")
		return csvPath, nil
	default:
		return "", fmt.Errorf("archive %s contains %d CSV files, expected exactly one", archivePath, csvCount)
	}
}

// safeJoin joins name under dir while rejecting path traversal entries.
func safeJoin(dir, name string) (string, error) {
	if strings.Contains(name, "..") || filepath.IsAbs(name) {
		return "", fmt.Errorf("archive entry %q escapes extract dir", name)
	}
	dest := filepath.Join(dir, filepath.Clean(name))
	if !strings.HasPrefix(dest, filepath.Clean(dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes extract dir", name)
	}
	return dest, nil
}

func extractFile(file *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dest, err)
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", file.Name, err)
	}
	defer src.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, io.LimitReader(src, maxExtractedSize)); err != nil {
		return fmt.Errorf("failed to extract %s: %w", file.Name, err)
	}
	return nil
}
