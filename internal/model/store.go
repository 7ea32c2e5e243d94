// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
)

// ErrNotTrained is returned when artifacts are requested before any
// training run has persisted a model.
var ErrNotTrained = errors.New("no trained model artifacts found")

const (
	modelFile      = "model.json"
	encodingFile   = "encoding.json"
	importanceFile = "importance.json"
)

// importanceDoc is the on-disk shape of the importance artifact: the full
// ranking plus the configured top-N feature list and holdout metrics.
type importanceDoc struct {
	Metrics     Metrics             `json:"metrics"`
	Ranking     []FeatureImportance `json:"ranking"`
	TopFeatures []string            `json:"top_features"`
}

// Store persists training artifacts as JSON files under a directory. Writes
// go through a temp file and rename so a crash mid-write never leaves a
// truncated artifact behind.
type Store struct {
	dir string
}

// NewStore creates the artifact directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the model, encoding, and importance artifacts.
func (s *Store) Save(a *Artifacts) error {
	type modelDoc struct {
		Model     *GBDT   `json:"model"`
		Metrics   Metrics `json:"metrics"`
		TrainedAt string  `json:"trained_at"`
	}
	md := modelDoc{
		Model:     a.Model,
		Metrics:   a.Metrics,
		TrainedAt: a.TrainedAt.Format(time.RFC3339),
	}
	if err := s.writeJSON(modelFile, md); err != nil {
		return err
	}
	if err := s.writeJSON(encodingFile, a.Encoding); err != nil {
		return err
	}
	return s.writeJSON(importanceFile, importanceDoc{
		Metrics:     a.Metrics,
		Ranking:     a.Importance,
		TopFeatures: a.TopFeatures,
	})
}

// Load reads artifacts back. Serving needs all three files; ErrNotTrained
// is returned when any of them is missing.
func (s *Store) Load() (*Artifacts, error) {
	type modelDoc struct {
		Model     *GBDT   `json:"model"`
		Metrics   Metrics `json:"metrics"`
		TrainedAt string  `json:"trained_at"`
	}

	var md modelDoc
	if err := s.readJSON(modelFile, &md); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotTrained
		}
		return nil, err
	}

	a := &Artifacts{Model: md.Model, Metrics: md.Metrics}
	if md.TrainedAt != "" {
		// Best effort; a missing timestamp is not a load failure.
		if t, err := time.Parse(time.RFC3339, md.TrainedAt); err == nil {
			a.TrainedAt = t
		}
	}

	if err := s.readJSON(encodingFile, &a.Encoding); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotTrained
		}
		return nil, err
	}

	var id importanceDoc
	if err := s.readJSON(importanceFile, &id); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotTrained
		}
		return nil, err
	}
	a.Importance = id.Ranking
	a.TopFeatures = id.TopFeatures

	if a.Model == nil {
		return nil, fmt.Errorf("model artifact %s is empty", modelFile)
	}
	return a, nil
}

func (s *Store) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", name, err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("installing %s: %w", name, err)
	}
	return nil
}

func (s *Store) readJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}
