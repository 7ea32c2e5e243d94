// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/revenuescope/revenuescope/internal/features"
)

func TestStoreRoundTrip(t *testing.T) {
	f := trainingFrame(t, 60)
	art, err := Train(f, features.NewEncoding(), testModelConfig())
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Save(art); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	for _, name := range []string{modelFile, encodingFile, importanceFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected artifact %s on disk: %v", name, err)
		}
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	x := []float64{2, 3}
	if p1, p2 := art.Model.PredictRaw(x), loaded.Model.PredictRaw(x); p1 != p2 {
		t.Errorf("Loaded model predicts %v, original %v", p2, p1)
	}
	if loaded.Metrics != art.Metrics {
		t.Errorf("Loaded metrics %+v differ from saved %+v", loaded.Metrics, art.Metrics)
	}
	if len(loaded.Importance) != len(art.Importance) {
		t.Errorf("Loaded %d importance entries, saved %d", len(loaded.Importance), len(art.Importance))
	}
	if len(loaded.TopFeatures) != len(art.TopFeatures) {
		t.Errorf("Loaded %d top features, saved %d", len(loaded.TopFeatures), len(art.TopFeatures))
	}
	if loaded.TrainedAt.IsZero() {
		t.Error("Expected trained-at timestamp to survive the round trip")
	}
}

func TestStorePersistsEncoding(t *testing.T) {
	enc := features.NewEncoding()
	enc.Columns["device.browser"] = []string{"Chrome", "Firefox", "Safari"}

	f := trainingFrame(t, 60)
	art, err := Train(f, enc, testModelConfig())
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Save(art); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	code, ok := loaded.Encoding.Code("device.browser", "Firefox")
	if !ok || code != 1 {
		t.Errorf("Expected Firefox to decode to 1, got %d (ok=%v)", code, ok)
	}
}

func TestStoreLoadAnyMissingArtifact(t *testing.T) {
	f := trainingFrame(t, 60)
	art, err := Train(f, features.NewEncoding(), testModelConfig())
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	// Serving requires the full artifact set; losing any one file must
	// surface the not-trained signal, not a partially loaded model.
	for _, name := range []string{modelFile, encodingFile, importanceFile} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			store, err := NewStore(dir)
			if err != nil {
				t.Fatalf("NewStore failed: %v", err)
			}
			if err := store.Save(art); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				t.Fatalf("Remove failed: %v", err)
			}
			if _, err := store.Load(); !errors.Is(err, ErrNotTrained) {
				t.Errorf("Expected ErrNotTrained with %s absent, got %v", name, err)
			}
		})
	}
}

func TestStoreLoadBeforeTraining(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, ErrNotTrained) {
		t.Errorf("Expected ErrNotTrained, got %v", err)
	}
}
