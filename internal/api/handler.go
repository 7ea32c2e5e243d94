// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/revenuescope/revenuescope/internal/config"
	"github.com/revenuescope/revenuescope/internal/database"
	"github.com/revenuescope/revenuescope/internal/dataset"
	"github.com/revenuescope/revenuescope/internal/features"
	"github.com/revenuescope/revenuescope/internal/latency"
	"github.com/revenuescope/revenuescope/internal/model"
)

// Handler holds the request handlers and their dependencies: the analytics
// database, the in-memory frames, and the model serving stack.
type Handler struct {
	cfg        *config.Config
	db         *database.DB
	raw        *dataset.Frame
	engineered *dataset.Frame
	encoding   *features.Encoding
	store      *model.Store
	predictor  *model.Predictor
	tracker    *latency.Tracker

	// trainMu serializes training runs; predictions keep serving the
	// previous artifacts until the new ones are installed.
	trainMu sync.Mutex
}

// NewHandler wires the handler dependencies.
func NewHandler(
	cfg *config.Config,
	db *database.DB,
	raw, engineered *dataset.Frame,
	encoding *features.Encoding,
	store *model.Store,
	predictor *model.Predictor,
	tracker *latency.Tracker,
) *Handler {
	return &Handler{
		cfg:        cfg,
		db:         db,
		raw:        raw,
		engineered: engineered,
		encoding:   encoding,
		store:      store,
		predictor:  predictor,
		tracker:    tracker,
	}
}

// referenceTime resolves the recency anchor for RFM analysis.
func (h *Handler) referenceTime() time.Time {
	if h.cfg.Analytics.ReferenceDate != "" {
		if t, err := time.Parse(time.RFC3339, h.cfg.Analytics.ReferenceDate); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

// Health reports overall service health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := map[string]interface{}{
		"status":        "ok",
		"dataset_rows":  h.raw.NumRows(),
		"model_trained": h.predictor.Ready(),
	}
	if err := h.db.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		respondJSON(w, r, http.StatusServiceUnavailable, status, start)
		return
	}
	respondJSON(w, r, http.StatusOK, status, start)
}

// HealthLive is the liveness probe: the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"}, time.Now())
}

// HealthReady is the readiness probe: the database answers queries.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := h.db.Ping(r.Context()); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeInternal,
			"Database not ready", map[string]interface{}{"error": err.Error()})
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"}, start)
}

// Stats serves the dataset overview.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats, err := h.db.GetDatasetStats(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal,
			"Failed to compute dataset stats", nil)
		return
	}
	respondJSON(w, r, http.StatusOK, stats, start)
}
