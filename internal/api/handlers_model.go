// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/revenuescope/revenuescope/internal/dataset"
	"github.com/revenuescope/revenuescope/internal/logging"
	"github.com/revenuescope/revenuescope/internal/metrics"
	"github.com/revenuescope/revenuescope/internal/model"
	"github.com/revenuescope/revenuescope/internal/validation"
)

// defaultBenchmarkSizes is the standard serving-latency sweep.
var defaultBenchmarkSizes = []int{1, 10, 100, 1000}

// TrainModel runs a full training cycle on the engineered frame, persists
// the artifacts and installs them into the predictor. Training runs are
// serialized; a second request waits rather than racing.
func (h *Handler) TrainModel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	h.trainMu.Lock()
	defer h.trainMu.Unlock()

	art, err := model.Train(h.engineered, h.encoding, h.cfg.Model)
	metrics.RecordTraining(time.Since(start), err)
	if err != nil {
		logging.Error().Err(err).Msg("Model training failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal,
			"Training failed: "+err.Error(), nil)
		return
	}

	if err := h.store.Save(art); err != nil {
		logging.Error().Err(err).Msg("Failed to persist model artifacts")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal,
			"Failed to persist model artifacts", nil)
		return
	}
	h.predictor.SetArtifacts(art)

	logging.Info().
		Float64("rmse_log", art.Metrics.RMSELog).
		Float64("r2_log", art.Metrics.R2Log).
		Dur("elapsed", time.Since(start)).
		Msg("Model trained")

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"metrics":      art.Metrics,
		"top_features": art.TopFeatures,
		"trained_at":   art.TrainedAt,
	}, start)
}

// ModelInfo serves the importance ranking, top features and training
// metrics of the installed model.
func (h *Handler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	art, err := h.predictor.Artifacts()
	if err != nil {
		h.respondNotTrained(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"metrics":      art.Metrics,
		"importance":   art.Importance,
		"top_features": art.TopFeatures,
		"encoding":     art.Encoding,
		"trained_at":   art.TrainedAt,
	}, start)
}

type predictRequest struct {
	Features map[string]interface{} `json:"features" validate:"required,min=1"`
}

// Predict serves a single prediction from a feature-name map. Values may be
// numeric or, for category-encoded features, the raw category string; the
// latter are translated through the encoding persisted with the model.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req predictRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		h.respondValidation(w, r, ve)
		return
	}

	features, err := h.predictor.EncodeFeatures(req.Features)
	if err != nil {
		if errors.Is(err, model.ErrNotTrained) {
			h.respondNotTrained(w, r, err)
			return
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	pred, err := h.predictor.Predict(features)
	if err != nil {
		h.respondNotTrained(w, r, err)
		return
	}
	metrics.RecordPrediction("single", 1, time.Since(start))

	respondJSON(w, r, http.StatusOK, map[string]float64{"predicted_revenue": pred}, start)
}

type batchPredictRequest struct {
	Rows []map[string]interface{} `json:"rows" validate:"required,min=1"`
}

// PredictBatch serves predictions for a table of rows. Cell values follow
// the same rules as Predict (numeric, or category strings translated
// through the persisted encoding). Columns are the union of row keys; the
// predictor rejects tables that lack any model feature column, naming the
// missing ones.
func (h *Handler) PredictBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req batchPredictRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		h.respondValidation(w, r, ve)
		return
	}

	rows := make([]map[string]float64, len(req.Rows))
	for i, raw := range req.Rows {
		encoded, err := h.predictor.EncodeFeatures(raw)
		if err != nil {
			if errors.Is(err, model.ErrNotTrained) {
				h.respondNotTrained(w, r, err)
				return
			}
			respondError(w, r, http.StatusBadRequest, ErrCodeValidation,
				fmt.Sprintf("row %d: %s", i, err.Error()), nil)
			return
		}
		rows[i] = encoded
	}

	frame, err := frameFromRows(rows)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	preds, err := h.predictor.PredictBatch(frame)
	if err != nil {
		if errors.Is(err, model.ErrNotTrained) {
			h.respondNotTrained(w, r, err)
			return
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}
	metrics.RecordPrediction("batch", len(preds), time.Since(start))

	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"predicted_revenue": preds,
		"count":             len(preds),
	}, start)
}

type benchmarkRequest struct {
	Sizes []int `json:"sizes"`
}

// LatencyBenchmark runs the batch-size latency sweep against the
// engineered frame.
func (h *Handler) LatencyBenchmark(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := benchmarkRequest{}
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}
	sizes := req.Sizes
	if len(sizes) == 0 {
		sizes = defaultBenchmarkSizes
	}

	stats, err := h.predictor.BenchmarkBatches(h.engineered, sizes)
	if err != nil {
		if errors.Is(err, model.ErrNotTrained) {
			h.respondNotTrained(w, r, err)
			return
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]interface{}{"batches": stats}, start)
}

// LatencySnapshot serves the serving-latency distribution recorded so far.
func (h *Handler) LatencySnapshot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.tracker.Snapshot(), time.Now())
}

func (h *Handler) respondNotTrained(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, model.ErrNotTrained) {
		respondError(w, r, http.StatusNotFound, ErrCodeModelNotTrained,
			"No trained model available; train one first", nil)
		return
	}
	logging.Error().Err(err).Msg("Model serving failed")
	respondError(w, r, http.StatusInternalServerError, ErrCodeInternal,
		"Model serving failed", nil)
}

func (h *Handler) respondValidation(w http.ResponseWriter, r *http.Request, ve *validation.RequestValidationError) {
	apiErr := ve.ToAPIError()
	respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
}

// frameFromRows builds a numeric frame from request rows. Columns are the
// union of all row keys; absent cells default to zero.
func frameFromRows(rows []map[string]float64) (*dataset.Frame, error) {
	seen := make(map[string]bool)
	var columns []string
	for _, row := range rows {
		for name := range row {
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
	}
	sort.Strings(columns)

	f := dataset.NewFrame()
	for _, name := range columns {
		col := &dataset.Column{
			Name: name,
			Kind: dataset.KindNumeric,
			Num:  make([]float64, len(rows)),
			Null: make([]bool, len(rows)),
		}
		for i, row := range rows {
			col.Num[i] = row[name]
		}
		if err := f.AddColumn(col); err != nil {
			return nil, err
		}
	}
	return f, nil
}
