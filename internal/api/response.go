// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

// Package api provides the HTTP surface: chi routing, request handling and
// the standardized JSON response envelope.
package api

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/revenuescope/revenuescope/internal/logging"
	"github.com/revenuescope/revenuescope/internal/middleware"
	"github.com/revenuescope/revenuescope/internal/models"
)

// Error codes used in API responses.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeModelNotTrained  = "MODEL_NOT_TRAINED"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// respondJSON writes a success envelope. queryStart is when the handler
// began its work; the elapsed time lands in metadata.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}, queryStart time.Time) {
	resp := models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(queryStart).Milliseconds(),
			RequestID:   middleware.GetRequestID(r.Context()),
		},
	}
	writeEnvelope(w, r, status, &resp)
}

// respondError writes an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	resp := models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(r.Context()),
		},
	}
	writeEnvelope(w, r, status, &resp)
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, resp *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("Failed to encode response")
	}
}

// decodeBody decodes a JSON request body, reporting a validation error to
// the client on malformed input. Returns false when the request was already
// answered.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation,
			"Invalid JSON body: "+err.Error(), nil)
		return false
	}
	return true
}
