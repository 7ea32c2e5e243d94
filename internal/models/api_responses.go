// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

// Package models holds the JSON shapes shared between the database layer
// and the HTTP API.
package models

import "time"

// APIResponse is the standardized response wrapper used by all endpoints.
//
// Status is "success" or "error"; Error is populated only on "error".
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries per-response observability fields.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms"`
	RequestID   string    `json:"request_id,omitempty"`
}

// APIError describes a failed request.
//
// Codes: VALIDATION_ERROR, MODEL_NOT_TRAINED, NOT_FOUND,
// METHOD_NOT_ALLOWED, INTERNAL_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
