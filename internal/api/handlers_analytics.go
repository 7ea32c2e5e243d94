// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/revenuescope/revenuescope/internal/logging"
	"github.com/revenuescope/revenuescope/internal/rfm"
)

// analyticsHandler adapts a database query family into an HTTP handler.
func analyticsHandler[T any](h *Handler, name string, query func(context.Context) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		out, err := query(r.Context())
		if err != nil {
			logging.Error().Err(err).Str("family", name).Msg("Analytics query failed")
			respondError(w, r, http.StatusInternalServerError, ErrCodeInternal,
				"Failed to compute "+name+" analytics", nil)
			return
		}
		respondJSON(w, r, http.StatusOK, out, start)
	}
}

// AnalyticsDevices serves the device query family.
func (h *Handler) AnalyticsDevices(w http.ResponseWriter, r *http.Request) {
	analyticsHandler(h, "device", h.db.GetDeviceAnalytics)(w, r)
}

// AnalyticsTraffic serves the traffic query family.
func (h *Handler) AnalyticsTraffic(w http.ResponseWriter, r *http.Request) {
	analyticsHandler(h, "traffic", h.db.GetTrafficAnalytics)(w, r)
}

// AnalyticsVisits serves the visit-timing query family.
func (h *Handler) AnalyticsVisits(w http.ResponseWriter, r *http.Request) {
	analyticsHandler(h, "visit", h.db.GetVisitAnalytics)(w, r)
}

// AnalyticsGeographic serves the geography query family.
func (h *Handler) AnalyticsGeographic(w http.ResponseWriter, r *http.Request) {
	analyticsHandler(h, "geographic", h.db.GetGeographicAnalytics)(w, r)
}

// segmentsResponse is the RFM segmentation payload.
type segmentsResponse struct {
	Customers []rfm.Customer     `json:"customers"`
	Summary   []rfm.SegmentStats `json:"summary"`
}

// Segments runs RFM analysis over the raw frame. With
// ?include_synthetic=true the customer list is backfilled so every segment
// label appears at least once; summary statistics always come from real
// rows only.
func (h *Handler) Segments(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, err := rfm.Analyze(h.raw, rfm.Options{
		CustomerKey:   h.cfg.Analytics.CustomerKey,
		ReferenceTime: h.referenceTime(),
	})
	if err != nil {
		logging.Error().Err(err).Msg("RFM analysis failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal,
			"Failed to compute segmentation", nil)
		return
	}

	customers := result.Customers
	if r.URL.Query().Get("include_synthetic") == "true" {
		customers = rfm.WithAllSegments(customers)
	}

	respondJSON(w, r, http.StatusOK, segmentsResponse{
		Customers: customers,
		Summary:   result.Summary,
	}, start)
}
