// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

// Package metrics exposes prometheus collectors for database queries, API
// traffic, model training and prediction serving.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	DatasetRowsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dataset_rows_loaded",
			Help: "Number of visit rows loaded into the analytics table",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Model metrics
	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "model_training_duration_seconds",
			Help:    "Duration of model training runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_training_runs_total",
			Help: "Total number of model training runs",
		},
		[]string{"outcome"},
	)

	PredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_prediction_duration_seconds",
			Help:    "Duration of prediction requests in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"mode"}, // "single" or "batch"
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_predictions_total",
			Help: "Total number of prediction results returned",
		},
		[]string{"mode"},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordTraining records the outcome and duration of a training run.
func RecordTraining(duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	TrainingRuns.WithLabelValues(outcome).Inc()
	if err == nil {
		TrainingDuration.Observe(duration.Seconds())
	}
}

// RecordPrediction records one prediction request serving n results.
func RecordPrediction(mode string, n int, duration time.Duration) {
	PredictionDuration.WithLabelValues(mode).Observe(duration.Seconds())
	PredictionsTotal.WithLabelValues(mode).Add(float64(n))
}
