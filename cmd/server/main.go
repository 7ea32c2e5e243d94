// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

// Package main is the entry point for the Revenuescope server.
//
// Revenuescope ingests a packaged e-commerce clickstream dataset, loads it
// into DuckDB for descriptive analytics, engineers a numeric feature frame,
// and trains a gradient-boosted revenue model served over a REST API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: settings from environment variables and config files (Koanf v2)
//  2. Dataset: fetch the archive if absent, unzip, parse the visit CSV
//  3. Database: DuckDB analytics store, bulk-loaded from the CSV
//  4. Features: engineered numeric frame plus category encoding
//  5. Model: persisted artifacts restored from disk when present
//  6. HTTP Server: REST API with analytics, segmentation, and prediction routes
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (REVENUESCOPE_ prefix)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting new connections, waits for in-flight requests up to the
// configured shutdown timeout, then closes the database.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/revenuescope/revenuescope/internal/api"
	"github.com/revenuescope/revenuescope/internal/config"
	"github.com/revenuescope/revenuescope/internal/database"
	"github.com/revenuescope/revenuescope/internal/dataset"
	"github.com/revenuescope/revenuescope/internal/features"
	"github.com/revenuescope/revenuescope/internal/latency"
	"github.com/revenuescope/revenuescope/internal/logging"
	"github.com/revenuescope/revenuescope/internal/model"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("model_dir", cfg.Model.Dir).
		Msg("Starting Revenuescope")

	if cfg.UsesLegacyCustomerKey() {
		logging.Warn().
			Str("customer_key", cfg.Analytics.CustomerKey).
			Msg("RFM analysis groups by visit rank, not a stable customer identifier; set analytics.customer_key if the dataset carries one")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	csvPath, err := resolveDataset(ctx, &cfg.Data)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to resolve dataset")
	}

	raw, err := dataset.ReadCSVFile(csvPath, dataset.ReadOptions{})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to parse visit CSV")
	}
	logging.Info().
		Int("rows", raw.NumRows()).
		Int("columns", raw.NumCols()).
		Msg("Dataset parsed")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	loaded, err := db.LoadCSV(ctx, csvPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load dataset into DuckDB")
	}
	logging.Info().Int64("rows", loaded).Msg("Analytics store loaded")

	engineered, encoding, err := features.Engineer(raw, features.Options{
		GeographicColumns: cfg.Analytics.GeographicColumns,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Feature engineering failed")
	}
	logging.Info().
		Int("columns", engineered.NumCols()).
		Msg("Feature frame engineered")

	store, err := model.NewStore(cfg.Model.Dir)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open model store")
	}

	tracker := latency.NewTracker()
	predictor := model.NewPredictor(tracker)

	// Restore persisted artifacts so a restart serves predictions without
	// retraining. A missing model is normal on first boot.
	artifacts, err := store.Load()
	switch {
	case err == nil:
		predictor.SetArtifacts(artifacts)
		logging.Info().
			Time("trained_at", artifacts.TrainedAt).
			Int("features", len(artifacts.Model.Features)).
			Msg("Model artifacts restored")
	case errors.Is(err, model.ErrNotTrained):
		logging.Info().Msg("No persisted model found, prediction routes return 404 until training")
	default:
		logging.Fatal().Err(err).Msg("Failed to load model artifacts")
	}

	handler := api.NewHandler(cfg, db, raw, engineered, encoding, store, predictor, tracker)
	router := api.NewRouter(handler, &cfg.Server)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// resolveDataset returns the path of the visit CSV, fetching and extracting
// the packaged archive when no extracted CSV is configured.
func resolveDataset(ctx context.Context, cfg *config.DataConfig) (string, error) {
	if cfg.CSVPath != "" {
		if _, err := os.Stat(cfg.CSVPath); err != nil {
			return "", fmt.Errorf("configured csv_path is not readable: %w", err)
		}
		logging.Info().Str("path", cfg.CSVPath).Msg("Using extracted dataset CSV")
		return cfg.CSVPath, nil
	}

	fetcher := dataset.NewFetcher(cfg.FetchTimeout)
	if err := fetcher.Fetch(ctx, cfg.FetchURL, cfg.ArchivePath); err != nil {
		return "", fmt.Errorf("dataset fetch failed: %w", err)
	}

	csvPath, err := dataset.ExtractZip(cfg.ArchivePath, cfg.ExtractDir)
	if err != nil {
		return "", fmt.Errorf("dataset extraction failed: %w", err)
	}
	logging.Info().Str("path", csvPath).Msg("Dataset archive extracted")
	return csvPath, nil
}
