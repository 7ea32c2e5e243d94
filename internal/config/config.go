// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

// Package config provides layered application configuration via koanf v2.
//
// Settings are resolved in priority order (highest wins):
//
//  1. Environment variables (SERVER_PORT, DATA_ARCHIVE_PATH, ...)
//  2. Optional YAML config file (config.yaml)
//  3. Built-in defaults
package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Data      DataConfig      `koanf:"data"`
	Database  DatabaseConfig  `koanf:"database"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Model     ModelConfig     `koanf:"model"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimit       int           `koanf:"rate_limit" validate:"min=0"` // requests/minute per IP, 0 disables
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// DataConfig describes where the packaged dataset lives and how to fetch it.
type DataConfig struct {
	// ArchivePath is the local path of the compressed dataset. When the file
	// is absent and FetchURL is set, the archive is downloaded at startup.
	ArchivePath string `koanf:"archive_path"`

	// ExtractDir is where the archive is unpacked.
	ExtractDir string `koanf:"extract_dir"`

	// CSVPath points directly at an already-extracted CSV and bypasses the
	// archive entirely when set.
	CSVPath string `koanf:"csv_path"`

	FetchURL     string        `koanf:"fetch_url" validate:"omitempty,url"`
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
}

// DatabaseConfig holds DuckDB settings for the analytics store.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" keeps the analytics table
	// in process memory only.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"min=0"` // 0 = runtime.NumCPU()
}

// AnalyticsConfig holds settings for feature engineering and segmentation.
type AnalyticsConfig struct {
	// GeographicColumns keep their string labels through feature engineering
	// and receive the "Unknown" missing-value sentinel.
	GeographicColumns []string `koanf:"geographic_columns"`

	// CustomerKey is the column RFM analysis groups by. The historical
	// default is visitNumber, which conflates customers with visit ranks; a
	// stable customer or session identifier is the better choice when the
	// dataset carries one.
	CustomerKey string `koanf:"customer_key" validate:"required"`

	// ReferenceDate anchors recency calculations (RFC3339). Empty means the
	// current wall clock at analysis time.
	ReferenceDate string `koanf:"reference_date" validate:"omitempty,rfc3339"`
}

// ModelConfig holds training hyperparameters and artifact storage settings.
type ModelConfig struct {
	// Dir is where model artifacts (model, importance ranking, top feature
	// list, category encoding) are persisted.
	Dir string `koanf:"dir"`

	Trees          int     `koanf:"trees" validate:"min=1"`
	LearningRate   float64 `koanf:"learning_rate" validate:"gt=0,lte=1"`
	MaxDepth       int     `koanf:"max_depth" validate:"min=1"`
	MinSamplesLeaf int     `koanf:"min_samples_leaf" validate:"min=1"`
	Seed           int64   `koanf:"seed"`
	TestFraction   float64 `koanf:"test_fraction" validate:"gt=0,lt=1"`
	TopFeatures    int     `koanf:"top_features" validate:"min=1"`
}

// DefaultGeographicColumns is the geographic column allowlist for the
// packaged clickstream dataset.
var DefaultGeographicColumns = []string{
	"geoNetwork.continent",
	"geoNetwork.subContinent",
	"geoNetwork.country",
	"geoNetwork.region",
	"geoNetwork.metro",
	"geoNetwork.city",
}

// Default returns a Config with all default values applied. Callers that
// skip Load (tests, tooling) start from here.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8094,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second, // training runs inside a request
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       300,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Data: DataConfig{
			ArchivePath:  "/data/clickstream.zip",
			ExtractDir:   "/data/extracted",
			CSVPath:      "",
			FetchURL:     "",
			FetchTimeout: 5 * time.Minute,
		},
		Database: DatabaseConfig{
			Path:      "/data/revenuescope.duckdb",
			MaxMemory: "2GB",
			Threads:   0,
		},
		Analytics: AnalyticsConfig{
			GeographicColumns: DefaultGeographicColumns,
			CustomerKey:       "visitNumber",
			ReferenceDate:     "",
		},
		Model: ModelConfig{
			Dir:            "/data/models",
			Trees:          200,
			LearningRate:   0.05,
			MaxDepth:       6,
			MinSamplesLeaf: 20,
			Seed:           42,
			TestFraction:   0.2,
			TopFeatures:    10,
		},
	}
}
