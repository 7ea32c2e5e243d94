// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

// Package database wraps an embedded DuckDB instance holding the visits
// table and serves the descriptive-analytics query families over it.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/revenuescope/revenuescope/internal/config"
	"github.com/revenuescope/revenuescope/internal/logging"
	"github.com/revenuescope/revenuescope/internal/metrics"
)

// DB wraps the DuckDB connection and provides the analytics queries.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the database and creates the visits schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	connStr := cfg.Path
	if cfg.Path != ":memory:" {
		// Ensure the parent directory exists before DuckDB opens the file.
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}
	connStr = fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		connStr, numThreads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// DuckDB is embedded; a single connection avoids concurrent writer
	// contention while reads multiplex fine.
	conn.SetMaxOpenConns(numThreads)
	conn.SetMaxIdleConns(numThreads)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn, cfg: cfg}
	if err := db.initialize(); err != nil {
		if cerr := conn.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Failed to close database after init error")
		}
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Int("threads", numThreads).
		Msg("Database opened")
	return db, nil
}

// Conn exposes the underlying connection for tests.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// ensureContext attaches a 30-second timeout when the caller provided none.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}
	return ctx, func() {}
}

// initialize creates the visits table. Columns follow the flattened
// clickstream export: device, geography, traffic source and engagement
// fields per visit.
func (db *DB) initialize() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS visits (
		visit_date          DATE,
		channel_grouping    VARCHAR,
		visit_number        INTEGER,
		visit_start_time    BIGINT,
		browser             VARCHAR,
		operating_system    VARCHAR,
		device_category     VARCHAR,
		continent           VARCHAR,
		sub_continent       VARCHAR,
		country             VARCHAR,
		region              VARCHAR,
		metro               VARCHAR,
		city                VARCHAR,
		hits                BIGINT,
		pageviews           BIGINT,
		bounces             BIGINT,
		new_visits          BIGINT,
		transaction_revenue DOUBLE,
		campaign            VARCHAR,
		source              VARCHAR,
		medium              VARCHAR
	)`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create visits table: %w", err)
	}
	return nil
}

// instrument wraps a query with duration metrics and debug logging.
func (db *DB) instrument(operation string, start time.Time, err error) {
	elapsed := time.Since(start)
	metrics.RecordDBQuery(operation, elapsed, err)
	logging.Debug().
		Str("operation", operation).
		Dur("elapsed", elapsed).
		Err(err).
		Msg("Analytics query")
}
