// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/revenuescope/revenuescope/internal/logging"
	"github.com/revenuescope/revenuescope/internal/metrics"
)

// LoadCSV replaces the visits table contents with the rows of the exported
// clickstream CSV. The export carries dotted column names (device.browser,
// totals.pageviews); they are flattened to snake_case here. All cells are
// read as text and cast explicitly so a stray label in a numeric column
// degrades to NULL instead of failing the load. The date column accepts
// both YYYYMMDD and YYYY-MM-DD.
func (db *DB) LoadCSV(ctx context.Context, path string) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()

	// The path travels inside the SQL text because read_csv arguments
	// cannot always be bound as statement parameters.
	escaped := strings.ReplaceAll(path, "'", "''")

	load := fmt.Sprintf(`
	INSERT INTO visits
	SELECT
		COALESCE(
			TRY_STRPTIME("date", '%%Y%%m%%d'),
			TRY_STRPTIME("date", '%%Y-%%m-%%d')
		)::DATE                                          AS visit_date,
		"channelGrouping"                                AS channel_grouping,
		TRY_CAST("visitNumber" AS INTEGER)               AS visit_number,
		TRY_CAST("visitStartTime" AS BIGINT)             AS visit_start_time,
		"device.browser"                                 AS browser,
		"device.operatingSystem"                         AS operating_system,
		"device.deviceCategory"                          AS device_category,
		"geoNetwork.continent"                           AS continent,
		"geoNetwork.subContinent"                        AS sub_continent,
		"geoNetwork.country"                             AS country,
		"geoNetwork.region"                              AS region,
		"geoNetwork.metro"                               AS metro,
		"geoNetwork.city"                                AS city,
		TRY_CAST("totals.hits" AS BIGINT)                AS hits,
		TRY_CAST("totals.pageviews" AS BIGINT)           AS pageviews,
		TRY_CAST("totals.bounces" AS BIGINT)             AS bounces,
		TRY_CAST("totals.newVisits" AS BIGINT)           AS new_visits,
		TRY_CAST("totals.transactionRevenue" AS DOUBLE)  AS transaction_revenue,
		"trafficSource.campaign"                         AS campaign,
		"trafficSource.source"                           AS source,
		"trafficSource.medium"                           AS medium
	FROM read_csv('%s', header = true, all_varchar = true)`, escaped)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin load transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM visits"); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to clear visits table: %w", err)
	}

	res, err := tx.ExecContext(ctx, load)
	if err != nil {
		_ = tx.Rollback()
		db.instrument("load_csv", start, err)
		return 0, fmt.Errorf("failed to load CSV %s: %w", path, err)
	}

	if err := tx.Commit(); err != nil {
		db.instrument("load_csv", start, err)
		return 0, fmt.Errorf("failed to commit load: %w", err)
	}

	rows, _ := res.RowsAffected()
	metrics.DatasetRowsLoaded.Set(float64(rows))
	db.instrument("load_csv", start, nil)

	logging.Info().
		Int64("rows", rows).
		Str("path", path).
		Dur("elapsed", time.Since(start)).
		Msg("Visits table loaded")
	return rows, nil
}
