// Revenuescope - Clickstream Revenue Analytics and Prediction
// Copyright 2026 Revenuescope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/revenuescope/revenuescope

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/revenuescope/revenuescope/internal/models"
)

// GetDatasetStats returns the dataset overview: row count, date span,
// revenue totals, bounce rate and the daily revenue trend. Revenue nulls
// count as zero in totals but a transaction is only a row with positive
// recorded revenue.
func (db *DB) GetDatasetStats(ctx context.Context) (*models.DatasetStats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()

	const query = `
	SELECT
		COUNT(*)                                              AS total_visits,
		COALESCE(STRFTIME(MIN(visit_date), '%Y-%m-%d'), '')   AS first_date,
		COALESCE(STRFTIME(MAX(visit_date), '%Y-%m-%d'), '')   AS last_date,
		COALESCE(SUM(transaction_revenue), 0)                 AS total_revenue,
		COALESCE(AVG(COALESCE(transaction_revenue, 0)), 0)    AS avg_revenue,
		COUNT(*) FILTER (WHERE transaction_revenue > 0)       AS transactions,
		COUNT(DISTINCT country)                               AS unique_countries,
		COALESCE(CAST(SUM(bounces) AS DOUBLE) / NULLIF(COUNT(*), 0), 0) AS bounce_rate
	FROM visits`

	var s models.DatasetStats
	err := db.conn.QueryRowContext(ctx, query).Scan(
		&s.TotalVisits, &s.FirstDate, &s.LastDate,
		&s.TotalRevenue, &s.AvgRevenue, &s.Transactions, &s.UniqueCountries,
		&s.BounceRate,
	)
	if err != nil {
		db.instrument("dataset_stats", start, err)
		return nil, fmt.Errorf("failed to query dataset stats: %w", err)
	}

	s.DailyRevenue, err = db.dailyRevenue(ctx)
	db.instrument("dataset_stats", start, err)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// dailyRevenue aggregates revenue per calendar day in date order.
func (db *DB) dailyRevenue(ctx context.Context) ([]models.DayRevenue, error) {
	const query = `
	SELECT
		STRFTIME(visit_date, '%Y-%m-%d')      AS day,
		COALESCE(SUM(transaction_revenue), 0) AS revenue
	FROM visits
	WHERE visit_date IS NOT NULL
	GROUP BY visit_date
	ORDER BY visit_date`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily revenue: %w", err)
	}

	var out []models.DayRevenue
	err = collectRows(rows, "daily_revenue", func(r *sql.Rows) error {
		var d models.DayRevenue
		if err := r.Scan(&d.Date, &d.Revenue); err != nil {
			return err
		}
		out = append(out, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// collectRows drains a row set through scan, wrapping iteration errors.
func collectRows(rows *sql.Rows, operation string, scan func(*sql.Rows) error) error {
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("failed to scan %s row: %w", operation, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate %s rows: %w", operation, err)
	}
	return nil
}
