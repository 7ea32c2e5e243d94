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

// GetVisitAnalytics computes the visit-timing query family: visits per UTC
// hour, average revenue per weekday (Monday = 0) and engagement per visit
// rank.
func (db *DB) GetVisitAnalytics(ctx context.Context) (*models.VisitAnalytics, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()

	out := &models.VisitAnalytics{}

	var err error
	if out.VisitsByHour, err = db.visitsByHour(ctx); err != nil {
		db.instrument("visit_analytics", start, err)
		return nil, err
	}
	if out.RevenueByWeekday, err = db.revenueByWeekday(ctx); err != nil {
		db.instrument("visit_analytics", start, err)
		return nil, err
	}
	if out.ByVisitNumber, err = db.byVisitNumber(ctx); err != nil {
		db.instrument("visit_analytics", start, err)
		return nil, err
	}

	db.instrument("visit_analytics", start, nil)
	return out, nil
}

func (db *DB) visitsByHour(ctx context.Context) ([]models.HourVisits, error) {
	const query = `
	SELECT
		HOUR(TO_TIMESTAMP(visit_start_time)) AS hour,
		COUNT(*)                             AS visits
	FROM visits
	WHERE visit_start_time IS NOT NULL
	GROUP BY hour
	ORDER BY hour`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query visits by hour: %w", err)
	}

	var out []models.HourVisits
	err = collectRows(rows, "visits_by_hour", func(r *sql.Rows) error {
		var hv models.HourVisits
		if err := r.Scan(&hv.Hour, &hv.Visits); err != nil {
			return err
		}
		out = append(out, hv)
		return nil
	})
	return out, err
}

func (db *DB) revenueByWeekday(ctx context.Context) ([]models.WeekdayRevenue, error) {
	// DAYOFWEEK is Sunday-based; shift so Monday = 0.
	const query = `
	SELECT
		CAST((DAYOFWEEK(visit_date) + 6) % 7 AS INTEGER) AS weekday,
		AVG(COALESCE(transaction_revenue, 0))            AS avg_revenue
	FROM visits
	WHERE visit_date IS NOT NULL
	GROUP BY weekday
	ORDER BY weekday`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue by weekday: %w", err)
	}

	var out []models.WeekdayRevenue
	err = collectRows(rows, "revenue_by_weekday", func(r *sql.Rows) error {
		var wr models.WeekdayRevenue
		if err := r.Scan(&wr.Weekday, &wr.AvgRevenue); err != nil {
			return err
		}
		out = append(out, wr)
		return nil
	})
	return out, err
}

func (db *DB) byVisitNumber(ctx context.Context) ([]models.VisitNumberStats, error) {
	// The long tail of visit ranks is noise; the first twenty tell the
	// repeat-visit story.
	const query = `
	SELECT
		visit_number                          AS visit_number,
		COUNT(*)                              AS visits,
		AVG(COALESCE(transaction_revenue, 0)) AS avg_revenue,
		AVG(COALESCE(pageviews, 0))           AS avg_pageviews
	FROM visits
	WHERE visit_number IS NOT NULL
	GROUP BY visit_number
	ORDER BY visit_number
	LIMIT 20`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query visit-number stats: %w", err)
	}

	var out []models.VisitNumberStats
	err = collectRows(rows, "by_visit_number", func(r *sql.Rows) error {
		var vs models.VisitNumberStats
		if err := r.Scan(&vs.VisitNumber, &vs.Visits, &vs.AvgRevenue, &vs.AvgPageviews); err != nil {
			return err
		}
		out = append(out, vs)
		return nil
	})
	return out, err
}
