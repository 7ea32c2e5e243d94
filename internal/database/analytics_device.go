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

// GetDeviceAnalytics computes the device query family: top browsers and
// operating systems, the device-category distribution with mobile share,
// and per-category revenue/engagement averages.
func (db *DB) GetDeviceAnalytics(ctx context.Context) (*models.DeviceAnalytics, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()

	out := &models.DeviceAnalytics{}

	var err error
	if out.TopBrowsers, err = db.topCounts(ctx, "browser"); err != nil {
		db.instrument("device_analytics", start, err)
		return nil, err
	}
	if out.TopOperatingSystems, err = db.topCounts(ctx, "operating_system"); err != nil {
		db.instrument("device_analytics", start, err)
		return nil, err
	}
	if err = db.categoryDistribution(ctx, out); err != nil {
		db.instrument("device_analytics", start, err)
		return nil, err
	}
	if err = db.categoryRevenue(ctx, out); err != nil {
		db.instrument("device_analytics", start, err)
		return nil, err
	}

	db.instrument("device_analytics", start, nil)
	return out, nil
}

// topCounts returns the ten most frequent values of a visits column. The
// column name is fixed by the caller, never user input.
func (db *DB) topCounts(ctx context.Context, column string) ([]models.NameCount, error) {
	query := fmt.Sprintf(`
	SELECT COALESCE(%s, 'Unknown') AS name, COUNT(*) AS cnt
	FROM visits
	GROUP BY name
	ORDER BY cnt DESC, name
	LIMIT 10`, column)

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query top %s: %w", column, err)
	}

	var out []models.NameCount
	err = collectRows(rows, column, func(r *sql.Rows) error {
		var nc models.NameCount
		if err := r.Scan(&nc.Name, &nc.Count); err != nil {
			return err
		}
		out = append(out, nc)
		return nil
	})
	return out, err
}

func (db *DB) categoryDistribution(ctx context.Context, out *models.DeviceAnalytics) error {
	const query = `
	SELECT
		COALESCE(device_category, 'Unknown') AS category,
		COUNT(*)                             AS cnt,
		COUNT(*) * 1.0 / SUM(COUNT(*)) OVER () AS share
	FROM visits
	GROUP BY category
	ORDER BY cnt DESC`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query category distribution: %w", err)
	}

	err = collectRows(rows, "category_distribution", func(r *sql.Rows) error {
		var cs models.CategoryShare
		if err := r.Scan(&cs.Category, &cs.Count, &cs.Share); err != nil {
			return err
		}
		if cs.Category == "mobile" {
			out.MobileShare = cs.Share
		}
		out.CategoryDistribution = append(out.CategoryDistribution, cs)
		return nil
	})
	return err
}

func (db *DB) categoryRevenue(ctx context.Context, out *models.DeviceAnalytics) error {
	const query = `
	SELECT
		COALESCE(device_category, 'Unknown')    AS category,
		AVG(COALESCE(transaction_revenue, 0))   AS avg_revenue,
		AVG(COALESCE(pageviews, 0))             AS avg_pageviews
	FROM visits
	GROUP BY category
	ORDER BY avg_revenue DESC`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query category revenue: %w", err)
	}

	err = collectRows(rows, "category_revenue", func(r *sql.Rows) error {
		var cr models.CategoryRevenue
		if err := r.Scan(&cr.Category, &cr.AvgRevenue, &cr.AvgPageviews); err != nil {
			return err
		}
		out.CategoryRevenue = append(out.CategoryRevenue, cr)
		return nil
	})
	return err
}
